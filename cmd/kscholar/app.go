// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/learninglab/kscholar/internal/collect"
	"github.com/learninglab/kscholar/internal/normalize"
	"github.com/learninglab/kscholar/internal/pipeline"
	"github.com/learninglab/kscholar/internal/termtable"
	"github.com/learninglab/kscholar/pkg/types"
)

// Configuration defaults. Everything is overridable through kscholar.yaml
// or KSCHOLAR_* environment variables.
const (
	defaultUserAgent = "kscholar/1.0"
	defaultTablePath = "keyword_mapping.csv"
	defaultDataDir   = ".kscholar"
	defaultModel     = "gpt-4o-mini"
	defaultAddr      = ":8080"
)

func init() {
	viper.SetDefault("search.timeout", "30s")
	viper.SetDefault("search.user_agent", defaultUserAgent)
	viper.SetDefault("search.enable_kci", true)
	viper.SetDefault("search.enable_riss", true)
	viper.SetDefault("search.detail_workers", 5)
	viper.SetDefault("normalizer.table_path", defaultTablePath)
	viper.SetDefault("normalizer.model", defaultModel)
	viper.SetDefault("history.dir", defaultDataDir)
	viper.SetDefault("serve.addr", defaultAddr)
}

// loadConfig assembles the pipeline configuration from viper, filling API
// keys from the secrets directory and environment where the config file
// left them empty.
func loadConfig() types.PipelineConfig {
	var cfg types.PipelineConfig
	cfg.Search = types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("search.timeout"),
			UserAgent: viper.GetString("search.user_agent"),
		},
		MaxResults:        viper.GetInt("search.max_results"),
		EnableKCI:         viper.GetBool("search.enable_kci"),
		EnableRISS:        viper.GetBool("search.enable_riss"),
		KCIAPIKey:         viper.GetString("search.kci_api_key"),
		RISSAPIKey:        viper.GetString("search.riss_api_key"),
		DocType:           viper.GetString("search.doc_type"),
		FetchDetails:      viper.GetBool("search.fetch_details"),
		DetailWorkers:     viper.GetInt("search.detail_workers"),
		InterBackendDelay: viper.GetDuration("search.inter_backend_delay"),
	}
	cfg.Normalizer = types.NormalizerConfig{
		AIConfig: types.AIConfig{
			Model:  viper.GetString("normalizer.model"),
			APIKey: viper.GetString("normalizer.api_key"),
		},
		TablePath: viper.GetString("normalizer.table_path"),
		MaxTerms:  viper.GetInt("normalizer.max_terms"),
		UseAI:     viper.GetBool("normalizer.use_ai"),
	}
	cfg.History = types.HistoryConfig{Dir: viper.GetString("history.dir")}
	cfg.Serve = types.ServeConfig{Addr: viper.GetString("serve.addr")}

	if cfg.Search.KCIAPIKey == "" {
		cfg.Search.KCIAPIKey = loadedSecrets.KCIKey()
	}
	if cfg.Search.RISSAPIKey == "" {
		cfg.Search.RISSAPIKey = loadedSecrets.RISSKey()
	}
	if cfg.Normalizer.APIKey == "" {
		cfg.Normalizer.APIKey = loadedSecrets.OpenAIKey()
	}
	return cfg
}

func httpClient(cfg types.HTTPConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// newCollectors builds the enabled backends. Keys are checked at search
// time by the collectors themselves, so a missing key surfaces as an
// authentication error rather than a silent skip.
func newCollectors(cfg types.SearchConfig) ([]collect.Collector, error) {
	client := httpClient(cfg.HTTPConfig)

	var collectors []collect.Collector
	if cfg.EnableKCI {
		collectors = append(collectors, &collect.KCICollector{
			Client:    client,
			APIKey:    cfg.KCIAPIKey,
			UserAgent: cfg.UserAgent,
		})
	}
	if cfg.EnableRISS {
		collectors = append(collectors, &collect.RISSCollector{
			Client:    client,
			APIKey:    cfg.RISSAPIKey,
			UserAgent: cfg.UserAgent,
		})
	}
	if len(collectors) == 0 {
		return nil, fmt.Errorf("both backends are disabled; enable search.enable_kci or search.enable_riss")
	}
	return collectors, nil
}

// newNormalizer builds the query normalizer. A missing term table degrades
// to an empty table with a warning on stderr; a missing OpenAI key just
// disables the suggestion step.
func newNormalizer(cfg types.NormalizerConfig, httpCfg types.HTTPConfig) (*normalize.Normalizer, error) {
	table, warnings, err := termtable.Load(cfg.TablePath)
	if err != nil {
		return nil, fmt.Errorf("loading term table: %w", err)
	}
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	var ai normalize.Suggester
	if cfg.APIKey != "" {
		ai = &normalize.OpenAIBackend{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Client: httpClient(httpCfg),
		}
	}
	return normalize.New(table, ai, cfg), nil
}

func newPipeline(cfg types.PipelineConfig) (*pipeline.Pipeline, error) {
	normalizer, err := newNormalizer(cfg.Normalizer, cfg.Search.HTTPConfig)
	if err != nil {
		return nil, err
	}
	collectors, err := newCollectors(cfg.Search)
	if err != nil {
		return nil, err
	}
	return &pipeline.Pipeline{
		Normalizer:    normalizer,
		Collectors:    collectors,
		Workers:       cfg.Search.DetailWorkers,
		StrategyDelay: cfg.Search.InterBackendDelay,
	}, nil
}
