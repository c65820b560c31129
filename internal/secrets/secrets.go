// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key
// name and the file contents (trimmed) are the value. The environment is a
// fallback for keys no file provides.
//
// Supported key files: kci-api-key, riss-api-key, openai-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key file names and their environment fallbacks.
const (
	KCIKeyFile    = "kci-api-key"
	RISSKeyFile   = "riss-api-key"
	OpenAIKeyFile = "openai-api-key"

	kciKeyEnv    = "KCI_API_KEY"
	rissKeyEnv   = "RISS_API_KEY"
	openAIKeyEnv = "OPENAI_API_KEY"
)

// Store holds the loaded secrets.
type Store struct {
	values map[string]string
}

// Load reads all files in dir into a Store. A missing directory or missing
// files are not errors. Unreadable files produce a warning on stderr but do
// not abort.
func Load(dir string) (*Store, error) {
	values := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			values[name] = value
		}
	}

	return &Store{values: values}, nil
}

// Get returns the named secret, falling back to envKey when no file
// provided it.
func (s *Store) Get(name, envKey string) string {
	if v, ok := s.values[name]; ok {
		return v
	}
	if envKey != "" {
		return strings.TrimSpace(os.Getenv(envKey))
	}
	return ""
}

// KCIKey returns the KCI open API key.
func (s *Store) KCIKey() string { return s.Get(KCIKeyFile, kciKeyEnv) }

// RISSKey returns the RISS open API key.
func (s *Store) RISSKey() string { return s.Get(RISSKeyFile, rissKeyEnv) }

// OpenAIKey returns the OpenAI API key used for term suggestion.
func (s *Store) OpenAIKey() string { return s.Get(OpenAIKeyFile, openAIKeyEnv) }

// Len returns the number of file-backed secrets loaded.
func (s *Store) Len() int { return len(s.values) }
