// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
)

// Suggester abstracts the AI term-suggestion API so tests can supply a
// mock. Implementations return additional related/synonym keywords for an
// unmatched query string.
type Suggester interface {
	Name() string
	Suggest(ctx context.Context, query string) ([]string, error)
}

// suggestionPromptTmpl asks the model for Korean academic-database search
// keywords. The model must reply with a bare JSON array of strings.
var suggestionPromptTmpl = template.Must(template.New("suggestion").Parse(`사용자가 다음과 같이 검색했습니다: "{{.Query}}"
한국어 학술 데이터베이스 검색에 적합하도록 핵심 키워드 5~8개를 생성하세요.
불용어를 제거하고, 동의어와 관련어를 포함하세요.
JSON 배열(list) 형태로만 출력하세요. 예: ["키워드1", "키워드2"]
`))

// openAIChatURL is the chat completions endpoint. Package-level var for
// test substitution.
var openAIChatURL = "https://api.openai.com/v1/chat/completions"

// OpenAIBackend suggests search terms via an OpenAI-compatible chat
// completions API.
type OpenAIBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string { return "openai" }

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the response body from the chat completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// Suggest calls the chat API once and parses the JSON-array reply. There is
// no retry here: a failed suggestion degrades the caller to table-only
// terms.
func (b *OpenAIBackend) Suggest(ctx context.Context, query string) ([]string, error) {
	if b.APIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}

	prompt, err := renderSuggestionPrompt(query)
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	reqBody := chatRequest{
		Model:       b.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling chat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("chat API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if len(cResp.Choices) == 0 {
		return nil, fmt.Errorf("chat API returned no choices")
	}

	return parseTermArray(cResp.Choices[0].Message.Content)
}

// parseTermArray extracts a JSON array of strings from the model reply,
// tolerating a Markdown code fence around it.
func parseTermArray(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var raw []string
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parsing suggestion JSON: %w", err)
	}

	var terms []string
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms, nil
}

func renderSuggestionPrompt(query string) (string, error) {
	var buf bytes.Buffer
	if err := suggestionPromptTmpl.Execute(&buf, struct{ Query string }{Query: query}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
