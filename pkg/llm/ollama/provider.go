package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"

	"travel-chat-be/internal/constant"
	"travel-chat-be/pkg/llm"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements StreamProvider
var _ llm.StreamProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		// No client timeout: generation length is open-ended and the
		// stream is bounded by the backend closing the connection.
		Client: &http.Client{},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Options *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaGenerateChunk is one newline-delimited record of the stream.
// Response is a pointer so a present-but-empty fragment still counts.
type ollamaGenerateChunk struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

// Stream posts the prompt to /api/generate and emits each response
// fragment in arrival order. Failures never surface as errors: a non-OK
// status or transport failure yields exactly one marker fragment and
// the channel closes. Malformed records are skipped, not fatal.
func (o *OllamaProvider) Stream(ctx context.Context, prompt string, opts ...llm.Option) <-chan string {
	options := &llm.Options{}
	for _, opt := range opts {
		opt(options)
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	reqPayload := ollamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
	}
	if options.Temperature > 0 || options.MaxTokens > 0 {
		reqPayload.Options = &ollamaOptions{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		}
	}

	out := make(chan string)
	go func() {
		defer close(out)

		payloadBytes, err := json.Marshal(reqPayload)
		if err != nil {
			log.Printf("[ERROR] Ollama marshal request: %v", err)
			out <- constant.ChatUnexpectedErrorMarker
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", o.BaseURL+"/api/generate", bytes.NewBuffer(payloadBytes))
		if err != nil {
			log.Printf("[ERROR] Ollama create request: %v", err)
			out <- constant.ChatUnexpectedErrorMarker
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.Client.Do(req)
		if err != nil {
			log.Printf("[ERROR] Ollama request failed: %v", err)
			out <- constant.ChatUnexpectedErrorMarker
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Printf("[ERROR] Ollama API error: status %d", resp.StatusCode)
			out <- constant.ChatBackendErrorMarker
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk ollamaGenerateChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				log.Printf("[WARN] Ollama skipping malformed record: %v", err)
				continue
			}

			if chunk.Response != nil {
				out <- *chunk.Response
			}
			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			log.Printf("[WARN] Ollama stream ended early: %v", err)
		}
	}()

	return out
}
