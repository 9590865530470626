package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"travel-chat-be/internal/constant"
	"travel-chat-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
)

// Requires a local Ollama daemon with the model pulled, e.g.:
//
//	OLLAMA_INTEGRATION_MODEL=phi3 go test ./test/integration/...
func TestOllamaStreamAgainstLocalDaemon(t *testing.T) {
	model := os.Getenv("OLLAMA_INTEGRATION_MODEL")
	if model == "" {
		t.Skip("Skipping integration test: OLLAMA_INTEGRATION_MODEL not set")
	}

	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	provider := ollama.NewOllamaProvider(baseURL, model)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var sb strings.Builder
	for fragment := range provider.Stream(ctx, "user: Reply with one short sentence about Paris.") {
		sb.WriteString(fragment)
	}
	reply := strings.TrimSpace(sb.String())

	t.Logf("Ollama reply: %s", reply)
	assert.NotEmpty(t, reply)
	assert.NotEqual(t, constant.ChatBackendErrorMarker, reply)
	assert.NotEqual(t, constant.ChatUnexpectedErrorMarker, reply)
}
