package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_UnconfiguredKeyFailsEveryCall(t *testing.T) {
	ctx := context.Background()

	client, err := NewGeminiClient(ctx, "")
	require.NoError(t, err)

	// Each call errors so callers substitute the static fallback content.
	_, err = client.GenerateDescription(ctx, "PIX DA SORTE", "")
	assert.Error(t, err)

	_, err = client.AnnounceWinner(ctx, "Maria Silva", "PIX DA SORTE", 42)
	assert.Error(t, err)

	_, err = client.GenerateImage(ctx, "PIX DA SORTE")
	assert.Error(t, err)
}
