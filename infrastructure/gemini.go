package infrastructure

import (
	"context"
	"encoding/base64"
	"fmt"

	"rifa/domain/entities"

	"google.golang.org/genai"
)

const (
	geminiTextModel = "gemini-2.0-flash"
	// Image-capable model; responses carry the image as inline base64 data.
	geminiImageModel = "gemini-2.5-flash-image"
)

// GeminiClient produces raffle descriptions, winner announcements and prize
// images through the Gemini API. Every failure is returned to the caller,
// which substitutes the static fallback content.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini client. An empty API key is allowed; the
// resulting calls fail and callers fall back to default content.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return &GeminiClient{}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// GenerateDescription produces promotional text for the raffle page.
func (c *GeminiClient) GenerateDescription(ctx context.Context, prizeName, instruction string) (string, error) {
	prompt := fmt.Sprintf(
		"Escreva uma descrição empolgante e vendedora para uma rifa cujo prêmio principal é %q. "+
			"Destaque o valor de 1 milhão de números e a chance de ganhar. Use emojis.", prizeName)
	if instruction != "" {
		prompt = fmt.Sprintf("%s\n\nInstrução adicional: %s", prompt, instruction)
	}

	return c.generateText(ctx, prompt)
}

// AnnounceWinner produces the festive winner announcement.
func (c *GeminiClient) AnnounceWinner(ctx context.Context, winnerName, prizeName string, number int64) (string, error) {
	prompt := fmt.Sprintf(
		"Escreva um anúncio de vencedor para uma rifa. O vencedor é %q, o prêmio é %q "+
			"e o número sorteado foi %q. Seja festivo e use emojis!",
		winnerName, prizeName, entities.FormatNumber(number))

	return c.generateText(ctx, prompt)
}

// GenerateImage produces a prize image as a base64 data URI.
func (c *GeminiClient) GenerateImage(ctx context.Context, prizeName string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("gemini API key not configured")
	}

	prompt := fmt.Sprintf(
		"A professional product photography of %s. High quality, cinematic lighting, "+
			"16:9 aspect ratio, clean background, luxury feel.", prizeName)

	response, err := c.client.Models.GenerateContent(ctx, geminiImageModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return "", fmt.Errorf("gemini image request failed: %w", err)
	}

	for _, candidate := range response.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil {
				data := base64.StdEncoding.EncodeToString(part.InlineData.Data)
				return fmt.Sprintf("data:%s;base64,%s", part.InlineData.MIMEType, data), nil
			}
		}
	}
	return "", fmt.Errorf("gemini response contained no image data")
}

func (c *GeminiClient) generateText(ctx context.Context, prompt string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("gemini API key not configured")
	}

	response, err := c.client.Models.GenerateContent(ctx, geminiTextModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := response.Text()
	if text == "" {
		return "", fmt.Errorf("gemini response contained no text")
	}
	return text, nil
}
