package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"call-decision-go/internal/logger"
)

// GeminiReasoner classifies through Google's Gemini API.
type GeminiReasoner struct {
	client  *genai.Client
	modelID string
}

func NewGeminiReasoner(ctx context.Context, apiKey, modelID string) (*GeminiReasoner, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiReasoner{client: client, modelID: modelID}, nil
}

func (g *GeminiReasoner) Name() string { return "gemini" }

func (g *GeminiReasoner) Close() error { return g.client.Close() }

func (g *GeminiReasoner) Classify(ctx context.Context, in Input) (RawClassification, error) {
	log := logger.Component("reasoner-gemini").WithField("conversation_id", in.ConversationID)

	model := g.client.GenerativeModel(g.modelID)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(BuildPrompt(in)))
	if err != nil {
		return RawClassification{}, &ReasoningUnavailableError{Provider: g.Name(), Err: err}
	}
	if len(resp.Candidates) == 0 {
		return RawClassification{}, &ReasoningUnavailableError{Provider: g.Name(), Err: errors.New("no candidates returned")}
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return RawClassification{}, &ReasoningUnavailableError{Provider: g.Name(), Err: errors.New("empty content returned")}
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	doc := extractJSON(text.String())
	if doc == "" {
		return RawClassification{}, &ReasoningUnavailableError{Provider: g.Name(), Err: errors.New("no JSON in model output")}
	}
	var out RawClassification
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return RawClassification{}, &ReasoningUnavailableError{Provider: g.Name(), Err: fmt.Errorf("decode model output: %w", err)}
	}
	log.WithField("finish_reason", candidate.FinishReason.String()).Debug("gemini classification parsed")
	return out, nil
}
