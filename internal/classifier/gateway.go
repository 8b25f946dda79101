package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"call-decision-go/internal/logger"
)

// GatewayReasoner talks to an OpenAI-compatible chat-completions gateway.
type GatewayReasoner struct {
	url          string
	apiKey       string
	model        string
	httpTimeout  time.Duration
	maxRetryTime time.Duration
	client       *http.Client
}

func NewGatewayReasoner(url, apiKey, model string) (*GatewayReasoner, error) {
	if url == "" || apiKey == "" {
		return nil, fmt.Errorf("llm gateway not configured")
	}
	httpTimeout := 25 * time.Second
	return &GatewayReasoner{
		url:          url,
		apiKey:       apiKey,
		model:        model,
		httpTimeout:  httpTimeout,
		maxRetryTime: 45 * time.Second,
		client:       &http.Client{Timeout: httpTimeout},
	}, nil
}

func (g *GatewayReasoner) Name() string { return "gateway" }

func (g *GatewayReasoner) Classify(ctx context.Context, in Input) (RawClassification, error) {
	log := logger.Component("reasoner-gateway").WithField("conversation_id", in.ConversationID)

	prompt := BuildPrompt(in)
	reqBody := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.0,
	}
	data, _ := json.Marshal(reqBody)

	var out RawClassification
	var lastErr error

	op := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, g.httpTimeout)
		defer cancel()

		req, _ := http.NewRequestWithContext(reqCtx, http.MethodPost, g.url, bytes.NewReader(data))
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = err
			log.WithField("error", err.Error()).Warn("llm request failed")
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		log.WithField("http_status", resp.StatusCode).Debug("llm response received")

		// Try choices[0].message.content (OpenAI-like) first.
		if inner := contentFromChoices(body); inner != "" {
			if err := json.Unmarshal([]byte(inner), &out); err == nil {
				lastErr = nil
				return nil
			}
		}
		// Fallback: first balanced JSON object anywhere in the body.
		if fallback := extractJSON(string(body)); fallback != "" {
			if err := json.Unmarshal([]byte(fallback), &out); err == nil {
				lastErr = nil
				return nil
			}
		}

		lastErr = fmt.Errorf("no usable JSON in llm output")
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not get better on retry.
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = g.maxRetryTime

	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return RawClassification{}, &ReasoningUnavailableError{Provider: g.Name(), Err: lastErr}
	}
	return out, nil
}

// contentFromChoices reads an OpenAI-style choices[0].message.content and
// recovers the JSON document inside it.
func contentFromChoices(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	choices, ok := obj["choices"].([]any)
	if !ok || len(choices) == 0 {
		return ""
	}
	c0, _ := choices[0].(map[string]any)
	if c0 == nil {
		return ""
	}
	msg, _ := c0["message"].(map[string]any)
	if msg == nil {
		return ""
	}
	content, _ := msg["content"].(string)
	return extractJSON(content)
}

// extractJSON finds the first balanced JSON object in a string, stripping
// the markdown fences LLMs commonly wrap output in.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
