package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-decision-go/internal/types"
)

func chatCompletion(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func TestGatewayReasoner_ParsesChoicesContent(t *testing.T) {
	classification := `{"type": "Anulación de póliza", "ramo": "hogar", "priority": "medium", "confidence": 0.85}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, chatCompletion("```json\n"+classification+"\n```"))
	}))
	defer srv.Close()

	g, err := NewGatewayReasoner(srv.URL, "test-key", "gpt-4o-mini")
	require.NoError(t, err)

	raw, err := g.Classify(context.Background(), Input{Dialogue: "user: quiero anular mi póliza"})
	require.NoError(t, err)
	assert.Equal(t, types.IncidentCancellation, raw.Type)
	assert.Equal(t, "hogar", raw.Ramo)
	assert.Equal(t, 0.85, raw.Confidence)
}

func TestGatewayReasoner_FourXXIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	g, err := NewGatewayReasoner(srv.URL, "bad-key", "gpt-4o-mini")
	require.NoError(t, err)

	_, err = g.Classify(context.Background(), Input{Dialogue: "user: hola"})
	var unavailable *ReasoningUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, 1, calls)
}

func TestGatewayReasoner_RequiresConfiguration(t *testing.T) {
	_, err := NewGatewayReasoner("", "key", "model")
	assert.Error(t, err)
	_, err = NewGatewayReasoner("http://localhost", "", "model")
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"nested braces", `prefix {"a": {"b": 2}} suffix`, `{"a": {"b": 2}}`},
		{"no object", "sin datos", ""},
		{"unbalanced", `{"a": 1`, ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}
