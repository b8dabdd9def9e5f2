package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NikiShestakov/tg/internal/config"
)

func geminiReply(t *testing.T, jsonText string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{map[string]any{"text": jsonText}},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGemini(config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
		APIBase: srv.URL,
	})
}

func TestExtractParsesFields(t *testing.T) {
	g := newTestGemini(t, geminiReply(t, `{"name":"Маша","age":21,"height":177,"weight":null,"measurements":"90/60/90","about":null}`))

	fields, err := g.Extract(context.Background(), "Маша\n21 год, рост 177")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if fields.Name == nil || *fields.Name != "Маша" {
		t.Errorf("name = %v, want Маша", fields.Name)
	}
	if fields.Age == nil || *fields.Age != 21 {
		t.Errorf("age = %v, want 21", fields.Age)
	}
	if fields.Height == nil || *fields.Height != 177 {
		t.Errorf("height = %v, want 177", fields.Height)
	}
	if fields.Weight != nil {
		t.Errorf("weight = %v, want nil", *fields.Weight)
	}
	if fields.About != nil {
		t.Errorf("about = %v, want nil", *fields.About)
	}
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	g := newTestGemini(t, geminiReply(t, "```json\n{\"name\":\"Олег\",\"age\":28,\"height\":null,\"weight\":null,\"measurements\":null,\"about\":null}\n```"))

	fields, err := g.Extract(context.Background(), "я Олег, 28 лет")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fields.Name == nil || *fields.Name != "Олег" {
		t.Errorf("name = %v, want Олег", fields.Name)
	}
}

func TestExtractAllFieldsAbsent(t *testing.T) {
	g := newTestGemini(t, geminiReply(t, `{"name":null,"age":null,"height":null,"weight":null,"measurements":null,"about":null}`))

	fields, err := g.Extract(context.Background(), "[ФОТО ПРИКРЕПЛЕНО]")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if fields.Name != nil || fields.Age != nil || fields.Height != nil ||
		fields.Weight != nil || fields.Measurements != nil || fields.About != nil {
		t.Errorf("expected all fields nil, got %+v", fields)
	}
}

func TestExtractMalformedOutput(t *testing.T) {
	g := newTestGemini(t, geminiReply(t, "sorry, I cannot help with that"))

	if _, err := g.Extract(context.Background(), "text"); err == nil {
		t.Error("expected error for non-JSON model output")
	}
}

func TestExtractServerError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	})

	if _, err := g.Extract(context.Background(), "text"); err == nil {
		t.Error("expected error for HTTP 400")
	}
}

func TestExtractRetriesOn500(t *testing.T) {
	calls := 0
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "transient", http.StatusInternalServerError)
			return
		}
		geminiReply(t, `{"name":null,"age":null,"height":null,"weight":null,"measurements":null,"about":null}`)(w, r)
	})

	if _, err := g.Extract(context.Background(), "text"); err != nil {
		t.Fatalf("Extract after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"fenced with lang", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
