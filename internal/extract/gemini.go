package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/NikiShestakov/tg/internal/config"
	"github.com/NikiShestakov/tg/internal/store"
)

const (
	requestTimeout = 60 * time.Second
	maxRetries     = 3
)

// Gemini calls Google's generateContent API to parse free-form submission
// text into structured profile fields.
type Gemini struct {
	apiKey  string
	apiBase string
	model   string
	client  *http.Client
}

// NewGemini creates an extraction client from config.
func NewGemini(cfg config.GeminiConfig) *Gemini {
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://generativelanguage.googleapis.com/v1beta"
	}
	return &Gemini{
		apiKey:  cfg.APIKey,
		apiBase: apiBase,
		model:   cfg.Model,
		client:  &http.Client{Timeout: requestTimeout},
	}
}

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Extract sends combinedText to the model and parses the JSON reply.
// Absent fields come back nil; the call errors only on transport failure or
// malformed output, never on missing fields.
func (g *Gemini) Extract(ctx context.Context, combinedText string) (*store.ProfileFields, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: combinedText}}}},
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.2,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	raw, err := g.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	var fields store.ProfileFields
	if err := json.Unmarshal([]byte(stripFences(raw)), &fields); err != nil {
		return nil, fmt.Errorf("gemini: malformed extraction output: %w", err)
	}
	return &fields, nil
}

// doRequest POSTs the request with retry on transient failures and returns
// the model's text output.
func (g *Gemini) doRequest(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", g.apiBase, g.model)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt-1) * 2 * time.Second):
			}
			slog.Debug("retrying gemini request", "attempt", attempt, "error", lastErr)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("gemini: build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", g.apiKey)

		resp, err := g.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("gemini: request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("gemini: read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("gemini: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gemini: status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		}

		var parsed geminiResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return "", fmt.Errorf("gemini: decode response: %w", err)
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return "", fmt.Errorf("gemini: empty response")
		}
		return parsed.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("gemini: all %d attempts failed: %w", maxRetries, lastErr)
}

var fenceRe = regexp.MustCompile("(?s)^```(?:\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// stripFences unwraps a markdown code fence in case the model ignores the
// JSON-only instruction.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
