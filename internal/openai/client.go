// Package openai is a minimal client for the two generative endpoints the
// pipeline needs: chat completions (prompt and quotation text) and image
// generation (stat-card artwork).
//
// WHY NOT AN SDK?
// The surface we use is two POST endpoints with small JSON bodies. A
// hand-rolled net/http client keeps the dependency surface small and makes
// the request/response shapes explicit — and trivially fakeable with
// httptest in tests.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/github-wrapped/internal/config"
)

// ChatMessage is one entry of a chat-completion conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "system" or "user"
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

type imageRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	N       int    `json:"n"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Client calls the OpenAI-compatible HTTP API.
type Client struct {
	baseURL      string
	apiKey       string
	imageModel   string
	imageSize    string
	imageQuality string
	httpClient   *http.Client
}

// NewClient builds a Client from config.
func NewClient(cfg config.OpenAIConfig) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		imageModel:   cfg.ImageModel,
		imageSize:    cfg.ImageSize,
		imageQuality: cfg.ImageQuality,
		httpClient: &http.Client{
			// Generative calls are slow; this bounds a single call, while the
			// caller's context bounds the whole pipeline run.
			Timeout: 2 * time.Minute,
		},
	}
}

// ChatCompletion sends a system + user instruction pair to the given model
// and returns the content of the first choice.
//
// Errors here are plain errors — the generator layer decides whether to fall
// back to another model tier before classifying the failure.
func (c *Client) ChatCompletion(ctx context.Context, model, system, user string) (string, error) {
	req := chatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var resp chatResponse
	if err := c.post(ctx, "/v1/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage submits a prompt for one square image at the configured
// resolution and quality tier, and returns the remote image URL. The image
// bytes are never downloaded — the URL is stored as-is.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	req := imageRequest{
		Model:   c.imageModel,
		Prompt:  prompt,
		N:       1,
		Size:    c.imageSize,
		Quality: c.imageQuality,
	}

	var resp imageResponse
	if err := c.post(ctx, "/v1/images/generations", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("image generation returned no image URL")
	}
	return resp.Data[0].URL, nil
}

// post performs one JSON POST with bearer auth and decodes the response.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling OpenAI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Include a clipped body excerpt — OpenAI error payloads say WHY
		// (bad model name, quota exceeded) and that belongs in the logs.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("OpenAI returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding OpenAI response: %w", err)
	}
	return nil
}
