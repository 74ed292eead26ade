package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
)

const systemInstruction = `You convert cloud architecture diagrams into Terraform HCL.
Follow the file demarcation rules in the user message exactly and never add prose outside file blocks.`

const defaultTemperature = 0.4

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// APIError is returned for non-2xx responses from the Gemini REST API.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Reason     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return fmt.Sprintf("gemini API %s: %s", e.Status, msg)
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) GenerateContent(ctx context.Context, req Request) (Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Response{}, errors.New("prompt is empty")
	}

	payload := generateContentRequest{
		Contents:          []content{{Role: "user", Parts: buildParts(prompt, req.Images)}},
		SystemInstruction: &content{Role: "user", Parts: []part{{Text: systemInstruction}}},
		GenerationConfig:  generationConfig{Temperature: defaultTemperature},
	}

	start := time.Now()
	resp, err := c.generateContent(ctx, c.model, payload)
	c.logger.Debug("gemini generateContent",
		"model", c.model,
		"images", len(req.Images),
		"dur_ms", time.Since(start).Milliseconds(),
		"ok", err == nil,
	)
	return resp, err
}

// buildParts puts the images ahead of the instruction text.
func buildParts(prompt string, images []ImageInput) []part {
	parts := make([]part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, part{
			InlineData: &blob{
				Data:     stripDataURLPrefix(img.DataBase64),
				MimeType: img.MimeType,
			},
		})
	}
	return append(parts, part{Text: prompt})
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (Response, error) {
	if c.httpClient == nil {
		return Response{}, errors.New("http client is nil")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return Response{}, decodeAPIError(httpResp, rawBody)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}

	return Response{Text: extractText(decoded)}, nil
}

func decodeAPIError(resp *http.Response, rawBody []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Message:    strings.TrimSpace(string(rawBody)),
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		for _, d := range envelope.Error.Details {
			if d.Reason != "" {
				apiErr.Reason = d.Reason
				break
			}
		}
	}
	return apiErr
}

func extractText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}

	var textBuilder strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Thought {
			continue
		}
		textBuilder.WriteString(p.Text)
	}
	return textBuilder.String()
}

type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
	Thought    bool   `json:"thought,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

func stripDataURLPrefix(value string) string {
	if !strings.HasPrefix(value, "data:") {
		return value
	}
	if idx := strings.IndexByte(value, ','); idx >= 0 {
		return value[idx+1:]
	}
	return value
}
