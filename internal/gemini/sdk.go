package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/genai"
)

// SDKClient talks to Gemini through the official Go SDK instead of raw REST.
type SDKClient struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewSDK(ctx context.Context, opts Options) (*SDKClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}

	cfg := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.HTTPOptions.BaseURL = base + "/"
	}
	if v := strings.TrimSpace(opts.APIVersion); v != "" {
		cfg.HTTPOptions.APIVersion = v
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &SDKClient{client: client, model: model, logger: logger}, nil
}

func (c *SDKClient) GenerateContent(ctx context.Context, req Request) (Response, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Response{}, errors.New("prompt is empty")
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(stripDataURLPrefix(img.DataBase64))
		if err != nil {
			return Response{}, fmt.Errorf("decode image: %w", err)
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: img.MimeType, Data: data}})
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](defaultTemperature),
	}

	res, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return Response{}, err
	}

	var out strings.Builder
	if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
		for _, p := range res.Candidates[0].Content.Parts {
			if p.Thought {
				continue
			}
			out.WriteString(p.Text)
		}
	}

	c.logger.Debug("genai generateContent", "model", c.model, "images", len(req.Images))
	return Response{Text: out.String()}, nil
}
