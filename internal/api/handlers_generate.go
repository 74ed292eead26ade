package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"diagram2terraform/internal/terraform"
)

type generateOnceResponse struct {
	Provider terraform.Provider        `json:"provider"`
	Files    []terraform.GeneratedFile `json:"files"`
	Warning  string                    `json:"warning,omitempty"`
}

// handleGenerateOnce runs a complete request on a throw-away workflow:
// multipart "image", "provider" and optional "tags".
func (s *Server) handleGenerateOnce(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, s.maxUploadBytes)

	header, err := c.FormFile("image")
	if err != nil {
		return NewBadRequestError("missing image", err)
	}
	img, err := readImage(header)
	if err != nil {
		return NewValidationError(err.Error())
	}

	provider, ok := terraform.ParseProvider(c.FormValue("provider"))
	if !ok {
		return NewValidationError("provider must be one of AWS, GCP, Azure")
	}

	tags, err := parseTagsField(c.FormValue("tags"))
	if err != nil {
		return NewBadRequestError("invalid tags", err)
	}

	wf := s.newWorkflow()
	if err := wf.SetImage(img); err != nil {
		return fromWorkflowError(err, nil)
	}
	if err := wf.SetProvider(provider); err != nil {
		return fromWorkflowError(err, nil)
	}
	for _, t := range tags {
		if err := wf.AddTag(t.Key, t.Value); err != nil {
			return fromWorkflowError(err, nil)
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.requestTimeout)
	defer cancel()

	st, err := wf.Generate(ctx)
	if err != nil {
		return fromWorkflowError(err, nil)
	}

	return c.JSON(http.StatusOK, generateOnceResponse{
		Provider: provider,
		Files:    st.Files,
		Warning:  st.Warning,
	})
}

// parseTagsField accepts a JSON array of {key,value} objects or a
// comma-separated list of key=value pairs.
func parseTagsField(raw string) ([]terraform.Tag, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if strings.HasPrefix(raw, "[") {
		var tags []terraform.Tag
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			return nil, err
		}
		return tags, nil
	}

	var tags []terraform.Tag
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key, value, ok := terraform.SplitTagPair(p)
		if !ok {
			key = p
		}
		tags = append(tags, terraform.Tag{Key: key, Value: value})
	}
	return tags, nil
}
