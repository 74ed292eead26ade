package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"diagram2terraform/internal/workflow"
)

var errNotAnImage = errors.New("uploaded file is not an image")

func readImage(header *multipart.FileHeader) (workflow.Image, error) {
	file, err := header.Open()
	if err != nil {
		return workflow.Image{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return workflow.Image{}, fmt.Errorf("read upload: %w", err)
	}

	mimeType := detectMimeType(header.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(mimeType, "image/") {
		return workflow.Image{}, errNotAnImage
	}

	return workflow.Image{
		Data:     data,
		MimeType: mimeType,
		Name:     header.Filename,
	}, nil
}

// detectMimeType trusts the declared type unless it is missing or generic,
// then falls back to content sniffing.
func detectMimeType(declared string, data []byte) string {
	mimeType := stripParams(declared)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = stripParams(http.DetectContentType(data))
	}
	return mimeType
}

func stripParams(mimeType string) string {
	mimeType = strings.TrimSpace(mimeType)
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return strings.ToLower(mimeType)
}
