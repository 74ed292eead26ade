package gemini

import "context"

type ImageInput struct {
	DataBase64 string
	MimeType   string
}

type Request struct {
	Prompt string
	Images []ImageInput
}

type Response struct {
	Text string
}

// ContentGenerator is satisfied by both the REST and the SDK backends.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, req Request) (Response, error)
}
