package workflow

import (
	"diagram2terraform/internal/terraform"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

const (
	CopyLabelReady  = "Copy"
	CopyLabelCopied = "Copied!"
)

type Image struct {
	Data     []byte
	MimeType string
	Name     string
}

// State is an immutable snapshot handed to subscribers and callers.
type State struct {
	Phase      Phase                     `json:"phase"`
	Provider   terraform.Provider        `json:"provider,omitempty"`
	ImageName  string                    `json:"imageName,omitempty"`
	HasImage   bool                      `json:"hasImage"`
	Tags       []terraform.Tag           `json:"tags"`
	Files      []terraform.GeneratedFile `json:"files"`
	Error      string                    `json:"error,omitempty"`
	Warning    string                    `json:"warning,omitempty"`
	CopyLabels map[string]string         `json:"copyLabels"`
}

// CanGenerate mirrors the enablement rule of the generate trigger.
func (s State) CanGenerate() bool {
	return s.HasImage && s.Provider != "" && s.Phase != PhaseLoading
}

func (s State) File(index int) (terraform.GeneratedFile, bool) {
	if index < 0 || index >= len(s.Files) {
		return terraform.GeneratedFile{}, false
	}
	return s.Files[index], true
}
