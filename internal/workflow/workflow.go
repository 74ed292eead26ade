package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"diagram2terraform/internal/gemini"
	"diagram2terraform/internal/terraform"
)

const defaultCopyResetDelay = 2 * time.Second

type Options struct {
	Generator      gemini.ContentGenerator
	Logger         *slog.Logger
	CopyResetDelay time.Duration
}

// Workflow drives one user's diagram-to-Terraform generation. It holds the
// inputs, the tag store and the current state, and notifies subscribers
// after every transition.
type Workflow struct {
	gen            gemini.ContentGenerator
	logger         *slog.Logger
	copyResetDelay time.Duration

	mu       sync.Mutex
	image    *Image
	provider terraform.Provider
	tags     *terraform.TagStore

	phase      Phase
	files      []terraform.GeneratedFile
	errMsg     string
	warning    string
	copyLabels map[string]string

	// inFlight stays true until the model call returns, even when a
	// provider or image change already moved the phase back to idle.
	inFlight bool
	// epoch invalidates in-flight results after an input change.
	epoch uint64

	nextSubID   int
	subscribers map[int]func(State)
}

func New(opts Options) *Workflow {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	delay := opts.CopyResetDelay
	if delay <= 0 {
		delay = defaultCopyResetDelay
	}

	return &Workflow{
		gen:            opts.Generator,
		logger:         logger,
		copyResetDelay: delay,
		tags:           terraform.NewTagStore(),
		phase:          PhaseIdle,
		copyLabels:     map[string]string{},
		subscribers:    map[int]func(State){},
	}
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Subscribe registers fn for state updates and returns its cancel func.
// fn runs on the goroutine that caused the transition, outside the lock.
func (w *Workflow) Subscribe(fn func(State)) func() {
	w.mu.Lock()
	id := w.nextSubID
	w.nextSubID++
	w.subscribers[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subscribers, id)
		w.mu.Unlock()
	}
}

func (w *Workflow) SetImage(img Image) error {
	if len(img.Data) == 0 {
		return &ValidationError{Message: "The uploaded image is empty."}
	}
	if strings.TrimSpace(img.MimeType) == "" {
		img.MimeType = sniffMimeType(img.Data)
	}

	w.update(func() {
		stored := img
		stored.Data = append([]byte(nil), img.Data...)
		w.image = &stored
		w.resetLocked()
	})
	return nil
}

func (w *Workflow) ClearImage() {
	w.update(func() {
		w.image = nil
		w.resetLocked()
	})
}

func (w *Workflow) SetProvider(p terraform.Provider) error {
	if !p.Valid() {
		return &ValidationError{Message: fmt.Sprintf("Unsupported cloud provider %q.", p)}
	}

	w.update(func() {
		w.provider = p
		w.resetLocked()
	})
	return nil
}

// AddTag stores a tag. A rejected tag surfaces as the error message and
// leaves the phase unchanged.
func (w *Workflow) AddTag(key, value string) error {
	var err error
	w.update(func() {
		if addErr := w.tags.Add(key, value); addErr != nil {
			err = w.tagValidationLocked(addErr)
			w.errMsg = err.Error()
			return
		}
		w.errMsg = ""
	})
	return err
}

func (w *Workflow) RemoveTag(key string) {
	w.update(func() {
		w.tags.Remove(key)
	})
}

// Generate runs one request against the model. It blocks until the model
// answers or ctx ends and returns the resulting snapshot.
func (w *Workflow) Generate(ctx context.Context) (State, error) {
	w.mu.Lock()
	if w.image == nil || w.provider == "" {
		w.resetLocked()
		w.phase = PhaseFailed
		w.errMsg = MsgMissingInput
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.publish(snap)
		return snap, &ValidationError{Message: MsgMissingInput}
	}
	if w.inFlight {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap, ErrBusy
	}

	w.resetLocked()
	w.phase = PhaseLoading
	w.inFlight = true
	epoch := w.epoch
	img := *w.image
	provider := w.provider
	tags := w.tags.Tags()
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.publish(snap)

	start := time.Now()
	resp, err := w.callModel(ctx, img, provider, tags)

	var result terraform.ParseResult
	if err == nil {
		result = terraform.ParseFiles(resp.Text)
	}

	w.mu.Lock()
	w.inFlight = false
	if epoch != w.epoch {
		snap = w.snapshotLocked()
		w.mu.Unlock()
		w.logger.Info("generation discarded after input change", "provider", provider)
		return snap, nil
	}

	var outErr error
	if err != nil {
		failure := &RequestFailure{Message: DescribeFailure(err), Err: err}
		w.phase = PhaseFailed
		w.errMsg = failure.Message
		outErr = failure
		w.logger.Error("generation failed", "provider", provider, "err", err, "dur_ms", time.Since(start).Milliseconds())
	} else {
		w.phase = PhaseSucceeded
		w.files = result.Files
		w.warning = result.Warning
		for _, f := range result.Files {
			w.copyLabels[f.FileName] = CopyLabelReady
		}
		w.logger.Info("generation finished",
			"provider", provider,
			"tags", len(tags),
			"files", len(result.Files),
			"fallback", result.Fallback(),
			"dur_ms", time.Since(start).Milliseconds(),
		)
	}
	snap = w.snapshotLocked()
	w.mu.Unlock()
	w.publish(snap)

	return snap, outErr
}

func (w *Workflow) callModel(ctx context.Context, img Image, provider terraform.Provider, tags []terraform.Tag) (gemini.Response, error) {
	if w.gen == nil {
		return gemini.Response{}, errors.New("model client is not configured")
	}
	return w.gen.GenerateContent(ctx, gemini.Request{
		Prompt: terraform.BuildPrompt(provider, tags),
		Images: []gemini.ImageInput{encodeImage(img)},
	})
}

// MarkCopied flips the file's copy label and schedules its revert.
func (w *Workflow) MarkCopied(fileName string) error {
	var err error
	var epoch uint64
	w.update(func() {
		if _, ok := w.copyLabels[fileName]; !ok {
			err = &ValidationError{Message: fmt.Sprintf("Unknown file %q.", fileName)}
			return
		}
		w.copyLabels[fileName] = CopyLabelCopied
		epoch = w.epoch
	})
	if err != nil {
		return err
	}

	time.AfterFunc(w.copyResetDelay, func() {
		w.update(func() {
			if w.epoch != epoch {
				return
			}
			if _, ok := w.copyLabels[fileName]; ok {
				w.copyLabels[fileName] = CopyLabelReady
			}
		})
	})
	return nil
}

// ReportClipboardError records a failed copy without touching the files.
func (w *Workflow) ReportClipboardError(fileName string) {
	w.update(func() {
		w.errMsg = fmt.Sprintf("Failed to copy %s to clipboard.", fileName)
	})
}

func (w *Workflow) update(fn func()) {
	w.mu.Lock()
	fn()
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.publish(snap)
}

func (w *Workflow) resetLocked() {
	w.epoch++
	w.phase = PhaseIdle
	w.files = nil
	w.errMsg = ""
	w.warning = ""
	w.copyLabels = map[string]string{}
}

func (w *Workflow) tagValidationLocked(err error) error {
	var tagErr *terraform.TagError
	if errors.As(err, &tagErr) {
		return &ValidationError{Message: tagErr.Message(w.provider)}
	}
	return &ValidationError{Message: err.Error()}
}

func (w *Workflow) snapshotLocked() State {
	files := make([]terraform.GeneratedFile, len(w.files))
	copy(files, w.files)

	labels := make(map[string]string, len(w.copyLabels))
	for k, v := range w.copyLabels {
		labels[k] = v
	}

	st := State{
		Phase:      w.phase,
		Provider:   w.provider,
		HasImage:   w.image != nil,
		Tags:       w.tags.Tags(),
		Files:      files,
		Error:      w.errMsg,
		Warning:    w.warning,
		CopyLabels: labels,
	}
	if w.image != nil {
		st.ImageName = w.image.Name
	}
	return st
}

func (w *Workflow) publish(st State) {
	w.mu.Lock()
	subs := make([]func(State), 0, len(w.subscribers))
	for _, fn := range w.subscribers {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

func encodeImage(img Image) gemini.ImageInput {
	return gemini.ImageInput{
		DataBase64: base64.StdEncoding.EncodeToString(img.Data),
		MimeType:   img.MimeType,
	}
}

func sniffMimeType(data []byte) string {
	mimeType := http.DetectContentType(data)
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/jpeg"
	}
	return mimeType
}
