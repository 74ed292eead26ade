package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diagram2terraform/internal/gemini"
	"diagram2terraform/internal/terraform"
)

type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []gemini.Request
	// block, when set, holds the call until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, req gemini.Request) (gemini.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return gemini.Response{}, ctx.Err()
		}
	}
	return gemini.Response{Text: f.text}, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000")

func readyWorkflow(t *testing.T, gen *fakeGenerator) *Workflow {
	t.Helper()

	w := New(Options{Generator: gen, CopyResetDelay: 20 * time.Millisecond})
	require.NoError(t, w.SetImage(Image{Data: pngBytes, Name: "diagram.png"}))
	require.NoError(t, w.SetProvider(terraform.ProviderAWS))
	return w
}

func TestGenerateRequiresInputs(t *testing.T) {
	t.Run("no image", func(t *testing.T) {
		gen := &fakeGenerator{}
		w := New(Options{Generator: gen})
		require.NoError(t, w.SetProvider(terraform.ProviderGCP))

		var phases []Phase
		w.Subscribe(func(s State) { phases = append(phases, s.Phase) })

		st, err := w.Generate(context.Background())

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, MsgMissingInput, vErr.Message)
		assert.Equal(t, PhaseFailed, st.Phase)
		assert.Equal(t, "Please upload an image and select a cloud provider.", st.Error)
		assert.NotContains(t, phases, PhaseLoading)
		assert.Zero(t, gen.calls())
	})

	t.Run("no provider", func(t *testing.T) {
		gen := &fakeGenerator{}
		w := New(Options{Generator: gen})
		require.NoError(t, w.SetImage(Image{Data: pngBytes}))

		st, err := w.Generate(context.Background())
		require.Error(t, err)
		assert.Equal(t, PhaseFailed, st.Phase)
		assert.False(t, st.CanGenerate())
		assert.Zero(t, gen.calls())
	})
}

func TestGenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{text: "// START_FILE: main.tf\nresource \"x\" {}\n// END_FILE: main.tf\n// START_FILE: outputs.tf\noutput \"y\" {}\n// END_FILE: outputs.tf"}
	w := readyWorkflow(t, gen)
	require.NoError(t, w.AddTag("env", "prod"))

	var phases []Phase
	w.Subscribe(func(s State) { phases = append(phases, s.Phase) })

	st, err := w.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Phase{PhaseLoading, PhaseSucceeded}, phases)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	require.Len(t, st.Files, 2)
	assert.Equal(t, "main.tf", st.Files[0].FileName)
	assert.Empty(t, st.Warning)
	assert.Equal(t, map[string]string{"main.tf": CopyLabelReady, "outputs.tf": CopyLabelReady}, st.CopyLabels)

	require.Equal(t, 1, gen.calls())
	req := gen.requests[0]
	assert.Contains(t, req.Prompt, "- env: prod")
	require.Len(t, req.Images, 1)
	assert.Equal(t, "image/png", req.Images[0].MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pngBytes), req.Images[0].DataBase64)
}

func TestGenerateFallbackWarning(t *testing.T) {
	gen := &fakeGenerator{text: "```hcl\nresource \"x\" {}\n```"}
	w := readyWorkflow(t, gen)

	st, err := w.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, st.Files, 1)
	assert.Equal(t, terraform.FallbackFileName, st.Files[0].FileName)
	assert.Equal(t, "resource \"x\" {}", st.Files[0].Content)
	assert.Equal(t, terraform.StructureWarning, st.Warning)
	assert.Equal(t, PhaseSucceeded, st.Phase)
}

func TestGenerateEmptyResponse(t *testing.T) {
	w := readyWorkflow(t, &fakeGenerator{text: "  "})

	st, err := w.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Empty(t, st.Files)
	assert.Empty(t, st.Warning)
}

func TestGenerateFailureMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "invalid key", err: errors.New("gemini API 400: API key not valid. Please pass a valid API key."), want: MsgInvalidAPIKey},
		{name: "invalid key reason", err: errors.New("rejected (API_KEY_NOT_VALID)"), want: MsgInvalidAPIKey},
		{name: "quota", err: errors.New("Quota exceeded for requests"), want: MsgQuotaExceeded},
		{name: "other", err: errors.New("connection reset"), want: "Failed to generate Terraform code. connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := readyWorkflow(t, &fakeGenerator{err: tt.err})

			st, err := w.Generate(context.Background())

			var failure *RequestFailure
			require.ErrorAs(t, err, &failure)
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.want, failure.Message)
			assert.Equal(t, PhaseFailed, st.Phase)
			assert.Equal(t, tt.want, st.Error)
			assert.Empty(t, st.Files)
		})
	}
}

func TestGenerateWhileLoadingIsRejected(t *testing.T) {
	gen := &fakeGenerator{
		text:    "// START_FILE: main.tf\nx\n// END_FILE: main.tf",
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	w := readyWorkflow(t, gen)

	done := make(chan State, 1)
	go func() {
		st, _ := w.Generate(context.Background())
		done <- st
	}()
	<-gen.entered

	assert.Equal(t, PhaseLoading, w.State().Phase)
	assert.False(t, w.State().CanGenerate())

	_, err := w.Generate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.block)
	st := <-done
	assert.Equal(t, PhaseSucceeded, st.Phase)
	assert.Equal(t, 1, gen.calls())
}

func TestProviderChangeDuringLoadingDiscardsResult(t *testing.T) {
	gen := &fakeGenerator{
		text:    "// START_FILE: main.tf\nx\n// END_FILE: main.tf",
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	w := readyWorkflow(t, gen)

	done := make(chan State, 1)
	go func() {
		st, _ := w.Generate(context.Background())
		done <- st
	}()
	<-gen.entered

	require.NoError(t, w.SetProvider(terraform.ProviderAzure))
	assert.Equal(t, PhaseIdle, w.State().Phase)

	_, err := w.Generate(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.block)
	st := <-done
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Files)
	assert.Equal(t, terraform.ProviderAzure, st.Provider)
}

func TestInputChangesResetState(t *testing.T) {
	gen := &fakeGenerator{text: "// START_FILE: main.tf\nx\n// END_FILE: main.tf"}

	t.Run("provider change", func(t *testing.T) {
		w := readyWorkflow(t, gen)
		require.NoError(t, w.AddTag("env", "prod"))
		_, err := w.Generate(context.Background())
		require.NoError(t, err)

		require.NoError(t, w.SetProvider(terraform.ProviderGCP))
		st := w.State()

		assert.Equal(t, PhaseIdle, st.Phase)
		assert.Empty(t, st.Files)
		assert.Empty(t, st.Error)
		assert.Empty(t, st.CopyLabels)
		assert.True(t, st.HasImage)
		assert.Equal(t, []terraform.Tag{{Key: "env", Value: "prod"}}, st.Tags)
	})

	t.Run("image change", func(t *testing.T) {
		w := readyWorkflow(t, gen)
		_, err := w.Generate(context.Background())
		require.NoError(t, err)

		require.NoError(t, w.SetImage(Image{Data: []byte("GIF89a...."), Name: "other.gif"}))
		st := w.State()

		assert.Equal(t, PhaseIdle, st.Phase)
		assert.Empty(t, st.Files)
		assert.Equal(t, "other.gif", st.ImageName)
		assert.Equal(t, terraform.ProviderAWS, st.Provider)
	})

	t.Run("failure is cleared by provider change", func(t *testing.T) {
		w := New(Options{Generator: gen})
		_, err := w.Generate(context.Background())
		require.Error(t, err)

		require.NoError(t, w.SetProvider(terraform.ProviderAWS))
		assert.Empty(t, w.State().Error)
		assert.Equal(t, PhaseIdle, w.State().Phase)
	})
}

func TestSetInputValidation(t *testing.T) {
	w := New(Options{Generator: &fakeGenerator{}})

	var vErr *ValidationError
	assert.ErrorAs(t, w.SetImage(Image{}), &vErr)
	assert.ErrorAs(t, w.SetProvider("oracle"), &vErr)
	assert.False(t, w.State().HasImage)
	assert.Empty(t, w.State().Provider)
}

func TestTags(t *testing.T) {
	w := New(Options{Generator: &fakeGenerator{}})
	require.NoError(t, w.SetProvider(terraform.ProviderGCP))

	require.NoError(t, w.AddTag("env", "prod"))
	err := w.AddTag("env", "dev")
	require.Error(t, err)
	assert.Equal(t, `A label with key "env" already exists.`, UserMessage(err))

	st := w.State()
	assert.Equal(t, `A label with key "env" already exists.`, st.Error)
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Len(t, st.Tags, 1)

	require.NoError(t, w.AddTag("team", "core"))
	assert.Empty(t, w.State().Error)

	w.RemoveTag("missing")
	w.RemoveTag("env")
	assert.Equal(t, []terraform.Tag{{Key: "team", Value: "core"}}, w.State().Tags)
}

func TestCopyLabels(t *testing.T) {
	w := readyWorkflow(t, &fakeGenerator{text: "// START_FILE: main.tf\nx\n// END_FILE: main.tf"})
	_, err := w.Generate(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.MarkCopied("main.tf"))
	assert.Equal(t, CopyLabelCopied, w.State().CopyLabels["main.tf"])

	assert.Eventually(t, func() bool {
		return w.State().CopyLabels["main.tf"] == CopyLabelReady
	}, time.Second, 5*time.Millisecond)

	assert.Error(t, w.MarkCopied("missing.tf"))
}

func TestClipboardError(t *testing.T) {
	w := readyWorkflow(t, &fakeGenerator{text: "// START_FILE: main.tf\nx\n// END_FILE: main.tf"})
	_, err := w.Generate(context.Background())
	require.NoError(t, err)

	w.ReportClipboardError("main.tf")

	st := w.State()
	assert.Equal(t, "Failed to copy main.tf to clipboard.", st.Error)
	assert.Len(t, st.Files, 1)
	assert.Equal(t, PhaseSucceeded, st.Phase)
}

func TestUnsubscribe(t *testing.T) {
	w := New(Options{Generator: &fakeGenerator{}})

	count := 0
	cancel := w.Subscribe(func(State) { count++ })
	require.NoError(t, w.SetProvider(terraform.ProviderAWS))
	cancel()
	require.NoError(t, w.SetProvider(terraform.ProviderGCP))

	assert.Equal(t, 1, count)
}

func TestNilGenerator(t *testing.T) {
	w := New(Options{})
	require.NoError(t, w.SetImage(Image{Data: pngBytes}))
	require.NoError(t, w.SetProvider(terraform.ProviderAWS))

	st, err := w.Generate(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Contains(t, st.Error, "model client is not configured")
}
