package generation

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backdrop/internal/domain"
	"backdrop/internal/genai"
	"backdrop/internal/imageproc"
	"backdrop/pkg/dataurl"
)

type fakeProfiles struct {
	mu         sync.Mutex
	profile    domain.Profile
	err        error
	increments int
}

func (f *fakeProfiles) ProfileByID(ctx context.Context, id string) (domain.Profile, error) {
	if f.err != nil {
		return domain.Profile{}, f.err
	}
	return f.profile, nil
}

func (f *fakeProfiles) IncrementUsage(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments++
	return nil
}

type fakeModel struct {
	mu     sync.Mutex
	calls  int
	result *genai.Result
	err    error
	delay  time.Duration
	gotReq genai.Request
}

func (f *fakeModel) GenerateImage(ctx context.Context, req genai.Request) (*genai.Result, error) {
	f.mu.Lock()
	f.calls++
	f.gotReq = req
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

type fakeUsage struct {
	mu      sync.Mutex
	records []domain.UsageRecord
	done    chan struct{}
}

func (f *fakeUsage) Record(ctx context.Context, userID string, action domain.UsageAction, res domain.Resolution, tokensIn, tokensOut int, country string) error {
	f.mu.Lock()
	f.records = append(f.records, domain.UsageRecord{
		UserID:       userID,
		Action:       action,
		Resolution:   res,
		TokensInput:  tokensIn,
		TokensOutput: tokensOut,
		Country:      country,
	})
	f.mu.Unlock()
	if f.done != nil {
		close(f.done)
	}
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 120, G: 40, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestService(profiles *fakeProfiles, model *fakeModel, usage *fakeUsage) *Service {
	keys := &KeyResolver{EnvKey: "env-key", Logger: zerolog.Nop()}
	opt := imageproc.NewOptimizer(1536, zerolog.Nop())
	return NewService(profiles, keys, model, opt, usage, time.Second, zerolog.Nop())
}

func backgroundInput(userID string) GenerateInput {
	return GenerateInput{
		UserID: userID,
		Kind:   domain.OutputDesktop,
		UIMode: domain.UIModeDesigner,
		Settings: domain.Settings{
			Kind:       domain.SettingsBackground,
			Background: &domain.BackgroundSettings{Resolution: domain.Resolution1K},
		},
	}
}

func TestGenerateQuotaCheckedBeforeModelCall(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10, ImagesGenerated: 10}}
	model := &fakeModel{result: &genai.Result{Data: []byte("x"), MIMEType: "image/png"}}
	svc := newTestService(profiles, model, &fakeUsage{})

	_, err := svc.Generate(context.Background(), backgroundInput("u1"))

	var qe *domain.QuotaError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, 10, qe.Used)
	assert.Equal(t, 10, qe.Limit)
	assert.True(t, errors.Is(err, domain.ErrQuotaExceeded))
	assert.Equal(t, 0, model.calls, "quota failures must not reach the model")
}

func TestGenerateUnknownProfileIsUnauthenticated(t *testing.T) {
	profiles := &fakeProfiles{err: domain.ErrNotFound}
	svc := newTestService(profiles, &fakeModel{}, &fakeUsage{})

	_, err := svc.Generate(context.Background(), backgroundInput("ghost"))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestGenerateNoCredentialMessageByRole(t *testing.T) {
	model := &fakeModel{}
	opt := imageproc.NewOptimizer(1536, zerolog.Nop())

	for _, tc := range []struct {
		role domain.UserRole
		want string
	}{
		{role: "admin", want: "GEMINI_API_KEY"},
		{role: "user", want: "administrator"},
	} {
		profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: tc.role, ImageLimit: 10}}
		keys := &KeyResolver{Logger: zerolog.Nop()}
		svc := NewService(profiles, keys, model, opt, &fakeUsage{}, time.Second, zerolog.Nop())

		_, err := svc.Generate(context.Background(), backgroundInput("u1"))
		require.ErrorIs(t, err, domain.ErrNoCredential, "role %s", tc.role)
		assert.Contains(t, err.Error(), tc.want)
	}
	assert.Equal(t, 0, model.calls)
}

func TestGenerateTimeout(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10}}
	model := &fakeModel{delay: 500 * time.Millisecond, result: &genai.Result{Data: []byte("x"), MIMEType: "image/png"}}
	keys := &KeyResolver{EnvKey: "env-key", Logger: zerolog.Nop()}
	opt := imageproc.NewOptimizer(1536, zerolog.Nop())
	svc := NewService(profiles, keys, model, opt, &fakeUsage{}, 20*time.Millisecond, zerolog.Nop())

	_, err := svc.Generate(context.Background(), backgroundInput("u1"))
	assert.ErrorIs(t, err, domain.ErrGenerationTimeout)
}

func TestGenerateEmptyResponse(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10}}
	model := &fakeModel{err: genai.ErrNoImage}
	svc := newTestService(profiles, model, &fakeUsage{})

	_, err := svc.Generate(context.Background(), backgroundInput("u1"))
	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}

func TestGenerateNetworkFailureWrapped(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10}}
	model := &fakeModel{err: errors.New("connection reset")}
	svc := newTestService(profiles, model, &fakeUsage{})

	_, err := svc.Generate(context.Background(), backgroundInput("u1"))
	require.ErrorIs(t, err, domain.ErrNetworkFailure)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGenerateSuccessWithCustomSizeAndUsage(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10, ImagesGenerated: 9}}
	model := &fakeModel{result: &genai.Result{
		Data:         pngBytes(t, 400, 300),
		MIMEType:     "image/png",
		PromptTokens: 120,
		OutputTokens: 1290,
	}}
	usage := &fakeUsage{done: make(chan struct{})}
	svc := newTestService(profiles, model, usage)

	in := backgroundInput("u1")
	in.Country = "BR"
	in.Settings.Background.UseCustomSize = true
	in.Settings.Background.CustomWidth = 1920
	in.Settings.Background.CustomHeight = 1200

	out, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, out.Warning)
	assert.True(t, strings.HasPrefix(out.ImageURL, "data:image/png;base64,"))

	mime, data, err := dataurl.Decode(out.ImageURL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	w, h := imageproc.DecodeDimensions(data)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1200, h)

	// 1920x1200 rounds to 16:9, and the 1920 edge exceeds 1280 so the
	// 1K base is bumped to 2K.
	assert.Equal(t, "16:9", model.gotReq.AspectRatio)
	assert.Equal(t, "2K", model.gotReq.ImageSize)

	select {
	case <-usage.done:
	case <-time.After(2 * time.Second):
		t.Fatal("usage settlement never ran")
	}
	usage.mu.Lock()
	defer usage.mu.Unlock()
	require.Len(t, usage.records, 1)
	rec := usage.records[0]
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, domain.ActionGenerate, rec.Action)
	assert.Equal(t, domain.Resolution2K, rec.Resolution)
	assert.Equal(t, 120, rec.TokensInput)
	assert.Equal(t, 1290, rec.TokensOutput)
	assert.Equal(t, "BR", rec.Country)

	profiles.mu.Lock()
	defer profiles.mu.Unlock()
	assert.Equal(t, 1, profiles.increments)
}

func TestGenerateResizeFailureDegrades(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10}}
	model := &fakeModel{result: &genai.Result{Data: []byte("not an image"), MIMEType: "image/png"}}
	usage := &fakeUsage{done: make(chan struct{})}
	svc := newTestService(profiles, model, usage)

	in := backgroundInput("u1")
	in.Settings.Background.UseCustomSize = true
	in.Settings.Background.CustomWidth = 800
	in.Settings.Background.CustomHeight = 600

	out, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Warning)
	assert.Equal(t, dataurl.Encode("image/png", []byte("not an image")), out.ImageURL)

	select {
	case <-usage.done:
	case <-time.After(2 * time.Second):
		t.Fatal("usage settlement never ran")
	}
}

func TestGenerateRefinementPartsAndAction(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10}}
	model := &fakeModel{result: &genai.Result{Data: []byte("img"), MIMEType: "image/png"}}
	usage := &fakeUsage{done: make(chan struct{})}
	svc := newTestService(profiles, model, usage)

	in := backgroundInput("u1")
	in.ContextImageURL = dataurl.Encode("image/png", pngBytes(t, 10, 10))
	in.RefineInstruction = "make the light warmer"
	in.StyleImages = []domain.ReferenceImage{{Data: pngBytes(t, 10, 10), MIMEType: "image/png"}}

	_, err := svc.Generate(context.Background(), in)
	require.NoError(t, err)
	<-usage.done

	var sawContextLabel, sawStyleLabel bool
	for _, p := range model.gotReq.Parts {
		if p.Text == "PRIMARY CONTEXT IMAGE (BASE):" {
			sawContextLabel = true
		}
		if strings.HasPrefix(p.Text, "STYLE REF") {
			sawStyleLabel = true
		}
	}
	assert.True(t, sawContextLabel, "context image label must be present")
	assert.False(t, sawStyleLabel, "refinements must not resend style references")

	usage.mu.Lock()
	defer usage.mu.Unlock()
	assert.Equal(t, domain.ActionRefine, usage.records[0].Action)
}

func TestGenerateThumbnailAlwaysLandscapeBase(t *testing.T) {
	profiles := &fakeProfiles{profile: domain.Profile{ID: "u1", Role: "user", ImageLimit: 10}}
	model := &fakeModel{result: &genai.Result{Data: []byte("img"), MIMEType: "image/png"}}
	usage := &fakeUsage{done: make(chan struct{})}
	svc := newTestService(profiles, model, usage)

	_, err := svc.Generate(context.Background(), GenerateInput{
		UserID: "u1",
		Kind:   domain.OutputThumbnail,
		Settings: domain.Settings{
			Kind:      domain.SettingsThumbnail,
			Thumbnail: &domain.ThumbnailSettings{},
		},
	})
	require.NoError(t, err)
	<-usage.done

	assert.Equal(t, "16:9", model.gotReq.AspectRatio)
	assert.Equal(t, "1K", model.gotReq.ImageSize)
}
