// Package generation orchestrates the full pipeline that turns a settings
// object and a set of reference images into one call against the image model:
// quota check, credential resolution, prompt composition, request assembly,
// the bounded network call, post-processing, and detached usage accounting.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"backdrop/internal/domain"
	"backdrop/internal/genai"
	"backdrop/internal/imageproc"
	"backdrop/internal/prompt"
	"backdrop/pkg/dataurl"
)

// DefaultTimeout bounds the model call. The underlying request is not
// canceled server-side by Gemini on our behalf; we just stop waiting.
const DefaultTimeout = 95 * time.Second

// ModelClient is the external model collaborator.
type ModelClient interface {
	GenerateImage(ctx context.Context, req genai.Request) (*genai.Result, error)
}

// ProfileStore reads the caller's profile and performs the conditional
// usage-counter increment.
type ProfileStore interface {
	ProfileByID(ctx context.Context, id string) (domain.Profile, error)
	IncrementUsage(ctx context.Context, id string) error
}

// UsageRecorder persists one billing row per completed generation.
type UsageRecorder interface {
	Record(ctx context.Context, userID string, action domain.UsageAction, res domain.Resolution, tokensIn, tokensOut int, country string) error
}

// Optimizer shrinks reference images before transmission.
type Optimizer interface {
	Optimize(ctx context.Context, ref domain.ReferenceImage) domain.ReferenceImage
	OptimizeAll(ctx context.Context, refs []domain.ReferenceImage) []domain.ReferenceImage
}

// Service is the generation orchestrator.
type Service struct {
	profiles  ProfileStore
	keys      *KeyResolver
	model     ModelClient
	optimizer Optimizer
	usage     UsageRecorder
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewService wires the orchestrator. A non-positive timeout selects the default.
func NewService(profiles ProfileStore, keys *KeyResolver, model ModelClient, optimizer Optimizer, usage UsageRecorder, timeout time.Duration, logger zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		profiles:  profiles,
		keys:      keys,
		model:     model,
		optimizer: optimizer,
		usage:     usage,
		timeout:   timeout,
		logger:    logger,
	}
}

// GenerateInput is everything one generation call needs. ContextImageURL is
// only set when refining a previous result.
type GenerateInput struct {
	UserID string

	SubjectImages     []domain.ReferenceImage
	StyleImages       []domain.ReferenceImage
	EnvironmentImages []domain.ReferenceImage

	Settings domain.Settings
	Kind     domain.OutputKind
	UIMode   domain.UIMode

	ContextImageURL   string
	RefineInstruction string

	Country string
}

// GenerateOutput carries the final image as a data URI. Warning is set when a
// recoverable post-processing step was skipped.
type GenerateOutput struct {
	ImageURL string
	Warning  string
}

// Generate runs the pipeline. Steps up to the model response are hard-fail;
// resize degrades to the unresized image and usage accounting is detached.
// At most one model call is issued per invocation.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	profile, err := s.profiles.ProfileByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	// Quota is checked before any network resource is spent.
	if profile.QuotaExhausted() {
		return nil, &domain.QuotaError{Used: profile.ImagesGenerated, Limit: profile.ImageLimit}
	}

	apiKey := s.keys.Resolve(ctx, profile)
	if apiKey == "" {
		if profile.IsAdmin() {
			return nil, fmt.Errorf("%w: no API key detected; set GEMINI_API_KEY or store a system key via the admin panel", domain.ErrNoCredential)
		}
		return nil, fmt.Errorf("%w: ask an administrator to configure the system key or grant you access to it", domain.ErrNoCredential)
	}

	isRefinement := in.RefineInstruction != "" && in.ContextImageURL != ""
	aspectRatio, imageSize := s.resolveOutputFormat(in)

	promptText := prompt.Compose(prompt.Input{
		Kind:              in.Kind,
		UIMode:            in.UIMode,
		Settings:          in.Settings,
		HasContextImage:   in.ContextImageURL != "",
		RefineInstruction: in.RefineInstruction,
	})

	parts, err := s.buildParts(ctx, promptText, in)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.model.GenerateImage(callCtx, genai.Request{
		APIKey:      apiKey,
		Parts:       parts,
		AspectRatio: aspectRatio,
		ImageSize:   string(imageSize),
	})
	if err != nil {
		switch {
		case callCtx.Err() != nil && ctx.Err() == nil:
			return nil, fmt.Errorf("%w: the model took too long to respond; try a simpler scene or fewer references", domain.ErrGenerationTimeout)
		case errors.Is(err, genai.ErrNoImage):
			return nil, domain.ErrEmptyResponse
		default:
			return nil, fmt.Errorf("%w: %v", domain.ErrNetworkFailure, err)
		}
	}

	out := &GenerateOutput{ImageURL: dataurl.Encode(result.MIMEType, result.Data)}
	if w, h, ok := customSize(in); ok {
		resized, resizeErr := imageproc.CoverResize(result.Data, w, h)
		if resizeErr != nil {
			s.logger.Warn().Err(resizeErr).Msg("generation: resize failed, returning unresized image")
			out.Warning = "the generated image could not be resized to the requested dimensions"
		} else {
			out.ImageURL = dataurl.Encode("image/png", resized)
		}
	}

	// Usage settlement must never block or fail the caller.
	action := domain.ActionGenerate
	if isRefinement {
		action = domain.ActionRefine
	}
	go s.settleUsage(context.WithoutCancel(ctx), profile.ID, action, imageSize, result.PromptTokens, result.OutputTokens, in.Country)

	return out, nil
}

// Available reports whether the user could start a generation right now,
// credential-wise.
func (s *Service) Available(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profiles.ProfileByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrUnauthenticated
		}
		return false, err
	}
	return s.keys.Available(ctx, profile), nil
}

// resolveOutputFormat applies the per-surface defaults and the custom-size
// override rules. Thumbnails are always 16:9 at the base tier.
func (s *Service) resolveOutputFormat(in GenerateInput) (string, domain.Resolution) {
	if in.Settings.Kind != domain.SettingsBackground || in.Settings.Background == nil {
		return "16:9", domain.Resolution1K
	}

	bg := in.Settings.Background
	base := bg.Resolution
	if base == "" {
		base = domain.Resolution1K
	}

	if w, h, ok := customSize(in); ok {
		return ClosestAspectRatio(w, h), ResolveImageSize(w, h, base)
	}
	if in.Kind == domain.OutputMobile {
		return "9:16", base
	}
	return "16:9", base
}

func customSize(in GenerateInput) (int, int, bool) {
	bg := in.Settings.Background
	if in.Settings.Kind != domain.SettingsBackground || bg == nil {
		return 0, 0, false
	}
	if !bg.UseCustomSize || bg.CustomWidth <= 0 || bg.CustomHeight <= 0 {
		return 0, 0, false
	}
	return bg.CustomWidth, bg.CustomHeight, true
}

// buildParts assembles the ordered request payload: prompt text, labelled
// master style block, context image when refining, optimized subject images,
// then environment and style references only for fresh generations.
func (s *Service) buildParts(ctx context.Context, promptText string, in GenerateInput) ([]genai.Part, error) {
	parts := []genai.Part{genai.TextPart(promptText)}
	hasContext := in.ContextImageURL != ""

	if in.Settings.Kind == domain.SettingsBackground && in.Settings.Background != nil {
		if master := in.Settings.Background.MasterStyleReference; master != nil {
			optimized := s.optimizer.Optimize(ctx, *master)
			parts = append(parts,
				genai.TextPart("REFERENCE STYLE BLUEPRINT (COPY MOOD & COLORS):"),
				genai.ImagePart(optimized.MIMEType, optimized.Data))
		}
	}

	if hasContext {
		mime, data, err := dataurl.Decode(in.ContextImageURL)
		if err != nil {
			return nil, fmt.Errorf("%w: context image: %v", domain.ErrInvalidRequest, err)
		}
		parts = append(parts,
			genai.ImagePart(mime, data),
			genai.TextPart("PRIMARY CONTEXT IMAGE (BASE):"))
	}

	if len(in.SubjectImages) > 0 {
		parts = append(parts, genai.TextPart("IDENTITY REFERENCE (CLONE FACE EXACTLY - KEEP PORES/TEXTURE):"))
		for _, img := range s.optimizer.OptimizeAll(ctx, in.SubjectImages) {
			parts = append(parts, genai.ImagePart(img.MIMEType, img.Data))
		}
	}

	if !hasContext && len(in.EnvironmentImages) > 0 {
		label := "ENVIRONMENT REF (USE FOR TEXTURE/MATERIAL):"
		if in.Settings.Kind == domain.SettingsThumbnail {
			label = "BACKGROUND REF:"
		}
		parts = append(parts, genai.TextPart(label))
		for _, img := range s.optimizer.OptimizeAll(ctx, in.EnvironmentImages) {
			parts = append(parts, genai.ImagePart(img.MIMEType, img.Data))
		}
	}

	if !hasContext && len(in.StyleImages) > 0 {
		parts = append(parts, genai.TextPart("SECONDARY VIBE REFERENCES:"))
		for i, img := range s.optimizer.OptimizeAll(ctx, in.StyleImages) {
			parts = append(parts, genai.ImagePart(img.MIMEType, img.Data))
			instruction := fmt.Sprintf("STYLE REF %d: Copy lighting/atmosphere.", i+1)
			if desc := img.Description; desc != "" {
				instruction = fmt.Sprintf("STYLE REF %d: %s.", i+1, desc)
			}
			parts = append(parts, genai.TextPart(instruction))
		}
	}

	return parts, nil
}

func (s *Service) settleUsage(ctx context.Context, userID string, action domain.UsageAction, res domain.Resolution, tokensIn, tokensOut int, country string) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := s.profiles.IncrementUsage(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("generation: usage counter increment failed")
	}
	if err := s.usage.Record(ctx, userID, action, res, tokensIn, tokensOut, country); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("generation: usage row insert failed")
	}
}
