package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"backdrop/internal/domain"
	"backdrop/internal/generation"
	"backdrop/internal/middleware"
	"backdrop/pkg/dataurl"
)

// referencePayload transports one reference image as a data URI.
type referencePayload struct {
	DataURL     string `json:"data_url"`
	Description string `json:"description,omitempty"`
}

type generateRequest struct {
	Kind     domain.OutputKind `json:"kind"`
	UIMode   domain.UIMode     `json:"ui_mode"`
	Settings domain.Settings   `json:"settings"`

	SubjectImages     []referencePayload `json:"subject_images,omitempty"`
	StyleImages       []referencePayload `json:"style_images,omitempty"`
	EnvironmentImages []referencePayload `json:"environment_images,omitempty"`
	MasterStyleImage  *referencePayload  `json:"master_style_image,omitempty"`

	ContextImage      string `json:"context_image,omitempty"`
	RefineInstruction string `json:"refine_instruction,omitempty"`
}

type generateResponse struct {
	ImageURL string `json:"image_url"`
	Warning  string `json:"warning,omitempty"`
}

func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	in, err := buildGenerateInput(userID, &req)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	in.Country = middleware.CountryFromContext(r.Context())

	out, err := a.Generator.Generate(r.Context(), *in)
	if err != nil {
		a.writeGenerationError(w, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{ImageURL: out.ImageURL, Warning: out.Warning})
}

func buildGenerateInput(userID string, req *generateRequest) (*generation.GenerateInput, error) {
	if req.Kind == "" {
		req.Kind = domain.OutputDesktop
	}
	if req.UIMode == "" {
		req.UIMode = domain.UIModeDesigner
	}

	switch req.Settings.Kind {
	case domain.SettingsBackground:
		if req.Settings.Background == nil {
			return nil, errors.New("background settings required")
		}
	case domain.SettingsThumbnail:
		if req.Settings.Thumbnail == nil {
			return nil, errors.New("thumbnail settings required")
		}
	default:
		return nil, errors.New("unknown settings kind")
	}

	subjects, err := decodeReferences("subject", req.SubjectImages)
	if err != nil {
		return nil, err
	}
	styles, err := decodeReferences("style", req.StyleImages)
	if err != nil {
		return nil, err
	}
	environments, err := decodeReferences("environment", req.EnvironmentImages)
	if err != nil {
		return nil, err
	}

	if req.MasterStyleImage != nil && req.Settings.Kind == domain.SettingsBackground {
		master, err := decodeReference(*req.MasterStyleImage)
		if err != nil {
			return nil, fmt.Errorf("master style image: %w", err)
		}
		req.Settings.Background.MasterStyleReference = &master
	}

	if req.ContextImage != "" && !dataurl.IsDataURL(req.ContextImage) {
		return nil, errors.New("context image must be a data URI")
	}

	return &generation.GenerateInput{
		UserID:            userID,
		SubjectImages:     subjects,
		StyleImages:       styles,
		EnvironmentImages: environments,
		Settings:          req.Settings,
		Kind:              req.Kind,
		UIMode:            req.UIMode,
		ContextImageURL:   req.ContextImage,
		RefineInstruction: req.RefineInstruction,
	}, nil
}

func decodeReferences(role string, payloads []referencePayload) ([]domain.ReferenceImage, error) {
	if len(payloads) > domain.MaxReferenceImagesPerRole {
		return nil, fmt.Errorf("at most %d %s images allowed", domain.MaxReferenceImagesPerRole, role)
	}
	out := make([]domain.ReferenceImage, 0, len(payloads))
	for i, p := range payloads {
		ref, err := decodeReference(p)
		if err != nil {
			return nil, fmt.Errorf("%s image %d: %w", role, i+1, err)
		}
		out = append(out, ref)
	}
	return out, nil
}

func decodeReference(p referencePayload) (domain.ReferenceImage, error) {
	mime, data, err := dataurl.Decode(p.DataURL)
	if err != nil {
		return domain.ReferenceImage{}, err
	}
	return domain.ReferenceImage{Data: data, MIMEType: mime, Description: p.Description}, nil
}

func (a *App) writeGenerationError(w http.ResponseWriter, err error) {
	var quota *domain.QuotaError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		a.error(w, http.StatusUnauthorized, "unauthorized", "unknown user")
	case errors.As(err, &quota):
		a.json(w, http.StatusForbidden, map[string]any{
			"error":   "quota_exceeded",
			"message": quota.Error(),
			"used":    quota.Used,
			"limit":   quota.Limit,
		})
	case errors.Is(err, domain.ErrQuotaExceeded):
		a.error(w, http.StatusForbidden, "quota_exceeded", err.Error())
	case errors.Is(err, domain.ErrNoCredential):
		a.error(w, http.StatusForbidden, "no_api_key", err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrGenerationTimeout):
		a.error(w, http.StatusGatewayTimeout, "timeout", err.Error())
	case errors.Is(err, domain.ErrEmptyResponse):
		a.error(w, http.StatusBadGateway, "empty_response", "the model returned no image, try again")
	case errors.Is(err, domain.ErrNetworkFailure):
		a.error(w, http.StatusBadGateway, "upstream_failure", "the model request failed, try again")
	default:
		a.Log.Error().Err(err).Msg("handlers: generation failed")
		a.error(w, http.StatusInternalServerError, "internal", "generation failed")
	}
}
