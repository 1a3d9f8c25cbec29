package domain

// OutputKind selects the target surface of a generation.
type OutputKind string

const (
	OutputDesktop   OutputKind = "desktop"
	OutputMobile    OutputKind = "mobile"
	OutputThumbnail OutputKind = "thumbnail"
)

// UIMode distinguishes the quick flow (opinionated defaults, baked gradient)
// from the full designer flow.
type UIMode string

const (
	UIModeDesigner UIMode = "designer"
	UIModeQuick    UIMode = "quick"
)

// SettingsKind discriminates the settings union.
type SettingsKind string

const (
	SettingsBackground SettingsKind = "background"
	SettingsThumbnail  SettingsKind = "thumbnail"
)

// SubjectPosition places the subject within the frame.
type SubjectPosition string

const (
	PositionLeft   SubjectPosition = "left"
	PositionCenter SubjectPosition = "center"
	PositionRight  SubjectPosition = "right"
)

// Framing enumerates camera framings.
type Framing string

const (
	FramingCloseUp  Framing = "close-up"
	FramingMidShot  Framing = "mid-shot"
	FramingAmerican Framing = "american-shot"
)

// StyleMode selects the background treatment.
type StyleMode string

const (
	StyleFade StyleMode = "fade"
	StyleBlur StyleMode = "blur"
)

// GradientDirection orients the baked text-readability gradient.
type GradientDirection string

const (
	GradientBottomUp  GradientDirection = "bottom-up"
	GradientTopDown   GradientDirection = "top-down"
	GradientLeftRight GradientDirection = "left-right"
	GradientRightLeft GradientDirection = "right-left"
)

// Resolution is the discrete output size tier understood by the model.
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
)

// LightingStyle enumerates base lighting presets.
type LightingStyle string

const (
	LightingStudio    LightingStyle = "clean studio"
	LightingCinematic LightingStyle = "cinematic dramatic"
	LightingNeon      LightingStyle = "neon cyberpunk"
	LightingNatural   LightingStyle = "soft natural light"
	LightingGolden    LightingStyle = "golden hour"
	LightingRembrandt LightingStyle = "classic rembrandt"
)

// ColorGrading enumerates color grade presets.
type ColorGrading string

const (
	GradingNeutral    ColorGrading = "natural neutral"
	GradingWarm       ColorGrading = "warm"
	GradingCool       ColorGrading = "cool technological"
	GradingMonochrome ColorGrading = "black and white"
	GradingVibrant    ColorGrading = "vibrant saturated"
	GradingMoody      ColorGrading = "dark moody"
)

// EnvironmentMaterial enumerates the dominant background material.
type EnvironmentMaterial string

const (
	MaterialAbstract EnvironmentMaterial = "abstract digital"
	MaterialConcrete EnvironmentMaterial = "industrial concrete"
	MaterialWood     EnvironmentMaterial = "organic wood"
	MaterialMarble   EnvironmentMaterial = "luxury marble"
	MaterialNeonGrid EnvironmentMaterial = "neon tech grid"
	MaterialNature   EnvironmentMaterial = "natural foliage"
	MaterialGlass    EnvironmentMaterial = "corporate glass"
)

// DepthLevel enumerates depth-of-field intensity.
type DepthLevel string

const (
	DepthLow    DepthLevel = "sharp focus"
	DepthMedium DepthLevel = "soft blur"
	DepthHigh   DepthLevel = "intense bokeh"
)

// ThumbnailVibe enumerates the thumbnail mood presets.
type ThumbnailVibe string

const (
	VibeClickbait   ThumbnailVibe = "high impact"
	VibeEducational ThumbnailVibe = "clean educational"
	VibeGaming      ThumbnailVibe = "energetic gaming"
	VibeVlog        ThumbnailVibe = "lifestyle vlog"
	VibeTech        ThumbnailVibe = "tech review"
	VibeHorror      ThumbnailVibe = "dark mystery"
)

// AvatarSide places the creator avatar within a thumbnail.
type AvatarSide string

const (
	AvatarLeft  AvatarSide = "left"
	AvatarRight AvatarSide = "right"
)

// LightSource is one togglable light with a hex color. Opacity is only
// meaningful for the background ambient tint.
type LightSource struct {
	Enabled bool    `json:"enabled"`
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity,omitempty"`
}

// BackgroundSettings holds every knob of a website hero background generation.
type BackgroundSettings struct {
	SubjectDescription string          `json:"subject_description"`
	Position           SubjectPosition `json:"position"`
	Framing            Framing         `json:"framing"`

	Niche                       string              `json:"niche"`
	EnvironmentDescription      string              `json:"environment_description"`
	EnvironmentMaterial         EnvironmentMaterial `json:"environment_material"`
	DepthLevel                  DepthLevel          `json:"depth_level"`
	FloatingElements            bool                `json:"floating_elements"`
	FloatingElementsDescription string              `json:"floating_elements_description,omitempty"`

	LightingStyle   LightingStyle `json:"lighting_style"`
	ColorGrading    ColorGrading  `json:"color_grading"`
	KeyLight        LightSource   `json:"key_light"`
	RimLight        LightSource   `json:"rim_light"`
	FillLight       LightSource   `json:"fill_light"`
	VolumetricLight LightSource   `json:"volumetric_light"`
	BackgroundTint  LightSource   `json:"background_tint"`

	StyleMode         StyleMode         `json:"style_mode"`
	GradientColor     string            `json:"gradient_color"`
	GradientDirection GradientDirection `json:"gradient_direction"`

	Resolution    Resolution `json:"resolution"`
	UseCustomSize bool       `json:"use_custom_size"`
	CustomWidth   int        `json:"custom_width,omitempty"`
	CustomHeight  int        `json:"custom_height,omitempty"`

	PresetName             string `json:"preset_name,omitempty"`
	PresetType             string `json:"preset_type,omitempty"`
	PresetStyleDescription string `json:"preset_style_description,omitempty"`

	MasterStyleReference *ReferenceImage `json:"master_style_reference,omitempty"`
}

// ThumbnailSettings holds every knob of a video thumbnail generation.
type ThumbnailSettings struct {
	MainText      string     `json:"main_text"`
	SecondaryText string     `json:"secondary_text,omitempty"`
	AvatarSide    AvatarSide `json:"avatar_side"`

	Vibe           ThumbnailVibe `json:"vibe"`
	ProjectContext string        `json:"project_context"`

	EnvironmentMaterial EnvironmentMaterial `json:"environment_material"`
	DepthLevel          DepthLevel          `json:"depth_level"`
	LightingStyle       LightingStyle       `json:"lighting_style"`
	KeyLight            LightSource         `json:"key_light"`
	RimLight            LightSource         `json:"rim_light"`
	FillLight           LightSource         `json:"fill_light"`
	VolumetricLight     LightSource         `json:"volumetric_light"`
}

// Settings is the tagged union consumed by the prompt composer. Exactly one
// variant matching Kind is populated.
type Settings struct {
	Kind       SettingsKind        `json:"kind"`
	Background *BackgroundSettings `json:"background,omitempty"`
	Thumbnail  *ThumbnailSettings  `json:"thumbnail,omitempty"`
}
