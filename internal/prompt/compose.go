// Package prompt translates a settings object into the natural-language
// instruction sent to the image model. Composition is pure and deterministic:
// identical inputs always produce byte-identical text.
package prompt

import (
	"fmt"
	"strings"

	"backdrop/internal/domain"
)

// realismProtocol is embedded in every non-refinement prompt. The model
// drifts toward illustration styles without it.
const realismProtocol = `### STRICT REALISM PROTOCOL (NO CARTOONS ALLOWED)
1. STYLE: RAW PHOTOGRAPHY (full-frame mirrorless).
2. TEXTURE: Skin MUST have visible pores, moles, and micro-texture. NO "smooth plastic" or "airbrushed" look.
3. LIGHTING: Physically based rendering (PBR). Shadows must match the light sources.
4. FORBIDDEN: Illustration, Drawing, Painting, Anime, 3D Character Art, Plastic Skin.
5. IDENTITY: The face must be a DIGITAL CLONE of the reference.`

// Input gathers everything composition depends on.
type Input struct {
	Kind              domain.OutputKind
	UIMode            domain.UIMode
	Settings          domain.Settings
	HasContextImage   bool
	RefineInstruction string
}

// Compose builds the final instruction text. Refinement with a context image
// short-circuits everything else: the model edits in place and must not be
// re-briefed on the full scene.
func Compose(in Input) string {
	if in.RefineInstruction != "" && in.HasContextImage {
		return composeRefinement(in)
	}
	if in.Settings.Kind == domain.SettingsThumbnail {
		return composeThumbnail(in.Settings.Thumbnail)
	}
	return composeBackground(in)
}

func composeRefinement(in Input) string {
	if in.Settings.Kind == domain.SettingsThumbnail {
		return fmt.Sprintf("ROLE: Thumbnail Editor. TASK: Edit the provided image strictly following: %q. KEEP IDENTITY PRESERVED.", in.RefineInstruction)
	}
	var b strings.Builder
	b.WriteString("ROLE: Senior Retoucher. ")
	fmt.Fprintf(&b, "TASK: Edit the photo strictly following: %q. ", in.RefineInstruction)
	b.WriteString("RULES:\n")
	b.WriteString(realismProtocol)
	b.WriteString("\nKEEP IDENTITY PRESERVED.")
	return b.String()
}

func composeBackground(in Input) string {
	s := in.Settings.Background
	if s == nil {
		s = &domain.BackgroundSettings{}
	}

	var b strings.Builder
	b.WriteString("ROLE: High-End CGI Artist & Photographer.\n")
	b.WriteString("TASK: Create a Photorealistic Website Hero Background.\n\n")
	b.WriteString(realismProtocol)
	b.WriteString("\n\n### 1. CAMERA & SUBJECT\n")
	writeCameraRig(&b, in.Kind, s)
	fmt.Fprintf(&b, "- SUBJECT DETAILS: %s\n", s.SubjectDescription)

	b.WriteString("\n### 2. LIGHTING & ATMOSPHERE (STRICT ADHERENCE)\n")
	fmt.Fprintf(&b, "- BASE STYLE: %s.\n", s.LightingStyle)
	writeLightingBlock(&b, backgroundLights(s))

	b.WriteString("\n### 3. ENVIRONMENT\n")
	fmt.Fprintf(&b, "- NICHE: %s.\n", s.Niche)
	fmt.Fprintf(&b, "- DETAILS: %s.\n", s.EnvironmentDescription)
	fmt.Fprintf(&b, "- MATERIAL: %s (Realistic PBR Texture).\n", s.EnvironmentMaterial)
	fmt.Fprintf(&b, "- COLOR GRADING: %s.\n", s.ColorGrading)
	fmt.Fprintf(&b, "- DEPTH OF FIELD: %s.\n", s.DepthLevel)
	if desc := strings.TrimSpace(s.PresetStyleDescription); desc != "" {
		fmt.Fprintf(&b, "- ART DIRECTION: %s.\n", desc)
	}
	if s.FloatingElements {
		props := s.FloatingElementsDescription
		if props == "" {
			props = "Abstract tech shapes, glass shards"
		}
		fmt.Fprintf(&b, "- SCENOGRAPHY: Add floating 3D elements (%s) around the subject.\n", props)
		b.WriteString("- DEPTH: Use Depth of Field (Bokeh) to blur background elements.\n")
	}

	if s.MasterStyleReference != nil {
		b.WriteString("\n### 4. STYLE REFERENCE\n")
		b.WriteString("- STYLE CLONE: Copy the exact mood, texture quality, and color palette of the \"Reference Style Blueprint\" image.\n")
	}

	if in.UIMode == domain.UIModeQuick || s.StyleMode == domain.StyleFade {
		b.WriteString("\n### UI LAYER (COMPOSITING)\n")
		b.WriteString("- ACTION: Bake a linear gradient overlay for text readability.\n")
		fmt.Fprintf(&b, "- COLOR: %s (Hex).\n", s.GradientColor)
		fmt.Fprintf(&b, "- DIRECTION: %s.\n", gradientDirectionText(s.GradientDirection))
		b.WriteString("- INTENSITY: Start at 100% opacity, fade to 0%.\n")
	}

	b.WriteString("\n### NEGATIVE PROMPT (AVOID)\n")
	b.WriteString("- NO CARTOONS, NO DRAWINGS, NO ILLUSTRATIONS.\n")
	b.WriteString("- NO PLASTIC SKIN.\n")
	b.WriteString("- DO NOT IGNORE SELECTED LIGHT COLORS.\n")
	b.WriteString("- DO NOT CHANGE SUBJECT POSITION.\n")
	b.WriteString("\nOUTPUT: 8K Raw Photo.")
	return b.String()
}

func writeCameraRig(b *strings.Builder, kind domain.OutputKind, s *domain.BackgroundSettings) {
	if kind == domain.OutputMobile {
		b.WriteString("- FORMAT: 9:16 Vertical.\n")
		b.WriteString("- COMPOSITION: Subject CENTERED.\n")
		b.WriteString("- HEADROOM: Leave clear space above head for UI.\n")
		return
	}

	var placement string
	switch s.Position {
	case domain.PositionLeft:
		placement = "Subject MUST be on the LEFT THIRD. Right side EMPTY."
	case domain.PositionRight:
		placement = "Subject MUST be on the RIGHT THIRD. Left side EMPTY."
	default:
		placement = "Subject CENTERED."
	}
	b.WriteString("- FORMAT: 16:9 Horizontal.\n")
	fmt.Fprintf(b, "- POSITIONING: %s. %s\n", strings.ToUpper(string(s.Position)), placement)
	fmt.Fprintf(b, "- FRAMING: %s.\n", s.Framing)
	b.WriteString("- WARNING: Ignore the reference image's position. Use the position specified HERE.\n")
}

// lightSpec pairs a fixed slot description with one configured light source.
type lightSpec struct {
	slot  string
	light domain.LightSource
}

func backgroundLights(s *domain.BackgroundSettings) []string {
	specs := []lightSpec{
		{"SOURCE A (Back/Edge): High Intensity RIM LIGHT. Color: %s (Hex). Purpose: Separation.", s.RimLight},
		{"SOURCE B (Front/Face): Soft KEY LIGHT. Color: %s (Hex). Purpose: Face illumination.", s.KeyLight},
		{"SOURCE C (Fill): Low Intensity FILL. Color: %s (Hex).", s.FillLight},
		{"SOURCE D (Atmosphere): Volumetric Fog/Haze. Color: %s (Hex).", s.VolumetricLight},
	}
	var active []string
	for _, spec := range specs {
		if spec.light.Enabled {
			active = append(active, fmt.Sprintf(spec.slot, spec.light.Color))
		}
	}
	if s.BackgroundTint.Enabled {
		active = append(active, fmt.Sprintf(
			"SOURCE E (Environment): Background Ambient Tint. Color: %s (Hex) at %d%% opacity.",
			s.BackgroundTint.Color, int(s.BackgroundTint.Opacity*100+0.5)))
	}
	return active
}

func writeLightingBlock(b *strings.Builder, active []string) {
	if len(active) == 0 {
		b.WriteString("LIGHTING: Professional Studio Lighting (Rembrandt or Split).\n")
		return
	}
	b.WriteString("### MULTI-LIGHT SETUP (RENDER ALL DISTINCTLY)\n")
	b.WriteString("You are a virtual gaffer. Place these SPECIFIC lights in the scene.\n")
	b.WriteString("DO NOT blend them into one color. If Rim is Red and Key is Blue, I want to see RED EDGES and BLUE FACE simultaneously.\n")
	for _, line := range active {
		b.WriteString(line)
		b.WriteString("\n")
	}
}

func gradientDirectionText(dir domain.GradientDirection) string {
	switch dir {
	case domain.GradientTopDown:
		return "Top (Opaque) to Bottom (Transparent)"
	case domain.GradientLeftRight:
		return "Left (Opaque) to Right (Transparent)"
	case domain.GradientRightLeft:
		return "Right (Opaque) to Left (Transparent)"
	default:
		return "Bottom (Opaque) to Top (Transparent)"
	}
}

func composeThumbnail(s *domain.ThumbnailSettings) string {
	if s == nil {
		s = &domain.ThumbnailSettings{}
	}

	var b strings.Builder
	b.WriteString("ROLE: Viral Video Thumbnail Artist.\n")
	b.WriteString(realismProtocol)
	b.WriteString("\n")
	fmt.Fprintf(&b, "CONTEXT: %s.\n", s.ProjectContext)
	fmt.Fprintf(&b, "VIBE: %s.\n\n", s.Vibe)

	b.WriteString("### LAYOUT (STRICT)\n")
	side := "RIGHT"
	if s.AvatarSide == domain.AvatarLeft {
		side = "LEFT"
	}
	fmt.Fprintf(&b, "- AVATAR: Place on the %s side.\n", side)
	b.WriteString("- EXPRESSION: Hyper-real, intense emotion.\n")
	b.WriteString("- SPACE: Leave opposite side EMPTY for text.\n\n")

	b.WriteString("### LIGHTING (MULTI-SOURCE)\n")
	fmt.Fprintf(&b, "- STYLE: %s.\n", s.LightingStyle)
	if s.RimLight.Enabled {
		fmt.Fprintf(&b, "- RIM LIGHT: %s (Hex) Hard Edge Light.\n", s.RimLight.Color)
	}
	if s.KeyLight.Enabled {
		fmt.Fprintf(&b, "- KEY LIGHT: %s (Hex) on Face.\n", s.KeyLight.Color)
	}
	if s.FillLight.Enabled {
		fmt.Fprintf(&b, "- FILL LIGHT: %s (Hex) Low Intensity.\n", s.FillLight.Color)
	}
	if s.VolumetricLight.Enabled {
		fmt.Fprintf(&b, "- VOLUMETRIC: %s (Hex) Atmospheric Haze.\n", s.VolumetricLight.Color)
	}

	b.WriteString("\n### BACKGROUND\n")
	fmt.Fprintf(&b, "- Material: %s.\n", s.EnvironmentMaterial)
	b.WriteString("- Quality: Photorealistic 8K.")
	return b.String()
}
