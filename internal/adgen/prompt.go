package adgen

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server/internal/domain"
	"server/internal/providers/genai"
)

// Request carries the shared parameters for a generation batch. The same
// request is reused when a single slot is regenerated later.
type Request struct {
	Assets      []domain.ImageAsset
	Copy        domain.AdCopy
	SkipCopy    bool
	AspectRatio string
	Locale      string
}

// Validate applies the programming-error checks that bypass retry entirely.
func (r Request) Validate() error {
	if len(r.Assets) == 0 {
		return domain.ErrMissingAssets
	}
	for _, asset := range r.Assets {
		if asset.IsZero() {
			return domain.ErrMissingAssets
		}
	}
	if !r.SkipCopy && !r.Copy.Complete() {
		return domain.ErrMissingCopy
	}
	return nil
}

// BuildGenerationParts assembles the ordered provider payload for one
// creative direction: every input asset as inline data, followed by a single
// text part combining the direction prompt, the ad copy, and the rendering
// constraints.
func BuildGenerationParts(req Request, dir domain.CreativeDirection) []genai.Part {
	parts := make([]genai.Part, 0, len(req.Assets)+1)
	for _, asset := range req.Assets {
		parts = append(parts, genai.Part{Inline: &genai.InlineData{
			MIME: asset.MIME,
			Data: asset.Data,
		}})
	}

	var lines []string
	lines = append(lines, "Create a professional advertisement image featuring the attached product photos.")
	lines = append(lines, dir.Prompt)

	if req.SkipCopy {
		lines = append(lines, "Do not render any text on the image; the composition must work without copy.")
	} else {
		c := cases.Title(language.Und)
		lines = append(lines, fmt.Sprintf("Headline text, prominent: %q.", strings.TrimSpace(req.Copy.Headline)))
		lines = append(lines, fmt.Sprintf("Supporting description text: %q.", strings.TrimSpace(req.Copy.Description)))
		if cta := strings.TrimSpace(req.Copy.CTA); cta != "" {
			lines = append(lines, fmt.Sprintf("Call-to-action button reading %q.", c.String(cta)))
		}
	}

	if aspect := strings.TrimSpace(req.AspectRatio); aspect != "" {
		lines = append(lines, fmt.Sprintf("Compose for a %s aspect ratio.", aspect))
	}
	if locale := strings.TrimSpace(req.Locale); locale != "" {
		lines = append(lines, fmt.Sprintf("Use %s language conventions for any on-image typography.", strings.ToUpper(locale)))
	}
	lines = append(lines, "Keep the product shape, texture, and branding faithful to the source photos.")

	parts = append(parts, genai.Part{Text: strings.Join(lines, "\n")})
	return parts
}

// BuildEditParts assembles the provider payload for one edit step: the
// current live image followed by the user's instruction. The instruction
// body is an opaque payload; only non-emptiness is enforced upstream.
func BuildEditParts(base domain.AdResult, instruction string) []genai.Part {
	text := strings.Join([]string{
		"Edit the attached advertisement image according to the instruction below.",
		"Apply only the requested change; keep every other aspect of the composition intact.",
		"Instruction: " + strings.TrimSpace(instruction),
	}, "\n")

	return []genai.Part{
		{Inline: &genai.InlineData{MIME: base.MIME, Data: base.Data}},
		{Text: text},
	}
}
