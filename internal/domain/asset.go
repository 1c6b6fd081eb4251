package domain

import "strings"

// ImageAsset is an uploaded input image. Instances are immutable once
// constructed; components share references, never mutate them.
type ImageAsset struct {
	Data []byte `json:"data"`
	MIME string `json:"mime_type"`
}

// IsZero reports whether the asset carries no payload.
func (a ImageAsset) IsZero() bool {
	return len(a.Data) == 0
}

// AdCopy is the textual triple rendered into the advertisement. Headline and
// description are required unless copy is explicitly skipped for the request.
type AdCopy struct {
	Headline    string `json:"headline"`
	Description string `json:"description"`
	CTA         string `json:"cta"`
}

// Complete reports whether the copy satisfies the minimum for generation.
func (c AdCopy) Complete() bool {
	return strings.TrimSpace(c.Headline) != "" && strings.TrimSpace(c.Description) != ""
}

// CreativeDirection selects one of the fixed, ordered generation styles. The
// prompt body is an opaque payload from the engine's perspective; only the
// ordering and the identifier carry meaning.
type CreativeDirection struct {
	ID     string
	Label  string
	Prompt string
}

// AdResult is one rendered advertisement image, addressed by batch slot.
type AdResult struct {
	Data []byte `json:"data"`
	MIME string `json:"mime_type"`
}

// IsZero reports whether the slot has been populated yet.
func (r AdResult) IsZero() bool {
	return len(r.Data) == 0
}
