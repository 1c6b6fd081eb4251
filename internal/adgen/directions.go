package adgen

import "server/internal/domain"

// DefaultDirections is the fixed, ordered set of creative directions used to
// produce a batch of distinct ad renderings from the same inputs. The order
// is significant: result slot i always corresponds to direction i.
func DefaultDirections() []domain.CreativeDirection {
	return []domain.CreativeDirection{
		{
			ID:    "vibrant",
			Label: "Bold & Vibrant",
			Prompt: "Design a bold, high-energy advertisement with saturated colors, " +
				"dynamic composition, and strong visual contrast. The product is the " +
				"hero of the frame; make it pop against an eye-catching backdrop.",
		},
		{
			ID:    "minimal",
			Label: "Minimal & Clean",
			Prompt: "Design a minimalist advertisement with generous negative space, " +
				"a restrained palette, soft studio lighting, and precise typography. " +
				"Premium, calm, gallery-like presentation of the product.",
		},
		{
			ID:    "lifestyle",
			Label: "Lifestyle Scene",
			Prompt: "Design an advertisement that places the product in a warm, " +
				"authentic lifestyle scene with natural light and believable context, " +
				"as if captured candidly in everyday use.",
		},
	}
}
