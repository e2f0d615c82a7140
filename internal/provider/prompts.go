package provider

import "github.com/tryonlabs/tryon/internal/db/models"

var itemPrompts = map[models.ItemType]string{
	models.ItemTypeGlasses:  "Place the glasses from the second image naturally on the face of the person in the first image, aligned with the eyes and the bridge of the nose.",
	models.ItemTypeHat:      "Place the hat from the second image on the head of the person in the first image, matching head tilt and scale.",
	models.ItemTypeEarrings: "Add the earrings from the second image to the earlobes of the person in the first image, keeping both sides symmetric.",
	models.ItemTypeNecklace: "Drape the necklace from the second image around the neck of the person in the first image, following the neckline.",
	models.ItemTypeClothing: "Dress the person in the first image in the garment from the second image, preserving pose, body shape and background.",
}

const promptSuffix = " Keep the person's identity, skin tone, lighting and background unchanged. Output a single photorealistic image."

// PromptFor returns the instruction sent to the provider for the item type
func PromptFor(itemType models.ItemType) string {
	prompt, ok := itemPrompts[itemType]
	if !ok {
		prompt = itemPrompts[models.ItemTypeGlasses]
	}
	return prompt + promptSuffix
}
