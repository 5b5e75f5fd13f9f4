package dto

// ExampleImage is one dataset image as the classifier sees it.
type ExampleImage struct {
	Label string `json:"label"`
	Image string `json:"image"` // base64 PNG, 64x64 grayscale
}
