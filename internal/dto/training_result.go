package dto

// TrainingResult reports what a training request fitted.
type TrainingResult struct {
	Epochs  int `json:"epochs,omitempty"`
	Samples int `json:"samples,omitempty"`
}
