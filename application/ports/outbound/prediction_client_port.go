package outbound

import "context"

// PredictionInput is the provider payload for one generation job. The seed
// image and the conditioning list are mutually exclusive; payload builders
// must leave the seed empty whenever conditioning images are present.
type PredictionInput struct {
	Model                 string
	Prompt                string
	SeedImageURL          string
	ConditioningImageURLs []string
	ConditioningScale     float64
	AspectRatio           string
	OutputFormat          string
	OutputQuality         int
	SafetyTolerance       int
	Duration              int
	Resolution            string
}

// PredictionState is the provider's view of a job at one point in time.
type PredictionState struct {
	ID          string
	Status      string
	OutputURL   string
	ErrorDetail string
}

type PredictionClientPort interface {
	CreatePrediction(ctx context.Context, input PredictionInput) (string, error)
	GetPrediction(ctx context.Context, id string) (*PredictionState, error)
}
