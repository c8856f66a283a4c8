package inbound

import (
	"context"

	"prompt-to-video/domain"
)

type StartPipelineParams struct {
	ProjectID          string
	UserID             string
	Prompt             string
	ReferenceImageURLs []string
	Upload             bool
}

// ScenePipelinePort runs the full prompt-to-video flow. The event channel
// reports per-scene progress and closes after the terminal StageAssembled
// event; the error channel carries the first fatal failure.
type ScenePipelinePort interface {
	StartPipeline(ctx context.Context, params StartPipelineParams) (<-chan domain.SceneEvent, <-chan error)
}
