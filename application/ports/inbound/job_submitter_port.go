package inbound

import (
	"context"

	"prompt-to-video/domain"
)

// JobSubmitterPort submits generation jobs to the provider with bounded
// retry. Submission carries no idempotency key: two identical calls produce
// two independent jobs.
type JobSubmitterPort interface {
	Submit(ctx context.Context, req domain.GenerationRequest, conditioning domain.ConditioningSet) (*domain.JobHandle, error)
	SubmitVideo(ctx context.Context, startImageURL string, prompt string) (*domain.JobHandle, error)
}
