package inbound

import (
	"context"

	"prompt-to-video/domain"
)

// JobPollerPort observes provider job state. Poll is a single stateless
// probe; WaitForCompletion loops with the configured cadence and budget for
// the given job kind.
type JobPollerPort interface {
	Poll(ctx context.Context, handle domain.JobHandle) (*domain.JobStatus, error)
	WaitForCompletion(ctx context.Context, handle domain.JobHandle, kind domain.JobKind) (*domain.JobStatus, error)
}
