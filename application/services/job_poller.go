package services

import (
	"context"
	"time"

	"prompt-to-video/application/ports/inbound"
	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"
	"prompt-to-video/domain"
)

// jobPoller holds no state between probes; the provider is the source of
// truth, so a poll loop survives process restarts.
type jobPoller struct {
	logger          outbound.LoggerPort
	predictions     outbound.PredictionClientPort
	replicateConfig *config.ReplicateConfig
}

func NewJobPoller(logger outbound.LoggerPort, predictions outbound.PredictionClientPort,
	replicateConfig *config.ReplicateConfig) inbound.JobPollerPort {
	return &jobPoller{
		logger:          logger,
		predictions:     predictions,
		replicateConfig: replicateConfig,
	}
}

func (p *jobPoller) Poll(ctx context.Context, handle domain.JobHandle) (*domain.JobStatus, error) {
	state, err := p.predictions.GetPrediction(ctx, handle.JobID)
	if err != nil {
		return nil, domain.Classify(err)
	}
	return mapPredictionState(state), nil
}

func (p *jobPoller) WaitForCompletion(ctx context.Context, handle domain.JobHandle,
	kind domain.JobKind) (*domain.JobStatus, error) {
	interval, timeout := p.budgetFor(kind)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for probes := 0; probes < p.replicateConfig.MaxPollAttempts; probes++ {
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, domain.Classify(ctx.Err())
			}
			return nil, domain.NewTimeoutError(handle.JobID)
		case <-ticker.C:
			status, err := p.Poll(waitCtx, handle)
			if err != nil {
				classified := domain.Classify(err)
				if !classified.Retryable {
					return nil, classified
				}
				// Transient probe failures are absorbed; the next tick
				// retries within the same overall budget.
				p.logger.WarnWithFields("poll probe failed, retrying on next tick", map[string]interface{}{
					"job_id": handle.JobID,
					"kind":   classified.Kind,
				})
				continue
			}
			if status.State.IsTerminal() {
				return status, nil
			}
		}
	}

	return nil, domain.NewTimeoutError(handle.JobID)
}

func (p *jobPoller) budgetFor(kind domain.JobKind) (time.Duration, time.Duration) {
	if kind == domain.VideoJob {
		return p.replicateConfig.VideoPollInterval, p.replicateConfig.VideoPollTimeout
	}
	return p.replicateConfig.ImagePollInterval, p.replicateConfig.ImagePollTimeout
}

// mapPredictionState converts provider wording to the job state machine. A
// status this service has never seen counts as still processing; only the
// provider decides terminal states.
func mapPredictionState(state *outbound.PredictionState) *domain.JobStatus {
	switch state.Status {
	case "starting":
		return &domain.JobStatus{State: domain.JobStarting}
	case "succeeded":
		return &domain.JobStatus{State: domain.JobSucceeded, ArtifactURL: state.OutputURL}
	case "failed", "canceled":
		return &domain.JobStatus{State: domain.JobFailed, FailureReason: state.ErrorDetail}
	default:
		return &domain.JobStatus{State: domain.JobProcessing}
	}
}
