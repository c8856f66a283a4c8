package services

import (
	"context"
	"time"

	"prompt-to-video/application/ports/inbound"
	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"
	"prompt-to-video/domain"
)

type jobSubmitter struct {
	logger          outbound.LoggerPort
	predictions     outbound.PredictionClientPort
	replicateConfig *config.ReplicateConfig
}

func NewJobSubmitter(logger outbound.LoggerPort, predictions outbound.PredictionClientPort,
	replicateConfig *config.ReplicateConfig) inbound.JobSubmitterPort {
	return &jobSubmitter{
		logger:          logger,
		predictions:     predictions,
		replicateConfig: replicateConfig,
	}
}

func (s *jobSubmitter) Submit(ctx context.Context, req domain.GenerationRequest,
	conditioning domain.ConditioningSet) (*domain.JobHandle, error) {
	return s.submitWithRetry(ctx, s.buildImageInput(req, conditioning))
}

func (s *jobSubmitter) SubmitVideo(ctx context.Context, startImageURL string, prompt string) (*domain.JobHandle, error) {
	if startImageURL == "" {
		return nil, domain.Classify(&domain.ValidationError{Reason: "start image is required for video generation"})
	}
	return s.submitWithRetry(ctx, outbound.PredictionInput{
		Model:        s.replicateConfig.VideoModel,
		Prompt:       prompt,
		SeedImageURL: startImageURL,
		Duration:     s.replicateConfig.VideoDuration,
		Resolution:   s.replicateConfig.VideoResolution,
	})
}

// buildImageInput shapes the provider payload. Conditioning and seed image
// are mutually exclusive: a non-empty conditioning set leaves the seed field
// unset, since combining both produces conflicting guidance.
func (s *jobSubmitter) buildImageInput(req domain.GenerationRequest,
	conditioning domain.ConditioningSet) outbound.PredictionInput {
	input := outbound.PredictionInput{
		Model:           s.replicateConfig.ImageModel,
		Prompt:          req.Prompt,
		AspectRatio:     s.replicateConfig.AspectRatio,
		OutputFormat:    s.replicateConfig.OutputFormat,
		OutputQuality:   s.replicateConfig.OutputQuality,
		SafetyTolerance: s.replicateConfig.SafetyTolerance,
	}

	if !conditioning.Empty() {
		input.ConditioningImageURLs = conditioning.ImageURLs
		input.ConditioningScale = conditioning.Scale
	} else {
		input.SeedImageURL = req.SeedImageURL
	}

	return input
}

func (s *jobSubmitter) submitWithRetry(ctx context.Context, input outbound.PredictionInput) (*domain.JobHandle, error) {
	var lastErr *domain.ClassifiedError

	for attempt := 1; attempt <= s.replicateConfig.MaxSubmitAttempts; attempt++ {
		id, err := s.predictions.CreatePrediction(ctx, input)
		if err == nil {
			return &domain.JobHandle{
				JobID:       id,
				SubmittedAt: time.Now(),
			}, nil
		}

		classified := domain.Classify(err)
		lastErr = classified
		if !classified.Retryable {
			s.logger.ErrorWithFields(err, "submission failed with non-retryable error", map[string]interface{}{
				"model":   input.Model,
				"kind":    classified.Kind,
				"attempt": attempt,
			})
			return nil, classified
		}

		s.logger.WarnWithFields("submission attempt failed, retrying", map[string]interface{}{
			"model":   input.Model,
			"kind":    classified.Kind,
			"attempt": attempt,
		})

		if attempt < s.replicateConfig.MaxSubmitAttempts {
			select {
			case <-time.After(s.backoffFor(attempt)):
			case <-ctx.Done():
				return nil, domain.Classify(ctx.Err())
			}
		}
	}

	s.logger.Error(lastErr, "submission attempts exhausted")
	return nil, lastErr
}

// backoffFor grows linearly with the attempt number, so delays between
// attempts never decrease.
func (s *jobSubmitter) backoffFor(attempt int) time.Duration {
	return time.Duration(attempt) * s.replicateConfig.SubmitBackoff
}
