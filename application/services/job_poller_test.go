package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"
	"prompt-to-video/domain"
	"prompt-to-video/infrastructure/adapters"
)

func newTestPoller(stub *predictionClientStub, cfg *config.ReplicateConfig) *jobPoller {
	return &jobPoller{
		logger:          adapters.NewZerologWrapper(),
		predictions:     stub,
		replicateConfig: cfg,
	}
}

func TestPoll_MapsProviderStates(t *testing.T) {
	cases := []struct {
		providerStatus string
		wantState      domain.JobState
	}{
		{providerStatus: "starting", wantState: domain.JobStarting},
		{providerStatus: "processing", wantState: domain.JobProcessing},
		{providerStatus: "succeeded", wantState: domain.JobSucceeded},
		{providerStatus: "failed", wantState: domain.JobFailed},
		{providerStatus: "canceled", wantState: domain.JobFailed},
		{providerStatus: "some-future-status", wantState: domain.JobProcessing},
	}

	for _, tc := range cases {
		t.Run(tc.providerStatus, func(t *testing.T) {
			stub := &predictionClientStub{
				getFn: func(id string, _ int) (*outbound.PredictionState, error) {
					return &outbound.PredictionState{ID: id, Status: tc.providerStatus}, nil
				},
			}
			poller := newTestPoller(stub, testReplicateConfig())

			status, err := poller.Poll(context.Background(), domain.JobHandle{JobID: "job-1"})
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			if status.State != tc.wantState {
				t.Errorf("state = %s, want %s", status.State, tc.wantState)
			}
		})
	}
}

func TestPoll_CarriesArtifactAndFailureDetail(t *testing.T) {
	stub := &predictionClientStub{
		getFn: func(id string, _ int) (*outbound.PredictionState, error) {
			return &outbound.PredictionState{
				ID:        id,
				Status:    "succeeded",
				OutputURL: "https://cdn.example.com/out.png",
			}, nil
		},
	}
	poller := newTestPoller(stub, testReplicateConfig())

	status, err := poller.Poll(context.Background(), domain.JobHandle{JobID: "job-1"})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if status.ArtifactURL != "https://cdn.example.com/out.png" {
		t.Errorf("artifact url = %s", status.ArtifactURL)
	}

	stub.getFn = func(id string, _ int) (*outbound.PredictionState, error) {
		return &outbound.PredictionState{ID: id, Status: "failed", ErrorDetail: "NSFW content"}, nil
	}
	status, err = poller.Poll(context.Background(), domain.JobHandle{JobID: "job-1"})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if status.FailureReason != "NSFW content" {
		t.Errorf("failure reason = %s", status.FailureReason)
	}
}

func TestWaitForCompletion_StopsAtTerminalState(t *testing.T) {
	sequence := []string{"starting", "processing", "succeeded"}
	stub := &predictionClientStub{
		getFn: func(id string, call int) (*outbound.PredictionState, error) {
			status := sequence[len(sequence)-1]
			if call <= len(sequence) {
				status = sequence[call-1]
			}
			return &outbound.PredictionState{ID: id, Status: status, OutputURL: "https://cdn.example.com/out.png"}, nil
		},
	}
	poller := newTestPoller(stub, testReplicateConfig())

	status, err := poller.WaitForCompletion(context.Background(), domain.JobHandle{JobID: "job-1"}, domain.ImageJob)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if status.State != domain.JobSucceeded {
		t.Errorf("state = %s, want %s", status.State, domain.JobSucceeded)
	}
	if stub.getCalls != len(sequence) {
		t.Errorf("probes = %d, want %d: polling must stop at the first terminal state", stub.getCalls, len(sequence))
	}
}

func TestWaitForCompletion_ReturnsFailedStatusWithoutError(t *testing.T) {
	stub := &predictionClientStub{
		getFn: func(id string, _ int) (*outbound.PredictionState, error) {
			return &outbound.PredictionState{ID: id, Status: "failed", ErrorDetail: "boom"}, nil
		},
	}
	poller := newTestPoller(stub, testReplicateConfig())

	status, err := poller.WaitForCompletion(context.Background(), domain.JobHandle{JobID: "job-1"}, domain.ImageJob)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if status.State != domain.JobFailed {
		t.Errorf("state = %s, want %s", status.State, domain.JobFailed)
	}
	if status.FailureReason != "boom" {
		t.Errorf("failure reason = %s", status.FailureReason)
	}
}

func TestWaitForCompletion_TimesOut(t *testing.T) {
	stub := &predictionClientStub{
		getFn: func(id string, _ int) (*outbound.PredictionState, error) {
			return &outbound.PredictionState{ID: id, Status: "processing"}, nil
		},
	}
	cfg := testReplicateConfig()
	cfg.ImagePollInterval = time.Millisecond
	cfg.ImagePollTimeout = 20 * time.Millisecond
	poller := newTestPoller(stub, cfg)

	_, err := poller.WaitForCompletion(context.Background(), domain.JobHandle{JobID: "job-1"}, domain.ImageJob)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	classified := domain.Classify(err)
	if classified.Kind != domain.ErrTransient {
		t.Errorf("kind = %s, want %s", classified.Kind, domain.ErrTransient)
	}
	if classified.UserMessage != "job did not complete in time" {
		t.Errorf("user message = %q", classified.UserMessage)
	}
}

func TestWaitForCompletion_ProbeBudget(t *testing.T) {
	stub := &predictionClientStub{
		getFn: func(id string, _ int) (*outbound.PredictionState, error) {
			return &outbound.PredictionState{ID: id, Status: "processing"}, nil
		},
	}
	cfg := testReplicateConfig()
	cfg.MaxPollAttempts = 4
	poller := newTestPoller(stub, cfg)

	_, err := poller.WaitForCompletion(context.Background(), domain.JobHandle{JobID: "job-1"}, domain.ImageJob)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if stub.getCalls != cfg.MaxPollAttempts {
		t.Errorf("probes = %d, want %d", stub.getCalls, cfg.MaxPollAttempts)
	}
}

func TestWaitForCompletion_SwallowsTransientProbeFailures(t *testing.T) {
	stub := &predictionClientStub{
		getFn: func(id string, call int) (*outbound.PredictionState, error) {
			if call == 1 {
				return nil, errors.New("read tcp: connection reset by peer")
			}
			return &outbound.PredictionState{ID: id, Status: "succeeded", OutputURL: "https://cdn.example.com/out.png"}, nil
		},
	}
	poller := newTestPoller(stub, testReplicateConfig())

	status, err := poller.WaitForCompletion(context.Background(), domain.JobHandle{JobID: "job-1"}, domain.ImageJob)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if status.State != domain.JobSucceeded {
		t.Errorf("state = %s, want %s", status.State, domain.JobSucceeded)
	}
	if stub.getCalls != 2 {
		t.Errorf("probes = %d, want 2", stub.getCalls)
	}
}

func TestWaitForCompletion_NonRetryableProbeFailureAborts(t *testing.T) {
	stub := &predictionClientStub{
		getFn: func(string, int) (*outbound.PredictionState, error) {
			return nil, &domain.ProviderAPIError{StatusCode: 401}
		},
	}
	poller := newTestPoller(stub, testReplicateConfig())

	_, err := poller.WaitForCompletion(context.Background(), domain.JobHandle{JobID: "job-1"}, domain.ImageJob)
	if err == nil {
		t.Fatal("expected an error")
	}
	if classified := domain.Classify(err); classified.Kind != domain.ErrAuthenticationFailed {
		t.Errorf("kind = %s, want %s", classified.Kind, domain.ErrAuthenticationFailed)
	}
	if stub.getCalls != 1 {
		t.Errorf("probes = %d, want 1", stub.getCalls)
	}
}

func TestWaitForCompletion_CallerCancellation(t *testing.T) {
	stub := &predictionClientStub{
		getFn: func(id string, _ int) (*outbound.PredictionState, error) {
			return &outbound.PredictionState{ID: id, Status: "processing"}, nil
		},
	}
	poller := newTestPoller(stub, testReplicateConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := poller.WaitForCompletion(ctx, domain.JobHandle{JobID: "job-1"}, domain.ImageJob)
	if err == nil {
		t.Fatal("expected an error")
	}
	if classified := domain.Classify(err); classified.Kind != domain.ErrTransient {
		t.Errorf("kind = %s, want %s", classified.Kind, domain.ErrTransient)
	}
}

func TestBudgetFor(t *testing.T) {
	cfg := testReplicateConfig()
	cfg.ImagePollTimeout = 5 * time.Minute
	cfg.VideoPollTimeout = 10 * time.Minute
	poller := newTestPoller(&predictionClientStub{}, cfg)

	_, imageTimeout := poller.budgetFor(domain.ImageJob)
	if imageTimeout != 5*time.Minute {
		t.Errorf("image timeout = %v, want 5m", imageTimeout)
	}
	_, videoTimeout := poller.budgetFor(domain.VideoJob)
	if videoTimeout != 10*time.Minute {
		t.Errorf("video timeout = %v, want 10m", videoTimeout)
	}
}
