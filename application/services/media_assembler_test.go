package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"prompt-to-video/application/ports/inbound"
	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/domain"
	"prompt-to-video/infrastructure/adapters"
)

type stitcherStub struct {
	calls    int
	received []domain.VideoAsset
	err      error
}

func (s *stitcherStub) Concatenate(assets []domain.VideoAsset) (string, error) {
	s.calls++
	s.received = assets
	if s.err != nil {
		return "", s.err
	}
	return "/tmp/final.mp4", nil
}

type publisherStub struct {
	calls int
	err   error
}

func (p *publisherStub) Publish(_ context.Context, req outbound.PublishVideoRequest) (*outbound.PublishVideoResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &outbound.PublishVideoResponse{
		VideoKey: "user/" + req.UserID + "/project/" + req.ProjectID + "/video/final.mp4",
		VideoURL: "https://bucket.s3.us-east-1.amazonaws.com/final.mp4",
	}, nil
}

func newTestAssembler(stitcher *stitcherStub, publisher *publisherStub) inbound.MediaAssemblerPort {
	return NewMediaAssembler(adapters.NewZerologWrapper(), stitcher, publisher)
}

func writeSegments(t *testing.T, sceneIndexes ...int) []domain.VideoAsset {
	t.Helper()
	dir := t.TempDir()
	assets := make([]domain.VideoAsset, 0, len(sceneIndexes))
	for _, idx := range sceneIndexes {
		name := filepath.Join(dir, fmt.Sprintf("scene-%d.mp4", idx))
		if err := os.WriteFile(name, []byte("clip"), 0o644); err != nil {
			t.Fatal("failed to write segment:", err)
		}
		assets = append(assets, domain.VideoAsset{SceneIndex: idx, FileName: name})
	}
	return assets
}

func TestAssemble_OrdersBySceneIndex(t *testing.T) {
	stitcher := &stitcherStub{}
	assembler := newTestAssembler(stitcher, &publisherStub{})

	assets := writeSegments(t, 2, 0, 1)
	result, err := assembler.Assemble(context.Background(), inbound.AssembleParams{
		ProjectID: "project-1",
		Assets:    assets,
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if result.OutputFileName != "/tmp/final.mp4" {
		t.Errorf("output = %s", result.OutputFileName)
	}
	for i, asset := range stitcher.received {
		if asset.SceneIndex != i {
			t.Errorf("position %d holds scene %d: concatenation must follow scene order", i, asset.SceneIndex)
		}
	}
}

func TestAssemble_DoesNotMutateCallerSlice(t *testing.T) {
	stitcher := &stitcherStub{}
	assembler := newTestAssembler(stitcher, &publisherStub{})

	assets := writeSegments(t, 1, 0)
	_, err := assembler.Assemble(context.Background(), inbound.AssembleParams{
		ProjectID: "project-1",
		Assets:    assets,
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if assets[0].SceneIndex != 1 {
		t.Error("the caller's slice must not be reordered")
	}
}

func TestAssemble_EmptyInput(t *testing.T) {
	assembler := newTestAssembler(&stitcherStub{}, &publisherStub{})

	_, err := assembler.Assemble(context.Background(), inbound.AssembleParams{ProjectID: "project-1"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if classified := domain.Classify(err); classified.Kind != domain.ErrInvalidRequest {
		t.Errorf("kind = %s, want %s", classified.Kind, domain.ErrInvalidRequest)
	}
}

func TestAssemble_MissingSegmentFails(t *testing.T) {
	stitcher := &stitcherStub{}
	assembler := newTestAssembler(stitcher, &publisherStub{})

	assets := writeSegments(t, 0)
	assets = append(assets, domain.VideoAsset{SceneIndex: 1, FileName: "/nonexistent/scene-b.mp4"})

	_, err := assembler.Assemble(context.Background(), inbound.AssembleParams{
		ProjectID: "project-1",
		Assets:    assets,
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if stitcher.calls != 0 {
		t.Error("a missing segment must fail assembly before concatenation starts")
	}
}

func TestAssemble_ConcatenationFailureSurfaces(t *testing.T) {
	stitcher := &stitcherStub{err: errors.New("ffmpeg exited with status 1")}
	assembler := newTestAssembler(stitcher, &publisherStub{})

	assets := writeSegments(t, 0, 1)
	_, err := assembler.Assemble(context.Background(), inbound.AssembleParams{
		ProjectID: "project-1",
		Assets:    assets,
	})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestAssemble_PublishFailureIsNotFatal(t *testing.T) {
	publisher := &publisherStub{err: errors.New("s3 is down")}
	assembler := newTestAssembler(&stitcherStub{}, publisher)

	assets := writeSegments(t, 0, 1)
	result, err := assembler.Assemble(context.Background(), inbound.AssembleParams{
		ProjectID: "project-1",
		UserID:    "user-1",
		Assets:    assets,
		Upload:    true,
	})
	if err != nil {
		t.Fatal("a failed upload must not fail the assembly:", err)
	}
	if result.OutputFileName != "/tmp/final.mp4" {
		t.Errorf("output = %s", result.OutputFileName)
	}
	if result.RemoteURL != "" || result.RemoteKey != "" {
		t.Error("remote fields must stay empty when publishing failed")
	}
	if publisher.calls != 1 {
		t.Errorf("publish calls = %d, want 1", publisher.calls)
	}
}

func TestAssemble_PublishSuccessFillsRemoteFields(t *testing.T) {
	publisher := &publisherStub{}
	assembler := newTestAssembler(&stitcherStub{}, publisher)

	assets := writeSegments(t, 0)
	result, err := assembler.Assemble(context.Background(), inbound.AssembleParams{
		ProjectID: "project-1",
		UserID:    "user-1",
		Assets:    assets,
		Upload:    true,
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if result.RemoteURL == "" || result.RemoteKey == "" {
		t.Error("remote fields must be set after a successful publish")
	}
}

func TestAssemble_UploadDisabledSkipsPublisher(t *testing.T) {
	publisher := &publisherStub{}
	assembler := newTestAssembler(&stitcherStub{}, publisher)

	assets := writeSegments(t, 0)
	result, err := assembler.Assemble(context.Background(), inbound.AssembleParams{
		ProjectID: "project-1",
		Assets:    assets,
	})
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if publisher.calls != 0 {
		t.Error("the publisher must not run when upload is disabled")
	}
	if result.RemoteURL != "" {
		t.Error("remote url must stay empty when upload is disabled")
	}
}
