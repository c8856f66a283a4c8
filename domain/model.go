package domain

import (
	"fmt"
	"time"
)

// A storyboard holds at most five scenes; every scene index lives in
// [MinSceneIndex, MaxSceneIndex].
const (
	MinSceneIndex = 0
	MaxSceneIndex = 4
)

type JobKind string

const (
	ImageJob JobKind = "image"
	VideoJob JobKind = "video"
)

type JobState string

const (
	JobStarting   JobState = "starting"
	JobProcessing JobState = "processing"
	JobSucceeded  JobState = "succeeded"
	JobFailed     JobState = "failed"
)

func (s JobState) IsTerminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// JobStatus is a single observation of a provider-side job. The provider is
// the only writer of the underlying state; this type never forces a
// transition.
type JobStatus struct {
	State         JobState
	ArtifactURL   string // populated only when State is JobSucceeded
	FailureReason string // populated only when State is JobFailed
}

// JobHandle identifies one submitted job for the lifetime of polling.
type JobHandle struct {
	JobID       string
	SubmittedAt time.Time
}

type Scene struct {
	Index       int
	Description string
}

// GenerationRequest describes one scene's image generation job.
type GenerationRequest struct {
	Prompt             string
	SceneIndex         int
	SeedImageURL       string
	ReferenceImageURLs []string
	ContinuityFrameURL string
}

// NewGenerationRequest validates the request before anything is sent to the
// provider. A seed image and reference images drive object identity through
// different mechanisms and must not be combined; reference conditioning wins.
func NewGenerationRequest(prompt string, sceneIndex int, seedImageURL string,
	referenceImageURLs []string, continuityFrameURL string) (GenerationRequest, error) {
	if prompt == "" {
		return GenerationRequest{}, &ValidationError{Reason: "prompt must not be empty"}
	}
	if sceneIndex < MinSceneIndex || sceneIndex > MaxSceneIndex {
		return GenerationRequest{}, &ValidationError{
			Reason: fmt.Sprintf("scene index %d out of range [%d, %d]", sceneIndex, MinSceneIndex, MaxSceneIndex),
		}
	}
	if seedImageURL != "" && len(referenceImageURLs) > 0 {
		return GenerationRequest{}, &ValidationError{
			Reason: "seed image and reference images are mutually exclusive",
		}
	}
	if continuityFrameURL != "" && sceneIndex == MinSceneIndex {
		return GenerationRequest{}, &ValidationError{
			Reason: "the initial scene cannot carry a continuity frame",
		}
	}
	return GenerationRequest{
		Prompt:             prompt,
		SceneIndex:         sceneIndex,
		SeedImageURL:       seedImageURL,
		ReferenceImageURLs: referenceImageURLs,
		ContinuityFrameURL: continuityFrameURL,
	}, nil
}

// ConditioningSet is an ordered list of guidance images plus one scalar
// influence weight applied to the whole set. An empty set disables
// conditioning.
type ConditioningSet struct {
	ImageURLs []string
	Scale     float64
}

func NewConditioningSet(imageURLs []string, scale float64) (ConditioningSet, error) {
	if scale < 0.0 || scale > 1.0 {
		return ConditioningSet{}, &ValidationError{
			Reason: fmt.Sprintf("conditioning scale %.2f out of range [0.0, 1.0]", scale),
		}
	}
	return ConditioningSet{ImageURLs: imageURLs, Scale: scale}, nil
}

func (c ConditioningSet) Empty() bool {
	return len(c.ImageURLs) == 0
}

// BuildConditioning assembles the conditioning set for a request: reference
// images first (primary driver), then the continuity frame (secondary, only
// present on non-initial scenes).
func BuildConditioning(req GenerationRequest, scale float64) (ConditioningSet, error) {
	urls := make([]string, 0, len(req.ReferenceImageURLs)+1)
	urls = append(urls, req.ReferenceImageURLs...)
	if req.SceneIndex > MinSceneIndex && req.ContinuityFrameURL != "" {
		urls = append(urls, req.ContinuityFrameURL)
	}
	return NewConditioningSet(urls, scale)
}

// VideoAsset is one local clip of the final video, identified by its scene
// position in the output sequence.
type VideoAsset struct {
	SceneIndex int
	FileName   string
}

type VideoAssetsAscBySceneIndex []VideoAsset

func (v VideoAssetsAscBySceneIndex) Len() int           { return len(v) }
func (v VideoAssetsAscBySceneIndex) Less(i, j int) bool { return v[i].SceneIndex < v[j].SceneIndex }
func (v VideoAssetsAscBySceneIndex) Swap(i, j int)      { v[i], v[j] = v[j], v[i] }

// AssemblyResult reports the assembled artifact. The remote fields are set
// only when publishing succeeded; their absence is not an error.
type AssemblyResult struct {
	OutputFileName string
	RemoteURL      string
	RemoteKey      string
}

type PipelineStage string

const (
	StageImageReady PipelineStage = "image_ready"
	StageClipReady  PipelineStage = "clip_ready"
	StageAssembled  PipelineStage = "assembled"
)

// SceneEvent is emitted as the pipeline advances; the StageAssembled event is
// terminal and carries the final artifact.
type SceneEvent struct {
	ProjectID   string        `json:"project_id"`
	SceneIndex  int           `json:"scene_index"`
	Stage       PipelineStage `json:"stage"`
	JobID       string        `json:"job_id,omitempty"`
	ArtifactURL string        `json:"artifact_url,omitempty"`
	OutputPath  string        `json:"output_path,omitempty"`
	RemoteURL   string        `json:"remote_url,omitempty"`
	RemoteKey   string        `json:"remote_key,omitempty"`
}
