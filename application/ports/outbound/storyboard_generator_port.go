package outbound

import "context"

type GenerateStoryboardRequest struct {
	Prompt     string
	SceneCount int
}

// StoryboardGeneratorPort streams scene descriptions for a prompt. The
// storyboard algorithm itself is an external collaborator.
type StoryboardGeneratorPort interface {
	Generate(ctx context.Context, req GenerateStoryboardRequest) (<-chan string, <-chan error)
}
