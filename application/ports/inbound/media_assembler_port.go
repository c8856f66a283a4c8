package inbound

import (
	"context"

	"prompt-to-video/domain"
)

type AssembleParams struct {
	ProjectID string
	UserID    string
	Assets    []domain.VideoAsset
	Upload    bool
}

// MediaAssemblerPort concatenates clips in scene order into one local file
// and optionally publishes it; publish failure never fails the assembly.
type MediaAssemblerPort interface {
	Assemble(ctx context.Context, params AssembleParams) (*domain.AssemblyResult, error)
}
