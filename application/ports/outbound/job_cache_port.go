package outbound

import (
	"context"

	"prompt-to-video/domain"
)

// JobCachePort records terminal scene job states for observability. Writes
// are best-effort; nothing on the hot path reads them back.
type JobCachePort interface {
	Save(ctx context.Context, event domain.SceneEvent) error
}
