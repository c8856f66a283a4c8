package outbound

import (
	"prompt-to-video/domain"
)

// ConcatenateVideosPort joins clips into one file in the order given; it must
// not reorder, drop, or re-encode segments.
type ConcatenateVideosPort interface {
	Concatenate(assets []domain.VideoAsset) (string, error)
}
