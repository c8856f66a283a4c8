package outbound

import "context"

// ArtifactDownloaderPort fetches a provider output URL to a local file and
// returns the file name.
type ArtifactDownloaderPort interface {
	Download(ctx context.Context, url string) (string, error)
}
