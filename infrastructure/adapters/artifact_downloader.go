package adapters

import (
	"context"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/domain"

	"github.com/google/uuid"
)

const (
	downloadRetries = 3
	downloadBackoff = 500 * time.Millisecond
)

type artifactDownloader struct {
	ContentFetcher
	logger outbound.LoggerPort
}

func NewArtifactDownloader(contentFetcher ContentFetcher, logger outbound.LoggerPort) outbound.ArtifactDownloaderPort {
	return &artifactDownloader{
		ContentFetcher: contentFetcher,
		logger:         logger,
	}
}

// Download fetches a provider output URL into /tmp, retrying transient
// failures a few times; a non-retryable classification aborts immediately.
func (d *artifactDownloader) Download(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= downloadRetries; attempt++ {
		payload, err := d.fetch(ctx, url)
		if err == nil {
			return d.writeToFile(payload, url)
		}

		classified := domain.Classify(err)
		lastErr = classified
		if !classified.Retryable {
			d.logger.ErrorWithFields(err, "artifact download failed with non-retryable error", map[string]interface{}{
				"url":  url,
				"kind": classified.Kind,
			})
			return "", classified
		}

		d.logger.WarnWithFields("artifact download attempt failed", map[string]interface{}{
			"url":     url,
			"attempt": attempt,
		})

		if attempt < downloadRetries {
			select {
			case <-time.After(downloadBackoff):
			case <-ctx.Done():
				return "", domain.Classify(ctx.Err())
			}
		}
	}

	return "", lastErr
}

func (d *artifactDownloader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return d.FetchContent(req)
}

func (d *artifactDownloader) writeToFile(payload []byte, url string) (string, error) {
	ext := path.Ext(strings.SplitN(path.Base(url), "?", 2)[0])
	if ext == "" {
		ext = ".mp4"
	}

	fileName := "/tmp/" + uuid.NewString() + ext
	if err := os.WriteFile(fileName, payload, 0o644); err != nil {
		d.logger.Error(err, "failed to write artifact to file")
		return "", err
	}

	return fileName, nil
}
