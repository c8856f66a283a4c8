package adapters

import (
	"io"
	"net/http"
	"time"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/domain"
)

type ContentFetcher interface {
	FetchContent(req *http.Request) ([]byte, error)
}

type contentFetcher struct {
	logger outbound.LoggerPort
	client *http.Client
}

func NewContentFetcher(logger outbound.LoggerPort, timeout time.Duration) ContentFetcher {
	return &contentFetcher{
		logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchContent returns the response body for 2xx responses. Non-2xx
// responses become a ProviderAPIError carrying the status and body so the
// error classifier can resolve them.
func (c *contentFetcher) FetchContent(req *http.Request) ([]byte, error) {
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorWithFields(err, "failed to send the HTTP request", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, err
	}

	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Error(err, "failed to close the response body")
		}
	}(res.Body)

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.ErrorWithFields(err, "failed to read the response body", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.ErrorWithFields(nil, "HTTP request returned non-2xx status code", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
			"status": res.StatusCode,
			"body":   string(payload),
		})
		return nil, &domain.ProviderAPIError{
			StatusCode: res.StatusCode,
			Detail:     string(payload),
		}
	}

	return payload, nil
}
