package outbound

import "context"

type PublishVideoRequest struct {
	VideoFileName string
	ProjectID     string
	UserID        string
}

type PublishVideoResponse struct {
	VideoKey string
	VideoURL string
}

type VideoPublisherPort interface {
	Publish(ctx context.Context, req PublishVideoRequest) (*PublishVideoResponse, error)
}
