package adapters

import (
	"context"
	"fmt"
	"os"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

type s3VideoPublisher struct {
	logger   outbound.LoggerPort
	s3Svc    *s3.S3
	s3Config *config.S3Config
}

func NewS3VideoPublisher(logger outbound.LoggerPort, s3Svc *s3.S3, s3Config *config.S3Config) outbound.VideoPublisherPort {
	return &s3VideoPublisher{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

// Publish uploads the assembled video and returns its key and public URL.
// The local file stays on disk; it remains the authoritative result even
// when replication succeeds.
func (s *s3VideoPublisher) Publish(ctx context.Context, req outbound.PublishVideoRequest) (*outbound.PublishVideoResponse, error) {
	itemPath := s.getS3ItemPath(req)

	file, err := os.Open(req.VideoFileName)
	if err != nil {
		s.logger.Error(err, "failed to open assembled video file")
		return nil, err
	}

	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			s.logger.Error(err, "failed to close assembled video file")
		}
	}(file)

	putInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(itemPath),
		Body:        file,
		ContentType: aws.String("video/mp4"),
	}

	_, err = s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to upload video to S3", map[string]interface{}{
			"bucket": s.s3Config.BucketName,
			"key":    itemPath,
		})
		return nil, err
	}

	return &outbound.PublishVideoResponse{
		VideoKey: itemPath,
		VideoURL: s.getS3Url(itemPath),
	}, nil
}

func (s *s3VideoPublisher) getS3ItemPath(req outbound.PublishVideoRequest) string {
	return fmt.Sprintf("user/%s/project/%s/video/%s.mp4", req.UserID, req.ProjectID, uuid.NewString())
}

func (s *s3VideoPublisher) getS3Url(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Config.BucketName, s.s3Config.Region, key)
}
