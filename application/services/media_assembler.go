package services

import (
	"context"
	"fmt"
	"os"
	"sort"

	"prompt-to-video/application/ports/inbound"
	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/domain"
)

type mediaAssembler struct {
	logger      outbound.LoggerPort
	concatenate outbound.ConcatenateVideosPort
	publisher   outbound.VideoPublisherPort
}

func NewMediaAssembler(logger outbound.LoggerPort, concatenate outbound.ConcatenateVideosPort,
	publisher outbound.VideoPublisherPort) inbound.MediaAssemblerPort {
	return &mediaAssembler{
		logger:      logger,
		concatenate: concatenate,
		publisher:   publisher,
	}
}

// Assemble joins the clips in scene index order regardless of the order they
// arrived in. A missing or unreadable segment fails the whole assembly; a
// failed upload does not.
func (m *mediaAssembler) Assemble(ctx context.Context, params inbound.AssembleParams) (*domain.AssemblyResult, error) {
	if len(params.Assets) == 0 {
		return nil, &domain.ValidationError{Reason: "no video segments to assemble"}
	}

	assets := make([]domain.VideoAsset, len(params.Assets))
	copy(assets, params.Assets)
	sort.Sort(domain.VideoAssetsAscBySceneIndex(assets))

	for _, asset := range assets {
		if _, err := os.Stat(asset.FileName); err != nil {
			m.logger.ErrorWithFields(err, "video segment is not readable", map[string]interface{}{
				"scene_index": asset.SceneIndex,
				"file":        asset.FileName,
			})
			return nil, fmt.Errorf("segment for scene %d is not readable: %w", asset.SceneIndex, err)
		}
	}

	outputFileName, err := m.concatenate.Concatenate(assets)
	if err != nil {
		m.logger.Error(err, "failed to concatenate video segments")
		return nil, err
	}

	result := &domain.AssemblyResult{
		OutputFileName: outputFileName,
	}

	if params.Upload {
		res, err := m.publisher.Publish(ctx, outbound.PublishVideoRequest{
			VideoFileName: outputFileName,
			ProjectID:     params.ProjectID,
			UserID:        params.UserID,
		})
		if err != nil {
			// The local artifact is the authoritative result; a failed
			// upload is observable but never fatal.
			m.logger.ErrorWithFields(err, "publish failed, continuing with local artifact", map[string]interface{}{
				"project_id": params.ProjectID,
				"file":       outputFileName,
			})
		} else {
			result.RemoteKey = res.VideoKey
			result.RemoteURL = res.VideoURL
		}
	}

	return result, nil
}
