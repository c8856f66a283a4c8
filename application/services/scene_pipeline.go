package services

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"prompt-to-video/application/ports/inbound"
	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/channel_utils"
	"prompt-to-video/config"
	"prompt-to-video/domain"
)

var sceneNumberingRe = regexp.MustCompile(`(?i)^\s*(?:scene\s+)?\d+[.):]\s*`)

type scenePipeline struct {
	logger     outbound.LoggerPort
	workerPool outbound.TaskDispatcher
	storyboard outbound.StoryboardGeneratorPort
	resolver   inbound.ReferenceResolverPort
	submitter  inbound.JobSubmitterPort
	poller     inbound.JobPollerPort
	downloader outbound.ArtifactDownloaderPort
	assembler  inbound.MediaAssemblerPort
	jobCache   outbound.JobCachePort
	cfg        *config.ReplicateConfig
	sceneCount int
}

func NewScenePipeline(
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher,
	storyboard outbound.StoryboardGeneratorPort,
	resolver inbound.ReferenceResolverPort,
	submitter inbound.JobSubmitterPort,
	poller inbound.JobPollerPort,
	downloader outbound.ArtifactDownloaderPort,
	assembler inbound.MediaAssemblerPort,
	jobCache outbound.JobCachePort,
	cfg *config.ReplicateConfig,
	sceneCount int) inbound.ScenePipelinePort {
	return &scenePipeline{
		logger:     logger,
		workerPool: workerPool,
		storyboard: storyboard,
		resolver:   resolver,
		submitter:  submitter,
		poller:     poller,
		downloader: downloader,
		assembler:  assembler,
		jobCache:   jobCache,
		cfg:        cfg,
		sceneCount: sceneCount,
	}
}

// StartPipeline runs storyboard generation, per-scene still generation,
// per-scene clip generation and final assembly. Stills are produced in scene
// order so each non-initial scene can condition on its predecessor's frame;
// clips are generated concurrently and collected in any order, since the
// assembler re-establishes scene order before concatenation.
func (p *scenePipeline) StartPipeline(ctx context.Context, params inbound.StartPipelineParams) (<-chan domain.SceneEvent, <-chan error) {
	out := make(chan domain.SceneEvent)
	errCh := make(chan error, 5)

	newCtx, cancel := context.WithCancel(ctx)

	err := p.workerPool.Submit(func() {
		defer close(out)
		defer close(errCh)
		defer cancel()

		scenes, err := p.collectScenes(newCtx, params.Prompt)
		if err != nil {
			errCh <- err
			return
		}

		refURLs := p.resolver.ResolveURLs(params.ReferenceImageURLs)

		stills, err := p.generateStills(newCtx, out, params, scenes, refURLs)
		if err != nil {
			errCh <- err
			return
		}

		assets, err := p.generateClips(newCtx, out, params, scenes, stills)
		if err != nil {
			errCh <- err
			return
		}

		result, err := p.assembler.Assemble(newCtx, inbound.AssembleParams{
			ProjectID: params.ProjectID,
			UserID:    params.UserID,
			Assets:    assets,
			Upload:    params.Upload,
		})
		if err != nil {
			errCh <- err
			return
		}

		finalEvent := domain.SceneEvent{
			ProjectID:  params.ProjectID,
			Stage:      domain.StageAssembled,
			OutputPath: result.OutputFileName,
			RemoteURL:  result.RemoteURL,
			RemoteKey:  result.RemoteKey,
		}
		p.saveJobRecord(newCtx, finalEvent)

		select {
		case out <- finalEvent:
		case <-newCtx.Done():
		}
	})
	if err != nil {
		errCh <- err
	}

	return out, errCh
}

// collectScenes drains the storyboard stream into at most sceneCount scene
// descriptions, one per non-empty line.
func (p *scenePipeline) collectScenes(ctx context.Context, prompt string) ([]domain.Scene, error) {
	chunkCh, errCh := p.storyboard.Generate(ctx, outbound.GenerateStoryboardRequest{
		Prompt:     prompt,
		SceneCount: p.sceneCount,
	})

	var builder strings.Builder
	for {
		select {
		case <-ctx.Done():
			return nil, domain.Classify(ctx.Err())
		case err, ok := <-errCh:
			if ok && err != nil {
				return nil, domain.Classify(err)
			}
			errCh = nil
		case chunk, ok := <-chunkCh:
			if !ok {
				// A stream error emitted just before close wins over a
				// partial script.
				if errCh != nil {
					if err, ok := <-errCh; ok && err != nil {
						return nil, domain.Classify(err)
					}
				}
				return p.parseScenes(builder.String())
			}
			builder.WriteString(chunk)
		}
	}
}

func (p *scenePipeline) parseScenes(script string) ([]domain.Scene, error) {
	scenes := make([]domain.Scene, 0, p.sceneCount)
	for _, line := range strings.Split(script, "\n") {
		description := strings.TrimSpace(sceneNumberingRe.ReplaceAllString(line, ""))
		if description == "" {
			continue
		}
		scenes = append(scenes, domain.Scene{
			Index:       len(scenes),
			Description: description,
		})
		if len(scenes) == p.sceneCount {
			break
		}
	}
	if len(scenes) == 0 {
		return nil, &domain.ValidationError{Reason: "storyboard produced no scenes"}
	}
	return scenes, nil
}

// generateStills runs the image jobs sequentially: scene N's conditioning
// set includes scene N-1's still as a continuity frame.
func (p *scenePipeline) generateStills(ctx context.Context, out chan<- domain.SceneEvent,
	params inbound.StartPipelineParams, scenes []domain.Scene, refURLs []string) ([]string, error) {
	stills := make([]string, len(scenes))
	continuityFrame := ""

	for _, scene := range scenes {
		scenePrompt := scene.Description
		if len(refURLs) > 0 {
			scenePrompt = p.resolver.RewritePrompt(scenePrompt)
		}

		req, err := domain.NewGenerationRequest(scenePrompt, scene.Index, "", refURLs, continuityFrame)
		if err != nil {
			return nil, domain.Classify(err)
		}

		conditioning, err := domain.BuildConditioning(req, p.cfg.ConditioningScale)
		if err != nil {
			return nil, domain.Classify(err)
		}

		handle, err := p.submitter.Submit(ctx, req, conditioning)
		if err != nil {
			return nil, err
		}

		status, err := p.poller.WaitForCompletion(ctx, *handle, domain.ImageJob)
		if err != nil {
			return nil, err
		}
		if status.State == domain.JobFailed {
			return nil, domain.Classify(&domain.PredictionError{Reason: status.FailureReason})
		}

		stills[scene.Index] = status.ArtifactURL
		continuityFrame = status.ArtifactURL

		event := domain.SceneEvent{
			ProjectID:   params.ProjectID,
			SceneIndex:  scene.Index,
			Stage:       domain.StageImageReady,
			JobID:       handle.JobID,
			ArtifactURL: status.ArtifactURL,
		}
		p.saveJobRecord(ctx, event)

		select {
		case out <- event:
		case <-ctx.Done():
			return nil, domain.Classify(ctx.Err())
		}
	}

	return stills, nil
}

// generateClips fans the video jobs out across the worker pool. Completion
// order is unconstrained; results are collected as they land.
func (p *scenePipeline) generateClips(ctx context.Context, out chan<- domain.SceneEvent,
	params inbound.StartPipelineParams, scenes []domain.Scene, stills []string) ([]domain.VideoAsset, error) {
	assetCh := make(chan domain.VideoAsset, len(scenes))
	errChs := make([]<-chan error, 0, len(scenes))

	var wg sync.WaitGroup
	for _, scene := range scenes {
		scene := scene
		clipErrCh := make(chan error, 1)
		errChs = append(errChs, clipErrCh)
		wg.Add(1)
		err := p.workerPool.Submit(func() {
			defer wg.Done()
			defer close(clipErrCh)

			asset, event, err := p.generateClip(ctx, params.ProjectID, scene, stills[scene.Index])
			if err != nil {
				clipErrCh <- err
				return
			}
			assetCh <- *asset

			select {
			case out <- *event:
			case <-ctx.Done():
			}
		})
		if err != nil {
			wg.Done()
			clipErrCh <- err
			close(clipErrCh)
		}
	}

	mergedErrCh, err := channel_utils.MergeChannels(p.workerPool, errChs...)
	if err != nil {
		return nil, err
	}

	wg.Wait()
	close(assetCh)

	var firstErr error
	for err := range mergedErrCh {
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	assets := make([]domain.VideoAsset, 0, len(scenes))
	for asset := range assetCh {
		assets = append(assets, asset)
	}
	return assets, nil
}

func (p *scenePipeline) generateClip(ctx context.Context, projectID string,
	scene domain.Scene, stillURL string) (*domain.VideoAsset, *domain.SceneEvent, error) {
	handle, err := p.submitter.SubmitVideo(ctx, stillURL, scene.Description)
	if err != nil {
		return nil, nil, err
	}

	status, err := p.poller.WaitForCompletion(ctx, *handle, domain.VideoJob)
	if err != nil {
		return nil, nil, err
	}
	if status.State == domain.JobFailed {
		return nil, nil, domain.Classify(&domain.PredictionError{Reason: status.FailureReason})
	}

	fileName, err := p.downloader.Download(ctx, status.ArtifactURL)
	if err != nil {
		return nil, nil, domain.Classify(err)
	}

	event := domain.SceneEvent{
		ProjectID:   projectID,
		SceneIndex:  scene.Index,
		Stage:       domain.StageClipReady,
		JobID:       handle.JobID,
		ArtifactURL: status.ArtifactURL,
	}
	p.saveJobRecord(ctx, event)

	return &domain.VideoAsset{
		SceneIndex: scene.Index,
		FileName:   fileName,
	}, &event, nil
}

// saveJobRecord is best-effort observability; a cache failure never affects
// the pipeline.
func (p *scenePipeline) saveJobRecord(ctx context.Context, event domain.SceneEvent) {
	if p.jobCache == nil {
		return
	}
	if err := p.jobCache.Save(ctx, event); err != nil {
		p.logger.WarnWithFields("failed to record scene job", map[string]interface{}{
			"project_id":  event.ProjectID,
			"scene_index": event.SceneIndex,
			"stage":       event.Stage,
		})
	}
}
