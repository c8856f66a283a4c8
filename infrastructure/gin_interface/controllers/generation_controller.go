package controllers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"prompt-to-video/application/ports/inbound"
	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"
	"prompt-to-video/domain"
	"prompt-to-video/infrastructure/gin_interface/dto"
	"prompt-to-video/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GenerationController interface {
	RegisterRoutes(g *gin.Engine)
}

type generationController struct {
	logger          outbound.LoggerPort
	workerPool      outbound.TaskDispatcher
	resolver        inbound.ReferenceResolverPort
	submitter       inbound.JobSubmitterPort
	poller          inbound.JobPollerPort
	assembler       inbound.MediaAssemblerPort
	pipeline        inbound.ScenePipelinePort
	serverConfig    *config.ServerConfig
	replicateConfig *config.ReplicateConfig
	sseMiddleware   gin.HandlerFunc
}

func NewGenerationController(
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher,
	resolver inbound.ReferenceResolverPort,
	submitter inbound.JobSubmitterPort,
	poller inbound.JobPollerPort,
	assembler inbound.MediaAssemblerPort,
	pipeline inbound.ScenePipelinePort,
	serverConfig *config.ServerConfig,
	replicateConfig *config.ReplicateConfig,
	sseMiddleware gin.HandlerFunc) GenerationController {
	return &generationController{
		logger:          logger,
		workerPool:      workerPool,
		resolver:        resolver,
		submitter:       submitter,
		poller:          poller,
		assembler:       assembler,
		pipeline:        pipeline,
		serverConfig:    serverConfig,
		replicateConfig: replicateConfig,
		sseMiddleware:   sseMiddleware,
	}
}

func (g *generationController) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/health", g.Health)
	engine.GET("/api/serve-image", g.ServeImage)
	engine.POST("/api/generate-image", g.GenerateImage)
	engine.POST("/api/generate-video", g.GenerateVideo)
	engine.GET("/api/predictions/:id", g.GetPrediction)
	engine.POST("/api/stitch-videos", g.StitchVideos)
	engine.POST("/api/generate", g.sseMiddleware, g.Generate)
}

func (g *generationController) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok", "service": "prompt-to-video"})
}

// GenerateImage submits one scene's image job and returns immediately with a
// job id for polling.
func (g *generationController) GenerateImage(c *gin.Context) {
	var req dto.GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.abortWithClassified(c, &domain.ValidationError{Reason: err.Error()})
		return
	}

	prompt := req.Prompt
	refURLs := g.resolver.ResolveURLs(req.ReferenceImageURLs)
	if len(refURLs) > 0 {
		prompt = g.resolver.RewritePrompt(prompt)
	}

	genReq, err := domain.NewGenerationRequest(prompt, req.SceneIndex, req.SeedImage, refURLs, req.ContinuityFrame)
	if err != nil {
		g.abortWithClassified(c, err)
		return
	}

	conditioning, err := domain.BuildConditioning(genReq, g.replicateConfig.ConditioningScale)
	if err != nil {
		g.abortWithClassified(c, err)
		return
	}

	handle, err := g.submitter.Submit(c.Request.Context(), genReq, conditioning)
	if err != nil {
		g.abortWithClassified(c, err)
		return
	}

	c.JSON(200, dto.SubmitJobResponse{
		JobID:  handle.JobID,
		Status: string(domain.JobStarting),
	})
}

func (g *generationController) GenerateVideo(c *gin.Context) {
	var req dto.GenerateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.abortWithClassified(c, &domain.ValidationError{Reason: err.Error()})
		return
	}

	handle, err := g.submitter.SubmitVideo(c.Request.Context(), req.ImageURL, req.Prompt)
	if err != nil {
		g.abortWithClassified(c, err)
		return
	}

	c.JSON(200, dto.SubmitJobResponse{
		JobID:  handle.JobID,
		Status: string(domain.JobStarting),
	})
}

// GetPrediction is one stateless status probe; clients own the polling loop.
func (g *generationController) GetPrediction(c *gin.Context) {
	status, err := g.poller.Poll(c.Request.Context(), domain.JobHandle{JobID: c.Param("id")})
	if err != nil {
		g.abortWithClassified(c, err)
		return
	}

	c.JSON(200, dto.JobStatusResponse{
		JobID:       c.Param("id"),
		Status:      string(status.State),
		ArtifactURL: status.ArtifactURL,
		Error:       status.FailureReason,
	})
}

// StitchVideos assembles clips in the order given: the position of each path
// in the list is its scene index.
func (g *generationController) StitchVideos(c *gin.Context) {
	var req dto.StitchVideosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		g.abortWithClassified(c, &domain.ValidationError{Reason: err.Error()})
		return
	}

	assets := make([]domain.VideoAsset, 0, len(req.VideoPaths))
	for i, path := range req.VideoPaths {
		assets = append(assets, domain.VideoAsset{
			SceneIndex: i,
			FileName:   path,
		})
	}

	result, err := g.assembler.Assemble(c.Request.Context(), inbound.AssembleParams{
		ProjectID: req.ProjectID,
		UserID:    c.GetString(middleware.ContextUserIDKey),
		Assets:    assets,
		Upload:    req.Upload,
	})
	if err != nil {
		g.abortWithClassified(c, err)
		return
	}

	c.JSON(200, dto.StitchVideosResponse{
		FinalVideoPath: result.OutputFileName,
		RemoteURL:      result.RemoteURL,
		RemoteKey:      result.RemoteKey,
	})
}

// ServeImage exposes local reference images so the provider can fetch them.
// The endpoint is unauthenticated, so it only serves files under the
// configured image directory.
func (g *generationController) ServeImage(c *gin.Context) {
	raw := c.Query("path")
	if raw == "" {
		g.abortWithClassified(c, &domain.ValidationError{Reason: "path query parameter is required"})
		return
	}
	path := filepath.Clean(raw)
	if !strings.HasPrefix(path, g.serverConfig.ImageDir+string(filepath.Separator)) {
		g.abortWithClassified(c, &domain.ValidationError{Reason: "path is outside the served image directory"})
		return
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		g.abortWithClassified(c, &domain.ValidationError{Reason: "file not found"})
		return
	}
	c.File(path)
}

// Generate runs the whole pipeline and streams progress as server-sent
// events, ending with the assembled event.
func (g *generationController) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	newCtx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	if err := c.ShouldBindJSON(&req); err != nil {
		g.abortWithClassified(c, &domain.ValidationError{Reason: err.Error()})
		return
	}

	projectID := uuid.NewString()

	writeLock := &sync.Mutex{}
	if v, ok := c.Get(middleware.ContextSSELockKey); ok {
		if lock, ok := v.(*sync.Mutex); ok {
			writeLock = lock
		}
	}

	events, errCh := g.pipeline.StartPipeline(newCtx, inbound.StartPipelineParams{
		ProjectID:          projectID,
		UserID:             c.GetString(middleware.ContextUserIDKey),
		Prompt:             req.Prompt,
		ReferenceImageURLs: req.ReferenceImageURLs,
		Upload:             req.Upload,
	})

	err := g.workerPool.Submit(func() {
		var sendErrOnce sync.Once
		for err := range errCh {
			cancel()
			classified := domain.Classify(err)
			g.logger.ErrorWithFields(err, "error in generation pipeline", map[string]interface{}{
				"project_id": projectID,
			})
			sendErrOnce.Do(func() {
				writeLock.Lock()
				c.SSEvent("error", dto.ErrorResponse{
					Error:     classified.UserMessage,
					Code:      string(classified.Kind),
					Retryable: classified.Retryable,
				})
				c.Writer.Flush()
				writeLock.Unlock()
			})
		}
	})
	if err != nil {
		g.logger.Error(err, "failed to submit worker")
		writeLock.Lock()
		c.SSEvent("error", "internal server error")
		writeLock.Unlock()
		return
	}

	for event := range events {
		select {
		case <-newCtx.Done():
			return
		default:
			writeLock.Lock()
			c.SSEvent(string(event.Stage), event)
			c.Writer.Flush()
			writeLock.Unlock()
		}
	}

	g.logger.InfoWithFields("generation pipeline complete", map[string]interface{}{
		"project_id": projectID,
	})
}

func (g *generationController) abortWithClassified(c *gin.Context, err error) {
	classified := domain.Classify(err)
	c.AbortWithStatusJSON(classified.HTTPStatus(), dto.ErrorResponse{
		Error:     classified.UserMessage,
		Code:      string(classified.Kind),
		Retryable: classified.Retryable,
	})
}
