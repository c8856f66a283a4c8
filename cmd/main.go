package main

import (
	"fmt"
	"os"
	"prompt-to-video/application/services"
	"prompt-to-video/config"
	"prompt-to-video/infrastructure/adapters"
	"prompt-to-video/infrastructure/gin_interface/controllers"
	"prompt-to-video/middleware"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

func main() {
	serverConfig, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get server config")
	}

	replicateConfig, err := config.GetReplicateConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get replicate config")
	}

	storyboardConfig, err := config.GetStoryboardConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get storyboard config")
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}

	dynamoConfig, err := config.GetDynamoConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dynamo config")
	}

	jwksUrl := os.Getenv("JWKS_URL")
	if jwksUrl == "" {
		log.Fatal().Msg("JWKS_URL is not set!")
	}

	zeroLogger := adapters.NewZerologWrapper()

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(120, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	s3Client := s3.New(sess)
	dynamoClient := dynamodb.New(sess)

	contentFetcher := adapters.NewContentFetcher(zeroLogger, replicateConfig.RequestTimeout)

	replicateClient := adapters.NewReplicateClient(contentFetcher, replicateConfig, zeroLogger)
	artifactDownloader := adapters.NewArtifactDownloader(contentFetcher, zeroLogger)
	storyboardGenerator := adapters.NewStoryboardGenerator(storyboardConfig, workerPool, zeroLogger)
	videoStitcher := adapters.NewFFmpegVideoStitcher(zeroLogger)
	videoPublisher := adapters.NewS3VideoPublisher(zeroLogger, s3Client, s3Config)
	jobCache := adapters.NewDynamoJobCache(zeroLogger, dynamoClient, dynamoConfig)

	referenceResolver := services.NewReferenceResolver(serverConfig)

	jobSubmitter := services.NewJobSubmitter(zeroLogger, replicateClient, replicateConfig)

	jobPoller := services.NewJobPoller(zeroLogger, replicateClient, replicateConfig)

	mediaAssembler := services.NewMediaAssembler(zeroLogger, videoStitcher, videoPublisher)

	scenePipeline := services.NewScenePipeline(zeroLogger, workerPool, storyboardGenerator, referenceResolver,
		jobSubmitter, jobPoller, artifactDownloader, mediaAssembler, jobCache, replicateConfig, storyboardConfig.SceneCount)

	generationController := controllers.NewGenerationController(zeroLogger, workerPool, referenceResolver,
		jobSubmitter, jobPoller, mediaAssembler, scenePipeline, serverConfig, replicateConfig,
		middleware.SSEMiddleware(workerPool))

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	authHandler, err := middleware.NewAuthHandler(jwksUrl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth handler!")
	}

	router.Use(authHandler.AuthMiddleware())

	generationController.RegisterRoutes(router)

	err = router.Run(":" + serverConfig.Port)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
