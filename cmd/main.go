package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/application/services"
	"github.com/dzhechko/pu-3d-avatar/config"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/adapters"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/gin_interface/controllers"
	"github.com/dzhechko/pu-3d-avatar/infrastructure/metrics"
	"github.com/dzhechko/pu-3d-avatar/middleware"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatal().Err(err).Msg("Failed to load .env file")
	}

	loggingConfig, err := config.GetLoggingConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get logging config")
	}

	serverConfig, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get server config")
	}

	lipSyncConfig, err := config.GetLipSyncConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get lip sync config")
	}

	elevenLabsConfig, err := config.GetElevenLabsConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get eleven labs config")
	}

	openAIConfig, err := config.GetOpenAIConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get openai config")
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}

	dynamoConfig, err := config.GetDynamoConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dynamo config")
	}

	zeroLogger := adapters.NewZerologWrapper(loggingConfig)

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(serverConfig.WorkerPoolSize, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	if err := os.MkdirAll(lipSyncConfig.ArtifactsDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create artifacts directory")
	}

	pipelineMetrics := metrics.NewPipelineRecorder()

	contentFetcher := adapters.NewContentFetcher(zeroLogger, serverConfig.RequestTimeout)
	commandRunner := adapters.NewExecCommandRunner(zeroLogger, lipSyncConfig.CommandTimeout)

	durationProber := adapters.NewFFprobeDurationProber(zeroLogger, commandRunner, lipSyncConfig.FFprobePath)
	transcoder := adapters.NewFFmpegAudioTranscoder(zeroLogger, commandRunner, lipSyncConfig.FFmpegPath)
	extractor := adapters.NewRhubarbPhonemeExtractor(zeroLogger, commandRunner, lipSyncConfig.RhubarbPath())

	modelDownloader := adapters.NewAcousticModelDownloader(zeroLogger, lipSyncConfig.ModelBaseUrl,
		lipSyncConfig.AcousticModelDir(), lipSyncConfig.DownloadTimeout)
	capabilityProber := adapters.NewRhubarbAvailabilityProber(zeroLogger, pipelineMetrics, modelDownloader,
		adapters.RhubarbAvailabilityParams{
			RhubarbPath:  lipSyncConfig.RhubarbPath(),
			ModelDir:     lipSyncConfig.AcousticModelDir(),
			VerifyModels: lipSyncConfig.VerifyModels,
		})

	archive, journal := newPersistence(zeroLogger, s3Config, dynamoConfig)

	audioGenerator := adapters.NewAudioGenerator(contentFetcher, elevenLabsConfig)
	voiceCatalog := adapters.NewVoiceCatalog(contentFetcher, elevenLabsConfig)
	dialogueGenerator := adapters.NewDialogueGenerator(openAIConfig, zeroLogger)
	transcriber := adapters.NewWhisperTranscriber(contentFetcher, openAIConfig, zeroLogger)
	messageReader := adapters.NewFileMessageReader(zeroLogger)

	synthesizer := services.NewMessageAudioSynthesizer(zeroLogger, audioGenerator, pipelineMetrics,
		services.NewRetryPolicy(lipSyncConfig), elevenLabsConfig.VoiceId)

	phonemeGenerator := services.NewMessagePhonemeGenerator(zeroLogger, services.MessagePhonemeGeneratorDeps{
		DurationProber:   durationProber,
		CapabilityProber: capabilityProber,
		Transcoder:       transcoder,
		Extractor:        extractor,
		Fallback:         services.NewFallbackPhonemeGenerator(lipSyncConfig.FallbackSeed),
		Archive:          archive,
		Metrics:          pipelineMetrics,
	}, services.MessagePhonemeGeneratorSettings{
		DefaultDuration: lipSyncConfig.DefaultDuration,
		MaxDuration:     lipSyncConfig.MaxDuration,
	})

	lipSyncPipeline := services.NewLipSyncOrchestrator(zeroLogger, workerPool, synthesizer, phonemeGenerator,
		journal, pipelineMetrics, lipSyncConfig.ArtifactsDir)

	conversation := services.NewConversationService(zeroLogger, services.ConversationDeps{
		Dialogue:      dialogueGenerator,
		Pipeline:      lipSyncPipeline,
		Transcriber:   transcriber,
		Transcoder:    transcoder,
		MessageReader: messageReader,
	}, services.ConversationSettings{
		DialogueEnabled:   openAIConfig.Enabled(),
		IntroMessagesFile: serverConfig.IntroMessagesFile,
		ScratchDir:        lipSyncConfig.ArtifactsDir,
	})

	if !openAIConfig.Enabled() {
		zeroLogger.Warn("OPENAI_API_KEY is not set, replies fall back to the missing keys message")
	}

	// Warm the capability cache so the first request does not pay for model downloads.
	if err := workerPool.Submit(func() {
		status := capabilityProber.Probe(context.Background())
		zeroLogger.InfoWithFields("Lip sync capability probed", map[string]interface{}{"status": status})
	}); err != nil {
		zeroLogger.Error(err, "Failed to schedule the capability probe")
	}

	conversationController := controllers.NewConversationController(zeroLogger, conversation)
	lipSyncController := controllers.NewLipSyncController(zeroLogger, capabilityProber, voiceCatalog)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.CORSMiddleware(serverConfig.AllowedOrigins))

	if serverConfig.JwksUrl != "" {
		authHandler, err := middleware.NewAuthHandler(serverConfig.JwksUrl, zeroLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth handler!")
		}
		router.Use(authHandler.AuthMiddleware())
	} else {
		zeroLogger.Warn("JWKS_URL is not set, requests are not authenticated")
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	conversationController.RegisterRoutes(router)
	lipSyncController.RegisterRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", serverConfig.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zeroLogger.InfoWithFields("Server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server!")
		}
	}()

	<-ctx.Done()
	zeroLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.RequestTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zeroLogger.Error(err, "Graceful shutdown failed")
	}
}

func newPersistence(logger outbound.LoggerPort, s3Config *config.S3Config,
	dynamoConfig *config.DynamoConfig) (outbound.ArtifactArchivePort, outbound.RunJournalPort) {
	archive := adapters.NewNoopArtifactArchive()
	journal := adapters.NewNoopRunJournal()
	if !s3Config.Enabled() && !dynamoConfig.Enabled() {
		return archive, journal
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            aws.Config{Region: aws.String(s3Config.Region)},
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create aws session")
	}

	if s3Config.Enabled() {
		archive = adapters.NewS3ArtifactArchive(logger, s3.New(sess), s3Config)
	}
	if dynamoConfig.Enabled() {
		journal = adapters.NewDynamoRunJournal(logger, dynamodb.New(sess), dynamoConfig)
	}

	return archive, journal
}
