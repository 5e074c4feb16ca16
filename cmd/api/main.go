// @title           Cardforge API
// @version         1.0
// @description     Extracts question/answer flashcards from documents and page images.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   y.matsuda.dev@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/data/redisStore"
	"github.com/ymatsuda/cardforge/internal/data/store"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/domain/jobModel"
	"github.com/ymatsuda/cardforge/internal/handlers"
	"github.com/ymatsuda/cardforge/internal/ingest"
	"github.com/ymatsuda/cardforge/internal/job"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/llm/gemini"
	"github.com/ymatsuda/cardforge/internal/llm/openaicompat"
	"github.com/ymatsuda/cardforge/internal/ocr"
	"github.com/ymatsuda/cardforge/internal/pipeline"
	"github.com/ymatsuda/cardforge/internal/quota"
	"github.com/ymatsuda/cardforge/internal/server"
	"github.com/ymatsuda/cardforge/internal/worker"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

var (
	listenAddr        string
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {
	logger.Init(config.IsProd, config.LogLevelProd)
	log := logger.New("main")

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobModel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	jobStore, quotaCounter := buildStores(serviceContext, log)
	quotaManager := quota.NewManager(quotaCounter)

	factory := llm.NewFactory()
	factory.Register("google", func(ctx context.Context) (llm.Client, error) {
		return gemini.New(ctx, config.GeminiAPIKey(), config.GeminiModelName)
	})
	factory.Register("openai", func(ctx context.Context) (llm.Client, error) {
		return openaicompat.New(config.OpenAIAPIKey(), config.OpenAIModelName), nil
	})

	client, err := factory.Create(serviceContext, config.LLMProvider())
	if err != nil {
		log.Error("could not build llm provider", "provider", config.LLMProvider(), "error", err)
		return
	}

	exec := pipeline.NewExecutor()
	pipelineService := pipeline.NewService(client, exec, cards.ParagraphConverter{})

	var ocrOrchestrator *ocr.Orchestrator
	var aligner *ocr.Aligner
	if fileClient, ok := client.(llm.FileCapable); ok {
		ocrOrchestrator = ocr.NewOrchestrator(fileClient, exec, quotaManager, quotaManager, ocr.NewHTTPFetcher())
		aligner = ocr.NewAligner(fileClient, exec, quotaManager, quotaManager)
	} else {
		log.Warn("provider has no file upload support, OCR endpoints disabled", "provider", config.LLMProvider())
	}

	jobService := job.InitJobService(job.ServiceConfig{
		JobChannel:        jobChannel,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	})

	runner := job.NewRunner(pipelineService, ingest.NewExtractor())
	pool := worker.NewPool(jobService, runner, stopWorkerChannel, &workerWaitGroup)
	pool.Start()

	h := handlers.NewHandler(handlers.HandlerConfig{
		Jobs:    jobService,
		Quota:   quotaManager,
		OCR:     ocrOrchestrator,
		Aligner: aligner,
		Cards:   pipelineService.Generator,
	})

	srv := server.New(listenAddr, h)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go srv.ShutDownHandler(shutdownParams)
	go srv.Run()

	<-stopExecution
	log.Info("server stopped")
}

// buildStores wires redis-backed persistence, dropping to in-memory
// implementations when redis is unreachable.
func buildStores(ctx context.Context, log *logger.Logger) (jobModel.JobStore, quota.Counter) {
	jobsDB, err := redisStore.New(ctx, config.RedisJobStore)
	if err != nil {
		log.Error("redis offline, using in-memory stores", "error", err)
		return store.InitInMemoryJobStore(), quota.NewMemoryCounter()
	}
	go closeOnCancel(ctx, jobsDB, log)

	quotaDB, err := redisStore.New(ctx, config.RedisQuotaStore)
	if err != nil {
		log.Error("quota store offline, using in-memory counter", "error", err)
		return store.NewRedisJobStore(jobsDB), quota.NewMemoryCounter()
	}
	go closeOnCancel(ctx, quotaDB, log)

	return store.NewRedisJobStore(jobsDB), quota.NewRedisCounter(quotaDB.Client())
}

func closeOnCancel(ctx context.Context, s *redisStore.Store, log *logger.Logger) {
	<-ctx.Done()
	if err := s.Close(); err != nil {
		log.Error("error closing redis store", "error", err)
	}
}
