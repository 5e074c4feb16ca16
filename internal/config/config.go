package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IsProd       = false
	LogLevelProd = slog.LevelInfo
	TraceIDKey   = ContextKey("traceId")

	RateLimitPerSecond  = 2
	BurstRatePerSecond  = 5

	//server timeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//llm
	GeminiModelName = "gemini-2.5-flash"
	OpenAIModelName = "gpt-4o-mini"

	//chunking
	MaxTokensPerChunk = 4000

	//retry
	MaxRetries        = 3
	RetryBaseDelay    = 1 * time.Second
	DefaultRetryDelay = 5 * time.Second

	//batch OCR
	DefaultOCRBatchSize = 4
	MaxOCRBatchSize     = 10
	MaxOCRPages         = 100
	InterBatchDelay     = 500 * time.Millisecond
	PerImageDelay       = 200 * time.Millisecond

	//dual-source OCR
	MaxDualPages = 50

	//answer enrichment
	EnrichBatchSize = 5

	//card generation
	ConfidenceThreshold  = 0.3
	DualSourceConfidence = 0.95

	//quota: free-tier daily request budget, kept below the provider's 250
	QuotaDailyLimit = 240

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DBs we can use
	RedisJobStore   = 0
	RedisQuotaStore = 1

	RedisJobStoreTTL = 24 * time.Hour

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//upload handling
	MaxUploadSize = 32 << 20 //32mb

	ImageFetchTimeout = 30 * time.Second

	//page extraction
	PageExtractTimeout = 10 * time.Second
)

type ContextKey string

// NoAuthBypass disables bearer-token checks for local development.
var NoAuthBypass = os.Getenv("CARDFORGE_NO_AUTH") == "1"

func AuthToken() string {
	return os.Getenv("CARDFORGE_AUTH_TOKEN")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func RedisAddress() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return RedisAddr
}

func RedisPassword() string {
	return os.Getenv("REDIS_PASSWORD")
}

func LLMProvider() string {
	if p := os.Getenv("CARDFORGE_LLM_PROVIDER"); p != "" {
		return p
	}
	return "google"
}
