package handlers

import (
	"github.com/ymatsuda/cardforge/internal/job"
	"github.com/ymatsuda/cardforge/internal/ocr"
	"github.com/ymatsuda/cardforge/internal/pipeline"
	"github.com/ymatsuda/cardforge/internal/quota"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// Handler carries every dependency the HTTP endpoints need. OCR and
// Aligner are nil when the configured provider cannot take image input;
// those endpoints then report 503.
type Handler struct {
	Jobs    *job.Service
	Quota   *quota.Manager
	OCR     *ocr.Orchestrator
	Aligner *ocr.Aligner
	Cards   *pipeline.CardGenerator

	logger *logger.Logger
}

type HandlerConfig struct {
	Jobs    *job.Service
	Quota   *quota.Manager
	OCR     *ocr.Orchestrator
	Aligner *ocr.Aligner
	Cards   *pipeline.CardGenerator
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		Jobs:    cfg.Jobs,
		Quota:   cfg.Quota,
		OCR:     cfg.OCR,
		Aligner: cfg.Aligner,
		Cards:   cfg.Cards,
		logger:  logger.New("handler"),
	}
}
