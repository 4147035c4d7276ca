package api

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/detector"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/extractor"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/service"
	"github.com/FACorreiaa/statement-normalizer/pkg/config"
	"github.com/FACorreiaa/statement-normalizer/pkg/interceptors"
	"github.com/FACorreiaa/statement-normalizer/pkg/observability"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Observability
	Registry *prometheus.Registry
	Metrics  *observability.PipelineMetrics
	Tracer   *interceptors.StageTracer

	// Extraction
	Extractor extractor.Extractor

	// Services
	ParseService *service.ParseService
}

// NewLogger builds the process logger from the log settings.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == config.FormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initObservability()

	if err := deps.initExtractors(); err != nil {
		return nil, fmt.Errorf("failed to init extractors: %w", err)
	}

	deps.initServices()

	logger.Debug("all dependencies initialized successfully",
		"workers", cfg.Parser.Workers,
		"extractors", deps.Extractor.Method(),
		"metrics", cfg.Metrics.Enabled,
	)

	return deps, nil
}

// initObservability sets up the metrics registry and the stage tracer
func (d *Dependencies) initObservability() {
	d.Registry = prometheus.NewRegistry()
	d.Metrics = observability.NewPipelineMetrics(d.Registry)
	d.Tracer = interceptors.NewStageTracer(otel.GetTracerProvider().Tracer("statement-normalizer"))
}

// initExtractors builds the fallback chain in the configured order
func (d *Dependencies) initExtractors() error {
	chain, err := NewExtractorChain(d.Logger, d.Config.Extractor.Order)
	if err != nil {
		return err
	}
	d.Extractor = chain
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() {
	d.ParseService = service.NewParseService(d.Logger,
		service.WithDetector(detector.New()),
		service.WithMetrics(d.Metrics),
		service.WithTracer(d.Tracer),
		service.WithWorkers(d.Config.Parser.Workers),
	)
}

// NewExtractorChain resolves each method name and chains them in order.
func NewExtractorChain(logger *slog.Logger, methods []string) (*extractor.Fallback, error) {
	extractors := make([]extractor.Extractor, 0, len(methods))
	for _, m := range methods {
		ex, err := extractor.Lookup(m)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, ex)
	}
	if len(extractors) == 0 {
		return nil, extractor.ErrNoExtractors
	}
	return extractor.NewFallback(logger, extractors...), nil
}
