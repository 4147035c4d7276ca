// Package service runs the statement pipeline for one document: extraction, metadata
// detection, concurrent table parsing and de-duplication.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/common"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/aggregator"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/detector"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/extractor"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/parser"
	"github.com/FACorreiaa/statement-normalizer/pkg/interceptors"
	"github.com/FACorreiaa/statement-normalizer/pkg/observability"
)

// ParseService turns extracted statements into ParseResults. It holds no per-document
// state and is safe for concurrent use.
type ParseService struct {
	logger   *slog.Logger
	detector *detector.Detector
	parser   tableParser
	metrics  *observability.PipelineMetrics
	tracer   *interceptors.StageTracer
	workers  int
}

type tableParser interface {
	ParseTable(ctx context.Context, table statement.Table, meta statement.StatementMetadata) parser.TableResult
}

type Option func(*ParseService)

// WithDetector replaces the default metadata detector.
func WithDetector(d *detector.Detector) Option {
	return func(s *ParseService) { s.detector = d }
}

// WithMetrics records pipeline counters. Without it nothing is counted.
func WithMetrics(m *observability.PipelineMetrics) Option {
	return func(s *ParseService) { s.metrics = m }
}

func WithTracer(t *interceptors.StageTracer) Option {
	return func(s *ParseService) { s.tracer = t }
}

// WithWorkers bounds how many tables are parsed at once. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *ParseService) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// NewParseService creates the service. A nil logger discards output.
func NewParseService(logger *slog.Logger, opts ...Option) *ParseService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &ParseService{
		logger:   logger,
		detector: detector.New(),
		parser:   parser.New(logger),
		workers:  max(runtime.GOMAXPROCS(0), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = interceptors.NewStageTracer(nil)
	}
	return s
}

// ParseSource extracts src with ex and parses the resulting document.
func (s *ParseService) ParseSource(ctx context.Context, ex extractor.Extractor, src extractor.Source) (*statement.ParseResult, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "statement.extract",
		attribute.String("source", src.Name),
		attribute.String("extractor", ex.Method()),
	)
	doc, err := ex.Extract(ctx, src)
	if err != nil {
		err = fmt.Errorf("%w: extract %q: %w", common.ErrUnexpected, src.Name, err)
		s.tracer.Finish(span, err)
		s.metrics.ObserveStatement(detector.UnknownBank, observability.OutcomeFailed, started)
		return nil, err
	}
	s.tracer.Finish(span, nil)

	return s.Parse(ctx, doc)
}

// Detect reports the bank and statement month of doc without parsing its tables.
func (s *ParseService) Detect(ctx context.Context, doc *statement.Document) statement.StatementMetadata {
	var meta statement.StatementMetadata
	_ = s.tracer.Traced(ctx, "statement.detect", func(ctx context.Context) error {
		var text string
		if doc != nil {
			text = doc.Text
		}
		meta = s.detector.Detect(text)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.String("bank", meta.BankName),
			attribute.String("month", meta.StatementMonth),
		)
		return nil
	})
	return meta
}

// Parse normalizes every table of doc. It fails with common.ErrNoTablesFound when doc has
// no tables and with common.ErrUnexpected for any other failure; no partial result is
// returned on error.
func (s *ParseService) Parse(ctx context.Context, doc *statement.Document) (result *statement.ParseResult, err error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)

	ctx, span := s.tracer.Start(ctx, "statement.parse", attribute.String("run.id", runID))
	bank := detector.UnknownBank
	defer func() {
		s.tracer.Finish(span, err)
		s.metrics.ObserveStatement(bank, outcomeOf(err), started)
	}()

	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", common.ErrUnexpected)
	}
	span.SetAttributes(
		attribute.String("method", doc.Method),
		attribute.Int("tables", len(doc.Tables)),
	)

	if len(doc.Tables) == 0 {
		logger.WarnContext(ctx, "no tables found", "method", doc.Method)
		return nil, common.ErrNoTablesFound
	}

	meta := s.Detect(ctx, doc)
	bank = meta.BankName

	perTable, err := s.parseTables(ctx, logger, doc.Tables, meta)
	if err != nil {
		logger.ErrorContext(ctx, "failed to parse tables", "error", err)
		return nil, err
	}

	merged := aggregator.Aggregate(perTable)
	s.metrics.ObserveAggregate(len(merged.Transactions), merged.Duplicates)

	logger.InfoContext(ctx, "statement parsed",
		"bank", meta.BankName,
		"month", meta.StatementMonth,
		"method", doc.Method,
		"tables", len(doc.Tables),
		"transactions", len(merged.Transactions),
		"duplicates", merged.Duplicates,
		"duration", time.Since(started),
	)

	return &statement.ParseResult{
		BankName:       meta.BankName,
		StatementMonth: meta.StatementMonth,
		Transactions:   merged.Transactions,
		ParsingRules: statement.ParsingRules{
			Method:      doc.Method,
			TablesFound: len(doc.Tables),
		},
	}, nil
}

// parseTables parses each table on its own goroutine, bounded by s.workers. Results keep
// table order regardless of completion order.
func (s *ParseService) parseTables(ctx context.Context, logger *slog.Logger, tables []statement.Table, meta statement.StatementMetadata) ([][]statement.Transaction, error) {
	perTable := make([][]statement.Transaction, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, table := range tables {
		i, table := i, table
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: table %d: panic: %v", common.ErrUnexpected, i, r)
				}
			}()

			if err := gctx.Err(); err != nil {
				return fmt.Errorf("%w: %w", common.ErrUnexpected, err)
			}

			tctx, span := s.tracer.Start(gctx, "statement.table", attribute.Int("table", i), attribute.Int("rows", len(table.Rows)))
			res := s.parser.ParseTable(tctx, table, meta)
			span.SetAttributes(
				attribute.String("mapping", string(res.Mapping)),
				attribute.Int("accepted", len(res.Transactions)),
			)
			s.tracer.Finish(span, nil)

			skipped := make(map[string]int, len(res.Skipped))
			for reason, n := range res.Skipped {
				skipped[reason.String()] = n
			}
			s.metrics.ObserveTable(string(res.Mapping), skipped)

			logger.DebugContext(gctx, "table parsed",
				"table", i,
				"rows", res.Rows,
				"accepted", len(res.Transactions),
				"skipped", skipped,
				"mapping", res.Mapping,
				"fingerprint", res.Fingerprint,
			)

			perTable[i] = res.Transactions
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perTable, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeParsed
	case errors.Is(err, common.ErrNoTablesFound):
		return observability.OutcomeNoTables
	default:
		return observability.OutcomeFailed
	}
}
