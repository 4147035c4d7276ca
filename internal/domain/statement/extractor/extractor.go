// Package extractor turns raw statement input into a statement.Document: the full text of
// the statement plus its tables as rows of cells. Several extraction methods exist; each is
// an Extractor and Fallback chains them in a fixed order.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement"
)

// Extraction methods reported in parsingRules.method.
const (
	MethodLattice = "lattice"
	MethodStream  = "stream"
)

var (
	ErrEmptySource         = errors.New("source is empty")
	ErrUnknownMethod       = errors.New("unknown extraction method")
	ErrNoExtractors        = errors.New("no extractors configured")
	ErrAllExtractorsFailed = errors.New("all extraction methods failed")
)

// Source is the raw input for one statement.
type Source struct {
	Name string
	Data []byte
}

// Extractor produces a document from a source. An extractor that cannot read the source
// returns an error; finding zero tables is not an error.
type Extractor interface {
	Method() string
	Extract(ctx context.Context, src Source) (*statement.Document, error)
}

// Lookup returns the extractor for a method name.
func Lookup(method string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case MethodLattice:
		return NewLattice(), nil
	case MethodStream:
		return NewStream(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Fallback tries each extractor in order and returns the first successful document.
type Fallback struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewFallback creates a chain over extractors. A nil logger discards output.
func NewFallback(logger *slog.Logger, extractors ...Extractor) *Fallback {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fallback{extractors: extractors, logger: logger}
}

// Method lists the chained methods in order.
func (f *Fallback) Method() string {
	methods := make([]string, len(f.extractors))
	for i, ex := range f.extractors {
		methods[i] = ex.Method()
	}
	return strings.Join(methods, ",")
}

// Extract implements Extractor.
func (f *Fallback) Extract(ctx context.Context, src Source) (*statement.Document, error) {
	if len(f.extractors) == 0 {
		return nil, ErrNoExtractors
	}

	var errs []error
	for _, ex := range f.extractors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := ex.Extract(ctx, src)
		if err == nil {
			f.logger.InfoContext(ctx, "extraction succeeded", "method", ex.Method(), "source", src.Name, "tables", len(doc.Tables))
			return doc, nil
		}

		f.logger.WarnContext(ctx, "extraction method failed", "method", ex.Method(), "source", src.Name, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", ex.Method(), err))
	}

	return nil, fmt.Errorf("%w: %w", ErrAllExtractorsFailed, errors.Join(errs...))
}
