package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/statement-normalizer/internal/domain/common"
	"github.com/FACorreiaa/statement-normalizer/internal/domain/statement/extractor"
	"github.com/FACorreiaa/statement-normalizer/pkg/config"
)

// Version is set via ldflags during build.
var Version = "dev"

// Output formats accepted by --output.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitNoTables = 2
)

// ExitCode maps a command error to the process exit status. A document without tables
// gets its own code so callers can tell it apart from a crash.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, common.ErrNoTablesFound):
		return ExitNoTables
	default:
		return ExitFailure
	}
}

// app carries what the subcommands share. deps is built once flags are parsed so bound
// flags take part in configuration.
type app struct {
	v    *viper.Viper
	deps *Dependencies
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	logger := NewLogger(cfg.Log, cmd.ErrOrStderr())

	deps, err := InitDependencies(cfg, logger)
	if err != nil {
		return err
	}
	a.deps = deps
	return nil
}

// NewRootCommand creates the root CLI command with all subcommands registered. v supplies
// configuration; see config.NewViper.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	a := &app{v: v}

	rootCmd := &cobra.Command{
		Use:     "stmtparse",
		Short:   "Normalize bank statement tables into transactions",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().String("extractor", "", "comma-separated extraction methods tried in order (lattice, stream); overrides EXTRACTOR_ORDER")
	_ = v.BindPFlag(config.KeyExtractorOrder, rootCmd.PersistentFlags().Lookup("extractor"))

	rootCmd.AddCommand(newParseCommand(a), newDetectCommand(a))

	return rootCmd
}

func newParseCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse statements and print their transactions",
		Long:  "Parse each statement file (or stdin when no file or \"-\" is given) and print one result per statement.",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := a.deps

			enc, err := newEncoder(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}

			sources, err := readSources(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			for _, s := range sources {
				result, err := deps.ParseService.ParseSource(cmd.Context(), deps.Extractor, s)
				if err != nil {
					return fmt.Errorf("%s: %w", s.Name, err)
				}
				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("encoding result: %w", err)
				}
			}
			if err := enc.Close(); err != nil {
				return err
			}

			if deps.Config.Metrics.Enabled {
				return writeMetrics(cmd.ErrOrStderr(), deps)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", OutputJSON, "output format (json or yaml)")
	cmd.Flags().Bool("metrics", false, "print pipeline metrics to stderr after parsing; overrides METRICS_ENABLED")
	_ = a.v.BindPFlag(config.KeyMetricsEnabled, cmd.Flags().Lookup("metrics"))

	return cmd
}

func newDetectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file]",
		Short: "Print the bank and statement month of a statement",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := a.deps

			sources, err := readSources(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			doc, err := deps.Extractor.Extract(cmd.Context(), sources[0])
			if err != nil {
				return fmt.Errorf("%w: %w", common.ErrUnexpected, err)
			}
			meta := deps.ParseService.Detect(cmd.Context(), doc)

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "bank: %s\nmonth: %s\n", meta.BankName, meta.StatementMonth)
			return err
		},
	}
}

func readSources(stdin io.Reader, args []string) ([]extractor.Source, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}

	sources := make([]extractor.Source, 0, len(args))
	for _, arg := range args {
		if arg == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			sources = append(sources, extractor.Source{Name: "stdin", Data: data})
			continue
		}

		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", common.ErrBadRequest, arg, err)
		}
		sources = append(sources, extractor.Source{Name: filepath.Base(arg), Data: data})
	}
	return sources, nil
}

type resultEncoder interface {
	Encode(v any) error
	Close() error
}

type jsonEncoder struct{ *json.Encoder }

func (jsonEncoder) Close() error { return nil }

func newEncoder(w io.Writer, format string) (resultEncoder, error) {
	switch strings.ToLower(format) {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return jsonEncoder{enc}, nil
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return enc, nil
	default:
		return nil, fmt.Errorf("%w: unknown output format %q", common.ErrBadRequest, format)
	}
}

func writeMetrics(w io.Writer, deps *Dependencies) error {
	families, err := deps.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	return writeFamilies(w, families)
}

func writeFamilies(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
