package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"supplychain/internal/config"
	"supplychain/internal/report"

	// register all backends with the storage factory.
	_ "supplychain/internal/storage/all"
)

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// errReportsFailed makes the process exit non-zero after partial output.
var errReportsFailed = errors.New("one or more reports failed")

type rootFlags struct {
	configPath     string
	verbose        bool
	reports        string
	metricsBackend string
	pushgatewayURL string
	dogstatsdAddr  string
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errReportsFailed) {
			fmt.Fprintln(stderr, "error:", err)
		}
		return exitCodeError
	}
	return exitCodeSuccess
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "supplychain",
		Short:         "Normalize a supply-chain order log and run the analytical reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "configs/pipelines/supplychain.json", "pipeline config JSON path")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "set debug logging level")
	pf.StringVar(&f.reports, "reports", "", "comma-separated report ids to run (default: all)")
	pf.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (env METRICS_BACKEND)")
	pf.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	pf.StringVar(&f.dogstatsdAddr, "dogstatsd-addr", "", "DogStatsD address (env DOGSTATSD_ADDR)")

	root.AddCommand(
		newRunCmd(f),
		newExtractCmd(f),
		newValidateCmd(f),
		newReportsCmd(),
	)
	return root
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// loadPipeline reads and validates the config. Warnings are logged; any
// error-level issue fails the command.
func loadPipeline(f *rootFlags, log *slog.Logger) (config.Pipeline, error) {
	p, err := config.LoadFile(f.configPath)
	if err != nil {
		return config.Pipeline{}, err
	}
	issues := config.ValidatePipeline(p, report.IDs()...)
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			log.Error("config", "path", iss.Path, "message", iss.Message)
		} else {
			log.Warn("config", "path", iss.Path, "message", iss.Message)
		}
	}
	if config.HasErrors(issues) {
		return config.Pipeline{}, fmt.Errorf("configuration is invalid: %s", f.configPath)
	}
	return p, nil
}

// splitIDs parses the --reports flag.
func splitIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// firstNonEmpty returns the first non-empty value: flag, then env, then config.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func getenv(k string) string { return os.Getenv(k) }
