// Package main provides the lincer command-line tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/gofflab/Lincer-1/internal/compare"
	"github.com/gofflab/Lincer-1/internal/merge"
	"github.com/gofflab/Lincer-1/internal/novel"
	"github.com/gofflab/Lincer-1/internal/pipeline"
	"github.com/gofflab/Lincer-1/internal/sample"
	"github.com/gofflab/Lincer-1/internal/store"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		showVersion bool
		workdir     string
		workers     int
		auditDB     string
		verbose     bool
	)

	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.StringVar(&workdir, "workdir", ".", "Directory for run artifacts")
	flag.IntVar(&workers, "workers", 1, "Samples to filter concurrently")
	flag.StringVar(&auditDB, "audit-db", "", "DuckDB audit database path (default: from config)")
	flag.BoolVar(&verbose, "v", false, "Enable debug logging")
	flag.Usage = func() { printUsage(os.Stdout) }
	flag.Parse()

	if showVersion {
		fmt.Printf("lincer version %s (%s) built %s\n", version, commit, date)
		return ExitSuccess
	}

	if err := initConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}

	args := flag.Args()

	if len(args) > 0 && args[0] == "config" {
		cfg := newConfigCmd()
		cfg.SetArgs(args[1:])
		if err := cfg.Execute(); err != nil {
			return ExitError
		}
		return ExitSuccess
	}

	if len(args) < 3 {
		printUsage(os.Stdout)
		return ExitError
	}

	sampleSheet, refGTF, lncGTF := args[0], args[1], args[2]

	logger, err := newLogger(verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runPipeline(ctx, logger, sampleSheet, refGTF, lncGTF, workdir, workers, auditDB); err != nil {
		logger.Error("run failed", zap.Error(err))
		return ExitError
	}

	return ExitSuccess
}

func runPipeline(ctx context.Context, logger *zap.Logger, sampleSheet, refGTF, lncGTF, workdir string, workers int, auditDB string) error {
	logger.Info("loading sample sheet", zap.String("src", sampleSheet))
	samples, err := sample.LoadSheet(sampleSheet)
	if err != nil {
		return err
	}
	logger.Info("loaded samples", zap.Int("count", len(samples)))

	comparer := compare.NewComparer(viper.GetString("tools.compare"))
	comparer.SetLogger(logger)

	merger := merge.NewMerger(viper.GetString("tools.merge"))
	merger.SetLogger(logger)

	p := pipeline.New(comparer, merger)
	p.Workdir = workdir
	p.Workers = workers
	p.Thresholds = thresholdsFromConfig()
	p.SetLogger(logger)

	if auditDB == "" {
		auditDB = viper.GetString("audit.db")
	}
	if auditDB != "" {
		audit, err := store.Open(auditDB)
		if err != nil {
			return err
		}
		defer audit.Close()
		p.Audit = audit
		logger.Info("audit database enabled", zap.String("path", auditDB))
	}

	return p.Run(ctx, samples, refGTF, lncGTF)
}

// thresholdsFromConfig builds filter thresholds from viper, which carries
// the standard values unless overridden in ~/.lincer.yaml.
func thresholdsFromConfig() novel.Thresholds {
	return novel.Thresholds{
		MinLength:   viper.GetInt64("filter.min_length"),
		MinExons:    viper.GetInt("filter.min_exons"),
		MinCoverage: viper.GetFloat64("filter.min_coverage"),
		ClassCodes:  viper.GetString("filter.class_codes"),
	}
}

// newLogger builds a console logger writing to stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}

func printUsage(w *os.File) {
	fmt.Fprintf(w, `lincer - discover and catalog novel lncRNA transcripts

Usage:
  lincer [options] SAMPLE_SHEET REFERENCE_GTF LNCRNA_GTF
  lincer config [get|set] ...

SAMPLE_SHEET is a two-column tab delimited table with no header, which maps
sample names to paths of GTFs containing de novo transcript assemblies from,
eg, Cufflinks.

  Column  Column
  Number  Name         Example           Description
  ------  -----------  ----------------  -----------------------------------
  1       sample_name  WT_day0_rep1      the condition label for this sample
  2       gtf_path     WT_day0_rep1.gtf  path to gtf of de novo transcripts

REFERENCE_GTF contains all annotated transcripts.
LNCRNA_GTF contains all known lncRNA transcripts.

Options:
  -workdir DIR    directory for run artifacts (default ".")
  -workers N      samples to filter concurrently (default 1)
  -audit-db PATH  record filter and classification tables in a DuckDB file
  -v              debug logging
  --version       show version information

Outputs (in the working directory):
  <sample>.summary.tsv   per-sample pre-filter table
  <sample>.novel.gtf     per-sample filtered assembly
  novel_transcripts.gtf  merged novel assembly
  novel_transcripts.tsv  classification table
  %s      final annotated catalog
`, pipeline.CatalogGTF)
}
