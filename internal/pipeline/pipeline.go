// Package pipeline orchestrates lncRNA discovery: per-sample filtering,
// multi-sample merging, classification and catalog construction.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gofflab/Lincer-1/internal/catalog"
	"github.com/gofflab/Lincer-1/internal/classify"
	"github.com/gofflab/Lincer-1/internal/compare"
	"github.com/gofflab/Lincer-1/internal/gtf"
	"github.com/gofflab/Lincer-1/internal/novel"
	"github.com/gofflab/Lincer-1/internal/sample"
)

// Run artifact names, relative to the pipeline's working directory.
const (
	MergedGTF         = "novel_transcripts.gtf"
	ClassificationTSV = "novel_transcripts.tsv"
	CatalogGTF        = "lncRNA_catalog.gtf"
)

// Comparator aligns a query assembly against a reference annotation.
type Comparator interface {
	Compare(ctx context.Context, referencePath, queryPath string) (map[string]compare.Record, error)
}

// ComparatorFunc adapts a function to the Comparator interface.
type ComparatorFunc func(ctx context.Context, referencePath, queryPath string) (map[string]compare.Record, error)

// Compare implements Comparator.
func (f ComparatorFunc) Compare(ctx context.Context, referencePath, queryPath string) (map[string]compare.Record, error) {
	return f(ctx, referencePath, queryPath)
}

// Merger unions per-sample assemblies into one transcript set.
type Merger interface {
	Merge(ctx context.Context, inputPaths []string, outPath string) error
}

// MergerFunc adapts a function to the Merger interface.
type MergerFunc func(ctx context.Context, inputPaths []string, outPath string) error

// Merge implements Merger.
func (f MergerFunc) Merge(ctx context.Context, inputPaths []string, outPath string) error {
	return f(ctx, inputPaths, outPath)
}

// Auditor receives decision tables for post-run inspection.
type Auditor interface {
	WriteSampleRows(sampleName string, rows []novel.Row, keep map[string]bool) error
	WriteClassifications(records map[string]*classify.Record) error
}

// Pipeline drives a full discovery run.
type Pipeline struct {
	Comparer   Comparator
	Merger     Merger
	Thresholds novel.Thresholds
	Workdir    string  // where run artifacts are written
	Workers    int     // per-sample parallelism; <=1 means sequential
	Audit      Auditor // optional audit database

	logger *zap.Logger
}

// New creates a Pipeline with default thresholds writing to the current
// directory.
func New(comparer Comparator, merger Merger) *Pipeline {
	return &Pipeline{
		Comparer:   comparer,
		Merger:     merger,
		Thresholds: novel.DefaultThresholds(),
		Workdir:    ".",
		Workers:    1,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Run executes the pipeline over the given samples.
func (p *Pipeline) Run(ctx context.Context, samples []sample.Sample, refGTF, lncGTF string) error {
	if len(samples) == 0 {
		return fmt.Errorf("pipeline: no samples")
	}

	if err := p.runSampleStage(ctx, samples, refGTF); err != nil {
		return err
	}

	mergedPath := filepath.Join(p.Workdir, MergedGTF)
	novelPaths := make([]string, len(samples))
	for i, s := range samples {
		novelPaths[i] = filepath.Join(p.Workdir, s.NovelGTF())
	}

	p.logger.Info("merging novel transcripts", zap.Int("samples", len(samples)))
	if err := p.Merger.Merge(ctx, novelPaths, mergedPath); err != nil {
		return fmt.Errorf("merge novel transcripts: %w", err)
	}

	records, err := p.classifyStage(ctx, mergedPath, refGTF, lncGTF)
	if err != nil {
		return err
	}

	return p.catalogStage(lncGTF, mergedPath, records)
}

// classifyStage compares the merged assembly against both references and
// writes the classification artifact.
func (p *Pipeline) classifyStage(ctx context.Context, mergedPath, refGTF, lncGTF string) (map[string]*classify.Record, error) {
	p.logger.Info("classifying novel transcripts",
		zap.String("ref_gtf", refGTF),
		zap.String("lnc_gtf", lncGTF))

	vsRef, err := p.Comparer.Compare(ctx, refGTF, mergedPath)
	if err != nil {
		return nil, fmt.Errorf("compare against reference: %w", err)
	}
	vsLnc, err := p.Comparer.Compare(ctx, lncGTF, mergedPath)
	if err != nil {
		return nil, fmt.Errorf("compare against known lncRNAs: %w", err)
	}

	records := classify.Classify(vsRef, vsLnc)

	tsvPath := filepath.Join(p.Workdir, ClassificationTSV)
	if err := classify.WriteTSV(tsvPath, records); err != nil {
		return nil, err
	}

	if p.Audit != nil {
		if err := p.Audit.WriteClassifications(records); err != nil {
			return nil, fmt.Errorf("audit classifications: %w", err)
		}
	}

	counts := make(map[classify.Label]int)
	for _, r := range records {
		counts[r.Label]++
	}
	p.logger.Info("classification complete",
		zap.Int("transcripts", len(records)),
		zap.Int("novel_isoform", counts[classify.NovelIsoform]),
		zap.Int("intergenic", counts[classify.Intergenic]),
		zap.Int("antisense", counts[classify.Antisense]),
		zap.Int("intronic", counts[classify.Intronic]))

	return records, nil
}

// catalogStage builds and writes the final catalog.
func (p *Pipeline) catalogStage(lncGTF, mergedPath string, records map[string]*classify.Record) error {
	builder := catalog.NewBuilder()
	builder.SetLogger(p.logger)

	entries, err := builder.Build(lncGTF, mergedPath, records)
	if err != nil {
		return err
	}

	outPath := filepath.Join(p.Workdir, CatalogGTF)
	if err := catalog.Write(outPath, entries); err != nil {
		return err
	}

	p.logger.Info("wrote lncRNA catalog",
		zap.String("path", outPath),
		zap.Int("exons", len(entries)))
	return nil
}

// processSample runs the per-sample stage: summarize, compare, join,
// persist the audit table, filter, and write the filtered assembly.
func (p *Pipeline) processSample(ctx context.Context, s sample.Sample, refGTF string) ([]novel.Row, map[string]bool, error) {
	summaries, err := novel.Summarize(s.AssemblyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("sample %s: %w", s.Name, err)
	}

	comparisons, err := p.Comparer.Compare(ctx, refGTF, s.AssemblyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("sample %s: %w", s.Name, err)
	}

	rows := novel.Join(summaries, comparisons)

	summaryPath := filepath.Join(p.Workdir, s.SummaryTSV())
	if err := novel.WriteSummaryTSV(summaryPath, rows); err != nil {
		return nil, nil, fmt.Errorf("sample %s: %w", s.Name, err)
	}

	keep := novel.Filter(rows, p.Thresholds)

	outPath := filepath.Join(p.Workdir, s.NovelGTF())
	if err := gtf.SelectTranscripts(s.AssemblyPath, outPath, keep); err != nil {
		return nil, nil, fmt.Errorf("sample %s: %w", s.Name, err)
	}

	return rows, keep, nil
}
