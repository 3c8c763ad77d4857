// Package catalog builds the final lncRNA annotation catalog from the
// known-lncRNA GTF, the merged novel assembly and the classification
// table.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gofflab/Lincer-1/internal/classify"
	"github.com/gofflab/Lincer-1/internal/gtf"
)

// Entry is one output exon line of the catalog.
type Entry struct {
	Chrom        string
	Source       string
	Feature      string
	Start        int64
	End          int64
	Score        string
	Strand       string
	Frame        string
	GeneID       string
	TranscriptID string
	GeneName     string
}

// Builder assembles catalog entries from the three transcript
// populations: known lncRNAs, novel isoforms of known lncRNA genes and
// wholly novel lncRNA genes.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{logger: zap.NewNop()}
}

// SetLogger sets the logger for warning messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Build merges the known-lncRNA exons with the classified novel exons and
// returns the fully ordered catalog.
//
// Novel isoforms inherit the gene identity of their matched known lncRNA
// gene. Wholly novel genes (intergenic, antisense, intronic) keep their
// locus-derived gene id and reuse it as the gene name. All other
// classifications are dropped.
func (b *Builder) Build(knownPath, novelPath string, classifications map[string]*classify.Record) ([]Entry, error) {
	known, geneIDByName, err := b.loadKnown(knownPath)
	if err != nil {
		return nil, err
	}

	novel, err := b.loadNovel(novelPath, classifications, geneIDByName)
	if err != nil {
		return nil, err
	}

	entries := append(known, novel...)
	sortEntries(entries)
	return entries, nil
}

// loadKnown parses the known-lncRNA exons and derives the gene_name ->
// gene_id lookup used to reconcile novel isoforms. For a gene name seen
// under several gene ids, the first occurrence in file order wins.
func (b *Builder) loadKnown(path string) ([]Entry, map[string]string, error) {
	records, err := gtf.ReadAll(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load known lncRNA GTF: %w", err)
	}

	var entries []Entry
	geneIDByName := make(map[string]string)

	for _, rec := range records {
		if rec.Feature != "exon" {
			continue
		}

		e, err := entryFromRecord(rec)
		if err != nil {
			return nil, nil, err
		}
		name, err := rec.RequireAttr("gene_name")
		if err != nil {
			return nil, nil, err
		}
		e.GeneName = name

		if _, ok := geneIDByName[name]; !ok {
			geneIDByName[name] = e.GeneID
		}
		entries = append(entries, e)
	}

	return entries, geneIDByName, nil
}

// loadNovel parses the merged novel exons and keeps only the transcripts
// classified as catalog members, reconciling gene identity as it goes.
func (b *Builder) loadNovel(path string, classifications map[string]*classify.Record, geneIDByName map[string]string) ([]Entry, error) {
	records, err := gtf.ReadAll(path)
	if err != nil {
		return nil, fmt.Errorf("load novel assembly GTF: %w", err)
	}

	var entries []Entry
	for _, rec := range records {
		if rec.Feature != "exon" {
			continue
		}

		e, err := entryFromRecord(rec)
		if err != nil {
			return nil, err
		}

		cls, ok := classifications[e.TranscriptID]
		if !ok {
			continue
		}

		switch cls.Label {
		case classify.NovelIsoform:
			// Borrow the matched known gene's identity in place of the
			// assembly's locus id.
			e.GeneName = cls.VsLnc.RefGeneID
			if id, ok := geneIDByName[e.GeneName]; ok {
				e.GeneID = id
			} else {
				// The matched gene name has no entry in the known-lncRNA
				// table; keep the locus id rather than emit a gap.
				b.logger.Warn("novel isoform gene name not in known lncRNA table; keeping locus id",
					zap.String("transcript_id", e.TranscriptID),
					zap.String("gene_name", e.GeneName))
			}
		case classify.Intergenic, classify.Antisense, classify.Intronic:
			// No reference gene to borrow from.
			e.GeneName = e.GeneID
		default:
			continue
		}

		entries = append(entries, e)
	}

	return entries, nil
}

func entryFromRecord(rec *gtf.Record) (Entry, error) {
	geneID, err := rec.RequireAttr("gene_id")
	if err != nil {
		return Entry{}, err
	}
	transcriptID, err := rec.RequireAttr("transcript_id")
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Chrom:        rec.Chrom,
		Source:       rec.Source,
		Feature:      rec.Feature,
		Start:        rec.Start,
		End:          rec.End,
		Score:        rec.Score,
		Strand:       rec.Strand,
		Frame:        rec.Frame,
		GeneID:       geneID,
		TranscriptID: transcriptID,
	}, nil
}

// sortEntries orders the catalog by chromosome, then the minimum start
// coordinate across each gene's exons, then gene id, then transcript id.
// This keeps a gene's transcripts contiguous in the output.
func sortEntries(entries []Entry) {
	geneStart := make(map[string]int64)
	for _, e := range entries {
		if s, ok := geneStart[e.GeneID]; !ok || e.Start < s {
			geneStart[e.GeneID] = e.Start
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Chrom != b.Chrom {
			return a.Chrom < b.Chrom
		}
		if geneStart[a.GeneID] != geneStart[b.GeneID] {
			return geneStart[a.GeneID] < geneStart[b.GeneID]
		}
		if a.GeneID != b.GeneID {
			return a.GeneID < b.GeneID
		}
		return a.TranscriptID < b.TranscriptID
	})
}

// Write renders the catalog as a 9-column GTF with a normalized attribute
// field and no header. The file appears atomically.
func Write(path string, entries []Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := write(tmp, entries); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename catalog: %w", err)
	}
	return nil
}

func write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)

	for _, e := range entries {
		fields := []string{
			e.Chrom,
			e.Source,
			e.Feature,
			strconv.FormatInt(e.Start, 10),
			strconv.FormatInt(e.End, 10),
			e.Score,
			e.Strand,
			e.Frame,
			gtf.FormatAttributes(e.GeneID, e.TranscriptID, e.GeneName),
		}
		if _, err := bw.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return fmt.Errorf("write catalog: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush catalog: %w", err)
	}
	return nil
}
