package novel

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gofflab/Lincer-1/internal/compare"
)

// Thresholds define the novelty filter predicates. A transcript passes
// only if it satisfies all four.
type Thresholds struct {
	MinLength   int64   // length >= MinLength
	MinExons    int     // exon count >= MinExons
	MinCoverage float64 // coverage >= MinCoverage
	ClassCodes  string  // class code must be one of these characters
}

// DefaultThresholds selects long (>=200 nt), multi-exonic, well-covered
// transcripts whose reference relationship leaves room for novelty.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinLength:   200,
		MinExons:    2,
		MinCoverage: 3.0,
		ClassCodes:  "ujix",
	}
}

// Pass reports whether the row satisfies every predicate.
func (t Thresholds) Pass(row Row) bool {
	return row.Length >= t.MinLength &&
		row.Exons >= t.MinExons &&
		row.Coverage >= t.MinCoverage &&
		row.ClassCode != "" &&
		strings.Contains(t.ClassCodes, row.ClassCode)
}

// Row joins a transcript's Summary with its comparison against the
// reference annotation.
type Row struct {
	TranscriptID string
	Summary
	compare.Record
}

// Join inner-joins summaries with comparison records on transcript id and
// returns rows sorted by transcript id. Summaries with no comparison row
// are dropped.
func Join(summaries map[string]Summary, comparisons map[string]compare.Record) []Row {
	rows := make([]Row, 0, len(summaries))
	for id, s := range summaries {
		rec, ok := comparisons[id]
		if !ok {
			continue
		}
		rows = append(rows, Row{TranscriptID: id, Summary: s, Record: rec})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].TranscriptID < rows[j].TranscriptID })
	return rows
}

// Filter returns the ids of the rows passing the thresholds.
func Filter(rows []Row, t Thresholds) map[string]bool {
	keep := make(map[string]bool)
	for _, row := range rows {
		if t.Pass(row) {
			keep[row.TranscriptID] = true
		}
	}
	return keep
}

// WriteSummaryTSV writes the pre-filter joined table as a per-sample audit
// artifact. The file appears atomically.
func WriteSummaryTSV(path string, rows []Row) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp summary: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := writeSummaryTSV(tmp, rows); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close summary: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename summary: %w", err)
	}
	return nil
}

func writeSummaryTSV(w io.Writer, rows []Row) error {
	bw := bufio.NewWriter(w)

	header := []string{"transcript_id", "length", "exons", "coverage", "class_code", "ref_id", "ref_gene_id"}
	if _, err := bw.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	for _, row := range rows {
		fields := []string{
			row.TranscriptID,
			strconv.FormatInt(row.Length, 10),
			strconv.Itoa(row.Exons),
			strconv.FormatFloat(row.Coverage, 'g', -1, 64),
			row.ClassCode,
			row.RefID,
			row.RefGeneID,
		}
		if _, err := bw.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush summary: %w", err)
	}
	return nil
}
