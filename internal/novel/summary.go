// Package novel derives per-transcript summaries from de novo assemblies
// and selects candidate novel long transcripts.
package novel

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gofflab/Lincer-1/internal/gtf"
)

// Summary aggregates the exon records of one assembled transcript.
type Summary struct {
	Length   int64   // summed exon lengths
	Exons    int     // exon record count
	Coverage float64 // maximum per-exon read depth estimate
}

// Summarize builds one Summary per transcript from the assembly at path.
// Only exon records contribute; a transcript with no exon records does not
// appear.
func Summarize(path string) (map[string]Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open assembly: %w", err)
	}
	defer f.Close()

	return SummarizeReader(f)
}

// SummarizeReader is Summarize over an already-open stream.
func SummarizeReader(reader io.Reader) (map[string]Summary, error) {
	summaries := make(map[string]Summary)

	rd := gtf.NewReader(reader)
	for {
		rec, err := rd.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		if rec.Feature != "exon" {
			continue
		}

		id, err := rec.RequireAttr("transcript_id")
		if err != nil {
			return nil, err
		}

		covStr, err := rec.RequireAttr("cov")
		if err != nil {
			return nil, err
		}
		cov, err := strconv.ParseFloat(covStr, 64)
		if err != nil {
			return nil, fmt.Errorf("transcript %s: parse cov: %w", id, err)
		}

		s := summaries[id]
		s.Length += rec.Length()
		s.Exons++
		if cov > s.Coverage {
			s.Coverage = cov
		}
		summaries[id] = s
	}

	return summaries, nil
}
