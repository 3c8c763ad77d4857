// Package classify assigns each merged novel transcript a lncRNA
// classification from its comparisons against the full reference
// annotation and the known-lncRNA catalog.
package classify

import (
	"sort"

	"github.com/gofflab/Lincer-1/internal/compare"
)

// Label is a transcript classification.
type Label string

// The closed set of classifications. Every transcript receives exactly
// one.
const (
	KnownIsoform     Label = "known_isoform"     // exact match to a known lncRNA transcript
	PossibleArtifact Label = "possible_artifact" // isoform of conflicting genes; assembly noise
	NovelIsoform     Label = "novel_isoform"     // new isoform of a known lncRNA gene
	Intergenic       Label = "intergenic"        // no reference overlap
	Antisense        Label = "antisense"         // opposite-strand overlap, unrelated to known lncRNAs
	Intronic         Label = "intronic"          // nested in a reference intron
	NotALncRNA       Label = "not_a_lncRNA"      // everything else
)

// Record joins a transcript's two comparisons with its classification.
type Record struct {
	VsRef compare.Record // against the full reference annotation
	VsLnc compare.Record // against the known-lncRNA catalog
	Label Label
}

// Classify joins the two comparison tables on transcript id and labels
// every transcript. The rules are ordered; the first match wins and
// isoform rules are deliberately tested before the novel-gene rules.
func Classify(vsRef, vsLnc map[string]compare.Record) map[string]*Record {
	records := make(map[string]*Record)

	for id, rec := range vsRef {
		records[id] = &Record{VsRef: rec}
	}
	for id, rec := range vsLnc {
		r, ok := records[id]
		if !ok {
			r = &Record{}
			records[id] = r
		}
		r.VsLnc = rec
	}

	for _, r := range records {
		r.Label = label(r)
	}

	return records
}

func label(r *Record) Label {
	switch {
	case r.VsLnc.ClassCode == compare.ClassExactMatch:
		return KnownIsoform
	case r.VsLnc.ClassCode == compare.ClassNewIsoform &&
		r.VsRef.ClassCode == compare.ClassNewIsoform &&
		r.VsLnc.RefGeneID != r.VsRef.RefGeneID:
		return PossibleArtifact
	case r.VsLnc.ClassCode == compare.ClassNewIsoform:
		return NovelIsoform
	case r.VsRef.ClassCode == compare.ClassIntergenic:
		return Intergenic
	case r.VsRef.ClassCode == compare.ClassAntisense &&
		r.VsLnc.ClassCode == compare.ClassIntergenic:
		return Antisense
	case r.VsRef.ClassCode == compare.ClassIntronic:
		return Intronic
	default:
		return NotALncRNA
	}
}

// SortedIDs returns the transcript ids of records in lexical order.
func SortedIDs(records map[string]*Record) []string {
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
