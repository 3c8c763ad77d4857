package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofflab/Lincer-1/internal/classify"
	"github.com/gofflab/Lincer-1/internal/compare"
)

const knownFixture = `chr1	HAVANA	exon	5000	5200	.	+	.	gene_id "ENSG01"; transcript_id "ENST01"; gene_name "LINC-A";
chr1	HAVANA	exon	5400	5600	.	+	.	gene_id "ENSG01"; transcript_id "ENST01"; gene_name "LINC-A";
chr2	HAVANA	exon	100	300	.	-	.	gene_id "ENSG02"; transcript_id "ENST02"; gene_name "LINC-B";
`

const novelFixture = `chr1	Cufflinks	exon	6000	6200	.	+	.	gene_id "XLOC_1"; transcript_id "TCONS_1";
chr1	Cufflinks	exon	6400	6500	.	+	.	gene_id "XLOC_1"; transcript_id "TCONS_1";
chr1	Cufflinks	exon	1000	1200	.	+	.	gene_id "XLOC_2"; transcript_id "TCONS_2";
chr1	Cufflinks	exon	9000	9100	.	-	.	gene_id "XLOC_3"; transcript_id "TCONS_3";
chr1	Cufflinks	exon	50	80	.	+	.	gene_id "XLOC_4"; transcript_id "TCONS_4";
`

func writeFixtures(t *testing.T) (knownPath, novelPath string) {
	t.Helper()
	dir := t.TempDir()
	knownPath = filepath.Join(dir, "known.gtf")
	novelPath = filepath.Join(dir, "novel_transcripts.gtf")
	require.NoError(t, os.WriteFile(knownPath, []byte(knownFixture), 0644))
	require.NoError(t, os.WriteFile(novelPath, []byte(novelFixture), 0644))
	return knownPath, novelPath
}

func testClassifications() map[string]*classify.Record {
	return map[string]*classify.Record{
		// Novel isoform of LINC-A: inherits ENSG01.
		"TCONS_1": {
			VsLnc: compare.Record{ClassCode: "j", RefGeneID: "LINC-A"},
			VsRef: compare.Record{ClassCode: "j", RefGeneID: "LINC-A"},
			Label: classify.NovelIsoform,
		},
		// Wholly novel gene: locus id doubles as gene name.
		"TCONS_2": {
			VsRef: compare.Record{ClassCode: "u"},
			Label: classify.Intergenic,
		},
		// Dropped from the catalog.
		"TCONS_3": {
			VsLnc: compare.Record{ClassCode: "="},
			Label: classify.KnownIsoform,
		},
		// Isoform of a gene missing from the known table: keeps locus id.
		"TCONS_4": {
			VsLnc: compare.Record{ClassCode: "j", RefGeneID: "LINC-GONE"},
			Label: classify.NovelIsoform,
		},
	}
}

func TestBuild(t *testing.T) {
	knownPath, novelPath := writeFixtures(t)

	entries, err := NewBuilder().Build(knownPath, novelPath, testClassifications())
	require.NoError(t, err)

	byTranscript := make(map[string][]Entry)
	for _, e := range entries {
		byTranscript[e.TranscriptID] = append(byTranscript[e.TranscriptID], e)
	}

	// Known exons pass through with their own identity.
	require.Len(t, byTranscript["ENST01"], 2)
	assert.Equal(t, "ENSG01", byTranscript["ENST01"][0].GeneID)
	assert.Equal(t, "LINC-A", byTranscript["ENST01"][0].GeneName)

	// Novel isoform borrowed the known gene's id and name.
	require.Len(t, byTranscript["TCONS_1"], 2)
	assert.Equal(t, "ENSG01", byTranscript["TCONS_1"][0].GeneID)
	assert.Equal(t, "LINC-A", byTranscript["TCONS_1"][0].GeneName)

	// Novel gene reuses its locus id as gene name.
	require.Len(t, byTranscript["TCONS_2"], 1)
	assert.Equal(t, "XLOC_2", byTranscript["TCONS_2"][0].GeneID)
	assert.Equal(t, "XLOC_2", byTranscript["TCONS_2"][0].GeneName)

	// known_isoform transcripts are not duplicated into the catalog.
	assert.Empty(t, byTranscript["TCONS_3"])

	// Lookup gap: matched gene name absent, locus id kept.
	require.Len(t, byTranscript["TCONS_4"], 1)
	assert.Equal(t, "XLOC_4", byTranscript["TCONS_4"][0].GeneID)
	assert.Equal(t, "LINC-GONE", byTranscript["TCONS_4"][0].GeneName)
}

func TestBuild_SortInvariant(t *testing.T) {
	knownPath, novelPath := writeFixtures(t)

	entries, err := NewBuilder().Build(knownPath, novelPath, testClassifications())
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	// Genes are contiguous.
	seen := make(map[string]bool)
	last := ""
	for _, e := range entries {
		if e.GeneID != last {
			assert.False(t, seen[e.GeneID], "gene %s appears in two separate runs", e.GeneID)
			seen[e.GeneID] = true
			last = e.GeneID
		}
	}

	// Genes appear in non-decreasing (chromosome, min start) order.
	geneStart := make(map[string]int64)
	for _, e := range entries {
		if s, ok := geneStart[e.GeneID]; !ok || e.Start < s {
			geneStart[e.GeneID] = e.Start
		}
	}
	for i := 1; i < len(entries); i++ {
		a, b := entries[i-1], entries[i]
		if a.Chrom == b.Chrom {
			assert.LessOrEqual(t, geneStart[a.GeneID], geneStart[b.GeneID])
		} else {
			assert.Less(t, a.Chrom, b.Chrom)
		}
	}

	// The shared gene ENSG01 sorts at the known transcript's start even
	// though the novel isoform begins later.
	assert.Equal(t, "XLOC_4", entries[0].GeneID)
}

func TestWrite(t *testing.T) {
	entries := []Entry{
		{
			Chrom: "chr1", Source: "HAVANA", Feature: "exon",
			Start: 5000, End: 5200, Score: ".", Strand: "+", Frame: ".",
			GeneID: "ENSG01", TranscriptID: "ENST01", GeneName: "LINC-A",
		},
	}

	path := filepath.Join(t.TempDir(), "lncRNA_catalog.gtf")
	require.NoError(t, Write(path, entries))

	out, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "chr1\tHAVANA\texon\t5000\t5200\t.\t+\t.\t" +
		"gene_id \"ENSG01\"; transcript_id \"ENST01\"; gene_name \"LINC-A\";\n"
	assert.Equal(t, want, string(out))
}
