package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofflab/Lincer-1/internal/classify"
	"github.com/gofflab/Lincer-1/internal/compare"
	"github.com/gofflab/Lincer-1/internal/novel"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("") // in-memory
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteSampleRows(t *testing.T) {
	s := openTestStore(t)

	rows := []novel.Row{
		{
			TranscriptID: "TCONS_1",
			Summary:      novel.Summary{Length: 302, Exons: 2, Coverage: 6.5},
			Record:       compare.Record{ClassCode: "j", RefID: "ENST1", RefGeneID: "LINC-A"},
		},
		{
			TranscriptID: "TCONS_2",
			Summary:      novel.Summary{Length: 150, Exons: 1, Coverage: 1.0},
			Record:       compare.Record{ClassCode: "="},
		},
	}

	require.NoError(t, s.WriteSampleRows("rep1", rows, map[string]bool{"TCONS_1": true}))

	var passed int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM sample_summaries WHERE sample='rep1' AND passed`).Scan(&passed))
	assert.Equal(t, 1, passed)

	var length int64
	require.NoError(t, s.db.QueryRow(
		`SELECT length FROM sample_summaries WHERE transcript_id='TCONS_1'`).Scan(&length))
	assert.Equal(t, int64(302), length)
}

func TestWriteClassifications(t *testing.T) {
	s := openTestStore(t)

	records := map[string]*classify.Record{
		"t1": {VsRef: compare.Record{ClassCode: "u"}, Label: classify.Intergenic},
		"t2": {VsRef: compare.Record{ClassCode: "u"}, Label: classify.Intergenic},
		"t3": {VsLnc: compare.Record{ClassCode: "j", RefGeneID: "G"}, Label: classify.NovelIsoform},
	}

	require.NoError(t, s.WriteClassifications(records))

	counts, err := s.CountByClassification()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"intergenic": 2, "novel_isoform": 1}, counts)
}

func TestWriteEmpty(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.WriteSampleRows("rep1", nil, nil))
	assert.NoError(t, s.WriteClassifications(nil))
}
