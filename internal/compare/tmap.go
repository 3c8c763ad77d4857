package compare

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// tmapColumns holds the indices of the columns extracted from a tmap file.
type tmapColumns struct {
	refGeneID int
	refID     int
	classCode int
	queryID   int
}

// parseTMap reads the comparator's per-transcript map file. The file is
// tab-delimited with a header naming at least ref_gene_id, ref_id,
// class_code and cuff_id; remaining columns are ignored.
func parseTMap(path string) (map[string]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tmap file: %w", err)
	}
	defer f.Close()

	return parseTMapReader(f)
}

func parseTMapReader(reader io.Reader) (map[string]Record, error) {
	scanner := bufio.NewScanner(reader)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan tmap: %w", err)
		}
		return nil, fmt.Errorf("tmap file is empty")
	}

	cols, err := parseTMapHeader(scanner.Text())
	if err != nil {
		return nil, err
	}

	records := make(map[string]Record)
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		maxIdx := cols.queryID
		for _, i := range []int{cols.refGeneID, cols.refID, cols.classCode} {
			if i > maxIdx {
				maxIdx = i
			}
		}
		if len(fields) <= maxIdx {
			return nil, fmt.Errorf("tmap line %d: expected at least %d fields, got %d", lineNum, maxIdx+1, len(fields))
		}

		records[fields[cols.queryID]] = Record{
			ClassCode: fields[cols.classCode],
			RefID:     normalizeRef(fields[cols.refID]),
			RefGeneID: normalizeRef(fields[cols.refGeneID]),
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan tmap: %w", err)
	}

	return records, nil
}

func parseTMapHeader(header string) (tmapColumns, error) {
	cols := tmapColumns{refGeneID: -1, refID: -1, classCode: -1, queryID: -1}

	for i, name := range strings.Split(header, "\t") {
		switch name {
		case "ref_gene_id":
			cols.refGeneID = i
		case "ref_id":
			cols.refID = i
		case "class_code":
			cols.classCode = i
		case "cuff_id", "qry_id":
			cols.queryID = i
		}
	}

	for _, missing := range []struct {
		name string
		idx  int
	}{
		{"ref_gene_id", cols.refGeneID},
		{"ref_id", cols.refID},
		{"class_code", cols.classCode},
		{"cuff_id", cols.queryID},
	} {
		if missing.idx == -1 {
			return cols, fmt.Errorf("tmap header missing column %q", missing.name)
		}
	}

	return cols, nil
}

// normalizeRef maps the tool's "-" no-match placeholder to an empty string.
func normalizeRef(v string) string {
	if v == "-" {
		return ""
	}
	return v
}
