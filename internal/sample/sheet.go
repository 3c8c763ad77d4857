// Package sample provides sample sheet loading for assembly inputs.
package sample

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sample maps a sample name to its de novo assembly GTF.
type Sample struct {
	Name         string
	AssemblyPath string
}

// NovelGTF returns the per-sample filtered assembly artifact name.
func (s Sample) NovelGTF() string {
	return s.Name + ".novel.gtf"
}

// SummaryTSV returns the per-sample pre-filter summary artifact name.
func (s Sample) SummaryTSV() string {
	return s.Name + ".summary.tsv"
}

// LoadSheet reads a two-column tab-delimited sample sheet with no header:
// sample_name <TAB> path_to_assembly_gtf. Samples are returned in sheet
// order.
func LoadSheet(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample sheet: %w", err)
	}
	defer f.Close()

	return parseSheet(f)
}

func parseSheet(reader io.Reader) ([]Sample, error) {
	var samples []Sample
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(reader)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("sample sheet line %d: expected sample_name<TAB>gtf_path", lineNum)
		}

		name := fields[0]
		if seen[name] {
			return nil, fmt.Errorf("sample sheet line %d: duplicate sample %q", lineNum, name)
		}
		seen[name] = true

		samples = append(samples, Sample{Name: name, AssemblyPath: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan sample sheet: %w", err)
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("sample sheet is empty")
	}

	return samples, nil
}
