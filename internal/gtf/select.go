package gtf

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SelectTranscripts streams the GTF at inputPath and writes to outputPath
// only the lines whose transcript_id is in keep. Retained lines are
// written byte-identical to the input; no re-serialization happens.
// The output file appears atomically via a rename from a temporary file
// in the same directory.
func SelectTranscripts(inputPath, outputPath string, keep map[string]bool) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(outputPath), filepath.Base(outputPath)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		transcriptID, err := lineTranscriptID(line)
		if err != nil {
			return err
		}

		if keep[transcriptID] {
			if _, err := w.WriteString(line + "\n"); err != nil {
				return fmt.Errorf("write output GTF: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan GTF: %w", err)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output GTF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output GTF: %w", err)
	}
	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return fmt.Errorf("rename output GTF: %w", err)
	}
	return nil
}

// lineTranscriptID extracts the transcript_id attribute without parsing
// the full record.
func lineTranscriptID(line string) (string, error) {
	tab := strings.LastIndex(line, "\t")
	if tab == -1 {
		return "", fmt.Errorf("invalid GTF line: no attribute column")
	}
	attrs := ParseAttributes(line[tab+1:])
	id, ok := attrs["transcript_id"]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingAttribute, "transcript_id")
	}
	return id, nil
}
