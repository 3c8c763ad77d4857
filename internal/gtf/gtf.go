// Package gtf provides parsing and filtering of GTF annotation files.
package gtf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingAttribute is returned when a required attribute key is absent
// from a record's attribute column.
var ErrMissingAttribute = errors.New("gtf: missing required attribute")

// Record represents a parsed GTF line.
type Record struct {
	Chrom      string
	Source     string
	Feature    string
	Start      int64 // 1-based inclusive
	End        int64 // 1-based inclusive
	Score      string
	Strand     string
	Frame      string
	Attributes map[string]string

	// Line is the verbatim source line, preserved so that filtered
	// output can be written byte-identical to the input.
	Line string
}

// Length returns the genomic span of the record in bases.
func (r *Record) Length() int64 {
	return r.End - r.Start + 1
}

// Attr returns the value of the named attribute and whether it was present.
func (r *Record) Attr(key string) (string, bool) {
	v, ok := r.Attributes[key]
	return v, ok
}

// RequireAttr returns the value of the named attribute, or
// ErrMissingAttribute if the key is not present.
func (r *Record) RequireAttr(key string) (string, error) {
	v, ok := r.Attributes[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingAttribute, key)
	}
	return v, nil
}

// ParseLine parses a single GTF data line.
func ParseLine(line string) (*Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}

	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	return &Record{
		Chrom:      fields[0],
		Source:     fields[1],
		Feature:    fields[2],
		Start:      start,
		End:        end,
		Score:      fields[5],
		Strand:     fields[6],
		Frame:      fields[7],
		Attributes: ParseAttributes(fields[8]),
		Line:       line,
	}, nil
}

// ParseAttributes parses a GTF attribute column.
// Format: key "value"; key "value"; ...
// The parser is tolerant of attribute ordering and of keys it does not
// know about; unquoted values are accepted as-is.
func ParseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)

	parts := strings.Split(attrStr, ";")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idx := strings.Index(part, " ")
		if idx == -1 {
			continue
		}

		key := part[:idx]
		value := strings.TrimSpace(part[idx+1:])
		value = strings.Trim(value, "\"")

		attrs[key] = value
	}

	return attrs
}

// FormatAttributes renders the canonical three-attribute column used by
// catalog output lines.
func FormatAttributes(geneID, transcriptID, geneName string) string {
	return fmt.Sprintf("gene_id %q; transcript_id %q; gene_name %q;", geneID, transcriptID, geneName)
}

// Reader streams records from GTF content, skipping comment and blank
// lines.
type Reader struct {
	scanner *bufio.Scanner
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next record, or nil at end of input.
func (rd *Reader) Next() (*Record, error) {
	for rd.scanner.Scan() {
		line := rd.scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return ParseLine(line)
	}
	if err := rd.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}
	return nil, nil
}

// ReadAll reads every record from the file at path.
func ReadAll(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open GTF file: %w", err)
	}
	defer f.Close()

	var records []*Record
	rd := NewReader(f)
	for {
		rec, err := rd.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			break
		}
		records = append(records, rec)
	}
	return records, nil
}
