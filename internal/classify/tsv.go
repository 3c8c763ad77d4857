package classify

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteTSV writes the classification table artifact, one row per merged
// novel transcript, sorted by transcript id. The file appears atomically.
func WriteTSV(path string, records map[string]*Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp classification table: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := writeTSV(tmp, records); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close classification table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename classification table: %w", err)
	}
	return nil
}

func writeTSV(w io.Writer, records map[string]*Record) error {
	bw := bufio.NewWriter(w)

	header := []string{
		"transcript_id",
		"class_code__all", "ref_id__all", "ref_gene_id__all",
		"class_code__lnc", "ref_id__lnc", "ref_gene_id__lnc",
		"classification",
	}
	if _, err := bw.WriteString(strings.Join(header, "\t") + "\n"); err != nil {
		return fmt.Errorf("write classification table: %w", err)
	}

	for _, id := range SortedIDs(records) {
		r := records[id]
		fields := []string{
			id,
			r.VsRef.ClassCode, r.VsRef.RefID, r.VsRef.RefGeneID,
			r.VsLnc.ClassCode, r.VsLnc.RefID, r.VsLnc.RefGeneID,
			string(r.Label),
		}
		if _, err := bw.WriteString(strings.Join(fields, "\t") + "\n"); err != nil {
			return fmt.Errorf("write classification table: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush classification table: %w", err)
	}
	return nil
}
