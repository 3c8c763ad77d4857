// Package compare wraps an external transcript-comparison tool and
// normalizes its per-transcript output.
//
// The tool aligns a query assembly against a reference annotation and
// reports, per query transcript, a single-letter class code describing the
// structural relationship plus the best-matching reference transcript and
// gene identifiers.
package compare

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/biogo/external"
	"go.uber.org/zap"
)

// Class codes consumed downstream.
const (
	ClassExactMatch = "=" // exact intron-chain match
	ClassNewIsoform = "j" // shares at least one splice junction
	ClassIntronic   = "i" // fully contained in a reference intron
	ClassAntisense  = "x" // exonic overlap on the opposite strand
	ClassIntergenic = "u" // no reference overlap
)

// Record is the normalized comparison result for one query transcript.
type Record struct {
	ClassCode string
	RefID     string // matched reference transcript id; empty if none
	RefGeneID string // matched reference gene id; empty if none
}

// outPrefix is the fixed prefix the tool uses for its generated files.
const outPrefix = "cuffcmp"

// CuffCompare defines parameters for the cuffcompare annotation comparator.
type CuffCompare struct {
	// Usage: cuffcompare [-r <reference.gtf>] <query.gtf>
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}cuffcompare{{end}}"` // cuffcompare

	Reference string `buildarg:"{{if .}}-r{{split}}{{.}}{{end}}"` // -r: reference annotation
	Prefix    string `buildarg:"{{if .}}-o{{split}}{{.}}{{end}}"` // -o: output prefix

	Query string `buildarg:"{{.}}"` // query assembly
}

// BuildCommand returns an exec.Cmd built from the parameters in c.
func (c CuffCompare) BuildCommand() (*exec.Cmd, error) {
	if c.Query == "" {
		return nil, fmt.Errorf("compare: no query assembly given")
	}
	cl := external.Must(external.Build(c))
	return exec.Command(cl[0], cl[1:]...), nil
}

// Comparer runs the external comparator and extracts its transcript map.
type Comparer struct {
	Cmd string // tool name or path; empty means "cuffcompare"

	logger *zap.Logger
}

// NewComparer creates a Comparer invoking the named tool.
func NewComparer(cmd string) *Comparer {
	return &Comparer{Cmd: cmd, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (c *Comparer) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Compare runs the comparator for the given (reference, query) pair and
// returns one Record per query transcript.
//
// Each invocation runs in its own temporary working directory: the tool
// writes fixed-name artifacts next to the query, so the query is exposed
// inside the directory through a symlink and every generated file is
// removed when the call returns, on success and on failure alike.
func (c *Comparer) Compare(ctx context.Context, referencePath, queryPath string) (map[string]Record, error) {
	refAbs, err := filepath.Abs(referencePath)
	if err != nil {
		return nil, fmt.Errorf("resolve reference path: %w", err)
	}
	queryAbs, err := filepath.Abs(queryPath)
	if err != nil {
		return nil, fmt.Errorf("resolve query path: %w", err)
	}

	workDir, err := os.MkdirTemp("", "lincer-compare-*")
	if err != nil {
		return nil, fmt.Errorf("create compare workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	queryLocal := filepath.Base(queryAbs)
	if err := os.Symlink(queryAbs, filepath.Join(workDir, queryLocal)); err != nil {
		return nil, fmt.Errorf("link query into workdir: %w", err)
	}

	cmd, err := CuffCompare{
		Cmd:       c.Cmd,
		Reference: refAbs,
		Prefix:    outPrefix,
		Query:     queryLocal,
	}.BuildCommand()
	if err != nil {
		return nil, err
	}

	var stderr bytes.Buffer
	cmd.Dir = workDir
	cmd.Stderr = &stderr

	c.logger.Debug("running comparator",
		zap.String("cmd", cmd.Path),
		zap.String("reference", refAbs),
		zap.String("query", queryAbs))

	if err := runInContext(ctx, cmd); err != nil {
		return nil, fmt.Errorf("comparator failed: %w; stderr: %s", err, tail(stderr.Bytes()))
	}

	tmapPath := filepath.Join(workDir, fmt.Sprintf("%s.%s.tmap", outPrefix, queryLocal))
	records, err := parseTMap(tmapPath)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("comparator finished",
		zap.String("query", queryAbs),
		zap.Int("transcripts", len(records)))

	return records, nil
}

// runInContext starts cmd and waits for completion, honoring ctx
// cancellation. The external tool defines no timeout of its own.
func runInContext(ctx context.Context, cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// tail returns at most the last 512 bytes of b for error messages.
func tail(b []byte) []byte {
	const n = 512
	if len(b) > n {
		return b[len(b)-n:]
	}
	return b
}
