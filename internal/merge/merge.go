// Package merge wraps an external multi-sample assembly merger.
//
// The tool takes a manifest of per-sample assembly GTFs and produces one
// deduplicated, unioned transcript set at a fixed relative path inside a
// generated working subdirectory.
package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/biogo/external"
	"go.uber.org/zap"
)

// mergedRelPath is where the tool leaves its result, relative to its
// working directory.
const mergedRelPath = "merged_asm/merged.gtf"

// CuffMerge defines parameters for the cuffmerge assembly merger.
type CuffMerge struct {
	// Usage: cuffmerge <assembly_GTF_list.txt>
	Cmd string `buildarg:"{{if .}}{{.}}{{else}}cuffmerge{{end}}"` // cuffmerge

	Manifest string `buildarg:"{{.}}"` // file listing one assembly GTF path per line
}

// BuildCommand returns an exec.Cmd built from the parameters in m.
func (m CuffMerge) BuildCommand() (*exec.Cmd, error) {
	if m.Manifest == "" {
		return nil, fmt.Errorf("merge: no manifest given")
	}
	cl := external.Must(external.Build(m))
	return exec.Command(cl[0], cl[1:]...), nil
}

// Merger runs the external merge tool.
type Merger struct {
	Cmd string // tool name or path; empty means "cuffmerge"

	logger *zap.Logger
}

// NewMerger creates a Merger invoking the named tool.
func NewMerger(cmd string) *Merger {
	return &Merger{Cmd: cmd, logger: zap.NewNop()}
}

// SetLogger sets the logger for progress messages.
func (m *Merger) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Merge unions the given assemblies into a single GTF at outPath. The
// tool runs inside its own temporary directory so its generated
// subdirectory, logs and manifest never collide with other invocations;
// everything but the relocated result is removed when the call returns.
func (m *Merger) Merge(ctx context.Context, inputPaths []string, outPath string) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("merge: no input assemblies")
	}

	workDir, err := os.MkdirTemp("", "lincer-merge-*")
	if err != nil {
		return fmt.Errorf("create merge workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	manifest := filepath.Join(workDir, "assemblies.txt")
	if err := writeManifest(manifest, inputPaths); err != nil {
		return err
	}

	cmd, err := CuffMerge{Cmd: m.Cmd, Manifest: filepath.Base(manifest)}.BuildCommand()
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd.Dir = workDir
	cmd.Stderr = &stderr

	m.logger.Debug("running merger",
		zap.String("cmd", cmd.Path),
		zap.Int("assemblies", len(inputPaths)))

	if err := runInContext(ctx, cmd); err != nil {
		return fmt.Errorf("merger failed: %w; stderr: %s", err, tail(stderr.Bytes()))
	}

	merged := filepath.Join(workDir, mergedRelPath)
	if err := relocate(merged, outPath); err != nil {
		return fmt.Errorf("relocate merged assembly: %w", err)
	}

	m.logger.Debug("merger finished", zap.String("out", outPath))
	return nil
}

// writeManifest writes one absolute assembly path per line.
func writeManifest(path string, inputPaths []string) error {
	var b strings.Builder
	for _, p := range inputPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve assembly path: %w", err)
		}
		b.WriteString(abs)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write merge manifest: %w", err)
	}
	return nil
}

// relocate moves src to dst, falling back to copy+remove across
// filesystems. The destination appears atomically.
func relocate(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, in); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

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
