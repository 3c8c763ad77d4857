package merge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCuffMergeBuildCommand(t *testing.T) {
	cmd, err := CuffMerge{Manifest: "assemblies.txt"}.BuildCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"cuffmerge", "assemblies.txt"}, cmd.Args)
}

func TestCuffMergeBuildCommand_CustomTool(t *testing.T) {
	cmd, err := CuffMerge{Cmd: "stringtie-merge", Manifest: "assemblies.txt"}.BuildCommand()
	require.NoError(t, err)
	assert.Equal(t, "stringtie-merge", cmd.Args[0])
}

func TestCuffMergeBuildCommand_NoManifest(t *testing.T) {
	_, err := CuffMerge{}.BuildCommand()
	assert.Error(t, err)
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assemblies.txt")

	require.NoError(t, writeManifest(path, []string{
		filepath.Join(dir, "a.novel.gtf"),
		filepath.Join(dir, "b.novel.gtf"),
	}))

	out, err := os.ReadFile(path)
	require.NoError(t, err)

	want := filepath.Join(dir, "a.novel.gtf") + "\n" + filepath.Join(dir, "b.novel.gtf") + "\n"
	assert.Equal(t, want, string(out))
}

func TestRelocate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "merged.gtf")
	dst := filepath.Join(dir, "novel_transcripts.gtf")
	require.NoError(t, os.WriteFile(src, []byte("chr1\tx\texon\t1\t2\t.\t+\t.\ttranscript_id \"a\";\n"), 0644))

	require.NoError(t, relocate(src, dst))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(out), "transcript_id")
}

func TestMerge_NoInputs(t *testing.T) {
	m := NewMerger("")
	err := m.Merge(context.Background(), nil, filepath.Join(t.TempDir(), "out.gtf"))
	assert.Error(t, err)
}
