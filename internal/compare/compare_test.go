package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCuffCompareBuildCommand(t *testing.T) {
	cmd, err := CuffCompare{
		Reference: "/data/ref.gtf",
		Prefix:    "cuffcmp",
		Query:     "sample.gtf",
	}.BuildCommand()
	require.NoError(t, err)

	assert.Equal(t, []string{"cuffcompare", "-r", "/data/ref.gtf", "-o", "cuffcmp", "sample.gtf"}, cmd.Args)
}

func TestCuffCompareBuildCommand_CustomTool(t *testing.T) {
	cmd, err := CuffCompare{
		Cmd:   "gffcompare",
		Query: "sample.gtf",
	}.BuildCommand()
	require.NoError(t, err)

	assert.Equal(t, []string{"gffcompare", "sample.gtf"}, cmd.Args)
}

func TestCuffCompareBuildCommand_NoQuery(t *testing.T) {
	_, err := CuffCompare{Reference: "/data/ref.gtf"}.BuildCommand()
	assert.Error(t, err)
}
