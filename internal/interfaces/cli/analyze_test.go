package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBrief = `The court in Smith v. Jones, 142 Wn.2d 450, 13 P.3d 1090 (2000),
held otherwise. See also Bush v. Gore, 531 U.S. 98 (2000).`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAnalyze_TextFlagJSON(t *testing.T) {
	out, err := runCLI(t, "analyze", "--text", sampleBrief, "-o", "json")
	require.NoError(t, err)

	var result struct {
		Results []struct {
			Citation string `json:"citation"`
			CaseName string `json:"case_name"`
		} `json:"results"`
		Summary struct {
			TotalCitations int `json:"total_citations"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.GreaterOrEqual(t, result.Summary.TotalCitations, 3)

	citations := make(map[string]bool)
	for _, r := range result.Results {
		citations[r.Citation] = true
	}
	assert.True(t, citations["142 Wn.2d 450"])
	assert.True(t, citations["13 P.3d 1090"])
	assert.True(t, citations["531 U.S. 98"])
}

func TestAnalyze_FileArgument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brief.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleBrief), 0o644))

	out, err := runCLI(t, "analyze", path, "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "142 Wn.2d 450")
	assert.Contains(t, out, "Smith v. Jones")
}

func TestAnalyze_TableOutput(t *testing.T) {
	out, err := runCLI(t, "analyze", "--text", sampleBrief, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "CITATION")
	assert.Contains(t, out, "531 U.S. 98")
}

func TestAnalyze_WritesResultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	_, err := runCLI(t, "analyze", "--text", sampleBrief, "--file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "142 Wn.2d 450")
}

func TestAnalyze_MissingFileFails(t *testing.T) {
	_, err := runCLI(t, "analyze", "/nonexistent/brief.txt")
	assert.Error(t, err)
}

func TestVerify_RequiresCitationArg(t *testing.T) {
	_, err := runCLI(t, "verify")
	assert.Error(t, err)
}
