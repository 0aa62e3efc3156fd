package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const wordCountPlan = `
transformations:
  - id: lines
    kind: source
    operator: socket-reader
    output_type: string
    parallelism: 2
  - id: words
    kind: map
    operator: tokenizer
    input: lines
    output_type: string
    parallelism: 2
  - id: by-word
    kind: partition
    input: words
    partitioner: hash
    key: word
  - id: counts
    kind: map
    operator: counter
    input: by-word
    output_type: pair
    parallelism: 4
  - id: stdout
    kind: sink
    operator: console-writer
    input: counts
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestCompileCommandRendersSummary(t *testing.T) {
	planPath := writeTempFile(t, "plan.yaml", wordCountPlan)

	output, err := runRoot(t, "compile", "--plan", planPath)
	require.NoError(t, err)

	require.Contains(t, output, "streamweave-job")
	require.Contains(t, output, "Source: lines")
	require.Contains(t, output, "Sink: stdout")
	require.Contains(t, output, "[hash]")
	require.NotContains(t, output, "by-word")
}

func TestCompileCommandJSONOutput(t *testing.T) {
	planPath := writeTempFile(t, "plan.yaml", wordCountPlan)

	output, err := runRoot(t, "compile", "--plan", planPath, "--json")
	require.NoError(t, err)

	var payload struct {
		JobName string `json:"job_name"`
		Nodes   []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"nodes"`
		Edges []struct {
			Source      int    `json:"source"`
			Target      int    `json:"target"`
			Partitioner string `json:"partitioner"`
		} `json:"edges"`
		Sinks []int `json:"sinks"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &payload))

	require.Equal(t, "streamweave-job", payload.JobName)
	require.Len(t, payload.Nodes, 4)
	require.Len(t, payload.Edges, 3)
	require.Len(t, payload.Sinks, 1)
}

func TestCompileCommandWithJobConfig(t *testing.T) {
	planPath := writeTempFile(t, "plan.yaml", wordCountPlan)
	configPath := writeTempFile(t, "job.yaml", `
name: word-count
default_max_parallelism: 128
`)

	output, err := runRoot(t, "compile", "--plan", planPath, "--config", configPath, "--json")
	require.NoError(t, err)

	var payload struct {
		JobName string `json:"job_name"`
		Nodes   []struct {
			MaxParallelism int `json:"max_parallelism"`
		} `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &payload))

	require.Equal(t, "word-count", payload.JobName)
	for _, node := range payload.Nodes {
		require.Equal(t, 128, node.MaxParallelism)
	}
}

func TestCompileCommandMissingPlanFile(t *testing.T) {
	_, err := runRoot(t, "compile", "--plan", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "plan file does not exist")
}

func TestCompileCommandInvalidPlan(t *testing.T) {
	planPath := writeTempFile(t, "plan.yaml", `
transformations:
  - id: out
    kind: sink
    operator: writer
    input: ghost
`)

	_, err := runRoot(t, "compile", "--plan", planPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ghost")
}
