package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCommand_MissingInputFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "score")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required")
}

func TestScoreCommand_ScoresProspectsWithoutDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "prospects.json")

	prospects := `[
		{"name": "Dana Smith", "title": "Engineering Manager", "profile_url": "https://example.com/in/dana", "mutual_connections": 12},
		{"name": "Lee Wong", "profile_url": "https://example.com/in/lee"}
	]`
	require.NoError(t, os.WriteFile(inputFile, []byte(prospects), 0644))

	cmd := exec.Command(binaryPath, "score", "--input", inputFile)
	output, err := cmd.CombinedOutput()

	require.NoError(t, err, string(output))
	assert.Contains(t, string(output), "Dana Smith")
	assert.Contains(t, string(output), "Lee Wong")
}

func TestScoreCommand_RejectsEmptyProspectFile(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)
	tmpDir := t.TempDir()
	inputFile := filepath.Join(tmpDir, "prospects.json")
	require.NoError(t, os.WriteFile(inputFile, []byte(`[]`), 0644))

	cmd := exec.Command(binaryPath, "score", "--input", inputFile)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "no prospects")
}

func TestSchedulePostCommand_MissingTopicFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "schedule-post")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required")
}

func TestSchedulePostCommand_RejectsAtAndIn(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "schedule-post",
		"--topic", "hiring",
		"--at", "2026-09-01T09:00:00Z",
		"--in", "2h")
	cmd.Env = append(os.Environ(), "DATABASE_URL=postgres://localhost/ignored")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "mutually exclusive")
}

func TestRunCommand_RequiresDatabaseURL(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run", "--dry-run")
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "HOME=" + os.Getenv("HOME")}
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "database URL is required")
}

func TestExperimentsCreateCommand_RequiresVariantsOrBase(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "experiments", "create", "--name", "tone-test")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "--variants or --base")
}

func TestSequencesEnrollCommand_MissingTargetFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "sequences", "enroll", "--sequence-id", "1")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "required")
}

func TestSequencesTriggerCommand_RejectsUnknownType(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "sequences", "trigger", "--type", "birthday", "--target", "p/ali")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "unknown trigger type")
}
