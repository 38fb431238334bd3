package helpers

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

// BinaryName is the CLI under test. It must be installed in PATH.
const BinaryName = "agent-hooks"

// RequireBinary skips the test if agent-hooks is not available in PATH
func RequireBinary(t *testing.T) {
	t.Helper()

	if !IsBinaryAvailable() {
		t.Skip(BinaryName + " not found in PATH")
	}
}

// IsBinaryAvailable checks if agent-hooks is available without skipping
func IsBinaryAvailable() bool {
	_, err := exec.LookPath(BinaryName)
	return err == nil
}

// Result is the outcome of one CLI invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes agent-hooks in dir with stdin and returns its output and exit code.
func Run(t *testing.T, dir string, stdin string, args ...string) Result {
	t.Helper()

	cmd := exec.Command(BinaryName, args...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		t.Fatalf("failed to run %s: %v", BinaryName, err)
	}
	return result
}
