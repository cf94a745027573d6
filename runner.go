package cube2shp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultRuntppPath is where Cube Voyager installs runtpp.
const DefaultRuntppPath = `C:\Program Files (x86)\Citilabs\CubeVoyager`

// ErrScriptFailed is returned when runtpp exits with code 2.
var ErrScriptFailed = errors.New("failed to run Cube script")

type ToolCommand struct {
	Dir    string
	Script string
	Env    []string // KEY=VALUE, added to the inherited environment
}

// ToolResult holds the exit code and the complete output of a finished tool.
type ToolResult struct {
	ExitCode int
	Stdout   []string
	Stderr   []string
}

type ToolRunner interface {
	Run(ctx context.Context, cmd ToolCommand) (*ToolResult, error)
}

// RuntppRunner runs Cube scripts with runtpp.
type RuntppRunner struct {
	RuntppPath string
}

func (r *RuntppRunner) Run(ctx context.Context, cmd ToolCommand) (*ToolResult, error) {
	c := exec.CommandContext(ctx, filepath.Join(r.RuntppPath, "runtpp"), cmd.Script)
	c.Dir = cmd.Dir
	c.Env = append(appendPath(os.Environ(), r.RuntppPath), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	result := &ToolResult{
		Stdout: splitOutput(stdout.Bytes()),
		Stderr: splitOutput(stderr.Bytes()),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// appendPath adds dir to the end of PATH in env.
func appendPath(env []string, dir string) []string {
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if ok && strings.EqualFold(key, "PATH") && !found {
			kv = key + "=" + value + string(os.PathListSeparator) + dir
			found = true
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+dir)
	}
	return out
}

func splitOutput(b []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	return lines
}

// runCubeScript runs a script and logs its output. Exit code 2 is fatal; any
// other code is logged and treated as success.
func runCubeScript(ctx context.Context, runner ToolRunner, cmd ToolCommand) error {
	result, err := runner.Run(ctx, cmd)
	if err != nil {
		return fmt.Errorf("run %s: %w", cmd.Script, err)
	}

	for _, line := range result.Stdout {
		log.Info().Msg("  stdout: " + line)
	}
	for _, line := range result.Stderr {
		log.Info().Msg("  stderr: " + line)
	}

	if result.ExitCode == 2 {
		return fmt.Errorf("%w %s", ErrScriptFailed, cmd.Script)
	}
	log.Info().Msg(fmt.Sprintf("  Received %d from 'runtpp %s'", result.ExitCode, cmd.Script))
	return nil
}
