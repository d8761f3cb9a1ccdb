// Package executor runs external tools on behalf of test methods. The merged
// standard output and error of a tool go to a log file in the scratch
// directory; a bounded tail of it is kept to explain failures.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/ethereum/go-ethereum/log"
)

// Request describes a single tool invocation.
type Request struct {
	// Tool is the path of the executable. If it does not exist, Tool+".exe"
	// is tried.
	Tool string
	// Args is a space separated argument string. "%20" inside an argument is
	// decoded to a space.
	Args string
	// IgnoreExitCode accepts any exit code as long as the tool started and
	// finished.
	IgnoreExitCode bool
	// LogFile receives the merged stdout and stderr of the tool. Parent
	// directories are created. If empty, output is only kept in memory.
	LogFile string
	Log     log.Logger
}

// NotFoundError is returned when neither the tool nor its .exe variant exist.
type NotFoundError struct {
	Tool string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Tool '%s' not found!", e.Tool)
}

// ToolError reports a tool that failed to start, failed to finish or exited
// with a non-zero code.
type ToolError struct {
	Tool     string
	ExitCode int
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	return "exit code: " + strconv.Itoa(e.ExitCode) + "\ntool output:\n" + e.Output
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// LogFileName returns the log file used for a tool started from the given
// source location: <outDir>/<source basename without extension>_line<N>.log.
func LogFileName(outDir, sourceFile string, line int) string {
	base := filepath.Base(sourceFile)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+"_line"+strconv.Itoa(line)+".log")
}

// ResolveTool returns the command path for tool, or a *NotFoundError.
func ResolveTool(tool string) (string, error) {
	if tool != "" {
		if fileExists(tool) {
			return commandPath(tool), nil
		}
		if fileExists(tool + ".exe") {
			return commandPath(tool + ".exe"), nil
		}
	}
	return "", &NotFoundError{Tool: tool}
}

// commandPath makes sure a bare file name is run from the working directory
// instead of being looked up in PATH.
func commandPath(tool string) string {
	if strings.ContainsRune(tool, filepath.Separator) || strings.ContainsRune(tool, '/') {
		return tool
	}
	return "." + string(filepath.Separator) + tool
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SplitArgs splits an argument string on single spaces and decodes "%20".
// An empty string yields no arguments.
func SplitArgs(args string) []string {
	if args == "" {
		return nil
	}
	parts := strings.Split(args, " ")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "%20", " ")
	}
	return parts
}

// Run executes the tool and waits for it without a timeout. Cancelling ctx
// kills the process.
func Run(ctx context.Context, req Request) error {
	logger := req.Log
	if logger == nil {
		logger = log.Root()
	}

	path, err := ResolveTool(req.Tool)
	if err != nil {
		return err
	}
	args := SplitArgs(req.Args)

	tail := newTailBuffer(defaultOutputTailBytes)
	var out io.Writer = tail
	if req.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(req.LogFile), 0755); err != nil {
			return fmt.Errorf("failed to create log directory for '%s': %w", req.LogFile, err)
		}
		logFile, err := os.Create(req.LogFile)
		if err != nil {
			return fmt.Errorf("failed to create log file '%s': %w", req.LogFile, err)
		}
		defer logFile.Close()
		out = io.MultiWriter(logFile, tail)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	// the same writer for both streams makes exec merge them through one pipe
	cmd.Stdout = out
	cmd.Stderr = out

	logger.Debug("Executing tool", "tool", path, "args", args, "logFile", req.LogFile)
	start := time.Now()
	runErr := cmd.Run()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	logger.Debug("Tool finished", "tool", path, "exitCode", exitCode, "duration", time.Since(start))

	if runErr == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) && req.IgnoreExitCode && exitErr.Exited() {
		return nil
	}
	return &ToolError{
		Tool:     path,
		ExitCode: exitCode,
		Output:   toolOutput(tail, req.LogFile),
		Err:      runErr,
	}
}

func toolOutput(tail *tailBuffer, logFile string) string {
	output := strings.TrimSpace(stripansi.Strip(tail.String()))
	if tail.Truncated() && logFile != "" {
		output = "[output truncated, full output in " + logFile + "]\n" + output
	}
	return output
}
