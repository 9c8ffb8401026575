package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultAudioBitrate is the MP3 bitrate used when none is configured.
const DefaultAudioBitrate = "192k"

// Engine runs ffmpeg against a private working directory. One engine
// serves the whole process; callers serialize extractions themselves.
type Engine struct {
	binary  string
	bitrate string
	logger  *slog.Logger

	mu      sync.Mutex
	workDir string
	ready   bool
	status  string

	// lookPath and run are swappable so tests never spawn a process.
	lookPath func(file string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

// NewEngine creates the ffmpeg adapter. An empty workDir means a fresh
// temporary directory is created during Start.
func NewEngine(binary, workDir, bitrate string, logger *slog.Logger) *Engine {
	if binary == "" {
		binary = "ffmpeg"
	}
	if bitrate == "" {
		bitrate = DefaultAudioBitrate
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		binary:   binary,
		bitrate:  bitrate,
		logger:   logger,
		workDir:  workDir,
		status:   "starting",
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

// Start launches the boot pass in the background. The engine reports
// not-ready until the pass completes.
func (e *Engine) Start() {
	go e.boot()
}

func (e *Engine) boot() {
	if _, err := e.lookPath(e.binary); err != nil {
		e.setStatus(false, fmt.Sprintf("%s not found in PATH", e.binary))
		e.logger.Error("engine binary missing", "binary", e.binary, "error", err)
		return
	}
	if err := e.run(context.Background(), e.binary, "-version"); err != nil {
		e.setStatus(false, fmt.Sprintf("%s is not runnable", e.binary))
		e.logger.Error("engine binary not runnable", "binary", e.binary, "error", err)
		return
	}
	if err := e.ensureWorkDir(); err != nil {
		e.setStatus(false, "working directory unavailable")
		e.logger.Error("engine workspace failed", "error", err)
		return
	}
	e.setStatus(true, "ready")
	e.logger.Info("engine ready", "binary", e.binary, "workdir", e.WorkDir())
}

func (e *Engine) ensureWorkDir() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workDir == "" {
		dir, err := os.MkdirTemp("", "tomp3-*")
		if err != nil {
			return err
		}
		e.workDir = dir
		return nil
	}
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return err
	}
	e.sweepStaleLocked()
	return nil
}

// sweepStaleLocked drops working files a previous run left behind in a
// configured workspace.
func (e *Engine) sweepStaleLocked() {
	for _, pattern := range []string{"input-*", "output-*"} {
		matches, err := filepath.Glob(filepath.Join(e.workDir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			_ = os.Remove(match)
		}
	}
}

// Ready reports whether the boot pass has completed successfully.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Status returns a human-readable boot state.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// WorkDir returns the resolved working directory.
func (e *Engine) WorkDir() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workDir
}

func (e *Engine) setStatus(ready bool, status string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = ready
	e.status = status
}

// WriteInput stores a payload under the given working-file name.
func (e *Engine) WriteInput(name string, data []byte) error {
	full, err := e.resolve(name)
	if err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// ExtractAudio strips the video streams from the named input and encodes
// the audio as MP3 into the named output.
func (e *Engine) ExtractAudio(ctx context.Context, inputName, outputName string) error {
	inputPath, err := e.resolve(inputName)
	if err != nil {
		return err
	}
	outputPath, err := e.resolve(outputName)
	if err != nil {
		return err
	}
	args := []string{
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ab", e.bitrate,
		"-y",
		outputPath,
	}
	return e.run(ctx, e.binary, args...)
}

// ReadOutput loads a working file produced by an extraction.
func (e *Engine) ReadOutput(name string) ([]byte, error) {
	full, err := e.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Unlink removes a working file, best-effort.
func (e *Engine) Unlink(name string) {
	full, err := e.resolve(name)
	if err != nil {
		return
	}
	_ = os.Remove(full)
}

// resolve maps a working-file name into the workspace and rejects names
// that would escape it.
func (e *Engine) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid working file name %q", name)
	}
	e.mu.Lock()
	workDir := e.workDir
	e.mu.Unlock()
	full := filepath.Join(workDir, name)
	if !isWithinDir(workDir, full) {
		return "", fmt.Errorf("invalid working file name %q", name)
	}
	return full, nil
}

func isWithinDir(basePath, targetPath string) bool {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	sep := string(os.PathSeparator)
	if rel == ".." || strings.HasPrefix(rel, ".."+sep) {
		return false
	}
	return true
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
