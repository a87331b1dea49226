/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/carverauto/camview/pkg/logger"
	"github.com/carverauto/camview/pkg/models"
)

// Process is a running transcoder.
type Process interface {
	Stdout() io.Reader
	PID() int
	// Wait blocks until the process exits. A non-zero exit is reported as
	// models.ErrSubprocess carrying the tail of stderr.
	Wait() error
	// Kill sends SIGKILL. Killing an exited process is not an error.
	Kill() error
}

// Launcher starts transcoder processes.
type Launcher interface {
	Launch(ctx context.Context, args []string) (Process, error)
}

// ExecLauncher runs the ffmpeg binary at Path.
type ExecLauncher struct {
	Path        string
	StderrLines int
	Logger      logger.Logger
}

// NewExecLauncher returns a launcher configured from cfg.
func NewExecLauncher(cfg *models.TranscoderConfig, log logger.Logger) *ExecLauncher {
	return &ExecLauncher{
		Path:        cfg.FFmpegPath,
		StderrLines: cfg.StderrLines,
		Logger:      log,
	}
}

var _ Launcher = (*ExecLauncher)(nil)

func (l *ExecLauncher) Launch(ctx context.Context, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, l.Path, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", models.ErrSubprocess, err)
	}

	tail := newTailBuffer(l.StderrLines)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", models.ErrSubprocess, l.Path, err)
	}

	if l.Logger != nil {
		l.Logger.Debug().
			Int("pid", cmd.Process.Pid).
			Str("args", Redact(args)).
			Msg("transcoder started")
	}

	return &execProcess{cmd: cmd, stdout: stdout, stderr: tail}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr *tailBuffer
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }

func (p *execProcess) PID() int { return p.cmd.Process.Pid }

func (p *execProcess) Wait() error {
	err := p.cmd.Wait()
	if err == nil {
		return nil
	}

	if tail := p.stderr.String(); tail != "" {
		return fmt.Errorf("%w: %w: %s", models.ErrSubprocess, err, tail)
	}

	return fmt.Errorf("%w: %w", models.ErrSubprocess, err)
}

func (p *execProcess) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("%w: kill pid %d: %w", models.ErrSubprocess, p.cmd.Process.Pid, err)
	}

	return nil
}

// Run launches args, collects stdout until exit and returns it. Empty output
// is a subprocess failure.
func Run(ctx context.Context, launcher Launcher, args []string) ([]byte, error) {
	proc, err := launcher.Launch(ctx, args)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	_, copyErr := io.Copy(&buf, proc.Stdout())
	waitErr := proc.Wait()

	if waitErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", models.ErrSubprocess, ctxErr)
		}

		return nil, waitErr
	}

	if copyErr != nil {
		return nil, fmt.Errorf("%w: read output: %w", models.ErrSubprocess, copyErr)
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: no output produced", models.ErrSubprocess)
	}

	return buf.Bytes(), nil
}

// tailBuffer keeps the last n lines written to it.
type tailBuffer struct {
	mu      sync.Mutex
	max     int
	lines   []string
	partial strings.Builder
}

func newTailBuffer(maxLines int) *tailBuffer {
	if maxLines <= 0 {
		maxLines = 20
	}

	return &tailBuffer{max: maxLines}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, b := range p {
		if b != '\n' {
			t.partial.WriteByte(b)
			continue
		}

		t.push(t.partial.String())
		t.partial.Reset()
	}

	return len(p), nil
}

func (t *tailBuffer) push(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lines := t.lines
	if rest := strings.TrimSpace(t.partial.String()); rest != "" {
		lines = append(append([]string(nil), lines...), rest)
	}

	return strings.Join(lines, "; ")
}
