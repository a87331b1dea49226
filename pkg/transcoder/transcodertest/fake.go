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

// Package transcodertest provides in-memory transcoder processes for tests.
package transcodertest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/carverauto/camview/pkg/models"
	"github.com/carverauto/camview/pkg/transcoder"
)

// Process is a fake transcoder whose stdout is fed by Emit.
type Process struct {
	pid    int
	r      *io.PipeReader
	w      *io.PipeWriter
	done   chan struct{}
	once   sync.Once
	err    error
	killed atomic.Bool
}

func NewProcess(pid int) *Process {
	r, w := io.Pipe()

	return &Process{pid: pid, r: r, w: w, done: make(chan struct{})}
}

// NewOneShot returns a process that writes data and then exits with err.
func NewOneShot(pid int, data []byte, err error) *Process {
	p := NewProcess(pid)

	go func() {
		if len(data) > 0 {
			_ = p.Emit(data)
		}

		p.Exit(err)
	}()

	return p
}

func (p *Process) Stdout() io.Reader { return p.r }

func (p *Process) PID() int { return p.pid }

func (p *Process) Wait() error {
	<-p.done
	return p.err
}

func (p *Process) Kill() error {
	p.killed.Store(true)
	p.finish(fmt.Errorf("%w: signal: killed", models.ErrSubprocess))

	return nil
}

// Emit blocks until the reader has consumed chunk.
func (p *Process) Emit(chunk []byte) error {
	_, err := p.w.Write(chunk)
	return err
}

// Exit ends the process. A nil err is a clean exit.
func (p *Process) Exit(err error) {
	p.finish(err)
}

func (p *Process) Killed() bool { return p.killed.Load() }

func (p *Process) Done() <-chan struct{} { return p.done }

func (p *Process) finish(err error) {
	p.once.Do(func() {
		p.err = err
		_ = p.w.Close()
		close(p.done)
	})
}

// Launcher records launches and hands out fake processes.
type Launcher struct {
	// OnLaunch builds the process for a launch; nil yields NewProcess.
	OnLaunch func(args []string) (*Process, error)

	mu       sync.Mutex
	launches [][]string
	procs    []*Process
}

var _ transcoder.Launcher = (*Launcher)(nil)

func (l *Launcher) Launch(_ context.Context, args []string) (transcoder.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.launches = append(l.launches, args)

	var (
		proc *Process
		err  error
	)

	if l.OnLaunch != nil {
		proc, err = l.OnLaunch(args)
	} else {
		proc = NewProcess(1000 + len(l.launches))
	}

	if err != nil {
		return nil, err
	}

	l.procs = append(l.procs, proc)

	return proc, nil
}

func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.launches)
}

func (l *Launcher) Args(i int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.launches[i]
}

// Process returns the i-th process handed out.
func (l *Launcher) Process(i int) *Process {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.procs[i]
}
