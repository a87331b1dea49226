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

package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

var errNoPID = errors.New("no process id")

// ProcessUsage is the resource usage of one transcoder process.
type ProcessUsage struct {
	CPUPercent float64
	RSSBytes   uint64
}

// ProcessSampler reads resource usage for a pid.
type ProcessSampler interface {
	Sample(ctx context.Context, pid int) (ProcessUsage, error)
}

type gopsutilSampler struct{}

func (gopsutilSampler) Sample(ctx context.Context, pid int) (ProcessUsage, error) {
	if pid <= 0 {
		return ProcessUsage{}, errNoPID
	}

	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return ProcessUsage{}, fmt.Errorf("process %d: %w", pid, err)
	}

	cpu, err := proc.CPUPercentWithContext(ctx)
	if err != nil {
		return ProcessUsage{}, fmt.Errorf("process %d cpu: %w", pid, err)
	}

	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return ProcessUsage{}, fmt.Errorf("process %d memory: %w", pid, err)
	}

	return ProcessUsage{CPUPercent: cpu, RSSBytes: mem.RSS}, nil
}
