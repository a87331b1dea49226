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

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaPurple     = "#BD93F9"
	draculaRed        = "#FF5555"
	draculaComment    = "#6272A4"
)

type (
	chunkMsg      []byte
	diagnosticMsg string
	closedMsg     struct{ err error }
	tickMsg       time.Time
)

type styles struct {
	title, label, value, error, help, app lipgloss.Style
}

func newStyles() styles {
	return styles{
		title: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple)).Bold(true),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaCyan)),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaGreen)),
		error: lipgloss.NewStyle().Foreground(lipgloss.Color(draculaRed)).Bold(true),
		help:  lipgloss.NewStyle().Foreground(lipgloss.Color(draculaComment)),
		app:   lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaCyan)).
			Foreground(lipgloss.Color(draculaForeground)),
	}
}

type model struct {
	url      string
	savePath string
	spinner  spinner.Model
	styles   styles
	frames   frameAssembler
	started  time.Time
	now      time.Time
	bytes    int64
	chunks   int
	messages []string
	closed   bool
	saveErr  error
}

func newModel(url, savePath string) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple))

	now := time.Now()

	return &model{
		url:      url,
		savePath: savePath,
		spinner:  s,
		styles:   newStyles(),
		started:  now,
		now:      now,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyRunes:
			if string(msg.Runes) == "q" {
				return m, tea.Quit
			}
		}
	case chunkMsg:
		m.bytes += int64(len(msg))
		m.chunks++

		if m.frames.Write(msg) > 0 && m.savePath != "" {
			m.saveErr = os.WriteFile(m.savePath, m.frames.Last(), 0o600)
		}
	case diagnosticMsg:
		m.messages = append(m.messages, string(msg))
	case closedMsg:
		m.closed = true
		if len(m.messages) == 0 && msg.err != nil {
			m.messages = append(m.messages, msg.err.Error())
		}
	case tickMsg:
		m.now = time.Time(msg)

		if m.closed {
			return m, nil
		}

		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m *model) frameRate() float64 {
	elapsed := m.now.Sub(m.started).Seconds()
	if elapsed <= 0 {
		return 0
	}

	return float64(m.frames.frames) / elapsed
}

func (m *model) View() string {
	var content strings.Builder

	status := m.spinner.View() + " streaming"
	if m.closed {
		status = "stream closed"
	}

	content.WriteString(m.styles.title.Render("camview stream") + "  " + status + "\n")
	content.WriteString(m.styles.help.Render(m.url) + "\n\n")

	row := func(label, value string) {
		content.WriteString(m.styles.label.Render(fmt.Sprintf("%-10s", label)) + m.styles.value.Render(value) + "\n")
	}

	row("frames", fmt.Sprintf("%d", m.frames.frames))
	row("chunks", fmt.Sprintf("%d", m.chunks))
	row("received", formatBytes(m.bytes))
	row("rate", fmt.Sprintf("%.1f fps", m.frameRate()))
	row("uptime", m.now.Sub(m.started).Truncate(time.Second).String())

	if m.savePath != "" {
		row("saving to", m.savePath)
	}

	if m.saveErr != nil {
		content.WriteString("\n" + m.styles.error.Render(fmt.Sprintf("Save failed: %v", m.saveErr)))
	}

	for _, msg := range m.messages {
		content.WriteString("\n" + m.styles.error.Render("Server: "+msg))
	}

	content.WriteString("\n\n" + m.styles.help.Render("q / esc to quit"))

	return m.styles.app.Render(content.String())
}

func formatBytes(n int64) string {
	const unit = 1024

	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
