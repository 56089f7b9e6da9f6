/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"autoblog/internal/automation"
	"autoblog/internal/core"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	statusStyles = map[core.RunStatus]lipgloss.Style{
		core.RunSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		core.RunPartial: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		core.RunFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// NewStatusCmd creates the status command for inspecting the run log
func NewStatusCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent runs and failures",
		Long: `Print the most recent entries of the automation run log together with
a summary of run outcomes and the topics that failed to publish.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runLog := automation.NewFileRunLog(appCfg.Automation.LogFile, appCfg.Automation.MaxLogEntries)
			entries, err := runLog.Entries()
			if err != nil {
				return fmt.Errorf("failed to read run log %s: %w", runLog.Path(), err)
			}
			fmt.Println(renderStatus(entries, recent))
			return nil
		},
	}

	cmd.Flags().IntVarP(&recent, "recent", "n", 10, "Number of recent runs to show")

	return cmd
}

// runSummary aggregates a run log
type runSummary struct {
	Total       int
	ByStatus    map[core.RunStatus]int
	LastSuccess *core.RunLogEntry
	Failures    map[string]int // Topic text to publish failures
}

func summarizeRuns(entries []core.RunLogEntry) runSummary {
	s := runSummary{
		Total:    len(entries),
		ByStatus: make(map[core.RunStatus]int),
		Failures: make(map[string]int),
	}
	for i := range entries {
		e := entries[i]
		s.ByStatus[e.Status]++
		if e.Status == core.RunSuccess {
			s.LastSuccess = &e
		}
		if e.PublishError != "" && e.Topic != nil {
			s.Failures[e.Topic.Text]++
		}
	}
	return s
}

// renderStatus formats the newest recent entries and the log summary
func renderStatus(entries []core.RunLogEntry, recent int) string {
	if len(entries) == 0 {
		return mutedStyle.Render("No runs recorded yet.")
	}
	if recent <= 0 {
		recent = 10
	}

	summary := summarizeRuns(entries)
	var b strings.Builder

	b.WriteString(titleStyle.Render("Automation summary") + "\n")
	lines := []string{
		fmt.Sprintf("Runs:      %d", summary.Total),
		fmt.Sprintf("Success:   %d", summary.ByStatus[core.RunSuccess]),
		fmt.Sprintf("Partial:   %d", summary.ByStatus[core.RunPartial]),
		fmt.Sprintf("Failed:    %d", summary.ByStatus[core.RunFailed]),
	}
	if summary.LastSuccess != nil {
		lines = append(lines, fmt.Sprintf("Last post: %s (%s)",
			summary.LastSuccess.Timestamp.Local().Format(time.DateTime), summary.LastSuccess.PublishedURL))
	}
	b.WriteString(boxStyle.Render(strings.Join(lines, "\n")) + "\n\n")

	b.WriteString(titleStyle.Render("Recent runs") + "\n")
	start := max(0, len(entries)-recent)
	for i := len(entries) - 1; i >= start; i-- {
		b.WriteString(renderEntry(entries[i]) + "\n")
	}

	if len(summary.Failures) > 0 {
		b.WriteString("\n" + titleStyle.Render("Publish failures by topic") + "\n")
		topics := make([]string, 0, len(summary.Failures))
		for topic := range summary.Failures {
			topics = append(topics, topic)
		}
		sort.Slice(topics, func(i, j int) bool {
			if summary.Failures[topics[i]] != summary.Failures[topics[j]] {
				return summary.Failures[topics[i]] > summary.Failures[topics[j]]
			}
			return topics[i] < topics[j]
		})
		for _, topic := range topics {
			fmt.Fprintf(&b, "  %2d× %s\n", summary.Failures[topic], topic)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderEntry(e core.RunLogEntry) string {
	style, ok := statusStyles[e.Status]
	if !ok {
		style = mutedStyle
	}
	title := e.Title
	if title == "" && e.Topic != nil {
		title = e.Topic.Text
	}
	if title == "" {
		title = "(no topic)"
	}

	line := fmt.Sprintf("%s  %s  %s",
		mutedStyle.Render(e.Timestamp.Local().Format(time.DateTime)),
		style.Render(fmt.Sprintf("%-8s", e.Status)),
		title)
	switch {
	case e.PublishedURL != "":
		line += mutedStyle.Render("  " + e.PublishedURL)
	case e.Error != "":
		line += mutedStyle.Render("  " + e.Error)
	case e.PublishError != "":
		line += mutedStyle.Render("  " + e.PublishError)
	}
	return line
}
