// Package report assembles approved task outputs into an ordered deliverable
// and renders the coordination audit report. Rendering targets markdown;
// richer export formats are the job of external sinks.
package report

import (
	"fmt"
	"strings"

	"github.com/aristath/consilium/internal/scheduler"
)

// AssembleDocument builds the composite deliverable from a finished graph
// snapshot: every approved generate task's output, in the given topological
// order, under its task title.
func AssembleDocument(title string, tasks []*scheduler.Task, order []string) string {
	byID := make(map[string]*scheduler.Task, len(tasks))
	for _, task := range tasks {
		byID[task.ID] = task
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)

	for _, id := range order {
		task, ok := byID[id]
		if !ok || task.Kind != scheduler.KindGenerate {
			continue
		}
		if task.Status != scheduler.TaskApproved || task.Output == "" {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", task.Title)
		b.WriteString(strings.TrimSpace(task.Output))
		b.WriteString("\n")
	}

	return b.String()
}

// CoordinationReport renders the audit trail of a run: per-task statuses,
// revision counts, and every peer review conducted.
func CoordinationReport(tasks []*scheduler.Task) string {
	var b strings.Builder
	b.WriteString("# Multi-Agent Coordination Report\n\n")

	roles := make(map[string]bool)
	totalReviews := 0
	for _, task := range tasks {
		roles[task.Role] = true
		totalReviews += len(task.Reviews)
	}
	fmt.Fprintf(&b, "**Total Tasks:** %d\n\n", len(tasks))
	fmt.Fprintf(&b, "**Agent Roles:** %d\n\n", len(roles))

	b.WriteString("## Task Execution Summary\n\n")
	for _, task := range tasks {
		fmt.Fprintf(&b, "### %s\n", task.ID)
		fmt.Fprintf(&b, "- **Agent:** %s\n", task.Role)
		fmt.Fprintf(&b, "- **Kind:** %s\n", task.Kind)
		fmt.Fprintf(&b, "- **Status:** %s\n", task.Status)
		fmt.Fprintf(&b, "- **Reviews:** %d\n", len(task.Reviews))
		fmt.Fprintf(&b, "- **Revisions:** %d\n\n", task.RevisionCount)
	}

	b.WriteString("## Peer Review Summary\n\n")
	fmt.Fprintf(&b, "**Total Reviews Conducted:** %d\n\n", totalReviews)

	for _, task := range tasks {
		if len(task.Reviews) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### Reviews for %s\n", task.ID)
		for i, rev := range task.Reviews {
			fmt.Fprintf(&b, "**Review %d by %s:**\n", i+1, rev.ReviewerRole)
			fmt.Fprintf(&b, "- Approved: %t\n", rev.Approved)
			fmt.Fprintf(&b, "- Confidence: %.2f\n", rev.Confidence)
			if len(rev.CriticalIssues) > 0 {
				fmt.Fprintf(&b, "- Critical issues: %d\n", len(rev.CriticalIssues))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
