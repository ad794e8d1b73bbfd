package coordinator

import (
	"fmt"
	"strings"

	"github.com/aristath/consilium/internal/scheduler"
)

// generateContext assembles the context bundle for a generate call: the
// engagement context carried on the task, each dependency's output with
// role/title attribution, and, on a revision, the most recent critique.
// Every piece is bounded by ContextExcerptChars; re-sending unbounded
// ancestor output would grow the payload quadratically along deep chains.
func (c *Coordinator) generateContext(graph *scheduler.Graph, task *scheduler.Task) string {
	limit := c.opts.ContextExcerptChars
	var b strings.Builder

	base := strings.TrimSpace(task.Context["user_input"] + "\n" + task.Context["documents"])
	if base != "" {
		b.WriteString("PROJECT CONTEXT:\n")
		b.WriteString(excerpt(base, limit))
		b.WriteString("\n\n")
	}

	if discovery := task.Context["discovery"]; discovery != "" {
		b.WriteString("DISCOVERY CONTEXT:\n")
		b.WriteString(excerpt(discovery, limit))
		b.WriteString("\n\n")
	}

	var deps []string
	for _, depID := range task.DependsOn {
		dep, ok := graph.Get(depID)
		if !ok || dep.Output == "" {
			continue
		}
		deps = append(deps, fmt.Sprintf("### %s by %s:\n%s", dep.Title, dep.Role, excerpt(dep.Output, limit)))
	}
	b.WriteString("DEPENDENCY CONTEXT:\n")
	if len(deps) > 0 {
		b.WriteString(strings.Join(deps, "\n\n"))
	} else {
		b.WriteString("No dependency context available.")
	}

	if task.RevisionCount > 0 && len(task.Reviews) > 0 {
		latest := task.Reviews[len(task.Reviews)-1]
		b.WriteString("\n\nREVISION REQUIRED. Address this critique from ")
		b.WriteString(latest.ReviewerRole)
		b.WriteString(":\n")
		b.WriteString(excerpt(formatCritique(latest), limit))
	}

	return b.String()
}

// formatCritique renders a recorded review back into readable feedback for
// the revising agent.
func formatCritique(r scheduler.Review) string {
	var b strings.Builder
	if len(r.CriticalIssues) > 0 {
		b.WriteString("Critical issues:\n")
		for _, issue := range r.CriticalIssues {
			b.WriteString("- " + issue + "\n")
		}
	}
	if len(r.Concerns) > 0 {
		b.WriteString("Concerns:\n")
		for _, concern := range r.Concerns {
			b.WriteString("- " + concern + "\n")
		}
	}
	if b.Len() == 0 {
		b.WriteString("The reviewer did not approve this work. Improve completeness, accuracy, and business value.")
	}
	return b.String()
}

// reviewInstructions is the fixed peer-review instruction template. The
// target's output is embedded truncated to the configured preview length.
func reviewInstructions(target *scheduler.Task, previewChars int) string {
	return fmt.Sprintf(`You are conducting a peer review of work from %s.

TASK: %s
OUTPUT TO REVIEW:
%s

Provide a structured review with:
1. STRENGTHS: What is done well (3-5 points)
2. CONCERNS: Issues or gaps that need attention (list all)
3. CRITICAL ISSUES: Blocking issues that must be fixed (write "None" if there are none)
4. SUGGESTIONS: Specific improvements (3-5 actionable suggestions)
5. APPROVAL: YES or NO (approve only if there are no critical issues)
6. CONFIDENCE: Your confidence in this review, from 0.0 to 1.0

Be thorough, constructive, and specific. Focus on completeness, accuracy, and business value.`,
		target.Role, target.Title, excerpt(target.Output, previewChars))
}

// excerpt truncates s to at most limit bytes, marking the cut.
func excerpt(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit] + "\n[...truncated]"
}
