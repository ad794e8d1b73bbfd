package coordinator

import (
	"strings"
	"testing"

	"github.com/aristath/consilium/internal/scheduler"
)

func TestGenerateContext(t *testing.T) {
	coord := New(&scriptedProducer{}, Options{ContextExcerptChars: 50}, nil)

	graph := scheduler.NewGraph()
	err := graph.Ingest([]*scheduler.Task{
		{ID: "upstream", Title: "Upstream Analysis", Role: "analyst",
			Status: scheduler.TaskApproved, Output: strings.Repeat("x", 200)},
		{ID: "main", Role: "strategist", DependsOn: []string{"upstream"},
			Context: map[string]string{"user_input": "build a platform", "documents": "RFP"}},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	task, _ := graph.Get("main")
	ctx := coord.generateContext(graph, task)

	if !strings.Contains(ctx, "PROJECT CONTEXT:") || !strings.Contains(ctx, "build a platform") {
		t.Errorf("context missing project section:\n%s", ctx)
	}
	if !strings.Contains(ctx, "### Upstream Analysis by analyst:") {
		t.Errorf("context missing attributed dependency output:\n%s", ctx)
	}
	if !strings.Contains(ctx, "[...truncated]") {
		t.Error("long dependency output was not truncated")
	}
	if strings.Contains(ctx, "REVISION REQUIRED") {
		t.Error("first execution carries a revision critique")
	}
}

func TestGenerateContextCarriesCritiqueOnRevision(t *testing.T) {
	coord := New(&scriptedProducer{}, Options{}, nil)

	graph := scheduler.NewGraph()
	err := graph.Ingest([]*scheduler.Task{
		{ID: "main", Role: "strategist", RevisionCount: 1,
			Reviews: []scheduler.Review{{
				ReviewerRole:   "analyst",
				CriticalIssues: []string{"no success metrics"},
				Concerns:       []string{"timeline optimistic"},
			}}},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	task, _ := graph.Get("main")
	ctx := coord.generateContext(graph, task)

	if !strings.Contains(ctx, "REVISION REQUIRED") {
		t.Fatalf("context missing revision marker:\n%s", ctx)
	}
	if !strings.Contains(ctx, "analyst") {
		t.Error("critique is not attributed to the reviewer")
	}
	if !strings.Contains(ctx, "no success metrics") || !strings.Contains(ctx, "timeline optimistic") {
		t.Error("critique content missing from the revision context")
	}
}

func TestReviewInstructions(t *testing.T) {
	target := &scheduler.Task{
		ID: "draft", Title: "Strategic Analysis", Role: "strategist",
		Output: strings.Repeat("y", 100),
	}

	instr := reviewInstructions(target, 40)

	if !strings.Contains(instr, "peer review of work from strategist") {
		t.Errorf("instructions missing attribution:\n%s", instr)
	}
	if !strings.Contains(instr, "Strategic Analysis") {
		t.Error("instructions missing the task title")
	}
	if !strings.Contains(instr, "[...truncated]") {
		t.Error("target output was not bounded by the preview limit")
	}
	for _, section := range []string{"STRENGTHS:", "CONCERNS:", "CRITICAL ISSUES:", "SUGGESTIONS:", "APPROVAL:", "CONFIDENCE:"} {
		if !strings.Contains(instr, section) {
			t.Errorf("instructions missing required section %q", section)
		}
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("short", 10); got != "short" {
		t.Errorf("excerpt() = %q, want unchanged", got)
	}
	got := excerpt("0123456789abcdef", 10)
	if !strings.HasPrefix(got, "0123456789") || !strings.HasSuffix(got, "[...truncated]") {
		t.Errorf("excerpt() = %q, want truncated with marker", got)
	}
	if got := excerpt("anything at all", 0); got != "anything at all" {
		t.Errorf("excerpt() with zero limit = %q, want unchanged", got)
	}
}
