package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/consilium/internal/scheduler"
)

func TestAssembleDocument(t *testing.T) {
	tasks := []*scheduler.Task{
		{ID: "b", Title: "Section B", Kind: scheduler.KindGenerate,
			Status: scheduler.TaskApproved, Output: "body of b"},
		{ID: "a", Title: "Section A", Kind: scheduler.KindGenerate,
			Status: scheduler.TaskApproved, Output: "body of a\n"},
		{ID: "rejected", Title: "Rejected", Kind: scheduler.KindGenerate,
			Status: scheduler.TaskNeedsRevision, Output: "unapproved body"},
		{ID: "rev", Title: "Review", Kind: scheduler.KindReview,
			Status: scheduler.TaskDone, Output: "critique"},
	}

	doc := AssembleDocument("Discovery Report", tasks, []string{"a", "b", "rejected", "rev", "ghost"})

	if !strings.HasPrefix(doc, "# Discovery Report\n") {
		t.Errorf("document does not open with the title: %q", doc[:40])
	}

	// Sections appear in the given order, approved generate tasks only.
	aIdx := strings.Index(doc, "## Section A")
	bIdx := strings.Index(doc, "## Section B")
	if aIdx < 0 || bIdx < 0 || aIdx > bIdx {
		t.Errorf("section order wrong: A at %d, B at %d", aIdx, bIdx)
	}
	if strings.Contains(doc, "unapproved body") {
		t.Error("document contains output of an unapproved task")
	}
	if strings.Contains(doc, "critique") {
		t.Error("document contains review output")
	}
	if !strings.Contains(doc, "body of a\n") {
		t.Error("approved output missing from the document")
	}
}

func TestCoordinationReport(t *testing.T) {
	tasks := []*scheduler.Task{
		{ID: "draft", Role: "strategist", Kind: scheduler.KindGenerate,
			Status: scheduler.TaskApproved, RevisionCount: 2,
			Reviews: []scheduler.Review{
				{ReviewerRole: "analyst", Approved: false, Confidence: 0.7,
					CriticalIssues: []string{"missing budget"}},
				{ReviewerRole: "analyst", Approved: true, Confidence: 0.9},
			}},
		{ID: "draft_review", Role: "analyst", Kind: scheduler.KindReview,
			Status: scheduler.TaskDone},
	}

	out := CoordinationReport(tasks)

	for _, want := range []string{
		"**Total Tasks:** 2",
		"**Agent Roles:** 2",
		"**Total Reviews Conducted:** 2",
		"### draft",
		"- **Revisions:** 2",
		"Review 1 by analyst",
		"- Approved: false",
		"- Critical issues: 1",
		"- Approved: true",
		"- Confidence: 0.90",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestDirSinkWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	sink := DirSink{Dir: dir}

	path, err := sink.Write("discovery", "# Doc\n")
	if err != nil {
		t.Fatalf("Write() error = %v, want nil", err)
	}
	if path != filepath.Join(dir, "discovery.md") {
		t.Errorf("path = %q, want <dir>/discovery.md", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "# Doc\n" {
		t.Errorf("content = %q, want %q", data, "# Doc\n")
	}
}
