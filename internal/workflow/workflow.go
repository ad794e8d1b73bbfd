// Package workflow contains the static builders that emit the task DAG for
// each deliverable type. Builders are pure data construction; all scheduling
// behavior lives in the coordinator.
package workflow

import (
	"github.com/aristath/consilium/internal/persona"
	"github.com/aristath/consilium/internal/scheduler"
)

// Engagement carries the client-facing inputs every task receives.
type Engagement struct {
	ClientInput string // What the client asked for, in their words
	Documents   string // Supporting material supplied by the client
}

func (e Engagement) context() map[string]string {
	return map[string]string{
		"user_input": e.ClientInput,
		"documents":  e.Documents,
	}
}

// Discovery builds the discovery-phase workflow:
// framing -> parallel strategic/requirements analysis -> cross-review ->
// parallel specialist assessment -> timeline synthesis -> quality gate ->
// final synthesis.
//
// Every generate task has a reviewer: under the readiness rules a generate
// task only reaches Approved through a peer review, so a stage without
// review coverage would stall the stages behind it.
func Discovery(e Engagement) []*scheduler.Task {
	ctx := e.context()

	return []*scheduler.Task{
		gen("discovery_framing", "Discovery Framing", persona.EngagementManager,
			instructions["discovery_framing"], ctx),
		rev("framing_review", "Framing Review", persona.Strategist,
			[]string{"discovery_framing"}, []string{"discovery_framing"}),

		gen("strategic_analysis", "Strategic Analysis", persona.Strategist,
			instructions["strategic_analysis"], ctx, "discovery_framing"),
		gen("requirements_analysis", "Requirements Analysis", persona.Analyst,
			instructions["requirements_analysis"], ctx, "discovery_framing"),

		// Cross-review: each analysis is critiqued by the opposite role.
		rev("strategy_review_by_analyst", "Strategy Cross-Review", persona.Analyst,
			[]string{"strategic_analysis"}, []string{"strategic_analysis", "requirements_analysis"}),
		rev("requirements_review_by_strategist", "Requirements Cross-Review", persona.Strategist,
			[]string{"requirements_analysis"}, []string{"strategic_analysis", "requirements_analysis"}),

		gen("technical_feasibility", "Technical Feasibility Assessment", persona.Architect,
			instructions["technical_assessment"], ctx, "strategic_analysis", "requirements_analysis"),
		gen("ml_feasibility", "ML Feasibility Assessment", persona.MLSpecialist,
			instructions["ml_assessment"], ctx, "strategic_analysis", "requirements_analysis"),
		gen("ux_assessment", "UX Assessment", persona.UXStrategist,
			instructions["ux_assessment"], ctx, "requirements_analysis"),

		rev("technical_review", "Technical Assessment Review", persona.DevOps,
			[]string{"technical_feasibility"}, []string{"technical_feasibility"}),
		rev("ml_review", "ML Assessment Review", persona.Architect,
			[]string{"ml_feasibility"}, []string{"ml_feasibility"}),
		rev("ux_review", "UX Assessment Review", persona.Analyst,
			[]string{"ux_assessment"}, []string{"ux_assessment"}),

		gen("timeline_synthesis", "Timeline Synthesis", persona.ProjectManager,
			instructions["timeline_planning"], ctx, "technical_feasibility", "ml_feasibility", "ux_assessment"),
		rev("qa_discovery_review", "Discovery Quality Gate", persona.QualityAssurance,
			[]string{"timeline_synthesis"}, []string{"timeline_synthesis"}),

		gen("discovery_synthesis", "Discovery Synthesis", persona.EngagementManager,
			instructions["synthesis"], ctx, "timeline_synthesis", "qa_discovery_review"),
		rev("discovery_final_review", "Final Discovery Review", persona.QualityAssurance,
			[]string{"discovery_synthesis"}, []string{"discovery_synthesis"}),
	}
}

// ScopeOfWork builds the statement-of-work workflow:
// parallel drafting of summary/scope/approach -> dependent security
// requirements and project plan -> strategic cross-review -> comprehensive
// QA -> final synthesis.
//
// The discovery output, when present, is carried in every task's context.
func ScopeOfWork(e Engagement, discovery string) []*scheduler.Task {
	ctx := e.context()
	if discovery != "" {
		ctx["discovery"] = discovery
	}

	contentIDs := []string{
		"sow_executive_summary", "sow_scope_details", "sow_technical_approach",
		"sow_security_requirements", "sow_project_plan",
	}

	return []*scheduler.Task{
		gen("sow_executive_summary", "Executive Summary", persona.Strategist,
			instructions["executive_summary"], ctx),
		gen("sow_scope_details", "Scope Definition", persona.Analyst,
			instructions["scope_definition"], ctx),
		gen("sow_technical_approach", "Technical Approach", persona.Architect,
			instructions["technical_approach"], ctx, "sow_scope_details"),

		gen("sow_security_requirements", "Security Requirements", persona.Security,
			instructions["security_requirements"], ctx, "sow_technical_approach"),
		gen("sow_project_plan", "Project Plan", persona.ProjectManager,
			instructions["project_planning"], ctx, "sow_technical_approach"),

		rev("sow_summary_review", "Executive Summary Review", persona.EngagementManager,
			[]string{"sow_executive_summary"}, []string{"sow_executive_summary"}),
		// Strategic cross-review spans scope, approach, and plan; the first
		// target is the one an approval or rejection lands on.
		rev("sow_strategic_review", "Strategic Cross-Review", persona.Strategist,
			[]string{"sow_scope_details", "sow_technical_approach", "sow_project_plan"},
			[]string{"sow_scope_details", "sow_technical_approach", "sow_project_plan"}),
		rev("sow_approach_review", "Technical Approach Review", persona.DevOps,
			[]string{"sow_technical_approach"}, []string{"sow_technical_approach"}),
		rev("sow_security_review", "Security Requirements Review", persona.Architect,
			[]string{"sow_security_requirements"}, []string{"sow_security_requirements"}),
		rev("sow_plan_review", "Project Plan Review", persona.Analyst,
			[]string{"sow_project_plan"}, []string{"sow_project_plan"}),

		rev("sow_qa_review", "Comprehensive QA Review", persona.QualityAssurance,
			contentIDs, contentIDs),

		gen("sow_final_synthesis", "Final SOW Synthesis", persona.EngagementManager,
			instructions["sow_synthesis"], ctx,
			"sow_executive_summary", "sow_scope_details", "sow_technical_approach",
			"sow_security_requirements", "sow_project_plan", "sow_qa_review"),
		rev("sow_final_review", "Final SOW Review", persona.QualityAssurance,
			[]string{"sow_final_synthesis"}, []string{"sow_final_synthesis"}),
	}
}

func gen(id, title, role, instr string, ctx map[string]string, deps ...string) *scheduler.Task {
	return &scheduler.Task{
		ID:           id,
		Title:        title,
		Role:         role,
		Kind:         scheduler.KindGenerate,
		Instructions: instr,
		DependsOn:    deps,
		Context:      cloneContext(ctx),
		Status:       scheduler.TaskPending,
	}
}

func rev(id, title, role string, targets, deps []string) *scheduler.Task {
	return &scheduler.Task{
		ID:        id,
		Title:     title,
		Role:      role,
		Kind:      scheduler.KindReview,
		Targets:   targets,
		DependsOn: deps,
		Status:    scheduler.TaskPending,
	}
}

func cloneContext(ctx map[string]string) map[string]string {
	out := make(map[string]string, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
