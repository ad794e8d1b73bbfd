package workflow

// Canonical per-task assignment text. Builders attach these to generate
// tasks; the coordinator forwards them verbatim to the content producer.
var instructions = map[string]string{
	"discovery_framing":     "Frame the discovery process. Identify key questions, stakeholder groups, and discovery objectives. Set clear scope for the discovery phase.",
	"strategic_analysis":    "Analyze business strategy: market opportunity, competitive positioning, ROI potential, strategic alignment. Be specific and measurable.",
	"requirements_analysis": "Document comprehensive requirements: functional, non-functional, stakeholder needs, acceptance criteria. Use structured format.",
	"technical_assessment":  "Assess technical feasibility: architecture approach, technology choices, integration points, scalability. Provide business justification.",
	"ml_assessment":         "Evaluate ML/AI feasibility: data requirements, model approaches, performance targets, ethical considerations. Be realistic about limitations.",
	"ux_assessment":         "Define UX requirements: user personas, journeys, usability criteria, accessibility standards. Focus on user value.",
	"timeline_planning":     "Create realistic project timeline: phases, milestones, dependencies, resources, risks. Base on technical assessments.",
	"executive_summary":     "Write compelling executive summary: problem, solution, value, investment. Decision-focused for executives.",
	"scope_definition":      "Define detailed scope: in-scope deliverables with acceptance criteria, explicit out-of-scope items. Prevent scope creep.",
	"technical_approach":    "Describe technical approach: architecture, technology stack, data flows, security, scalability. Business-justified choices.",
	"security_requirements": "Define security requirements: threat model, controls, compliance, data protection. Risk-based approach.",
	"project_planning":      "Create comprehensive project plan: timeline, resources, risks, governance, communication. Standard PM frameworks.",
	"synthesis":             "Synthesize all inputs into coherent, professional deliverable. Resolve conflicts, fill gaps, ensure consistency.",
	"sow_synthesis":         "Synthesize all contributions into the final statement of work. Resolve conflicts, fill gaps, ensure a single consistent voice.",
}
