package producer

import (
	"context"
	"fmt"
	"strings"
)

// MockProducer is a deterministic offline producer. It lets the whole
// pipeline run end to end without a model endpoint: review requests get a
// structured approving critique, generation requests get placeholder
// content attributed to the role.
type MockProducer struct{}

// NewMockProducer creates a mock producer.
func NewMockProducer() *MockProducer {
	return &MockProducer{}
}

// Generate returns deterministic placeholder text for the request.
func (p *MockProducer) Generate(_ context.Context, req Request) (string, error) {
	if strings.Contains(req.Instructions, "peer review") {
		return fmt.Sprintf(`STRENGTHS:
- Clear structure and role-appropriate depth
- Consistent with the engagement context

CONCERNS:
- Placeholder content generated offline by the mock producer

CRITICAL ISSUES:
None

SUGGESTIONS:
- Re-run with a real producer for substantive review

APPROVAL: YES
CONFIDENCE: 0.5
(mock review by %s)`, req.Role), nil
	}

	return fmt.Sprintf("[mock output by %s]\n\n%s\n\n(Generated offline; configure an ollama or openai producer for real content.)",
		req.Role, req.Instructions), nil
}
