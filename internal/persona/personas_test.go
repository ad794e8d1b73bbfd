package persona

import (
	"strings"
	"testing"
)

func TestSystemPromptKnownRoles(t *testing.T) {
	for _, role := range Roles() {
		if prompt := SystemPrompt(role); prompt == "" {
			t.Errorf("SystemPrompt(%q) is empty", role)
		}
	}
	if got := len(Roles()); got != 10 {
		t.Errorf("Roles() = %d entries, want 10", got)
	}
}

func TestSystemPromptUnknownRoleFallsBack(t *testing.T) {
	prompt := SystemPrompt("astrologer")
	if prompt == "" {
		t.Fatal("SystemPrompt for unknown role is empty")
	}
	if !strings.Contains(prompt, "astrologer") {
		t.Errorf("fallback prompt %q does not mention the role", prompt)
	}
}
