// Package review converts unstructured critique text into a structured
// approve/revise decision. The parse is heuristic by nature, so it is
// deliberately isolated here: Interpret is total (it never fails) and
// defaults to the conservative outcome — requesting revision beats silently
// approving bad work.
package review

import (
	"strconv"
	"strings"
)

// Decision is the structured outcome of interpreting a peer-review critique.
type Decision struct {
	Approved          bool
	HasCriticalIssues bool
	Strengths         []string
	Concerns          []string
	Suggestions       []string
	CriticalIssues    []string
	Confidence        float64 // 0.0 to 1.0
}

// Accepted reports whether the reviewed work should be accepted: an explicit
// approval with no critical issues.
func (d Decision) Accepted() bool {
	return d.Approved && !d.HasCriticalIssues
}

// Section labels the review instruction template asks for. Matching is
// case-insensitive and tolerates leading markdown markers.
const (
	labelStrengths   = "STRENGTHS:"
	labelConcerns    = "CONCERNS:"
	labelCritical    = "CRITICAL ISSUES:"
	labelSuggestions = "SUGGESTIONS:"
	labelApproval    = "APPROVAL:"
	labelConfidence  = "CONFIDENCE:"
)

// defaultConfidence is used when the critique carries no parseable
// confidence value. Kept below 0.5 so downstream consumers cannot mistake an
// unstated confidence for a strong one.
const defaultConfidence = 0.4

// Interpret parses free-form critique text into a Decision. Approval is
// signaled only by a recognized affirmative marker ("APPROVAL: YES");
// anything absent or ambiguous interprets as not approved. Critical-issue
// presence requires a CRITICAL ISSUES section with non-empty content.
func Interpret(text string) Decision {
	d := Decision{Confidence: defaultConfidence}

	sections := splitSections(text)

	d.Strengths = sections[labelStrengths]
	d.Concerns = sections[labelConcerns]
	d.Suggestions = sections[labelSuggestions]
	d.CriticalIssues = filterNone(sections[labelCritical])
	d.HasCriticalIssues = len(d.CriticalIssues) > 0

	if lines := sections[labelApproval]; len(lines) > 0 {
		d.Approved = isAffirmative(lines[0])
	} else {
		// Fall back to an inline "APPROVAL: YES" that splitSections missed
		// because the verdict shared a line with the label.
		d.Approved = inlineApproval(text)
	}

	if lines := sections[labelConfidence]; len(lines) > 0 {
		if v, ok := parseConfidence(lines[0]); ok {
			d.Confidence = v
		}
	}

	return d
}

// splitSections walks the text line by line, collecting the non-empty lines
// under each recognized label. A value sharing the label's line ("APPROVAL:
// YES") is treated as that section's first line.
func splitSections(text string) map[string][]string {
	labels := []string{
		labelStrengths, labelConcerns, labelCritical,
		labelSuggestions, labelApproval, labelConfidence,
	}

	sections := make(map[string][]string)
	current := ""

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "#*"))
		if line == "" {
			continue
		}

		matched := false
		for _, label := range labels {
			rest, ok := cutLabel(line, label)
			if !ok {
				continue
			}
			current = label
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			matched = true
			break
		}
		if matched {
			continue
		}

		if current != "" {
			sections[current] = append(sections[current], strings.TrimLeft(line, "-•0123456789. \t"))
		}
	}

	return sections
}

// cutLabel matches a section label at the start of a line, ignoring case and
// an optional leading enumeration ("3. CRITICAL ISSUES: ...").
func cutLabel(line, label string) (string, bool) {
	trimmed := strings.TrimLeft(line, "0123456789. \t")
	if len(trimmed) < len(label) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(label)], label) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(label):]), true
}

// isAffirmative recognizes the approval verdict. Only an explicit leading
// YES counts; "NO", "YES, but..." qualifications with a leading NO, or any
// other phrasing interpret as not approved.
func isAffirmative(verdict string) bool {
	v := strings.ToUpper(strings.TrimSpace(verdict))
	v = strings.TrimSpace(strings.Trim(v, "*._!"))
	return v == "YES" || strings.HasPrefix(v, "YES ") || strings.HasPrefix(v, "YES,") || strings.HasPrefix(v, "YES.")
}

func inlineApproval(text string) bool {
	upper := strings.ToUpper(text)
	idx := strings.Index(upper, labelApproval)
	if idx < 0 {
		return false
	}
	rest := upper[idx+len(labelApproval):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return isAffirmative(rest)
}

// filterNone drops placeholder lines reviewers use for an empty section.
func filterNone(items []string) []string {
	out := []string{}
	for _, item := range items {
		switch strings.ToLower(strings.Trim(strings.TrimSpace(item), ".!")) {
		case "", "none", "n/a", "na", "no critical issues", "none identified":
			continue
		}
		out = append(out, item)
	}
	return out
}

// parseConfidence accepts "0.8", "0.8/1.0", "80%" or "8/10" style values and
// normalizes them into [0,1].
func parseConfidence(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	if cut, ok := strings.CutSuffix(s, "%"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSpace(cut), 64); err == nil {
			return clamp01(v / 100), true
		}
		return 0, false
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, errN := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, errD := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if errN == nil && errD == nil && d > 0 {
			return clamp01(n / d), true
		}
		return 0, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v > 1 {
			v = v / 10 // "8" on an implied ten-point scale
		}
		return clamp01(v), true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
