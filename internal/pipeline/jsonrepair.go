package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Collaborator replies are supposed to carry exactly one fenced JSON block,
// but real output drifts: stray control characters, ragged indentation pasted
// into the structure, spaces wedged between brackets. The repair pass below
// applies a small, fixed set of rewrites and nothing else; it is idempotent,
// and text that already parses is returned untouched.

var (
	fencedJSONRe   = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	controlCharsRe = regexp.MustCompile(`[\x00-\x1F\x7F]`)
	spaceRunsRe    = regexp.MustCompile(` {2,}`)
)

// ExtractFencedJSON pulls the first ```json fenced object out of collaborator
// text. Returns ErrNoJSONBlock when the reply has no such block.
func ExtractFencedJSON(text string) (string, error) {
	m := fencedJSONRe.FindStringSubmatch(text)
	if m == nil {
		return "", ErrNoJSONBlock
	}
	return strings.TrimSpace(m[1]), nil
}

// RepairJSON normalizes near-JSON text: control characters are dropped, runs
// of spaces collapse to one, and spaces wedged between closing or opening
// brackets are removed. Valid JSON passes through unchanged.
func RepairJSON(s string) string {
	if json.Valid([]byte(s)) {
		return s
	}

	s = controlCharsRe.ReplaceAllString(s, "")
	s = spaceRunsRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "} ] }", "}]}")
	s = strings.ReplaceAll(s, "} ]", "}]")
	s = strings.ReplaceAll(s, "[ {", "[{")
	return s
}

// parseLoose unmarshals s into v, trying the text as-is first and falling
// back to one repair pass.
func parseLoose(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	return json.Unmarshal([]byte(RepairJSON(s)), v)
}
