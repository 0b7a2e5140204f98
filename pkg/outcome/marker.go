// Package outcome contains the free-text heuristics that extract
// pass/fail signal and screenshot references from tool output.
//
// Both parsers are pure functions over the concatenated text blocks of
// one invocation response, with no provider coupling, so they can be
// unit-tested and fuzzed offline.
package outcome

import (
	"regexp"
	"strings"
)

// resultMarkerRe matches a "### Result <value>" marker. The value may
// follow on the same line or the next one; tools that render the marker
// as a heading often put the value on its own line.
var resultMarkerRe = regexp.MustCompile(`(?i)###\s*Result\s*([^\s` + "`" + `*]+)`)

// AssertionFailed reports whether the text carries a result marker
// whose value is false.
//
// Contract: the input is the concatenation of all text blocks from one
// tool response. A marker value of "false" (case-insensitive) means the
// tool succeeded at the protocol level but its logical verification
// failed. Any other value, or no marker at all, is not a failure. When
// several markers are present the last one wins; later output reflects
// the more final state.
func AssertionFailed(text string) bool {
	matches := resultMarkerRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return false
	}
	value := matches[len(matches)-1][1]
	return strings.EqualFold(value, "false")
}
