package completion

import "strings"

// OverlapWindow is how many characters before the cursor are compared
// against the start of a candidate.
const OverlapWindow = 200

const fence = "```"

// Resolve normalizes a raw candidate for display after before, the text
// that precedes the cursor. It strips a fenced code block wrapper and then
// removes the longest leading part of the candidate that repeats the end
// of before. Both steps are repeated until the candidate stops changing, so
// Resolve(Resolve(c, b), b) == Resolve(c, b).
//
// Repeating the trim also eats text the model meant to repeat: with before
// ending in ")" a candidate "))" resolves to "", and leading indentation
// that matches the indentation before the cursor is dropped. An empty
// result means there is nothing to insert, not that the request failed.
func Resolve(raw, before string) string {
	window := tail(before, OverlapWindow)
	candidate := raw
	for {
		next := trimOverlap(stripFences(candidate), window)
		if next == candidate {
			return candidate
		}
		candidate = next
	}
}

// stripFences removes a leading ``` line (with optional language tag) and a
// trailing ``` fence, keeping only the payload between them.
func stripFences(s string) string {
	if rest, ok := strings.CutPrefix(strings.TrimLeft(s, " \t\r\n"), fence); ok {
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			s = rest[i+1:]
		} else {
			s = ""
		}
	}
	if body, ok := strings.CutSuffix(strings.TrimRight(s, " \t\r\n"), fence); ok {
		body = strings.TrimSuffix(body, "\n")
		s = strings.TrimSuffix(body, "\r")
	}
	return s
}

// trimOverlap drops the longest suffix of window that the candidate starts with.
func trimOverlap(candidate string, window []rune) string {
	for start := range window {
		if overlap := string(window[start:]); strings.HasPrefix(candidate, overlap) {
			return candidate[len(overlap):]
		}
	}
	return candidate
}

func tail(s string, n int) []rune {
	r := []rune(s)
	if len(r) > n {
		r = r[len(r)-n:]
	}
	return r
}
