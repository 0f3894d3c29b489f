// Package outline holds the indentation helpers for tab-indented outline documents.
package outline

import "strings"

// Section markers recognised at depth 0.
const (
	SectionInbox    = ",INBOX"
	SectionProjects = ",PROJECTS"
	SectionContexts = ",CONTEXTS"
)

// Depth counts the leading tab characters of line.
func Depth(line string) int {
	return len(line) - len(strings.TrimLeft(line, "\t"))
}

// Indent prefixes text with depth tabs.
func Indent(text string, depth int) string {
	if depth <= 0 {
		return text
	}
	return strings.Repeat("\t", depth) + text
}

// AncestorChain returns the path from the outermost ancestor of
// doc[index] down to doc[index] itself. Walking backwards, each ancestor is
// the nearest preceding line exactly one level shallower than the last one
// picked. If the lineage runs out before depth 0 the chain starts there.
func AncestorChain(doc []string, index int) []string {
	if index < 0 || index >= len(doc) {
		return nil
	}
	chain := []string{doc[index]}
	want := Depth(doc[index]) - 1
	for n := index - 1; n >= 0 && want >= 0; n-- {
		if Depth(doc[n]) == want {
			chain = append(chain, doc[n])
			want--
		}
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// TodoDepth reports the depth at which todos live below a section marker.
// ok is false for lines that are not section markers.
func TodoDepth(line string) (depth int, ok bool) {
	switch line {
	case SectionInbox:
		return 1, true
	case SectionProjects, SectionContexts:
		return 2, true
	default:
		return 0, false
	}
}
