package manifest

import (
	"fmt"
	"strings"
)

// SyntaxError reports the furthest position the parser reached before the
// input stopped matching the grammar.
type SyntaxError struct {
	Line     int
	Column   int
	Expected []string
	Found    string
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "syntax error at line %d, column %d", e.Line, e.Column)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ": expected %s", strings.Join(e.Expected, " or "))
	}
	if e.Found != "" {
		fmt.Fprintf(&b, ", found %s", e.Found)
	}
	return b.String()
}
