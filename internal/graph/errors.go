package graph

import (
	"fmt"
	"strings"
)

// CircularDependencyError reports a dependency cycle between named
// providers.
type CircularDependencyError struct {
	Node string
	Path []string
}

func (e CircularDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	if len(e.Path) == 0 {
		b.WriteString(fmt.Sprintf("    %s\n", e.Node))
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Node))
	} else {
		for i, name := range e.Path {
			b.WriteString(fmt.Sprintf("    %s\n", name))
			if i < len(e.Path)-1 {
				b.WriteString("      ↓\n")
			}
		}
		b.WriteString("      ↓\n")
		b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Path[0]))
	}

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Extract the shared piece into a provider both sides depend on\n")
	b.WriteString("  • Use a factory provider and pass the value at call time instead of injecting it\n")
	b.WriteString("  • Restructure so one side no longer needs the other\n")

	return b.String()
}

var _ error = CircularDependencyError{}
