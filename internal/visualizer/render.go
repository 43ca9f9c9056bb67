package visualizer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Render writes the steps with their progress markers, the template with
// revealed fields, and the finished canonical string once complete.
func Render(w io.Writer, steps []Step, active int, complete bool) error {
	var b strings.Builder

	for i, s := range steps {
		marker := strconv.Itoa(i + 1)
		switch {
		case complete && i <= active:
			marker = "✓"
		case stateOf(i, active, complete) == StateActive:
			marker = ">"
		case stateOf(i, active, complete) == StateCompleted:
			marker = "✓"
		}
		fmt.Fprintf(&b, "[%s] %-9s  %s\n", marker, s.Label, s.Description)
		fmt.Fprintf(&b, "    %s\n", s.Value)
	}

	b.WriteString("\nConstructed Signature String\n")
	labels := make([]string, len(steps))
	for i, s := range steps {
		if i <= active {
			labels[i] = "{" + s.Label + "}"
		} else {
			labels[i] = strings.Repeat(".", len(s.Label)+2)
		}
	}
	b.WriteString(strings.Join(labels, ` \n `))
	b.WriteString("\n")

	if complete && len(steps) > 0 {
		b.WriteString("\nExample with actual values:\n")
		b.WriteString(steps[len(steps)-1].Partial)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}
