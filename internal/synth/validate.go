package synth

import (
	"fmt"
	"go/parser"
	"go/scanner"
	"go/token"
	"strings"
)

// Validation is the outcome of a syntax check. A candidate is either fully
// valid or invalid with a diagnostic; there is no partial validity.
type Validation struct {
	Valid   bool
	Line    int    // 1-based line in the artifact source, 0 if unknown
	Message string
	Context string // offending line with two lines of surrounding context
}

// Diagnostic renders the failure for operator output.
func (v Validation) Diagnostic() string {
	if v.Valid {
		return ""
	}
	if v.Context == "" {
		return v.Message
	}
	return v.Message + "\n" + v.Context
}

// Validate compiles the harness-wrapped artifact without executing it. Empty
// artifacts are rejected outright; parse failures carry the offending line
// and ±2 lines of context.
func Validate(src string) Validation {
	if strings.TrimSpace(src) == "" {
		return Validation{Message: "artifact is empty"}
	}

	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "artifact.go", wrapArtifact(src), 0)
	if err == nil {
		return Validation{Valid: true}
	}

	v := Validation{Message: err.Error()}
	if list, ok := err.(scanner.ErrorList); ok && len(list) > 0 {
		first := list[0]
		v.Message = first.Msg
		v.Line = first.Pos.Line - harnessLines
		if v.Line < 1 {
			v.Line = 1
		}
		v.Context = contextAround(src, v.Line)
	}
	return v
}

// contextAround renders the offending line ±2 lines, marking the failure.
func contextAround(src string, line int) string {
	lines := strings.Split(src, "\n")
	idx := line - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	start := idx - 2
	if start < 0 {
		start = 0
	}
	end := idx + 3
	if end > len(lines) {
		end = len(lines)
	}
	var sb strings.Builder
	for i := start; i < end; i++ {
		prefix := "  "
		if i == idx {
			prefix = ">>"
		}
		fmt.Fprintf(&sb, "%s %s\n", prefix, lines[i])
	}
	return strings.TrimRight(sb.String(), "\n")
}
