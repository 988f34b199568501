package synth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsWellFormedArtifact(t *testing.T) {
	v := Validate("func Parse(docPath string) (*table.Table, error) {\n\treturn table.New(\"Date\"), nil\n}")
	assert.True(t, v.Valid)
	assert.Empty(t, v.Diagnostic())
}

func TestValidateAcceptsFallbackArtifact(t *testing.T) {
	v := Validate(FallbackArtifact)
	assert.True(t, v.Valid, "the fallback must always validate: %s", v.Diagnostic())
}

func TestValidateRejectsEmpty(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\t\n"} {
		v := Validate(src)
		assert.False(t, v.Valid, "empty artifact %q must be rejected", src)
	}
}

func TestValidateRejectsUnmatchedBracket(t *testing.T) {
	v := Validate("func Parse(docPath string) (*table.Table, error) {\n\treturn nil, nil\n")
	assert.False(t, v.Valid)
}

func TestValidateRejectsUnmatchedQuote(t *testing.T) {
	v := Validate("func Parse() {\n\ts := \"unterminated\n}")
	assert.False(t, v.Valid)
}

func TestValidateDiagnosticContext(t *testing.T) {
	src := strings.Join([]string{
		"func Parse(docPath string) (*table.Table, error) {",
		"\tt := table.New(\"Date\")",
		"\tt.AppendRow(]",
		"\treturn t, nil",
		"}",
	}, "\n")

	v := Validate(src)
	require.False(t, v.Valid)
	assert.Equal(t, 3, v.Line)
	assert.Contains(t, v.Context, ">> \tt.AppendRow(]")
	assert.Contains(t, v.Context, "table.New")
	assert.Contains(t, v.Context, "return t, nil")
}
