package permission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRules_Basic(t *testing.T) {
	src := `
permission_rule(capability="bash", pattern="git *", decision="allow")
permission_rule(capability="write", pattern="/etc/**", decision="deny")
permission_rule(capability="read", pattern="*")
`
	rules, err := ParseRules("test.rules", src, SourceConfig)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, CapabilityBash, rules[0].Capability)
	assert.Equal(t, "git *", rules[0].Pattern)
	assert.Equal(t, DecisionAllow, rules[0].Decision)
	assert.Equal(t, SourceConfig, rules[0].Source)

	assert.Equal(t, DecisionDeny, rules[1].Decision)

	// decision defaults to ask
	assert.Equal(t, DecisionAsk, rules[2].Decision)
}

func TestParseRules_InvalidCapability(t *testing.T) {
	_, err := ParseRules("test.rules", `permission_rule(capability="root", pattern="*")`, SourceConfig)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "test.rules", parseErr.File)
}

func TestParseRules_InvalidDecision(t *testing.T) {
	_, err := ParseRules("test.rules", `permission_rule(capability="bash", pattern="*", decision="maybe")`, SourceConfig)
	require.Error(t, err)
}

func TestParseRules_StarlarkSyntaxError(t *testing.T) {
	_, err := ParseRules("broken.rules", `permission_rule(`, SourceAgent)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestParseRules_StarlarkLogic(t *testing.T) {
	// Rules files are Starlark, so loops work.
	src := `
for cmd in ["git", "ls", "cat"]:
    permission_rule(capability="bash", pattern=cmd + " *", decision="allow")
`
	rules, err := ParseRules("gen.rules", src, SourceAgent)
	require.NoError(t, err)
	assert.Len(t, rules, 3)
}

func TestLoadRuleFiles_MergesInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-base.rules"),
		[]byte(`permission_rule(capability="bash", pattern="*", decision="ask")`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20-git.rules"),
		[]byte(`permission_rule(capability="bash", pattern="git *", decision="allow")`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"),
		[]byte(`not a rules file`), 0o644))

	rules, err := LoadRuleFiles(dir, SourceConfig)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "*", rules[0].Pattern)
	assert.Equal(t, "git *", rules[1].Pattern)
}

func TestLoadRuleFiles_MissingDirIsEmpty(t *testing.T) {
	rules, err := LoadRuleFiles(filepath.Join(t.TempDir(), "no-such-dir"), SourceConfig)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestParseDecision_RoundTrip(t *testing.T) {
	for _, d := range []Decision{DecisionAllow, DecisionAsk, DecisionDeny} {
		parsed, err := ParseDecision(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
}

func TestParseCapability_RoundTrip(t *testing.T) {
	caps := []Capability{
		CapabilityNone, CapabilityRead, CapabilityWrite,
		CapabilityBash, CapabilityNetwork, CapabilityExternalDirectory,
	}
	for _, c := range caps {
		parsed, err := ParseCapability(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}
