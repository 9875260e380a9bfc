package permission

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
)

// ParseRules parses a Starlark rules file and returns the rules it declares.
// The file may contain calls to the permission_rule() builtin:
//
//	permission_rule(capability="bash", pattern="git *", decision="allow")
//
// decision defaults to "ask" when omitted. All rules parsed from a file are
// tagged with the given source.
func ParseRules(filename, src string, source RuleSource) ([]Rule, error) {
	var rules []Rule

	permissionRule := starlark.NewBuiltin("permission_rule", func(
		thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple,
	) (starlark.Value, error) {
		var (
			capabilityStr string
			pattern       string
			decisionStr   string
		)

		if err := starlark.UnpackArgs(fn.Name(), args, kwargs,
			"capability", &capabilityStr,
			"pattern", &pattern,
			"decision?", &decisionStr,
		); err != nil {
			return nil, err
		}

		if decisionStr == "" {
			decisionStr = "ask"
		}

		capability, err := ParseCapability(capabilityStr)
		if err != nil {
			return nil, err
		}
		decision, err := ParseDecision(decisionStr)
		if err != nil {
			return nil, err
		}

		rule, err := NewRule(capability, pattern, decision, source)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)

		return starlark.None, nil
	})

	predeclared := starlark.StringDict{
		"permission_rule": permissionRule,
	}

	thread := &starlark.Thread{Name: filename}

	_, err := starlark.ExecFile(thread, filename, src, predeclared)
	if err != nil {
		return nil, &ParseError{
			File:    filename,
			Message: fmt.Sprintf("starlark parse error: %v", err),
			Cause:   err,
		}
	}

	return rules, nil
}

// LoadRuleFiles reads all *.rules files from dir and parses them into a
// single rule slice, in lexical file order. A missing directory yields no
// rules and no error.
func LoadRuleFiles(dir string, source RuleSource) ([]Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var rules []Rule
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rules") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		parsed, err := ParseRules(path, string(data), source)
		if err != nil {
			return nil, err
		}
		rules = append(rules, parsed...)
	}
	return rules, nil
}
