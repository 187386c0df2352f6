package settings

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// EvaluationError reports a rule that failed to compile or run. Paths lists
// the Group.Key references the rule makes to loaded groups; Unresolved is the
// subset naming keys those groups do not hold.
type EvaluationError struct {
	Engine     string
	Expr       string
	Scope      string
	Paths      []string
	Unresolved []string
	Err        error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "settings: evaluate %q (%s, scope=%s)", e.Expr, e.Engine, e.Scope)
	if len(e.Unresolved) > 0 {
		fmt.Fprintf(&b, " unresolved=%s", strings.Join(e.Unresolved, ","))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError prefixes errors raised before an expression exists.
func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "settings:") {
		return err
	}
	return fmt.Errorf("settings: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches engine, expression and scope to err, filling
// only the fields an inner EvaluationError left empty.
func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Scope: scope, Err: err}
	}
	if evalErr.Engine == "" {
		evalErr.Engine = engine
	}
	if evalErr.Expr == "" {
		evalErr.Expr = expr
	}
	if evalErr.Scope == "" {
		evalErr.Scope = scope
	}
	return evalErr
}

// annotateReferences records which settings err's expression touched.
func annotateReferences(err error, snapshot any) {
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return
	}
	groups, ok := snapshot.(map[string]any)
	if !ok {
		return
	}
	evalErr.Paths, evalErr.Unresolved = settingReferences(evalErr.Expr, groups)
}

var (
	quotedLiteral = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)
	dottedPath    = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\.[A-Za-z_][A-Za-z0-9_]*`)
)

// settingReferences finds Group.Key paths in expr whose group is loaded.
// Quoted literals and member chains such as a.Group.Key are ignored.
func settingReferences(expr string, groups map[string]any) (paths, unresolved []string) {
	stripped := quotedLiteral.ReplaceAllStringFunc(expr, func(lit string) string {
		return strings.Repeat(" ", len(lit))
	})
	seen := map[string]bool{}
	for _, loc := range dottedPath.FindAllStringIndex(stripped, -1) {
		if loc[0] > 0 && stripped[loc[0]-1] == '.' {
			continue
		}
		path := stripped[loc[0]:loc[1]]
		if seen[path] {
			continue
		}
		group, key, _ := strings.Cut(path, ".")
		values, ok := groups[group]
		if !ok {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
		if keys, ok := values.(map[string]any); ok {
			if _, found := keys[key]; !found {
				unresolved = append(unresolved, path)
			}
		}
	}
	sort.Strings(paths)
	sort.Strings(unresolved)
	return paths, unresolved
}
