package settings

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoEvaluator is returned when a manager has no evaluator configured.
var ErrNoEvaluator = errors.New("settings: evaluator not configured")

// Evaluate runs expr against the loaded settings. Groups are exposed as
// top-level maps keyed by setting key, e.g. General.Theme == "dark".
func (m *Manager) Evaluate(expr string) (Response[any], error) {
	return m.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith runs expr using ctx, supplying the loaded settings when
// ctx.Snapshot is nil.
func (m *Manager) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	return m.EvaluateUsing(m.evaluator, ctx, expr)
}

// EvaluateUsing runs expr with evaluator instead of the configured one.
func (m *Manager) EvaluateUsing(evaluator Evaluator, ctx RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, fmt.Errorf("expression must not be empty")
	}
	if evaluator == nil {
		return Response[any]{}, ErrNoEvaluator
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = m.evaluationSnapshot()
	}
	ctx = ctx.withDefaults()

	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, expr)
	err = wrapEvaluationError(engine, expr, ctx.scopeLabel(), err)
	annotateReferences(err, ctx.Snapshot)
	m.logger.Debug("settings: evaluate",
		"engine", engine,
		"expr", expr,
		"scope", ctx.scopeLabel(),
		"duration", time.Since(start),
		"error", err,
	)
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

// evaluationSnapshot builds {group: {key: value}} with values converted to
// types the evaluators understand.
func (m *Manager) evaluationSnapshot() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.ordered))
	for _, c := range m.ordered {
		values := make(map[string]any, c.Len())
		for _, v := range c.values {
			values[v.Key()] = exportValue(v.Get())
		}
		out[c.Group()] = values
	}
	return out
}

// engineNamer is implemented by the built-in evaluators.
type engineNamer interface {
	engine() string
}

func evaluatorEngineName(e Evaluator) string {
	if named, ok := e.(engineNamer); ok {
		return named.engine()
	}
	return "custom"
}
