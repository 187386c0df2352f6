package settings

import (
	"math/big"

	"github.com/google/uuid"
)

// EvaluatorOption configures any of the built-in evaluators.
type EvaluatorOption func(*evaluatorConfig)

// EvaluatorWithProgramCache wires a ProgramCache into an evaluator.
func EvaluatorWithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// EvaluatorWithFunctions exposes registry helpers to expressions, both by name
// and through call(name, args...).
func EvaluatorWithFunctions(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

func newEvaluatorConfig(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg evaluatorConfig) cached(engine, expression string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(engine + ":" + expression)
}

func (cfg evaluatorConfig) store(engine, expression string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(engine+":"+expression, program)
	}
}

func (cfg evaluatorConfig) call(name string, args ...any) (any, error) {
	return cfg.registry.Call(name, args...)
}

func (cfg evaluatorConfig) functionNames() []string {
	return cfg.registry.Names()
}

// bindings returns the variables visible to an expression: now, args,
// metadata, scope (when set) and every top-level snapshot entry.
func (cfg evaluatorConfig) bindings(ctx RuleContext) map[string]any {
	vars := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if binding := ctx.scopeBinding(); binding != nil {
		vars["scope"] = binding
	}
	for key, value := range snapshotAsMap(ctx.Snapshot) {
		vars[key] = value
	}
	return vars
}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// exportValue converts setting types without a native expression
// representation into plain values.
func exportValue(value any) any {
	switch typed := value.(type) {
	case EnumValue:
		return typed.Name
	case []EnumValue:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item.Name
		}
		return out
	case uuid.UUID:
		return typed.String()
	case *big.Float:
		if typed == nil {
			return float64(0)
		}
		f, _ := typed.Float64()
		return f
	default:
		return value
	}
}
