package settings

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

const engineCEL = "cel"

type celEvaluator struct {
	evaluatorConfig
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Every binding is
// declared as dyn, so the checked program depends on the set of variable
// names; cache entries are keyed accordingly.
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	return &celEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(engineCEL, fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	vars := e.bindings(ctx)
	program, err := e.program(expression, vars)
	if err != nil {
		return nil, wrapEvaluationError(engineCEL, expression, ctx.scopeLabel(), err)
	}
	out, _, err := program.Eval(vars)
	if err != nil {
		return nil, wrapEvaluationError(engineCEL, expression, ctx.scopeLabel(), err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(engineCEL, fmt.Errorf("expression must not be empty"))
	}
	return compiledRuleFunc(func(ctx RuleContext) (any, error) {
		return e.Evaluate(ctx, expression)
	}), nil
}

func (e *celEvaluator) program(expression string, vars map[string]any) (celgo.Program, error) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	cacheKey := expression + "|" + strings.Join(names, ",")

	if cached, ok := e.cached(engineCEL, cacheKey); ok {
		if program, ok := cached.(celgo.Program); ok {
			return program, nil
		}
	}

	options := make([]celgo.EnvOption, 0, len(names)+1)
	for _, name := range names {
		if name == "now" {
			options = append(options, celgo.Variable(name, celgo.TimestampType))
			continue
		}
		options = append(options, celgo.Variable(name, celgo.DynType))
	}
	if e.registry != nil {
		binding := celgo.FunctionBinding(e.callBinding())
		options = append(options, celgo.Function("call",
			celgo.Overload("settings_call_0", []*celgo.Type{celgo.StringType}, celgo.DynType, binding),
			celgo.Overload("settings_call_1", []*celgo.Type{celgo.StringType, celgo.DynType}, celgo.DynType, binding),
			celgo.Overload("settings_call_2", []*celgo.Type{celgo.StringType, celgo.DynType, celgo.DynType}, celgo.DynType, binding),
		))
	}
	env, err := celgo.NewEnv(options...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	e.store(engineCEL, cacheKey, program)
	return program, nil
}

func (e *celEvaluator) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if len(values) == 0 {
			return types.NewErr("settings: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("settings: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

func (e *celEvaluator) engine() string { return engineCEL }
