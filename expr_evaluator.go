package settings

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const engineExpr = "expr"

// exprEvaluator executes rule expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	evaluatorConfig
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. It is the
// evaluator used when none is configured.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	return &exprEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(engineExpr, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(program, ctx.withDefaults(), expression)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(engineExpr, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return compiledRuleFunc(func(ctx RuleContext) (any, error) {
		return e.run(program, ctx.withDefaults(), expression)
	}), nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if cached, ok := e.cached(engineExpr, expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, nil
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		options = append(options, exprlang.Function("call", func(params ...any) (any, error) {
			if len(params) == 0 {
				return nil, fmt.Errorf("call requires function name")
			}
			name, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("call name must be string")
			}
			return e.call(name, params[1:]...)
		}))
		for _, name := range e.functionNames() {
			fn := name
			options = append(options, exprlang.Function(fn, func(params ...any) (any, error) {
				return e.call(fn, params...)
			}))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError(engineExpr, expression, "", err)
	}
	e.store(engineExpr, expression, program)
	return program, nil
}

func (e *exprEvaluator) run(program *exprvm.Program, ctx RuleContext, expression string) (any, error) {
	result, err := exprlang.Run(program, e.bindings(ctx))
	if err != nil {
		return nil, wrapEvaluationError(engineExpr, expression, ctx.scopeLabel(), err)
	}
	return result, nil
}

type compiledRuleFunc func(ctx RuleContext) (any, error)

func (f compiledRuleFunc) Evaluate(ctx RuleContext) (any, error) {
	return f(ctx)
}

func (e *exprEvaluator) engine() string { return engineExpr }
