//go:build js_eval

package settings

import (
	"fmt"

	"github.com/dop251/goja"
)

const engineJS = "js"

type jsEvaluator struct {
	evaluatorConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh runtime.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	return &jsEvaluator{evaluatorConfig: newEvaluatorConfig(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(engineJS, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx.withDefaults(), expression, program)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(engineJS, fmt.Errorf("expression must not be empty"))
	}
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return compiledRuleFunc(func(ctx RuleContext) (any, error) {
		return e.run(ctx.withDefaults(), expression, program)
	}), nil
}

func (e *jsEvaluator) program(expression string) (*goja.Program, error) {
	if cached, ok := e.cached(engineJS, expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, wrapEvaluationError(engineJS, expression, "", err)
	}
	e.store(engineJS, expression, program)
	return program, nil
}

func (e *jsEvaluator) run(ctx RuleContext, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	for name, value := range e.bindings(ctx) {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError(engineJS, expression, ctx.scopeLabel(), err)
		}
	}
	if e.registry != nil {
		_ = vm.Set("call", func(name string, arguments ...any) (any, error) {
			return e.call(name, arguments...)
		})
		for _, name := range e.functionNames() {
			fn := name
			_ = vm.Set(fn, func(arguments ...any) (any, error) {
				return e.call(fn, arguments...)
			})
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError(engineJS, expression, ctx.scopeLabel(), err)
	}
	return value.Export(), nil
}

func (e *jsEvaluator) engine() string { return engineJS }
