//go:build !js_eval

package settings

// NewJSEvaluator is unavailable without the js_eval build tag and returns nil.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	_ = newEvaluatorConfig(opts)
	return nil
}
