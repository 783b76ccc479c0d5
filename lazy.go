// FILE: lixenwraith/layered/lazy.go
package layered

import (
	"fmt"
	"maps"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// LazyContext is handed to a Lazy value when it is evaluated.
type LazyContext struct {
	// This and Args come from ReadOptions.LazyThis and ReadOptions.LazyArgs.
	This any
	Args []any
	// View is the merged view at evaluation time. It must not be modified.
	View map[string]any
}

// Lazy is a deferred value, computed only when a read needs it and lazy
// evaluation is enabled for that read.
type Lazy interface {
	Resolve(ctx LazyContext) (any, error)
}

// LazyFunc adapts a function to Lazy.
type LazyFunc func(ctx LazyContext) (any, error)

// Resolve implements Lazy.
func (f LazyFunc) Resolve(ctx LazyContext) (any, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx)
}

// Value wraps a constant as Lazy.
func Value(v any) Lazy {
	return LazyFunc(func(LazyContext) (any, error) { return v, nil })
}

// asLazy recognises Lazy implementations and bare functions of the LazyFunc
// or func() any shape.
func asLazy(v any) (Lazy, bool) {
	switch fn := v.(type) {
	case Lazy:
		return fn, true
	case func(LazyContext) (any, error):
		return LazyFunc(fn), true
	case func() any:
		return LazyFunc(func(LazyContext) (any, error) { return fn(), nil }), true
	}
	return nil, false
}

// Expr returns a Lazy that evaluates an expr-lang expression. The expression
// sees the top-level keys of the merged view as variables, plus self (the
// LazyThis value) and args (the LazyArgs slice). Unknown variables are nil.
// The program is compiled on first evaluation.
func Expr(expression string) Lazy {
	return &exprValue{expression: expression}
}

type exprValue struct {
	expression string
	program    *exprvm.Program
	compileErr error
}

func (e *exprValue) Resolve(ctx LazyContext) (any, error) {
	if e.program == nil && e.compileErr == nil {
		if e.expression == "" {
			e.compileErr = fmt.Errorf("expression must not be empty")
		} else {
			e.program, e.compileErr = exprlang.Compile(e.expression, exprlang.AllowUndefinedVariables())
		}
	}
	if e.compileErr != nil {
		return nil, fmt.Errorf("compile %q: %w", e.expression, e.compileErr)
	}

	env := make(map[string]any, len(ctx.View)+2)
	maps.Copy(env, ctx.View)
	env["self"] = ctx.This
	env["args"] = ctx.Args

	result, err := exprlang.Run(e.program, env)
	if err != nil {
		return nil, fmt.Errorf("run %q: %w", e.expression, err)
	}
	return result, nil
}

func (e *exprValue) String() string {
	return "expr(" + e.expression + ")"
}
