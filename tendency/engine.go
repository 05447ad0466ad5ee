package tendency

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine evaluates compiled tendency formulas. It is immutable after
// Compile and safe to share between controllers.
type Engine struct {
	formulas  [numKinds]formula
	fallbacks [numKinds]formula
}

// Compile turns every formula into expr bytecode. Empty sources are
// rejected so a config file cannot silently zero a tendency.
func Compile(f Formulas) (*Engine, error) {
	e := &Engine{}
	var errs []error
	for k := Kind(0); k < numKinds; k++ {
		prog, err := compileOne(k, f.source(k))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		e.formulas[k] = prog
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	def := DefaultFormulas()
	for k := Kind(0); k < numKinds; k++ {
		prog, err := compileOne(k, def.source(k))
		if err != nil {
			return nil, fmt.Errorf("default %s: %w", k, err)
		}
		e.fallbacks[k] = prog
	}
	return e, nil
}

// MustCompileDefaults compiles DefaultFormulas and panics on failure. Used
// by tests and by callers that never load formulas from a file.
func MustCompileDefaults() *Engine {
	e, err := Compile(DefaultFormulas())
	if err != nil {
		panic(err)
	}
	return e
}

func compileOne(k Kind, src string) (formula, error) {
	if strings.TrimSpace(src) == "" {
		return formula{}, fmt.Errorf("tendency %q: empty formula", k)
	}
	prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsFloat64())
	if err != nil {
		return formula{}, fmt.Errorf("compile tendency %q: %w", k, err)
	}
	return formula{kind: k, Source: src, program: prog}, nil
}

// Evaluate computes every tendency for env. A formula that errors or yields
// NaN/Inf is replaced by the default formula's value and its kind is
// reported in failed.
func (e *Engine) Evaluate(env Env) (t Tendencies, failed []Kind) {
	for k := Kind(0); k < numKinds; k++ {
		v, err := run(e.formulas[k], env)
		if err != nil {
			failed = append(failed, k)
			v, err = run(e.fallbacks[k], env)
			if err != nil {
				v = 0
			}
		}
		t.set(k, v)
	}
	return t, failed
}

// Source returns the expr source compiled for k.
func (e *Engine) Source(k Kind) string { return e.formulas[k].Source }

func run(f formula, env Env) (float64, error) {
	if f.program == nil {
		return 0, fmt.Errorf("tendency %q not compiled", f.kind)
	}
	out, err := vm.Run(f.program, env)
	if err != nil {
		return 0, err
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("tendency %q returned %T", f.kind, out)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("tendency %q is not finite", f.kind)
	}
	return v, nil
}
