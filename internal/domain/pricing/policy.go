package pricing

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"fabriq/internal/core/apperror"
	"fabriq/internal/core/types"
)

// Policy is a compiled tenant pricing rule. Tenants configure the rule as a
// CEL expression over the document's discount and totals, e.g.
//
//	doc_discount_pct <= 30.0 && packaging_charge < subtotal
//
// A nil *Policy permits everything.
type Policy struct {
	expr    string
	program cel.Program
}

// PolicyInput carries the variables visible to policy expressions.
type PolicyInput struct {
	DocDiscountPct  types.Money
	DocDiscountAmt  types.Money
	PackagingCharge types.Money
	Subtotal        types.Money
	GrandTotal      types.Money
	LineCount       int
}

// CompilePolicy parses and type-checks a CEL policy expression.
// An empty expression yields a nil policy (no restrictions).
func CompilePolicy(expr string) (*Policy, error) {
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("doc_discount_pct", cel.DoubleType),
		cel.Variable("doc_discount_amount", cel.DoubleType),
		cel.Variable("packaging_charge", cel.DoubleType),
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("grand_total", cel.DoubleType),
		cel.Variable("line_count", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create policy env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile policy %q: %w", expr, iss.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build policy program: %w", err)
	}

	return &Policy{expr: expr, program: program}, nil
}

// Check evaluates the policy against a document's pricing figures.
// Returns a PolicyViolation error when the expression evaluates to false.
func (p *Policy) Check(in PolicyInput) error {
	if p == nil {
		return nil
	}

	out, _, err := p.program.Eval(map[string]any{
		"doc_discount_pct":    in.DocDiscountPct.InexactFloat64(),
		"doc_discount_amount": in.DocDiscountAmt.InexactFloat64(),
		"packaging_charge":    in.PackagingCharge.InexactFloat64(),
		"subtotal":            in.Subtotal.InexactFloat64(),
		"grand_total":         in.GrandTotal.InexactFloat64(),
		"line_count":          int64(in.LineCount),
	})
	if err != nil {
		return apperror.NewInternal(err).WithDetail("policy", p.expr)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return apperror.NewInternal(fmt.Errorf("policy %q did not evaluate to bool", p.expr))
	}
	if !allowed {
		return apperror.NewPolicyViolation(p.expr)
	}
	return nil
}
