package encoder

import (
	"errors"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/c360studio/specverify/contract"
	"github.com/c360studio/specverify/logic"
)

func TestStaticTruthTable(t *testing.T) {
	u := contract.Unknown{Type: contract.Bool(), Provenance: "ext"}
	sym := contract.Binary{Op: contract.OpGt, Left: intRef("x"), Right: intLit(0)}

	tests := []struct {
		name string
		expr contract.Expr
		want truth
	}{
		{"true literal", boolLit(true), tTrue},
		{"false literal", boolLit(false), tFalse},
		{"unknown", u, tUnknown},
		{"symbolic", sym, tSymbolic},
		{"unknown and false", contract.Binary{Op: contract.OpAnd, Left: u, Right: boolLit(false)}, tFalse},
		{"unknown and true", contract.Binary{Op: contract.OpAnd, Left: u, Right: boolLit(true)}, tUnknown},
		{"unknown and unknown", contract.Binary{Op: contract.OpAnd, Left: u, Right: u}, tUnknown},
		{"unknown or true", contract.Binary{Op: contract.OpOr, Left: u, Right: boolLit(true)}, tTrue},
		{"unknown or false", contract.Binary{Op: contract.OpOr, Left: u, Right: boolLit(false)}, tUnknown},
		{"unknown implies anything from false", contract.Binary{Op: contract.OpImplies, Left: boolLit(false), Right: u}, tTrue},
		{"true implies unknown", contract.Binary{Op: contract.OpImplies, Left: boolLit(true), Right: u}, tUnknown},
		{"not unknown", contract.Unary{Op: contract.OpNot, Operand: u}, tUnknown},
		{"unknown and symbolic", contract.Binary{Op: contract.OpAnd, Left: u, Right: sym}, tUnknown},
		{"symbolic and false", contract.Binary{Op: contract.OpAnd, Left: sym, Right: boolLit(false)}, tFalse},
		{"cond on unknown with agreeing branches", contract.Cond{If: u, Then: boolLit(true), Else: boolLit(true)}, tTrue},
		{"cond on unknown with split branches", contract.Cond{If: u, Then: boolLit(true), Else: boolLit(false)}, tUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := staticTruth(tt.expr); got != tt.want {
				t.Errorf("staticTruth() = %v, want %v", got, tt.want)
			}
		})
	}
}

// genKleeneExpr generates boolean expression trees over true/false/unknown
// leaves combined with and/or/not.
func genKleeneExpr(depth int) gopter.Gen {
	leaves := gen.OneGenOf(
		gen.Const(contract.Expr(boolLit(true))),
		gen.Const(contract.Expr(boolLit(false))),
		gen.Const(contract.Expr(contract.Unknown{Type: contract.Bool(), Provenance: "gen"})),
	)
	if depth <= 0 {
		return leaves
	}
	sub := genKleeneExpr(depth - 1)
	return gen.OneGenOf(
		leaves,
		sub.Map(func(e contract.Expr) contract.Expr {
			return contract.Unary{Op: contract.OpNot, Operand: e}
		}),
		gopter.CombineGens(sub, sub).Map(func(vs []interface{}) contract.Expr {
			return contract.Binary{
				Op:    contract.OpAnd,
				Left:  vs[0].(contract.Expr),
				Right: vs[1].(contract.Expr),
			}
		}),
		gopter.CombineGens(sub, sub).Map(func(vs []interface{}) contract.Expr {
			return contract.Binary{
				Op:    contract.OpOr,
				Left:  vs[0].(contract.Expr),
				Right: vs[1].(contract.Expr),
			}
		}),
	)
}

// evalKleene is the reference three-valued evaluation for generated trees.
func evalKleene(e contract.Expr) truth {
	switch x := e.(type) {
	case contract.Literal:
		if x.Value.(bool) {
			return tTrue
		}
		return tFalse
	case contract.Unknown:
		return tUnknown
	case contract.Unary:
		return kleeneNot(evalKleene(x.Operand))
	case contract.Binary:
		if x.Op == contract.OpAnd {
			return kleeneAnd(evalKleene(x.Left), evalKleene(x.Right))
		}
		return kleeneOr(evalKleene(x.Left), evalKleene(x.Right))
	default:
		return tSymbolic
	}
}

func TestStaticTruthMatchesKleeneSemantics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("staticTruth agrees with reference Kleene evaluation", prop.ForAll(
		func(e contract.Expr) bool {
			return staticTruth(e) == evalKleene(e)
		},
		genKleeneExpr(4),
	))

	properties.TestingRun(t)
}

func TestKleeneFoldingNeverLeaksUnknownsToSolver(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	enc := New(nil)

	properties.Property("decided expressions encode to their literal, undecided fail indeterminate", prop.ForAll(
		func(e contract.Expr) bool {
			out, err := enc.EncodeGoal(logic.NewContext(logic.Options{}), goalWithClaim(boolLit(true), e))
			switch evalKleene(e) {
			case tTrue:
				return err == nil && reflect.DeepEqual(out.Assertions[0], logic.True())
			case tFalse:
				return err == nil && reflect.DeepEqual(out.Assertions[0], logic.False())
			default:
				var indet *IndeterminateError
				return errors.As(err, &indet)
			}
		},
		genKleeneExpr(4),
	))

	properties.TestingRun(t)
}
