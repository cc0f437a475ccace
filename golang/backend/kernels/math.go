// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernels

import (
	"math"

	"github.com/gx-org/vecexpr/build/graph"
	"github.com/pkg/errors"
)

func fromBool(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		// Zero and NaN.
		return x
	}
}

// mod returns the remainder of x/y with the sign of y.
func mod(x, y float64) float64 {
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return r
}

var unaryFuncs = map[graph.Op]func(float64) float64{
	graph.OpCopy:  func(x float64) float64 { return x },
	graph.OpNeg:   func(x float64) float64 { return -x },
	graph.OpNot:   func(x float64) float64 { return fromBool(x == 0) },
	graph.OpAbs:   math.Abs,
	graph.OpSqrt:  math.Sqrt,
	graph.OpExp:   math.Exp,
	graph.OpLog:   math.Log,
	graph.OpLog10: math.Log10,
	graph.OpSin:   math.Sin,
	graph.OpSinh:  math.Sinh,
	graph.OpAsin:  math.Asin,
	graph.OpCos:   math.Cos,
	graph.OpCosh:  math.Cosh,
	graph.OpAcos:  math.Acos,
	graph.OpTan:   math.Tan,
	graph.OpTanh:  math.Tanh,
	graph.OpAtan:  math.Atan,
	graph.OpCeil:  math.Ceil,
	graph.OpFloor: math.Floor,
	graph.OpIsNaN: func(x float64) float64 { return fromBool(math.IsNaN(x)) },
	graph.OpIsInf: func(x float64) float64 { return fromBool(math.IsInf(x, 0)) },
	graph.OpSign:  sign,
}

var binaryFuncs = map[graph.Op]func(float64, float64) float64{
	graph.OpAdd:   func(x, y float64) float64 { return x + y },
	graph.OpSub:   func(x, y float64) float64 { return x - y },
	graph.OpMul:   func(x, y float64) float64 { return x * y },
	graph.OpDiv:   func(x, y float64) float64 { return x / y },
	graph.OpMod:   mod,
	graph.OpPow:   math.Pow,
	graph.OpAtan2: math.Atan2,
	graph.OpMax:   math.Max,
	graph.OpMin:   math.Min,
	graph.OpEq:    func(x, y float64) float64 { return fromBool(x == y) },
	graph.OpNe:    func(x, y float64) float64 { return fromBool(x != y) },
	graph.OpLt:    func(x, y float64) float64 { return fromBool(x < y) },
	graph.OpLe:    func(x, y float64) float64 { return fromBool(x <= y) },
	graph.OpAnd:   func(x, y float64) float64 { return fromBool(x != 0 && y != 0) },
	graph.OpOr:    func(x, y float64) float64 { return fromBool(x != 0 || y != 0) },
}

var ternaryFuncs = map[graph.Op]func(float64, float64, float64) float64{
	graph.OpSelect: func(dst, cond, val float64) float64 {
		if cond != 0 {
			return val
		}
		return dst
	},
}

// Eval applies an operation to scalar operands.
func Eval(op graph.Op, x ...float64) (float64, error) {
	if op.Arity() != len(x) {
		return 0, errors.Errorf("operation %s expects %d operands but got %d", op, op.Arity(), len(x))
	}
	switch len(x) {
	case 1:
		if f := unaryFuncs[op]; f != nil {
			return f(x[0]), nil
		}
	case 2:
		if f := binaryFuncs[op]; f != nil {
			return f(x[0], x[1]), nil
		}
	case 3:
		if f := ternaryFuncs[op]; f != nil {
			return f(x[0], x[1], x[2]), nil
		}
	}
	return 0, errors.Errorf("operation %s has no kernel", op)
}
