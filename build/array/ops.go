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

package array

import (
	"math"

	"github.com/gx-org/vecexpr/build/fmterr"
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/pkg/errors"
)

func operandGraph(op graph.Op, xs ...*Array) (*graph.Graph, error) {
	var g *graph.Graph
	for i, x := range xs {
		if x.IsNone() {
			return nil, errors.Errorf("operand %d of %s is none", i, op)
		}
		if g == nil {
			g = x.g
			continue
		}
		if x.g != g {
			return nil, errors.Errorf("operands of %s belong to different graphs", op)
		}
	}
	return g, nil
}

// broadcastCursors returns a cursor for every operand broadcast to the common
// shape of all the operands.
func broadcastCursors(xs ...*Array) (indexmap.Shape, []*indexmap.Cursor, error) {
	sh := xs[0].shape
	for _, x := range xs[1:] {
		var err error
		if sh, err = indexmap.CommonShape(sh, x.shape); err != nil {
			return nil, nil, err
		}
	}
	cursors := make([]*indexmap.Cursor, len(xs))
	for i, x := range xs {
		r, err := indexmap.New(x.shape).Broadcast(sh)
		if err != nil {
			return nil, nil, err
		}
		cursors[i] = indexmap.NewCursor(r)
	}
	return sh, cursors, nil
}

// lockStep calls f for every element of the destination with the source
// offsets of every cursor.
func lockStep(cursors []*indexmap.Cursor, f func(dest int, srcs []int) error) error {
	srcs := make([]int, len(cursors))
	for cursors[0].Valid() {
		dest := cursors[0].Dest()
		for i, c := range cursors {
			fmterr.Check(c.Valid(), "cursor %d exhausted before cursor 0", i)
			fmterr.Check(c.Dest() == dest, "cursor %d at destination %d but cursor 0 at destination %d", i, c.Dest(), dest)
			srcs[i] = c.Source()
		}
		if err := f(dest, srcs); err != nil {
			return err
		}
		for _, c := range cursors {
			c.Next()
		}
	}
	return nil
}

// Unary applies an operation to every element of a.
func Unary(op graph.Op, a *Array) (*Array, error) {
	g, err := operandGraph(op, a)
	if err != nil {
		return nil, err
	}
	res := newArray(g, a.shape.Clone())
	for i, el := range a.elems {
		if res.elems[i], err = g.Apply(op, el); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Binary applies an operation to the elements of a and b broadcast together.
func Binary(op graph.Op, a, b *Array) (*Array, error) {
	g, err := operandGraph(op, a, b)
	if err != nil {
		return nil, err
	}
	sh, cursors, err := broadcastCursors(a, b)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", op)
	}
	res := newArray(g, sh)
	if err := lockStep(cursors, func(dest int, srcs []int) (err error) {
		res.elems[dest], err = g.Apply(op, a.elems[srcs[0]], b.elems[srcs[1]])
		return
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// IfElse returns, for every element, onTrue if cond is not zero and
// onFalse otherwise. All three arrays are broadcast together.
func IfElse(cond, onTrue, onFalse *Array) (*Array, error) {
	g, err := operandGraph(graph.OpSelect, cond, onTrue, onFalse)
	if err != nil {
		return nil, err
	}
	sh, cursors, err := broadcastCursors(cond, onTrue, onFalse)
	if err != nil {
		return nil, errors.Wrap(err, "if/else")
	}
	res := newArray(g, sh)
	if err := lockStep(cursors, func(dest int, srcs []int) error {
		acc, err := g.Copy(onFalse.elems[srcs[2]])
		if err != nil {
			return err
		}
		res.elems[dest], err = g.ApplyInPlace(graph.OpSelect, acc, cond.elems[srcs[0]], onTrue.elems[srcs[1]])
		return err
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Broadcast returns an array of a given shape repeating the elements of a.
func Broadcast(a *Array, sh indexmap.Shape) (*Array, error) {
	if a.IsNone() {
		return nil, errors.Errorf("cannot broadcast none array")
	}
	r, err := indexmap.New(a.shape).Broadcast(sh)
	if err != nil {
		return nil, err
	}
	res := newArray(a.g, sh.Clone())
	for c := indexmap.NewCursor(r); c.Valid(); c.Next() {
		res.elems[c.Dest()] = a.elems[c.Source()]
	}
	return res, nil
}

func scaled(a *Array, factor float64) (*Array, error) {
	if a.IsNone() {
		return nil, errors.Errorf("operand of %s is none", graph.OpMul)
	}
	return Binary(graph.OpMul, a, Scalar(a.g, factor))
}

// Add returns a + b.
func Add(a, b *Array) (*Array, error) { return Binary(graph.OpAdd, a, b) }

// Sub returns a - b.
func Sub(a, b *Array) (*Array, error) { return Binary(graph.OpSub, a, b) }

// Mul returns a * b.
func Mul(a, b *Array) (*Array, error) { return Binary(graph.OpMul, a, b) }

// Div returns a / b.
func Div(a, b *Array) (*Array, error) { return Binary(graph.OpDiv, a, b) }

// Mod returns a modulo b, with the sign of b.
func Mod(a, b *Array) (*Array, error) { return Binary(graph.OpMod, a, b) }

// FloorDiv returns floor(a / b).
func FloorDiv(a, b *Array) (*Array, error) {
	div, err := Div(a, b)
	if err != nil {
		return nil, err
	}
	return Floor(div)
}

// Pow returns a to the power b.
func Pow(a, b *Array) (*Array, error) { return Binary(graph.OpPow, a, b) }

// Atan2 returns the arc tangent of a/b.
func Atan2(a, b *Array) (*Array, error) { return Binary(graph.OpAtan2, a, b) }

// Max returns the maximum of a and b.
func Max(a, b *Array) (*Array, error) { return Binary(graph.OpMax, a, b) }

// Min returns the minimum of a and b.
func Min(a, b *Array) (*Array, error) { return Binary(graph.OpMin, a, b) }

// Eq returns a == b.
func Eq(a, b *Array) (*Array, error) { return Binary(graph.OpEq, a, b) }

// Ne returns a != b.
func Ne(a, b *Array) (*Array, error) { return Binary(graph.OpNe, a, b) }

// Lt returns a < b.
func Lt(a, b *Array) (*Array, error) { return Binary(graph.OpLt, a, b) }

// Le returns a <= b.
func Le(a, b *Array) (*Array, error) { return Binary(graph.OpLe, a, b) }

// Gt returns a > b.
func Gt(a, b *Array) (*Array, error) { return Binary(graph.OpLt, b, a) }

// Ge returns a >= b.
func Ge(a, b *Array) (*Array, error) { return Binary(graph.OpLe, b, a) }

// And returns the logical and of a and b.
func And(a, b *Array) (*Array, error) { return Binary(graph.OpAnd, a, b) }

// Or returns the logical or of a and b.
func Or(a, b *Array) (*Array, error) { return Binary(graph.OpOr, a, b) }

// Not returns the logical negation of a.
func Not(a *Array) (*Array, error) { return Unary(graph.OpNot, a) }

// Neg returns -a.
func Neg(a *Array) (*Array, error) { return Unary(graph.OpNeg, a) }

// Plus returns +a, that is a.
func Plus(a *Array) (*Array, error) {
	if a.IsNone() {
		return nil, errors.Errorf("operand of unary plus is none")
	}
	return a, nil
}

// Abs returns |a|.
func Abs(a *Array) (*Array, error) { return Unary(graph.OpAbs, a) }

// Sqrt returns the square root of a.
func Sqrt(a *Array) (*Array, error) { return Unary(graph.OpSqrt, a) }

// Exp returns e to the power a.
func Exp(a *Array) (*Array, error) { return Unary(graph.OpExp, a) }

// Log returns the natural logarithm of a.
func Log(a *Array) (*Array, error) { return Unary(graph.OpLog, a) }

// Log10 returns the decimal logarithm of a.
func Log10(a *Array) (*Array, error) { return Unary(graph.OpLog10, a) }

// Sin returns the sine of a.
func Sin(a *Array) (*Array, error) { return Unary(graph.OpSin, a) }

// Sinh returns the hyperbolic sine of a.
func Sinh(a *Array) (*Array, error) { return Unary(graph.OpSinh, a) }

// Asin returns the arc sine of a.
func Asin(a *Array) (*Array, error) { return Unary(graph.OpAsin, a) }

// Cos returns the cosine of a.
func Cos(a *Array) (*Array, error) { return Unary(graph.OpCos, a) }

// Cosh returns the hyperbolic cosine of a.
func Cosh(a *Array) (*Array, error) { return Unary(graph.OpCosh, a) }

// Acos returns the arc cosine of a.
func Acos(a *Array) (*Array, error) { return Unary(graph.OpAcos, a) }

// Tan returns the tangent of a.
func Tan(a *Array) (*Array, error) { return Unary(graph.OpTan, a) }

// Tanh returns the hyperbolic tangent of a.
func Tanh(a *Array) (*Array, error) { return Unary(graph.OpTanh, a) }

// Atan returns the arc tangent of a.
func Atan(a *Array) (*Array, error) { return Unary(graph.OpAtan, a) }

// Ceil returns the least integer value greater than or equal to a.
func Ceil(a *Array) (*Array, error) { return Unary(graph.OpCeil, a) }

// Floor returns the greatest integer value less than or equal to a.
func Floor(a *Array) (*Array, error) { return Unary(graph.OpFloor, a) }

// IsNaN returns 1 where a is not a number.
func IsNaN(a *Array) (*Array, error) { return Unary(graph.OpIsNaN, a) }

// IsInf returns 1 where a is infinite.
func IsInf(a *Array) (*Array, error) { return Unary(graph.OpIsInf, a) }

// Sign returns -1, 0, or 1 depending on the sign of a.
func Sign(a *Array) (*Array, error) { return Unary(graph.OpSign, a) }

// Deg converts radians to degrees.
func Deg(a *Array) (*Array, error) { return scaled(a, 180/math.Pi) }

// Rad converts degrees to radians.
func Rad(a *Array) (*Array, error) { return scaled(a, math.Pi/180) }
