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

package array_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/vecexpr/build/array"
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/gx-org/vecexpr/golang/backend/processor"
)

// eval compiles an array on vectors of one element and returns its values.
func eval(t *testing.T, a *array.Array) []float64 {
	t.Helper()
	out := make([]float64, a.Size())
	res, err := array.MakeResult(a, out, 1)
	if err != nil {
		t.Fatal(err)
	}
	s, err := graph.Sort(a.Graph(), res.Elements())
	if err != nil {
		t.Fatal(err)
	}
	p, err := processor.New(s, processor.Config{VectorSize: 1, Lanes: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.SetSubset([]int{0}); err != nil {
		t.Fatal(err)
	}
	p.Run()
	return out
}

func constant(t *testing.T, g *graph.Graph, sh indexmap.Shape, values ...float64) *array.Array {
	t.Helper()
	a, err := array.Constant(g, values, sh)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func check(t *testing.T, name string, got *array.Array, err error, wantShape indexmap.Shape, want []float64) {
	t.Helper()
	if err != nil {
		t.Errorf("%s: %+v", name, err)
		return
	}
	if !got.Shape().Equal(wantShape) {
		t.Errorf("%s: got shape %s but want %s", name, got.Shape(), wantShape)
		return
	}
	if diff := cmp.Diff(want, eval(t, got)); diff != "" {
		t.Errorf("%s: unexpected values (-want +got):\n%s", name, diff)
	}
}

func TestElementwise(t *testing.T) {
	g := graph.New()
	row := constant(t, g, indexmap.Shape{1, 3}, 1, 2, 3)
	col := constant(t, g, indexmap.Shape{4, 1}, 10, 20, 30, 40)
	two := array.Scalar(g, 2)
	vec := constant(t, g, indexmap.Shape{3}, 1, 2, 3)
	neg := constant(t, g, indexmap.Shape{2}, 7, -7)

	got, err := array.Add(row, col)
	check(t, "row+col", got, err, indexmap.Shape{4, 3}, []float64{
		11, 12, 13,
		21, 22, 23,
		31, 32, 33,
		41, 42, 43,
	})
	got, err = array.Neg(vec)
	check(t, "-vec", got, err, indexmap.Shape{3}, []float64{-1, -2, -3})
	got, err = array.Gt(vec, two)
	check(t, "vec>2", got, err, indexmap.Shape{3}, []float64{0, 0, 1})
	got, err = array.Ge(vec, two)
	check(t, "vec>=2", got, err, indexmap.Shape{3}, []float64{0, 1, 1})
	got, err = array.FloorDiv(neg, two)
	check(t, "neg//2", got, err, indexmap.Shape{2}, []float64{3, -4})
	got, err = array.Mod(neg, array.Scalar(g, 3))
	check(t, "neg%3", got, err, indexmap.Shape{2}, []float64{1, 2})
	got, err = array.Pow(vec, two)
	check(t, "vec**2", got, err, indexmap.Shape{3}, []float64{1, 4, 9})
	got, err = array.Plus(vec)
	check(t, "+vec", got, err, indexmap.Shape{3}, []float64{1, 2, 3})

	deg, err := array.Deg(array.Scalar(g, math.Pi))
	if err != nil {
		t.Fatal(err)
	}
	if got := eval(t, deg)[0]; math.Abs(got-180) > 1e-12 {
		t.Errorf("got %v but want 180", got)
	}

	if _, err := array.Add(vec, constant(t, g, indexmap.Shape{2}, 1, 2)); err == nil {
		t.Errorf("expected an error when adding shapes (3,) and (2,)")
	}
	if _, err := array.Add(vec, array.None()); err == nil {
		t.Errorf("expected an error when adding a none array")
	}
	if _, err := array.Add(vec, array.Scalar(graph.New(), 1)); err == nil {
		t.Errorf("expected an error when adding arrays from different graphs")
	}
}

func TestIfElse(t *testing.T) {
	g := graph.New()
	cond := constant(t, g, indexmap.Shape{3}, 1, 0, 1)
	onFalse := constant(t, g, indexmap.Shape{3}, 1, 2, 3)
	got, err := array.IfElse(cond, array.Scalar(g, 10), onFalse)
	check(t, "if/else", got, err, indexmap.Shape{3}, []float64{10, 2, 10})

	wide := constant(t, g, indexmap.Shape{2, 1}, 0, 1)
	got, err = array.IfElse(wide, array.Scalar(g, -1), onFalse)
	check(t, "if/else broadcast", got, err, indexmap.Shape{2, 3}, []float64{1, 2, 3, -1, -1, -1})
}

func TestStack(t *testing.T) {
	g := graph.New()
	a := constant(t, g, indexmap.Shape{3}, 1, 2, 3)
	b := constant(t, g, indexmap.Shape{3}, 4, 5, 6)
	got, err := array.Stack([]*array.Array{a, a}, 0)
	check(t, "stack a,a", got, err, indexmap.Shape{2, 3}, []float64{1, 2, 3, 1, 2, 3})
	got, err = array.Stack([]*array.Array{a, b}, 1)
	check(t, "stack axis 1", got, err, indexmap.Shape{3, 2}, []float64{1, 4, 2, 5, 3, 6})
	got, err = array.Stack([]*array.Array{a, b, a}, -1)
	check(t, "stack axis -1", got, err, indexmap.Shape{3, 3}, []float64{1, 4, 1, 2, 5, 2, 3, 6, 3})
	got, err = array.Stack([]*array.Array{b}, 0)
	check(t, "stack single", got, err, indexmap.Shape{1, 3}, []float64{4, 5, 6})

	if _, err := array.Stack(nil, 0); err == nil {
		t.Errorf("expected an error when stacking an empty list")
	}
	c := constant(t, g, indexmap.Shape{2}, 1, 2)
	if _, err := array.Stack([]*array.Array{a, c}, 0); err == nil {
		t.Errorf("expected an error when stacking shapes (3,) and (2,)")
	}
	if _, err := array.Stack([]*array.Array{a, b}, 2); err == nil {
		t.Errorf("expected an error when stacking in axis 2")
	}
}

func TestConcatenate(t *testing.T) {
	g := graph.New()
	a := constant(t, g, indexmap.Shape{2}, 1, 2)
	b := constant(t, g, indexmap.Shape{3}, 3, 4, 5)
	m := constant(t, g, indexmap.Shape{2, 2}, 1, 2, 3, 4)
	v := constant(t, g, indexmap.Shape{2}, 5, 6)

	got, err := array.Concatenate([]*array.Array{a, b}, 0)
	check(t, "a,b", got, err, indexmap.Shape{5}, []float64{1, 2, 3, 4, 5})
	got, err = array.Concatenate([]*array.Array{m, v}, 0)
	check(t, "m,v axis 0", got, err, indexmap.Shape{3, 2}, []float64{1, 2, 3, 4, 5, 6})
	got, err = array.Concatenate([]*array.Array{m, v}, 1)
	check(t, "m,v axis 1", got, err, indexmap.Shape{2, 3}, []float64{1, 2, 5, 3, 4, 6})
	got, err = array.Append(m, v, -1)
	check(t, "append", got, err, indexmap.Shape{2, 3}, []float64{1, 2, 5, 3, 4, 6})
	got, err = array.Append(array.None(), v, 0)
	check(t, "append to none", got, err, indexmap.Shape{1, 2}, []float64{5, 6})

	none, err := array.Concatenate(nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !none.IsNone() {
		t.Errorf("got %v but want none", none)
	}
	if _, err := array.Concatenate([]*array.Array{m, b}, 0); err == nil {
		t.Errorf("expected an error when concatenating shapes (2, 2) and (3,)")
	}
	if _, err := array.Concatenate([]*array.Array{array.Scalar(g, 1), array.Scalar(g, 2)}, 0); err == nil {
		t.Errorf("expected an error when concatenating scalars")
	}
}

func TestMatMul(t *testing.T) {
	g := graph.New()
	eye, err := array.Eye(g, 2)
	if err != nil {
		t.Fatal(err)
	}
	v := constant(t, g, indexmap.Shape{2}, 7, 9)
	got, err := array.MatMul(eye, v)
	check(t, "eye@v", got, err, indexmap.Shape{2}, []float64{7, 9})

	a := constant(t, g, indexmap.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	b := constant(t, g, indexmap.Shape{3, 2}, 7, 8, 9, 10, 11, 12)
	got, err = array.MatMul(a, b)
	check(t, "(2,3)@(3,2)", got, err, indexmap.Shape{2, 2}, []float64{58, 64, 139, 154})

	x := constant(t, g, indexmap.Shape{3}, 1, 2, 3)
	y := constant(t, g, indexmap.Shape{3}, 4, 5, 6)
	got, err = array.MatMul(x, y)
	check(t, "x@y", got, err, indexmap.Shape{}, []float64{32})
	got, err = array.MatMul(x, b)
	check(t, "x@b", got, err, indexmap.Shape{2}, []float64{58, 64})

	batch := constant(t, g, indexmap.Shape{2, 2, 2}, 1, 0, 0, 1, 2, 0, 0, 2)
	got, err = array.MatMul(batch, constant(t, g, indexmap.Shape{2}, 3, 4))
	check(t, "batch@v", got, err, indexmap.Shape{2, 2}, []float64{3, 4, 6, 8})

	if _, err := array.MatMul(a, a); err == nil {
		t.Errorf("expected an error when multiplying (2,3) by (2,3)")
	}
	if _, err := array.MatMul(array.Scalar(g, 1), a); err == nil {
		t.Errorf("expected an error when multiplying a scalar")
	}
	empty := constant(t, g, indexmap.Shape{0})
	if _, err := array.MatMul(empty, empty); err == nil {
		t.Errorf("expected an error with an empty contraction axis")
	}
}

func TestSubscribe(t *testing.T) {
	g := graph.New()
	a := constant(t, g, indexmap.Shape{2, 3}, 0, 1, 2, 3, 4, 5)
	unset := indexmap.Unset
	tests := []struct {
		name  string
		subs  []array.Subscript
		shape indexmap.Shape
		want  []float64
	}{
		{
			name:  "a[1]",
			subs:  []array.Subscript{array.Index(1)},
			shape: indexmap.Shape{3},
			want:  []float64{3, 4, 5},
		},
		{
			name:  "a[:, ::-1]",
			subs:  []array.Subscript{array.All(), array.Slice(unset, unset, -1)},
			shape: indexmap.Shape{2, 3},
			want:  []float64{2, 1, 0, 5, 4, 3},
		},
		{
			name:  "a[-1, [0, 2]]",
			subs:  []array.Subscript{array.Index(-1), array.List(0, 2)},
			shape: indexmap.Shape{2},
			want:  []float64{3, 5},
		},
		{
			name:  "a[None]",
			subs:  []array.Subscript{array.NewAxis()},
			shape: indexmap.Shape{1, 2, 3},
			want:  []float64{0, 1, 2, 3, 4, 5},
		},
		{
			name:  "a[1:]",
			subs:  []array.Subscript{array.Slice(1, unset, unset)},
			shape: indexmap.Shape{1, 3},
			want:  []float64{3, 4, 5},
		},
		{
			name:  "a[0, 1]",
			subs:  []array.Subscript{array.Index(0), array.Index(1)},
			shape: indexmap.Shape{},
			want:  []float64{1},
		},
	}
	for _, test := range tests {
		got, err := array.Subscribe(a, test.subs...)
		check(t, test.name, got, err, test.shape, test.want)
	}

	for _, subs := range [][]array.Subscript{
		{array.Index(2)},
		{array.Index(0), array.Index(0), array.Index(0)},
		{array.Slice(0, 1, 0)},
	} {
		if _, err := array.Subscribe(a, subs...); err == nil {
			t.Errorf("expected an error for subscripts %v", subs)
		}
	}
}

// TestDifference computes v[1:] - v[:-1].
func TestDifference(t *testing.T) {
	g := graph.New()
	v := constant(t, g, indexmap.Shape{4}, 1, 4, 9, 16)
	unset := indexmap.Unset
	tail, err := array.Subscribe(v, array.Slice(1, unset, unset))
	if err != nil {
		t.Fatal(err)
	}
	head, err := array.Subscribe(v, array.Slice(unset, -1, unset))
	if err != nil {
		t.Fatal(err)
	}
	diff, err := array.Sub(tail, head)
	check(t, "v[1:] - v[:-1]", diff, err, indexmap.Shape{3}, []float64{3, 5, 7})
}

func TestConstructors(t *testing.T) {
	g := graph.New()
	none, err := array.Constant(g, []float64{array.NoneValue}, indexmap.Shape{})
	if err != nil {
		t.Fatal(err)
	}
	if !none.IsNone() {
		t.Errorf("got %v but want none", none)
	}
	if _, err := array.Constant(g, []float64{1, 2}, indexmap.Shape{3}); err == nil {
		t.Errorf("expected an error for 2 values in shape (3,)")
	}
	if _, err := array.Eye(g, 0); err == nil {
		t.Errorf("expected an error for an identity matrix of size 0")
	}
	if _, err := array.Zeros(g, indexmap.Shape{-1}); err == nil {
		t.Errorf("expected an error for a negative shape")
	}
	if _, err := array.Value(g, make([]float64, 3), 2, indexmap.Shape{2}); err == nil {
		t.Errorf("expected an error for a value window too small")
	}
	if _, err := array.Value(g, make([]float64, 3), 0, indexmap.Shape{2}); err == nil {
		t.Errorf("expected an error for a stride of 0")
	}

	eye, err := array.Eye(g, 3)
	check(t, "eye", eye, err, indexmap.Shape{3, 3}, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	flat, err := array.Flatten(eye)
	check(t, "flatten", flat, err, indexmap.Shape{9}, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	ones, err := array.Ones(g, indexmap.Shape{2})
	check(t, "ones", ones, err, indexmap.Shape{2}, []float64{1, 1})
	full, err := array.Full(g, indexmap.Shape{1, 2}, 7)
	check(t, "full", full, err, indexmap.Shape{1, 2}, []float64{7, 7})
	bcast, err := array.Broadcast(constant(t, g, indexmap.Shape{1, 3}, 1, 2, 3), indexmap.Shape{4, 3})
	check(t, "broadcast", bcast, err, indexmap.Shape{4, 3}, []float64{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2, 3})
	promoted, err := array.PromoteInAxis(ones, -1)
	check(t, "promote", promoted, err, indexmap.Shape{2, 1}, []float64{1, 1})

	bs := eye.BackendShape()
	if bs.DType != dtype.Float64 {
		t.Errorf("got %v but want %v", bs.DType, dtype.Float64)
	}
	if diff := cmp.Diff([]int{3, 3}, bs.AxisLengths); diff != "" {
		t.Errorf("unexpected axis lengths (-want +got):\n%s", diff)
	}
	h, err := eye.At(-1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if h != g.Constant(1) {
		t.Errorf("got node %d but want node %d", h, g.Constant(1))
	}
}

func TestValues(t *testing.T) {
	const stride = 4
	g := graph.New()
	data := []float64{1, 2, 3, 4, 10, 20, 30, 40}
	v, err := array.Value(g, data, stride, indexmap.Shape{2})
	if err != nil {
		t.Fatal(err)
	}
	first, err := array.Subscribe(v, array.Index(0))
	if err != nil {
		t.Fatal(err)
	}
	last, err := array.Subscribe(v, array.Index(-1))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := array.Add(first, last)
	if err != nil {
		t.Fatal(err)
	}
	out := make([]float64, stride)
	res, err := array.MakeResult(sum, out, stride)
	if err != nil {
		t.Fatal(err)
	}
	s, err := graph.Sort(g, res.Elements())
	if err != nil {
		t.Fatal(err)
	}
	p, err := processor.New(s, processor.Config{VectorSize: stride, Lanes: 2})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	if err := p.SetSubset([]int{1}); err != nil {
		t.Fatal(err)
	}
	p.Run()
	if diff := cmp.Diff([]float64{0, 0, 33, 44}, out); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
	if _, err := array.MakeResult(sum, out, stride+1); err == nil {
		t.Errorf("expected an error for a result window too small")
	}
}
