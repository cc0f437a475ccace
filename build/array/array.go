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

// Package array builds arrays of graph nodes.
//
// An array has a shape and one graph node per element, stored in row-major
// order. Operations on arrays add scalar nodes to the graph of their
// operands. Elements are mapped between operands and results with
// the ranges of the indexmap package.
package array

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/pkg/errors"
)

// NoneValue is the constant representing the none array.
// It is a signaling NaN never produced by arithmetic.
var NoneValue = math.Float64frombits(noneBits)

const noneBits = 0x7ff4000000000000

// Array is a shaped collection of graph nodes.
type Array struct {
	g     *graph.Graph
	shape indexmap.Shape
	elems []graph.Handle
}

// None returns the array representing an absent operand.
func None() *Array {
	return &Array{}
}

func newArray(g *graph.Graph, sh indexmap.Shape) *Array {
	return &Array{
		g:     g,
		shape: sh,
		elems: make([]graph.Handle, sh.Size()),
	}
}

// IsNone returns true if the array is the none array.
func (a *Array) IsNone() bool {
	return a == nil || a.g == nil
}

// Graph returns the graph of the array nodes.
func (a *Array) Graph() *graph.Graph {
	return a.g
}

// Shape returns the shape of the array.
func (a *Array) Shape() indexmap.Shape {
	return a.shape
}

// Rank returns the number of axes of the array.
func (a *Array) Rank() int {
	return len(a.shape)
}

// Size returns the number of elements in the array.
func (a *Array) Size() int {
	return len(a.elems)
}

// Elements returns the nodes of the array in row-major order.
func (a *Array) Elements() []graph.Handle {
	return a.elems
}

// At returns the node at a given multi-index.
func (a *Array) At(index ...int) (graph.Handle, error) {
	if len(index) != len(a.shape) {
		return -1, errors.Errorf("%d indices given to an array of shape %s", len(index), a.shape)
	}
	offset := 0
	for axis, i := range index {
		abs, err := indexmap.AbsoluteIndex(i, a.shape[axis])
		if err != nil {
			return -1, errors.Wrapf(err, "axis %d", axis)
		}
		offset = offset*a.shape[axis] + abs
	}
	return a.elems[offset], nil
}

// BackendShape returns the shape of the array in the backend representation.
func (a *Array) BackendShape() *shape.Shape {
	return &shape.Shape{
		DType:       dtype.Float64,
		AxisLengths: slices.Clone(a.shape),
	}
}

// Reshape returns an array sharing the nodes of a with a new shape.
func Reshape(a *Array, sh indexmap.Shape) (*Array, error) {
	if a.IsNone() {
		return nil, errors.Errorf("cannot reshape none array")
	}
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	if sh.Size() != a.Size() {
		return nil, errors.Errorf("cannot reshape array of shape %s into shape %s", a.shape, sh)
	}
	return &Array{g: a.g, shape: sh.Clone(), elems: a.elems}, nil
}

// Flatten returns a one-axis array with all the elements of a.
func Flatten(a *Array) (*Array, error) {
	return Reshape(a, indexmap.Shape{a.Size()})
}

// MakeResult exposes every element of a in caller memory.
// Element i is written in data[i*stride:(i+1)*stride].
func MakeResult(a *Array, data []float64, stride int) (*Array, error) {
	if a.IsNone() {
		return nil, errors.Errorf("cannot store none array in a result")
	}
	if err := checkWindow(a.shape, len(data), stride); err != nil {
		return nil, errors.Wrap(err, "result")
	}
	res := newArray(a.g, a.shape.Clone())
	for i, el := range a.elems {
		var err error
		if res.elems[i], err = a.g.Result(el, data[i*stride:(i+1)*stride]); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func checkWindow(sh indexmap.Shape, size, stride int) error {
	if stride <= 0 {
		return errors.Errorf("invalid stride %d: must be positive", stride)
	}
	if want := sh.Size() * stride; size < want {
		return errors.Errorf("%d float64 given for an array of shape %s with stride %d: need %d", size, sh, stride, want)
	}
	return nil
}

func (a *Array) String() string {
	if a.IsNone() {
		return "none"
	}
	elems := make([]string, len(a.elems))
	for i, el := range a.elems {
		elems[i] = fmt.Sprintf("%%%d", el)
	}
	return fmt.Sprintf("%s[%s]", a.shape, strings.Join(elems, " "))
}
