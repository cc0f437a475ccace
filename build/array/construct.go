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

	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/pkg/errors"
)

// Constant returns an array of constant nodes.
// A single NoneValue returns the none array.
func Constant(g *graph.Graph, values []float64, sh indexmap.Shape) (*Array, error) {
	if len(values) == 1 && len(sh) == 0 && math.Float64bits(values[0]) == noneBits {
		return None(), nil
	}
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	if len(values) != sh.Size() {
		return nil, errors.Errorf("%d values given for a constant of shape %s", len(values), sh)
	}
	a := newArray(g, sh.Clone())
	for i, v := range values {
		a.elems[i] = g.Constant(v)
	}
	return a, nil
}

// Scalar returns a scalar constant.
func Scalar(g *graph.Graph, v float64) *Array {
	return &Array{g: g, shape: indexmap.Shape{}, elems: []graph.Handle{g.Constant(v)}}
}

// Value returns an array reading caller memory.
// Element i reads data[i*stride:(i+1)*stride].
func Value(g *graph.Graph, data []float64, stride int, sh indexmap.Shape) (*Array, error) {
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	if err := checkWindow(sh, len(data), stride); err != nil {
		return nil, errors.Wrap(err, "value")
	}
	a := newArray(g, sh.Clone())
	for i := range a.elems {
		a.elems[i] = g.Value(data[i*stride : (i+1)*stride])
	}
	return a, nil
}

// Full returns an array of a given shape with all elements set to v.
func Full(g *graph.Graph, sh indexmap.Shape, v float64) (*Array, error) {
	if err := sh.Validate(); err != nil {
		return nil, err
	}
	a := newArray(g, sh.Clone())
	h := g.Constant(v)
	for i := range a.elems {
		a.elems[i] = h
	}
	return a, nil
}

// Zeros returns an array of zeros.
func Zeros(g *graph.Graph, sh indexmap.Shape) (*Array, error) {
	return Full(g, sh, 0)
}

// Ones returns an array of ones.
func Ones(g *graph.Graph, sh indexmap.Shape) (*Array, error) {
	return Full(g, sh, 1)
}

// Eye returns the n by n identity matrix.
func Eye(g *graph.Graph, n int) (*Array, error) {
	if n < 1 {
		return nil, errors.Errorf("invalid identity matrix size %d: must be positive", n)
	}
	a, err := Zeros(g, indexmap.Shape{n, n})
	if err != nil {
		return nil, err
	}
	one := g.Constant(1)
	for i := range n {
		a.elems[i*n+i] = one
	}
	return a, nil
}
