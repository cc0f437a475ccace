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

package api

import (
	"sort"

	"github.com/gx-org/vecexpr/build/array"
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// ResultName is the name of the variable storing the result of an
// expression returning a single array.
const ResultName = "_result_"

type (
	// Symbols maps names to arrays available to a front end.
	Symbols struct {
		g      *graph.Graph
		arrays map[string]*array.Array
	}

	// Results are the arrays computed by an expression, by name.
	Results struct {
		arrays map[string]*array.Array
	}

	// FrontEnd builds arrays from an expression.
	FrontEnd interface {
		// FreeVariables returns the names of the symbols read by the expression.
		FreeVariables() []string
		// Build the arrays of the expression given the symbols.
		Build(*Symbols) (*Results, error)
	}

	// Func is a front end implemented by a Go function.
	Func struct {
		// Vars read by Fn.
		Vars []string
		// Fn builds the results.
		Fn func(*Symbols) (*Results, error)
	}
)

var _ FrontEnd = (*Func)(nil)

// FreeVariables returns the variables read by the function.
func (f *Func) FreeVariables() []string {
	return f.Vars
}

// Build calls the function.
func (f *Func) Build(s *Symbols) (*Results, error) {
	return f.Fn(s)
}

func newSymbols(g *graph.Graph) *Symbols {
	return &Symbols{g: g, arrays: make(map[string]*array.Array)}
}

// Graph returns the graph arrays are built into.
func (s *Symbols) Graph() *graph.Graph {
	return s.g
}

// Lookup returns the array of a symbol.
func (s *Symbols) Lookup(name string) (*array.Array, bool) {
	a, ok := s.arrays[name]
	return a, ok
}

// Get returns the array of a symbol or an error if the symbol is undefined.
func (s *Symbols) Get(name string) (*array.Array, error) {
	a, ok := s.arrays[name]
	if !ok {
		return nil, errors.Errorf("undefined symbol %q", name)
	}
	return a, nil
}

// Names returns the sorted names of all the symbols.
func (s *Symbols) Names() []string {
	names := maps.Keys(s.arrays)
	sort.Strings(names)
	return names
}

// Result returns results with a single array stored in ResultName.
func Result(a *array.Array) *Results {
	return &Results{arrays: map[string]*array.Array{ResultName: a}}
}

// Tuple returns results with arrays stored in variables of the same name.
func Tuple(names []string, arrays []*array.Array) (*Results, error) {
	if len(names) != len(arrays) {
		return nil, errors.Errorf("%d names given for %d results", len(names), len(arrays))
	}
	r := &Results{arrays: make(map[string]*array.Array, len(names))}
	for i, name := range names {
		if _, ok := r.arrays[name]; ok {
			return nil, errors.Errorf("result %q defined more than once", name)
		}
		r.arrays[name] = arrays[i]
	}
	return r, nil
}

// Names returns the sorted names of the results.
func (r *Results) Names() []string {
	names := maps.Keys(r.arrays)
	sort.Strings(names)
	return names
}

// Array returns the array of a result.
func (r *Results) Array(name string) *array.Array {
	return r.arrays[name]
}
