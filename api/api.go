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

// Package api compiles expressions over vectors and runs them.
//
// Variables are arrays of vectors owned by the caller: element i of a
// variable is stored in data[i*VectorSize:(i+1)*VectorSize]. An expression
// reads its input variables and writes its results into output variables
// every time it runs, on the blocks of the vectors selected by SetSubset.
package api

import (
	"slices"
	"sort"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/vecexpr/api/options"
	"github.com/gx-org/vecexpr/build/array"
	"github.com/gx-org/vecexpr/build/fmterr"
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/gx-org/vecexpr/golang/backend/processor"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
)

type (
	variable struct {
		shape indexmap.Shape
		data  []float64
	}

	constant struct {
		shape  indexmap.Shape
		values []float64
	}

	// Expression computes arrays from variables.
	Expression struct {
		fe     FrontEnd
		cfg    *options.Config
		vars   map[string]*variable
		consts map[string]*constant
		proc   *processor.Processor
	}
)

// New returns an expression given a front end.
func New(fe FrontEnd, opts ...options.Option) (*Expression, error) {
	cfg, err := options.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Expression{
		fe:     fe,
		cfg:    cfg,
		vars:   make(map[string]*variable),
		consts: make(map[string]*constant),
	}, nil
}

// VectorSize returns the number of float64 in the window of a variable element.
func (e *Expression) VectorSize() int {
	return e.cfg.VectorSize
}

// invalidate releases the compiled program, if any.
func (e *Expression) invalidate() {
	if e.proc == nil {
		return
	}
	e.proc.Close()
	e.proc = nil
}

// SetVariable binds a name to caller memory.
// The expression needs to be compiled again for the change to take effect.
func (e *Expression) SetVariable(name string, sh indexmap.Shape, data []float64) error {
	if err := sh.Validate(); err != nil {
		return fmterr.PrefixWith("variable %q: ", name)(err)
	}
	if want := sh.Size() * e.cfg.VectorSize; len(data) < want {
		return errors.Errorf("variable %q of shape %s: %d float64 given but %d required for vectors of size %d", name, sh, len(data), want, e.cfg.VectorSize)
	}
	e.invalidate()
	delete(e.consts, name)
	e.vars[name] = &variable{shape: sh.Clone(), data: data}
	return nil
}

// SetVariableRaw binds a name to a float64 buffer given as bytes.
func (e *Expression) SetVariableRaw(name string, sh *shape.Shape, data []byte) error {
	if sh.DType != dtype.Float64 {
		return errors.Errorf("variable %q: data type %s not supported: must be %s", name, sh.DType, dtype.Float64)
	}
	if len(data)%8 != 0 {
		return errors.Errorf("variable %q: %d bytes is not a whole number of float64", name, len(data))
	}
	return e.SetVariable(name, indexmap.Shape(slices.Clone(sh.AxisLengths)), dtype.ToSlice[float64](data))
}

// SetConstant binds a name to values known at compile time.
func (e *Expression) SetConstant(name string, sh indexmap.Shape, values []float64) error {
	if err := sh.Validate(); err != nil {
		return fmterr.PrefixWith("constant %q: ", name)(err)
	}
	if len(values) != sh.Size() {
		return errors.Errorf("constant %q of shape %s: %d values given", name, sh, len(values))
	}
	e.invalidate()
	delete(e.vars, name)
	e.consts[name] = &constant{shape: sh.Clone(), values: slices.Clone(values)}
	return nil
}

// Variables returns the sorted names of the variables.
func (e *Expression) Variables() []string {
	names := maps.Keys(e.vars)
	sort.Strings(names)
	return names
}

func (e *Expression) symbols(g *graph.Graph) (*Symbols, error) {
	syms := newSymbols(g)
	for name, val := range e.cfg.Defaults {
		syms.arrays[name] = array.Scalar(g, val)
	}
	for name, c := range e.consts {
		a, err := array.Constant(g, c.values, c.shape)
		if err != nil {
			return nil, errors.Wrapf(err, "constant %q", name)
		}
		syms.arrays[name] = a
	}
	for name, v := range e.vars {
		a, err := array.Value(g, v.data, e.cfg.VectorSize, v.shape)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %q", name)
		}
		syms.arrays[name] = a
	}
	var errs error
	for _, name := range e.fe.FreeVariables() {
		if _, ok := syms.arrays[name]; !ok {
			errs = multierr.Append(errs, errors.Errorf("undefined variable %q", name))
		}
	}
	return syms, errs
}

func (e *Expression) bindResults(res *Results) ([]graph.Handle, error) {
	var errs error
	var roots []graph.Handle
	for _, name := range res.Names() {
		a := res.Array(name)
		v, ok := e.vars[name]
		if !ok {
			errs = multierr.Append(errs, errors.Errorf("no variable %q to store a result", name))
			continue
		}
		if a.IsNone() {
			errs = multierr.Append(errs, errors.Errorf("result %q is none", name))
			continue
		}
		if !a.Shape().Equal(v.shape) {
			errs = multierr.Append(errs, errors.Errorf("cannot store result of shape %s in variable %q of shape %s", a.Shape(), name, v.shape))
			continue
		}
		stored, err := array.MakeResult(a, v.data, e.cfg.VectorSize)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "result %q", name))
			continue
		}
		roots = append(roots, stored.Elements()...)
	}
	return roots, errs
}

// Compile builds the arrays of the expression and compiles them into a
// program. Compile needs to be called after all variables and constants
// have been set.
func (e *Expression) Compile() error {
	e.invalidate()
	var gopts []graph.Option
	if !e.cfg.Dedup {
		gopts = append(gopts, graph.WithoutDedup())
	}
	g := graph.New(gopts...)
	syms, err := e.symbols(g)
	if err != nil {
		return err
	}
	res, err := e.fe.Build(syms)
	if err != nil {
		return err
	}
	roots, err := e.bindResults(res)
	if err != nil {
		return err
	}
	sched, err := graph.Sort(g, roots)
	if err != nil {
		return err
	}
	e.proc, err = processor.New(sched, processor.Config{
		VectorSize: e.cfg.VectorSize,
		Lanes:      e.cfg.Lanes,
	})
	return err
}

func (e *Expression) compiled() (*processor.Processor, error) {
	if e.proc == nil {
		return nil, errors.Errorf("expression has not been compiled")
	}
	return e.proc, nil
}

// Processor returns the compiled program.
func (e *Expression) Processor() (*processor.Processor, error) {
	return e.compiled()
}

// SetSubset selects the blocks of the vectors processed by Run.
func (e *Expression) SetSubset(blocks []int) error {
	proc, err := e.compiled()
	if err != nil {
		return err
	}
	return proc.SetSubset(blocks)
}

// Run the program once.
func (e *Expression) Run() error {
	proc, err := e.compiled()
	if err != nil {
		return err
	}
	proc.Run()
	return nil
}

// Result returns the shape and the memory of the variable storing a result.
func (e *Expression) Result(name string) (indexmap.Shape, []float64, error) {
	v, ok := e.vars[name]
	if !ok {
		return nil, nil, errors.Errorf("no variable %q", name)
	}
	return v.shape, v.data, nil
}

// Close releases the compiled program.
func (e *Expression) Close() {
	e.invalidate()
}
