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

// Utility vecbench measures the time to run expressions over vectors.
//
// Every expression reads the vector variables v1, v2, v3, v4 of shape (3,),
// the scalar constant cs1 and the constant cv1 of shape (3,), and writes
// the variable _result_ of shape (3,).
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"sort"
	"time"

	"github.com/gx-org/vecexpr/api"
	"github.com/gx-org/vecexpr/api/options"
	"github.com/gx-org/vecexpr/build/array"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/gx-org/vecexpr/fmt/fmtarray"
	"github.com/gx-org/vecexpr/golang/backend/arena"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	vectorSize = flag.Int("vector_size", 1024, "Number of float64 in every vector")
	lanes      = flag.Int("lanes", 0, "Number of float64 processed together (0 to probe the host)")
	repeats    = flag.Int("repeats", 10000, "Number of times every expression runs")
	exprName   = flag.String("expr", "", "Expression to run (all expressions if empty)")
	disasm     = flag.Bool("disasm", false, "Print the program of every expression")
)

type (
	unaryFn  func(*array.Array) (*array.Array, error)
	binaryFn func(*array.Array, *array.Array) (*array.Array, error)

	// builder returns the result of an expression given its symbols.
	builder func(get func(string) *array.Array) (*array.Array, error)
)

func unary(f unaryFn, x string) builder {
	return func(get func(string) *array.Array) (*array.Array, error) {
		return f(get(x))
	}
}

func binary(f binaryFn, x, y string) builder {
	return func(get func(string) *array.Array) (*array.Array, error) {
		return f(get(x), get(y))
	}
}

var expressions = map[string]builder{
	"-v1":      unary(array.Neg, "v1"),
	"v1 + v2":  binary(array.Add, "v1", "v2"),
	"v1 - v2":  binary(array.Sub, "v1", "v2"),
	"v1 * v2":  binary(array.Mul, "v1", "v2"),
	"v1 / v2":  binary(array.Div, "v1", "v2"),
	"v1 < v2":  binary(array.Lt, "v1", "v2"),
	"v1 or v2": binary(array.Or, "v1", "v2"),
	"abs(v1)":  unary(array.Abs, "v1"),
	"sqrt(v1)": unary(array.Sqrt, "v1"),
	"not (v1 == v2)": func(get func(string) *array.Array) (*array.Array, error) {
		eq, err := array.Eq(get("v1"), get("v2"))
		if err != nil {
			return nil, err
		}
		return array.Not(eq)
	},
	"v1 + v2 + v3 + v4": func(get func(string) *array.Array) (*array.Array, error) {
		acc := get("v1")
		for _, name := range []string{"v2", "v3", "v4"} {
			var err error
			if acc, err = array.Add(acc, get(name)); err != nil {
				return nil, err
			}
		}
		return acc, nil
	},
	"3 * v1 + cs1 * v2 + v3 @ v4 * cv1": func(get func(string) *array.Array) (*array.Array, error) {
		a, err := array.Mul(array.Scalar(get("v1").Graph(), 3), get("v1"))
		if err != nil {
			return nil, err
		}
		b, err := array.Mul(get("cs1"), get("v2"))
		if err != nil {
			return nil, err
		}
		dot, err := array.MatMul(get("v3"), get("v4"))
		if err != nil {
			return nil, err
		}
		c, err := array.Mul(dot, get("cv1"))
		if err != nil {
			return nil, err
		}
		if a, err = array.Add(a, b); err != nil {
			return nil, err
		}
		return array.Add(a, c)
	},
}

func exit(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// data of the variables of all the expressions.
type data struct {
	arena *arena.Arena
	vars  map[string][]float64
}

func newData(size int) (*data, error) {
	const elems = 3
	names := []string{"v1", "v2", "v3", "v4", api.ResultName}
	var est arena.Estimator
	for range names {
		arena.Reserve[float64](&est, elems*size)
	}
	d := &data{arena: arena.New(est.Size()), vars: make(map[string][]float64)}
	for i, name := range names {
		vals, err := arena.Float64s(d.arena, elems*size)
		if err != nil {
			return nil, err
		}
		for j := range vals {
			vals[j] = float64(100*(i+1) + j)
		}
		d.vars[name] = vals
	}
	return d, nil
}

func (d *data) reset() {
	res := d.vars[api.ResultName]
	for i := range res {
		res[i] = -100
	}
}

func frontEnd(build builder) *api.Func {
	return &api.Func{
		Vars: []string{"v1", "v2", "v3", "v4", "cs1", "cv1"},
		Fn: func(s *api.Symbols) (*api.Results, error) {
			var errs error
			get := func(name string) *array.Array {
				a, err := s.Get(name)
				if err != nil {
					errs = multierr.Append(errs, err)
					return array.None()
				}
				return a
			}
			res, err := build(get)
			if errs != nil {
				return nil, errs
			}
			if err != nil {
				return nil, err
			}
			return api.Result(res), nil
		},
	}
}

func run(name string, build builder, d *data) error {
	opts := []options.Option{options.WithVectorSize(*vectorSize)}
	if *lanes != 0 {
		opts = append(opts, options.WithLaneWidth(*lanes))
	}
	expr, err := api.New(frontEnd(build), opts...)
	if err != nil {
		return err
	}
	defer expr.Close()
	for vname, vals := range d.vars {
		if err := expr.SetVariable(vname, indexmap.Shape{3}, vals); err != nil {
			return err
		}
	}
	if err := expr.SetConstant("cs1", indexmap.Shape{}, []float64{4}); err != nil {
		return err
	}
	if err := expr.SetConstant("cv1", indexmap.Shape{3}, []float64{3, 6, 9}); err != nil {
		return err
	}
	if err := expr.Compile(); err != nil {
		return errors.Wrapf(err, "cannot compile %q", name)
	}
	proc, err := expr.Processor()
	if err != nil {
		return err
	}
	blocks := make([]int, proc.Blocks())
	for i := range blocks {
		blocks[i] = i
	}
	if err := expr.SetSubset(blocks); err != nil {
		return err
	}
	d.reset()
	start := time.Now()
	for range *repeats {
		if err := expr.Run(); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	res := d.vars[api.ResultName]
	var sum float64
	for _, x := range res {
		sum += x
	}
	perRun := elapsed / time.Duration(max(*repeats, 1))
	fmt.Printf("%-36s lanes: %d  time/run: %-12v  checksum: %g\n", name, proc.Lanes(), perRun, sum)
	fmt.Printf("%-36s lane 0: %s\n", "", fmtarray.SprintLane(res, *vectorSize, 0, []int{3}))
	if *disasm {
		fmt.Println(proc.String())
	}
	return nil
}

func main() {
	flag.Parse()
	names := make([]string, 0, len(expressions))
	for name := range expressions {
		names = append(names, name)
	}
	sort.Strings(names)
	if *exprName != "" {
		if _, ok := expressions[*exprName]; !ok {
			exit("unknown expression %q. Available expressions are %v", *exprName, names)
		}
		names = slices.DeleteFunc(names, func(name string) bool { return name != *exprName })
	}
	d, err := newData(*vectorSize)
	if err != nil {
		exit("cannot allocate variables: %+v", err)
	}
	defer d.arena.Free()
	for _, name := range names {
		if err := run(name, expressions[name], d); err != nil {
			exit("%+v", err)
		}
	}
}
