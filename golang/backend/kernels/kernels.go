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

// Package kernels implements vectorized kernels for scalar operations.
//
// A vector is split into blocks of lanes. Kernels are generic over the
// block type, so the same code is instantiated for 1, 2, 4, or 8 lanes.
package kernels

import (
	"fmt"
	"unsafe"

	"github.com/gx-org/vecexpr/build/graph"
)

type (
	// Block is a group of lanes processed together.
	Block interface {
		[1]float64 | [2]float64 | [4]float64 | [8]float64
	}

	// Vec is a vector read or written by kernels.
	// Subset lists the blocks of Values processed by a kernel.
	Vec[B Block] struct {
		Values []B
		Subset []int32
	}

	// Workspace stores the vectors of a program.
	Workspace[B Block] struct {
		Vectors []Vec[B]
		// SubsetSize is the number of blocks processed by kernels.
		SubsetSize int
	}

	// Instruction applies an operation to vectors of a workspace.
	// Args[0] is the destination. The operands are the last Arity()
	// arguments: an operation with as many arguments as operands is
	// computed in place.
	Instruction struct {
		Code  graph.Op
		NArgs uint8
		Args  [3]uint32
	}

	// Kernel executes an instruction on a workspace.
	Kernel[B Block] func(ws *Workspace[B], ins *Instruction)
)

// Lanes returns the number of lanes of a block.
func Lanes[B Block]() int {
	var b B
	return len(b)
}

// View returns the blocks of a slice of float64.
// Trailing values not filling a complete block are ignored.
func View[B Block](data []float64) []B {
	n := len(data) / Lanes[B]()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*B)(unsafe.Pointer(unsafe.SliceData(data))), n)
}

// Splat returns a block with all its lanes set to the same value.
func Splat[B Block](val float64) B {
	var b B
	for j := range len(b) {
		b[j] = val
	}
	return b
}

// String returns the instruction in assembly form.
func (ins *Instruction) String() string {
	switch ins.NArgs {
	case 0:
		return ins.Code.String()
	case 1:
		return fmt.Sprintf("%s $%d", ins.Code, ins.Args[0])
	case 2:
		return fmt.Sprintf("%s $%d, $%d", ins.Code, ins.Args[0], ins.Args[1])
	default:
		return fmt.Sprintf("%s $%d, $%d, $%d", ins.Code, ins.Args[0], ins.Args[1], ins.Args[2])
	}
}

func unary[B Block](f func(float64) float64) Kernel[B] {
	return func(ws *Workspace[B], ins *Instruction) {
		dst := &ws.Vectors[ins.Args[0]]
		x := &ws.Vectors[ins.Args[ins.NArgs-1]]
		lanes := Lanes[B]()
		for k := range ws.SubsetSize {
			d, xi := dst.Subset[k], x.Subset[k]
			for j := range lanes {
				dst.Values[d][j] = f(x.Values[xi][j])
			}
		}
	}
}

func binary[B Block](f func(float64, float64) float64) Kernel[B] {
	return func(ws *Workspace[B], ins *Instruction) {
		dst := &ws.Vectors[ins.Args[0]]
		x := &ws.Vectors[ins.Args[ins.NArgs-2]]
		y := &ws.Vectors[ins.Args[ins.NArgs-1]]
		lanes := Lanes[B]()
		for k := range ws.SubsetSize {
			d, xi, yi := dst.Subset[k], x.Subset[k], y.Subset[k]
			for j := range lanes {
				dst.Values[d][j] = f(x.Values[xi][j], y.Values[yi][j])
			}
		}
	}
}

func ternary[B Block](f func(float64, float64, float64) float64) Kernel[B] {
	return func(ws *Workspace[B], ins *Instruction) {
		dst := &ws.Vectors[ins.Args[0]]
		x := &ws.Vectors[ins.Args[ins.NArgs-3]]
		y := &ws.Vectors[ins.Args[ins.NArgs-2]]
		z := &ws.Vectors[ins.Args[ins.NArgs-1]]
		lanes := Lanes[B]()
		for k := range ws.SubsetSize {
			d, xi, yi, zi := dst.Subset[k], x.Subset[k], y.Subset[k], z.Subset[k]
			for j := range lanes {
				dst.Values[d][j] = f(x.Values[xi][j], y.Values[yi][j], z.Values[zi][j])
			}
		}
	}
}

// Table returns the kernels of all the operations, indexed by operation code.
// Entries of operations without kernel are nil.
func Table[B Block]() *[graph.NumOps]Kernel[B] {
	var table [graph.NumOps]Kernel[B]
	for op, f := range unaryFuncs {
		table[op] = unary[B](f)
	}
	for op, f := range binaryFuncs {
		table[op] = binary[B](f)
	}
	for op, f := range ternaryFuncs {
		table[op] = ternary[B](f)
	}
	return &table
}
