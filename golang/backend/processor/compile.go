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

package processor

import (
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/golang/backend/arena"
	"github.com/gx-org/vecexpr/golang/backend/kernels"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// machine runs a program on vectors of blocks of type B.
type machine[B kernels.Block] struct {
	code   []Instruction
	table  *[graph.NumOps]kernels.Kernel[B]
	ws     kernels.Workspace[B]
	subset []int32
}

func (m *machine[B]) run() {
	for i := range m.code {
		ins := &m.code[i]
		if ins.Code == graph.OpNone {
			return
		}
		m.table[ins.Code](&m.ws, ins)
	}
}

func (m *machine[B]) setSubset(blocks []int) {
	for i, b := range blocks {
		m.subset[i] = int32(b)
	}
	m.ws.SubsetSize = len(blocks)
}

func (m *machine[B]) program() []Instruction {
	return m.code
}

// compiler assigns storage to the nodes of a schedule and emits instructions.
type compiler[B kernels.Block] struct {
	m     *machine[B]
	sched *graph.Schedule
	graph *graph.Graph

	vectorSize  int
	blocks      int
	constSubset []int32
	consts      []B
	temps       []B
	numIns      int
	errs        error
}

var _ graph.StorageVisitor = (*compiler[[1]float64])(nil)

func compile[B kernels.Block](s *graph.Schedule, vectorSize int) (*Processor, error) {
	lanes := kernels.Lanes[B]()
	if vectorSize < lanes {
		return nil, errors.Errorf("vector size %d smaller than the %d lanes of a block", vectorSize, lanes)
	}
	blocks := vectorSize / lanes
	vectorSize = blocks * lanes
	numIns := s.NumTemporaries + s.NumPassThroughs + 1

	var est arena.Estimator
	arena.Reserve[Instruction](&est, numIns)
	arena.Reserve[int32](&est, blocks)
	arena.Reserve[int32](&est, blocks)
	arena.Reserve[B](&est, s.NumConstants)
	arena.Reserve[B](&est, s.NumTemporaries*blocks)
	ar := arena.New(est.Size())

	m := &machine[B]{
		table: kernels.Table[B](),
		ws: kernels.Workspace[B]{
			Vectors: make([]kernels.Vec[B], s.NumSlots),
		},
	}
	c := &compiler[B]{
		m:          m,
		sched:      s,
		graph:      s.Graph(),
		vectorSize: vectorSize,
		blocks:     blocks,
	}
	var err error
	if m.code, err = arena.Alloc[Instruction](ar, numIns); err != nil {
		return nil, err
	}
	if m.subset, err = arena.Alloc[int32](ar, blocks); err != nil {
		return nil, err
	}
	if c.constSubset, err = arena.Alloc[int32](ar, blocks); err != nil {
		return nil, err
	}
	if c.consts, err = arena.Alloc[B](ar, s.NumConstants); err != nil {
		return nil, err
	}
	if c.temps, err = arena.Alloc[B](ar, s.NumTemporaries*blocks); err != nil {
		return nil, err
	}
	for i := len(s.Order) - 1; i >= 0; i-- {
		h := s.Order[i]
		if err := c.graph.Node(h).Storage.Accept(h, c); err != nil {
			return nil, err
		}
	}
	if c.errs != nil {
		return nil, c.errs
	}
	m.code[c.numIns] = Instruction{Code: graph.OpNone}
	return &Processor{
		lanes:      lanes,
		vectorSize: vectorSize,
		blocks:     blocks,
		arena:      ar,
		exec:       m,
	}, nil
}

func (c *compiler[B]) vec(h graph.Handle) *kernels.Vec[B] {
	return &c.m.ws.Vectors[c.sched.Slot(h)]
}

func (c *compiler[B]) external(h graph.Handle, kind string, data []float64) []B {
	if len(data) < c.vectorSize {
		c.errs = multierr.Append(c.errs, errors.Errorf("%s node %d has %d float64 but the vector size is %d", kind, h, len(data), c.vectorSize))
		return nil
	}
	return kernels.View[B](data[:c.vectorSize])
}

func (c *compiler[B]) emit(h graph.Handle, withDest bool) {
	node := c.graph.Node(h)
	if !node.Op.Valid() || c.m.table[node.Op] == nil {
		c.errs = multierr.Append(c.errs, errors.Errorf("node %d: unknown operation code %d", h, node.Op))
		return
	}
	ins := Instruction{Code: node.Op}
	var args []uint32
	if withDest {
		args = append(args, uint32(c.sched.Slot(h)))
	}
	for _, in := range node.Inputs {
		args = append(args, uint32(c.sched.Slot(in)))
	}
	if len(args) > len(ins.Args) {
		c.errs = multierr.Append(c.errs, errors.Errorf("node %d: operation %s requires %d arguments but instructions have at most %d", h, node.Op, len(args), len(ins.Args)))
		return
	}
	ins.NArgs = uint8(copy(ins.Args[:], args))
	c.m.code[c.numIns] = ins
	c.numIns++
}

// Constant broadcasts a constant into a block read by all the elements of a subset.
func (c *compiler[B]) Constant(h graph.Handle, s *graph.Constant) error {
	c.consts[0] = kernels.Splat[B](s.Val)
	*c.vec(h) = kernels.Vec[B]{Values: c.consts[:1], Subset: c.constSubset}
	c.consts = c.consts[1:]
	return nil
}

// Value binds a vector to caller memory.
func (c *compiler[B]) Value(h graph.Handle, s *graph.Value) error {
	*c.vec(h) = kernels.Vec[B]{Values: c.external(h, "value", s.Data), Subset: c.m.subset}
	return nil
}

// Temporary binds a vector to arena memory and emits the instruction computing it.
func (c *compiler[B]) Temporary(h graph.Handle, s *graph.Temporary) error {
	*c.vec(h) = kernels.Vec[B]{Values: c.temps[:c.blocks], Subset: c.m.subset}
	c.temps = c.temps[c.blocks:]
	c.emit(h, true)
	return nil
}

// Result rebinds the vector of the temporary it exposes to caller memory.
func (c *compiler[B]) Result(h graph.Handle, s *graph.Result) error {
	*c.vec(h) = kernels.Vec[B]{Values: c.external(h, "result", s.Data), Subset: c.m.subset}
	return nil
}

// PassThrough emits an instruction computing in place of its first operand.
func (c *compiler[B]) PassThrough(h graph.Handle, s *graph.PassThrough) error {
	c.emit(h, false)
	return nil
}
