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

// Package graph builds graphs of scalar operations over vectors.
//
// Nodes are stored in a graph and referenced by handles. A node can only
// take as inputs nodes already in the graph, so graphs are always acyclic.
// Every node has a storage kind describing where its value lives when the
// graph is compiled into a program.
package graph

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"unsafe"

	"github.com/pkg/errors"
)

type (
	// Handle references a node in a graph.
	Handle int32

	// Node is a scalar operation in a graph.
	Node struct {
		Op      Op
		Inputs  []Handle
		Storage Storage
	}

	// Option configures a graph.
	Option func(*Graph)

	valueKey struct {
		data *float64
		size int
	}

	opKey struct {
		op     Op
		inputs [3]Handle
	}

	// Graph stores nodes.
	Graph struct {
		nodes   []Node
		dedup   bool
		consts  map[uint64]Handle
		values  map[valueKey]Handle
		applied map[opKey]Handle
		aliased map[Handle]bool
		// overwritten records the nodes whose storage has been reused
		// by an operation computed in place.
		overwritten map[Handle]bool
	}
)

// WithoutDedup disables the deduplication of structurally identical nodes.
func WithoutDedup() Option {
	return func(g *Graph) {
		g.dedup = false
	}
}

// New returns an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		dedup:   true,
		consts:  make(map[uint64]Handle),
		values:  make(map[valueKey]Handle),
		applied: make(map[opKey]Handle),
		aliased: make(map[Handle]bool),

		overwritten: make(map[Handle]bool),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node referenced by a handle.
func (g *Graph) Node(h Handle) *Node {
	return &g.nodes[h]
}

func (g *Graph) add(n Node) Handle {
	g.nodes = append(g.nodes, n)
	return Handle(len(g.nodes) - 1)
}

func (g *Graph) checkHandles(hs []Handle) error {
	for _, h := range hs {
		if h < 0 || int(h) >= len(g.nodes) {
			return errors.Errorf("invalid handle %d in a graph of %d nodes", h, len(g.nodes))
		}
	}
	return nil
}

func (g *Graph) checkOp(op Op, inputs []Handle) error {
	if !op.Valid() || op == OpNone {
		return errors.Errorf("unknown operation %s", op)
	}
	if op.Arity() != len(inputs) {
		return errors.Errorf("operation %s expects %d operands but got %d", op, op.Arity(), len(inputs))
	}
	return g.checkHandles(inputs)
}

// Constant returns a node storing a constant.
func (g *Graph) Constant(val float64) Handle {
	if !g.dedup {
		return g.add(Node{Storage: &Constant{Val: val}})
	}
	key := math.Float64bits(val)
	if h, ok := g.consts[key]; ok {
		return h
	}
	h := g.add(Node{Storage: &Constant{Val: val}})
	g.consts[key] = h
	return h
}

// Value returns a node reading a vector owned by the caller.
func (g *Graph) Value(data []float64) Handle {
	if !g.dedup {
		return g.add(Node{Storage: &Value{Data: data}})
	}
	key := valueKey{data: unsafe.SliceData(data), size: len(data)}
	if h, ok := g.values[key]; ok {
		return h
	}
	h := g.add(Node{Storage: &Value{Data: data}})
	g.values[key] = h
	return h
}

// Apply returns a node computing an operation into a temporary.
// Structurally identical nodes are only added once to the graph.
func (g *Graph) Apply(op Op, inputs ...Handle) (Handle, error) {
	if err := g.checkOp(op, inputs); err != nil {
		return -1, err
	}
	if op.Arity() > 2 {
		return -1, errors.Errorf("operation %s can only be computed in place", op)
	}
	key := opKey{op: op}
	copy(key.inputs[:], inputs)
	if g.dedup {
		if h, ok := g.applied[key]; ok {
			return h, nil
		}
	}
	h := g.add(Node{
		Op:      op,
		Inputs:  slices.Clone(inputs),
		Storage: &Temporary{},
	})
	if g.dedup {
		g.applied[key] = h
	}
	return h, nil
}

// Copy returns a new temporary node storing a copy of x.
// The returned node is never shared with other operations.
func (g *Graph) Copy(x Handle) (Handle, error) {
	if err := g.checkHandles([]Handle{x}); err != nil {
		return -1, err
	}
	return g.add(Node{
		Op:      OpCopy,
		Inputs:  []Handle{x},
		Storage: &Temporary{},
	}), nil
}

// owner returns the temporary node owning the storage of a node,
// or -1 if the node does not compute into a temporary.
func (g *Graph) owner(h Handle) Handle {
	for {
		node := &g.nodes[h]
		switch node.Storage.(type) {
		case *Temporary:
			return h
		case *PassThrough:
			h = node.Inputs[0]
		default:
			return -1
		}
	}
}

// ApplyInPlace returns a node computing an operation in the storage of
// its first input. The first input must be a temporary not read by
// any other node: once overwritten, it cannot be exposed by a result
// or overwritten again.
func (g *Graph) ApplyInPlace(op Op, inputs ...Handle) (Handle, error) {
	if err := g.checkOp(op, inputs); err != nil {
		return -1, err
	}
	if len(inputs) == 0 {
		return -1, errors.Errorf("operation %s has no operand to compute in place", op)
	}
	owner := g.owner(inputs[0])
	if owner < 0 {
		return -1, errors.Errorf("cannot compute %s in place of %s node %d", op, g.nodes[inputs[0]].Storage, inputs[0])
	}
	if g.aliased[owner] {
		return -1, errors.Errorf("cannot compute %s in place of node %d exposed as a result", op, inputs[0])
	}
	if g.overwritten[inputs[0]] {
		return -1, errors.Errorf("cannot compute %s in place of node %d already overwritten", op, inputs[0])
	}
	g.overwritten[inputs[0]] = true
	return g.add(Node{
		Op:      op,
		Inputs:  slices.Clone(inputs),
		Storage: &PassThrough{},
	}), nil
}

// Result returns a node exposing the value of src in data.
// When src is not a temporary or is already exposed by another result,
// src is first copied into a new temporary.
func (g *Graph) Result(src Handle, data []float64) (Handle, error) {
	if err := g.checkHandles([]Handle{src}); err != nil {
		return -1, err
	}
	if g.overwritten[src] {
		return -1, errors.Errorf("cannot expose node %d overwritten by an operation computed in place", src)
	}
	owner := g.owner(src)
	if owner < 0 || g.aliased[owner] {
		var err error
		if src, err = g.Copy(src); err != nil {
			return -1, err
		}
		owner = src
	}
	g.aliased[owner] = true
	return g.add(Node{
		Inputs:  []Handle{src},
		Storage: &Result{Data: data},
	}), nil
}

func (n *Node) String() string {
	ins := make([]string, len(n.Inputs))
	for i, in := range n.Inputs {
		ins[i] = fmt.Sprintf("%%%d", in)
	}
	if n.Op == OpNone {
		return fmt.Sprintf("%s(%s)", n.Storage, strings.Join(ins, ", "))
	}
	return fmt.Sprintf("%s %s(%s)", n.Storage, n.Op, strings.Join(ins, ", "))
}

// String returns all the nodes of the graph.
func (g *Graph) String() string {
	var s strings.Builder
	for i := range g.nodes {
		fmt.Fprintf(&s, "%%%d = %s\n", i, g.nodes[i].String())
	}
	return s.String()
}
