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

package graph

import (
	"fmt"
	"strings"

	gxfmt "github.com/gx-org/vecexpr/base/fmt"
	"github.com/gx-org/vecexpr/build/fmterr"
	"github.com/pkg/errors"
)

// Schedule is an evaluation order of the nodes reachable from a set of roots.
type Schedule struct {
	graph *Graph

	// Order lists the reachable nodes, consumers first.
	// Iterating in reverse order visits the inputs of a node before the node.
	Order []Handle

	// NumSlots is the number of distinct storage slots.
	NumSlots int
	// NumConstants is the number of constant nodes.
	NumConstants int
	// NumValues is the number of value nodes.
	NumValues int
	// NumTemporaries is the number of temporary nodes.
	NumTemporaries int
	// NumResults is the number of result nodes.
	NumResults int
	// NumPassThroughs is the number of nodes computed in place.
	NumPassThroughs int

	slots     []int
	consumers []int
}

// Sort returns the schedule of all the nodes reachable from roots.
func Sort(g *Graph, roots []Handle) (*Schedule, error) {
	if err := g.checkHandles(roots); err != nil {
		return nil, err
	}
	s := &Schedule{
		graph:     g,
		slots:     make([]int, g.Len()),
		consumers: make([]int, g.Len()),
	}
	for i := range s.slots {
		s.slots[i] = -1
	}
	visited := make([]bool, g.Len())
	var post []Handle
	var visit func(Handle)
	visit = func(h Handle) {
		if visited[h] {
			return
		}
		visited[h] = true
		for _, in := range g.nodes[h].Inputs {
			s.consumers[in]++
			visit(in)
		}
		post = append(post, h)
	}
	for _, root := range roots {
		visit(root)
	}
	for _, h := range post {
		if err := g.nodes[h].Storage.Accept(h, slotter{s}); err != nil {
			return nil, err
		}
	}
	s.Order = make([]Handle, len(post))
	for i, h := range post {
		s.Order[len(post)-1-i] = h
	}
	return s, nil
}

// Graph returns the graph of the schedule.
func (s *Schedule) Graph() *Graph {
	return s.graph
}

// Slot returns the storage slot of a node, or -1 if the node is not scheduled.
func (s *Schedule) Slot(h Handle) int {
	return s.slots[h]
}

// slotter assigns storage slots to nodes in evaluation order.
type slotter struct {
	*Schedule
}

var _ StorageVisitor = slotter{}

func (s *Schedule) newSlot(h Handle) {
	s.slots[h] = s.NumSlots
	s.NumSlots++
}

func (s *Schedule) inputSlot(h Handle) int {
	in := s.graph.nodes[h].Inputs[0]
	fmterr.Check(s.slots[in] >= 0, "node %d scheduled before its input %d", h, in)
	return s.slots[in]
}

// Constant assigns a new slot to a constant.
func (s slotter) Constant(h Handle, _ *Constant) error {
	s.newSlot(h)
	s.NumConstants++
	return nil
}

// Value assigns a new slot to a value.
func (s slotter) Value(h Handle, _ *Value) error {
	s.newSlot(h)
	s.NumValues++
	return nil
}

// Temporary assigns a new slot to a temporary.
func (s slotter) Temporary(h Handle, _ *Temporary) error {
	s.newSlot(h)
	s.NumTemporaries++
	return nil
}

// Result shares the slot of the temporary it exposes.
func (s slotter) Result(h Handle, _ *Result) error {
	in := s.graph.nodes[h].Inputs[0]
	if s.graph.owner(in) < 0 {
		return fmterr.Internalf("result node %d exposes %s node %d", h, s.graph.nodes[in].Storage, in)
	}
	s.slots[h] = s.inputSlot(h)
	s.NumResults++
	return nil
}

// PassThrough shares the slot of its first input.
func (s slotter) PassThrough(h Handle, _ *PassThrough) error {
	in := s.graph.nodes[h].Inputs[0]
	if s.consumers[in] != 1 {
		return errors.Errorf("node %d computed in place of node %d read by %d nodes", h, in, s.consumers[in])
	}
	s.slots[h] = s.inputSlot(h)
	s.NumPassThroughs++
	return nil
}

// String returns the schedule in evaluation order.
func (s *Schedule) String() string {
	var b strings.Builder
	for i := len(s.Order) - 1; i >= 0; i-- {
		h := s.Order[i]
		fmt.Fprintf(&b, "$%d <- %%%d = %s\n", s.slots[h], h, s.graph.nodes[h].String())
	}
	return gxfmt.Number(b.String())
}
