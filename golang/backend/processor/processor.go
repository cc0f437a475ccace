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

// Package processor compiles a scheduled graph into a program and runs it.
//
// All the memory of a program (instructions, constants, temporaries, and
// subsets) is allocated from a single arena when the program is compiled.
// Values and results are read and written directly in caller memory.
// A processor is not safe for concurrent use.
package processor

import (
	"fmt"
	"strings"

	gxfmt "github.com/gx-org/vecexpr/base/fmt"
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/golang/backend/arena"
	"github.com/gx-org/vecexpr/golang/backend/kernels"
	"github.com/gx-org/vecexpr/golang/backend/platform"
	"github.com/pkg/errors"
)

type (
	// Instruction of a program.
	Instruction = kernels.Instruction

	// Config of a processor.
	Config struct {
		// VectorSize is the number of float64 in every vector.
		// It is rounded down to a multiple of the number of lanes.
		VectorSize int
		// Lanes is the number of float64 processed together.
		// The host CPU is probed when Lanes is 0.
		Lanes int
	}

	executor interface {
		run()
		setSubset([]int)
		program() []Instruction
	}

	// Processor runs a compiled program.
	Processor struct {
		lanes      int
		vectorSize int
		blocks     int
		arena      *arena.Arena
		exec       executor
	}
)

// New compiles a schedule into a program.
func New(s *graph.Schedule, cfg Config) (*Processor, error) {
	lanes := cfg.Lanes
	if lanes == 0 {
		capa, err := platform.Detect()
		if err != nil {
			return nil, err
		}
		lanes = capa.Lanes()
	}
	level, err := platform.LevelOf(lanes)
	if err != nil {
		return nil, err
	}
	switch level {
	case platform.Scalar:
		return compile[[1]float64](s, cfg.VectorSize)
	case platform.Vec128:
		return compile[[2]float64](s, cfg.VectorSize)
	case platform.Vec256:
		return compile[[4]float64](s, cfg.VectorSize)
	case platform.Vec512:
		return compile[[8]float64](s, cfg.VectorSize)
	}
	return nil, errors.Errorf("level %s not supported", level)
}

// Lanes returns the number of float64 processed together.
func (p *Processor) Lanes() int {
	return p.lanes
}

// VectorSize returns the number of float64 in every vector.
func (p *Processor) VectorSize() int {
	return p.vectorSize
}

// Blocks returns the number of blocks of lanes in every vector.
func (p *Processor) Blocks() int {
	return p.blocks
}

// MemorySize returns the number of bytes allocated for the program.
func (p *Processor) MemorySize() int {
	return p.arena.Size()
}

// Program returns the instructions of the program.
func (p *Processor) Program() []Instruction {
	if p.exec == nil {
		return nil
	}
	return p.exec.program()
}

// SetSubset sets the blocks processed when the program runs.
// Block i spans the float64 [i*Lanes(), (i+1)*Lanes()) of every vector.
func (p *Processor) SetSubset(blocks []int) error {
	if p.exec == nil {
		return errors.Errorf("processor has been closed")
	}
	if len(blocks) > p.blocks {
		return errors.Errorf("subset of %d blocks larger than the %d blocks of a vector", len(blocks), p.blocks)
	}
	for i, b := range blocks {
		if b < 0 || b >= p.blocks {
			return errors.Errorf("subset block %d at position %d out of range [0, %d)", b, i, p.blocks)
		}
	}
	p.exec.setSubset(blocks)
	return nil
}

// Run executes the program once on the current subset.
func (p *Processor) Run() {
	if p.exec == nil {
		return
	}
	p.exec.run()
}

// Close releases the memory of the processor.
func (p *Processor) Close() {
	p.exec = nil
	p.arena.Free()
}

// String returns the program in assembly form.
func (p *Processor) String() string {
	var s strings.Builder
	for _, ins := range p.Program() {
		s.WriteString(ins.String())
		s.WriteString("\n")
	}
	return fmt.Sprintf("lanes: %d, vector size: %d, memory: %d bytes\n%s", p.lanes, p.vectorSize, p.MemorySize(), gxfmt.Indent(gxfmt.NumberFrom(s.String(), 0)))
}
