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

import "fmt"

type (
	// Storage specifies where the value of a node lives when a program runs.
	Storage interface {
		// Accept calls the visitor method matching the storage kind.
		Accept(Handle, StorageVisitor) error
		fmt.Stringer
		storage()
	}

	// StorageVisitor is called for each kind of storage.
	// Adding a storage kind adds a method to this interface.
	StorageVisitor interface {
		Constant(Handle, *Constant) error
		Value(Handle, *Value) error
		Temporary(Handle, *Temporary) error
		Result(Handle, *Result) error
		PassThrough(Handle, *PassThrough) error
	}

	// Constant is a literal shared by all the elements of a vector.
	Constant struct {
		Val float64
	}

	// Value is a vector owned by the caller.
	Value struct {
		Data []float64
	}

	// Temporary is a vector computed by the program.
	Temporary struct{}

	// Result exposes the vector of its only input in caller memory.
	Result struct {
		Data []float64
	}

	// PassThrough is a vector computed in place of its first input.
	PassThrough struct{}
)

var (
	_ Storage = (*Constant)(nil)
	_ Storage = (*Value)(nil)
	_ Storage = (*Temporary)(nil)
	_ Storage = (*Result)(nil)
	_ Storage = (*PassThrough)(nil)
)

func (*Constant) storage()    {}
func (*Value) storage()       {}
func (*Temporary) storage()   {}
func (*Result) storage()      {}
func (*PassThrough) storage() {}

// Accept calls v.Constant.
func (s *Constant) Accept(h Handle, v StorageVisitor) error { return v.Constant(h, s) }

// Accept calls v.Value.
func (s *Value) Accept(h Handle, v StorageVisitor) error { return v.Value(h, s) }

// Accept calls v.Temporary.
func (s *Temporary) Accept(h Handle, v StorageVisitor) error { return v.Temporary(h, s) }

// Accept calls v.Result.
func (s *Result) Accept(h Handle, v StorageVisitor) error { return v.Result(h, s) }

// Accept calls v.PassThrough.
func (s *PassThrough) Accept(h Handle, v StorageVisitor) error { return v.PassThrough(h, s) }

func (s *Constant) String() string {
	return fmt.Sprintf("const(%g)", s.Val)
}

func (s *Value) String() string {
	return fmt.Sprintf("value[%d]", len(s.Data))
}

func (s *Temporary) String() string {
	return "temp"
}

func (s *Result) String() string {
	return fmt.Sprintf("result[%d]", len(s.Data))
}

func (s *PassThrough) String() string {
	return "inplace"
}
