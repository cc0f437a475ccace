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

// Package arena implements a bump allocator backed by a single Go allocation.
//
// Memory allocated from an arena is never freed individually: it is released
// all at once when the arena is freed. Only types without pointers can be
// allocated in an arena since the garbage collector does not scan its memory.
package arena

import (
	"unsafe"

	"github.com/pkg/errors"
)

// Alignment of all the allocations in an arena, in bytes.
const Alignment = 64

// Arena is a bump allocator.
type Arena struct {
	buf  []byte
	base int
	used int
}

// New returns an arena able to allocate size bytes.
func New(size int) *Arena {
	buf := make([]byte, size+Alignment)
	base := 0
	if rem := int(uintptr(unsafe.Pointer(unsafe.SliceData(buf))) % Alignment); rem != 0 {
		base = Alignment - rem
	}
	return &Arena{buf: buf, base: base}
}

// AlignedSize rounds a number of bytes up to the arena alignment.
func AlignedSize(n int) int {
	return (n + Alignment - 1) / Alignment * Alignment
}

// Size returns the number of bytes the arena can allocate.
func (a *Arena) Size() int {
	if a.buf == nil {
		return 0
	}
	return len(a.buf) - Alignment
}

// Used returns the number of bytes already allocated.
func (a *Arena) Used() int {
	return a.used
}

// Free releases the memory of the arena.
// Slices previously allocated from the arena must not be used anymore.
func (a *Arena) Free() {
	a.buf = nil
	a.used = 0
}

func (a *Arena) alloc(n int) (unsafe.Pointer, error) {
	size := AlignedSize(n)
	if a.buf == nil {
		return nil, errors.Errorf("cannot allocate %d bytes: arena has been freed", n)
	}
	if a.used+size > a.Size() {
		return nil, errors.Errorf("cannot allocate %d bytes: arena of %d bytes has %d bytes left", n, a.Size(), a.Size()-a.used)
	}
	ptr := unsafe.Pointer(&a.buf[a.base+a.used])
	a.used += size
	return ptr, nil
}

// Alloc allocates a slice of n zero values of type T.
// T must not contain any pointer.
func Alloc[T any](a *Arena, n int) ([]T, error) {
	if n < 0 {
		return nil, errors.Errorf("cannot allocate a negative number of elements: %d", n)
	}
	if n == 0 {
		return []T{}, nil
	}
	var zero T
	ptr, err := a.alloc(n * int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(ptr), n), nil
}

// Float64s allocates a slice of n float64.
func Float64s(a *Arena, n int) ([]float64, error) {
	return Alloc[float64](a, n)
}

// Estimator computes the number of bytes required by a sequence of allocations.
type Estimator struct {
	size int
}

// Reserve adds the allocation of n values of type T to the estimate.
func Reserve[T any](e *Estimator, n int) {
	var zero T
	e.size += AlignedSize(n * int(unsafe.Sizeof(zero)))
}

// Size returns the total number of bytes to allocate.
func (e *Estimator) Size() int {
	return e.size
}
