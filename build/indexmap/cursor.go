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

package indexmap

// Cursor iterates over the destination positions of a complete range.
//
// The cursor stores, for each source axis, a position in the list of
// indices selected on that axis. The last destination axis runs fastest.
type Cursor struct {
	r       *Range
	indices []int
	valid   bool
}

// NewCursor returns a cursor at the first position of a range.
// The range must be complete and must not be modified while the cursor is in use.
func NewCursor(r *Range) *Cursor {
	c := &Cursor{
		r:       r,
		indices: make([]int, len(r.ranges)),
	}
	c.Reset()
	return c
}

// Reset moves the cursor back to the first position.
func (c *Cursor) Reset() {
	clear(c.indices)
	c.valid = true
	for _, rg := range c.r.ranges {
		if len(rg) == 0 {
			c.valid = false
		}
	}
}

// Valid returns false once all the positions have been visited.
func (c *Cursor) Valid() bool {
	return c.valid
}

// Next moves the cursor to the next destination position.
// It returns false when there are no more positions, in which case
// the cursor becomes invalid and its indices are all reset to zero.
func (c *Cursor) Next() bool {
	if !c.valid {
		return false
	}
	for dest := len(c.r.transpose) - 1; dest >= 0; dest-- {
		src := c.r.transpose[dest]
		if src == NewAxis {
			continue
		}
		c.indices[src]++
		if c.indices[src] < len(c.r.ranges[src]) {
			return true
		}
		c.indices[src] = 0
	}
	c.valid = false
	return false
}

// Source returns the offset of the current position in the flat source array.
func (c *Cursor) Source() int {
	offset := 0
	for axis, i := range c.indices {
		offset = offset*c.r.fullShape[axis] + c.r.ranges[axis][i]
	}
	return offset
}

// Dest returns the offset of the current position in the flat destination array.
func (c *Cursor) Dest() int {
	offset := 0
	for _, src := range c.r.transpose {
		if src == NewAxis {
			continue
		}
		offset = offset*len(c.r.ranges[src]) + c.indices[src]
	}
	return offset
}

// Indices returns the source indices of the current position.
func (c *Cursor) Indices() []int {
	idx := make([]int, len(c.indices))
	for axis, i := range c.indices {
		idx[axis] = c.r.ranges[axis][i]
	}
	return idx
}
