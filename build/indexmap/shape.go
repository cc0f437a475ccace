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

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Shape is the list of axis lengths of an array.
// An empty shape is the shape of a scalar.
type Shape []int

// Size returns the number of elements of an array of that shape.
func (s Shape) Size() int {
	size := 1
	for _, n := range s {
		size *= n
	}
	return size
}

// Equal returns true if both shapes have the same axis lengths.
func (s Shape) Equal(other Shape) bool {
	return slices.Equal(s, other)
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape{}, s...)
}

// Validate returns an error if an axis length is negative.
func (s Shape) Validate() error {
	for axis, n := range s {
		if n < 0 {
			return errors.Errorf("invalid shape %s: axis %d has a negative length", s, axis)
		}
	}
	return nil
}

// String representation of the shape.
func (s Shape) String() string {
	if len(s) == 1 {
		return "(" + strconv.Itoa(s[0]) + ",)"
	}
	ss := make([]string, len(s))
	for i, n := range s {
		ss[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(ss, ", ") + ")"
}

// AbsoluteIndex resolves a possibly negative index i on an axis of length n.
func AbsoluteIndex(i, n int) (int, error) {
	abs := i
	if abs < 0 {
		abs += n
	}
	if abs < 0 || abs >= n {
		return 0, errors.Errorf("index %d out of range for an axis of length %d", i, n)
	}
	return abs, nil
}

func padLeft(s Shape, rank int) Shape {
	res := make(Shape, rank-len(s), rank)
	for i := range res {
		res[i] = 1
	}
	return append(res, s...)
}

// CommonShape returns the shape two arrays of shape a and b are both
// broadcast to when combined elementwise.
func CommonShape(a, b Shape) (Shape, error) {
	rank := max(len(a), len(b))
	pa, pb := padLeft(a, rank), padLeft(b, rank)
	res := make(Shape, rank)
	for axis := range rank {
		an, bn := pa[axis], pb[axis]
		switch {
		case an == bn:
			res[axis] = an
		case an == 1:
			res[axis] = bn
		case bn == 1:
			res[axis] = an
		default:
			return nil, errors.Errorf("cannot broadcast %d and %d in axis %d: shapes %s and %s are not compatible", an, bn, axis, a, b)
		}
	}
	return res, nil
}
