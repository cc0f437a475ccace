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

// Package indexmap maps the multi-indices of a destination array
// to the multi-indices of a source array.
//
// A Range selects, for every axis of the source array, an ordered list of
// indices. A transpose then maps every destination axis to a source axis,
// or to NewAxis for a synthesized axis of length 1. Slicing, broadcasting,
// stacking and contractions are all expressed as ranges, and a Cursor walks
// the destination array while reporting the matching source offsets.
package indexmap

import (
	"fmt"
	"math"
	"slices"

	"github.com/pkg/errors"
)

const (
	// NewAxis marks a destination axis of length 1 not present in the source.
	NewAxis = -1

	// Unset marks an absent slice bound or step.
	Unset = math.MinInt
)

// Range maps a destination array to a subset of a source array.
type Range struct {
	fullShape Shape
	ranges    [][]int
	transpose []int
}

// New returns a range over a source of a given shape with no axis selected yet.
// Axes are then selected in order by the Sub* methods.
func New(shape Shape) *Range {
	return &Range{fullShape: shape.Clone()}
}

// Full returns the identity range of a shape.
func Full(shape Shape) *Range {
	r := New(shape)
	r.Finish()
	return r
}

func seq(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Clone returns a deep copy of the range.
func (r *Range) Clone() *Range {
	ranges := make([][]int, len(r.ranges))
	for i, rg := range r.ranges {
		ranges[i] = slices.Clone(rg)
	}
	return &Range{
		fullShape: r.fullShape.Clone(),
		ranges:    ranges,
		transpose: slices.Clone(r.transpose),
	}
}

// FullShape returns the shape of the source array.
func (r *Range) FullShape() Shape {
	return r.fullShape
}

// Indices returns the source indices selected along a source axis.
func (r *Range) Indices(axis int) []int {
	return r.ranges[axis]
}

// Transpose returns the source axis of each destination axis.
func (r *Range) Transpose() []int {
	return r.transpose
}

// Shape returns the shape of the destination array.
func (r *Range) Shape() Shape {
	shape := make(Shape, len(r.transpose))
	for dest, src := range r.transpose {
		if src == NewAxis {
			shape[dest] = 1
			continue
		}
		shape[dest] = len(r.ranges[src])
	}
	return shape
}

// Complete returns true if every source axis has been selected.
func (r *Range) Complete() bool {
	return len(r.ranges) == len(r.fullShape)
}

func (r *Range) nextAxis() (int, error) {
	axis := len(r.ranges)
	if axis >= len(r.fullShape) {
		return 0, errors.Errorf("too many indices for an array of shape %s", r.fullShape)
	}
	return axis, nil
}

// SubIndex selects a single index on the next source axis.
// The axis does not appear in the destination.
func (r *Range) SubIndex(i int) error {
	axis, err := r.nextAxis()
	if err != nil {
		return err
	}
	abs, err := AbsoluteIndex(i, r.fullShape[axis])
	if err != nil {
		return errors.Wrapf(err, "axis %d", axis)
	}
	r.ranges = append(r.ranges, []int{abs})
	return nil
}

// SubRange selects a list of indices on the next source axis.
func (r *Range) SubRange(list []int) error {
	axis, err := r.nextAxis()
	if err != nil {
		return err
	}
	rg := make([]int, len(list))
	for i, idx := range list {
		if rg[i], err = AbsoluteIndex(idx, r.fullShape[axis]); err != nil {
			return errors.Wrapf(err, "axis %d", axis)
		}
	}
	r.ranges = append(r.ranges, rg)
	r.transpose = append(r.transpose, axis)
	return nil
}

// sliceBound resolves a slice bound the way Python does: negative bounds
// count from the end of the axis and out of range bounds are clamped.
func sliceBound(i, n, step int, isStart bool) int {
	if i == Unset {
		switch {
		case step > 0 && isStart:
			return 0
		case step > 0:
			return n
		case isStart:
			return n - 1
		default:
			return -1
		}
	}
	if i < 0 {
		i += n
	}
	lower, upper := 0, n
	if step < 0 {
		lower, upper = -1, n-1
	}
	return min(max(i, lower), upper)
}

// SubSlice selects the indices start:stop:step on the next source axis.
// Any of start, stop or step can be Unset.
func (r *Range) SubSlice(start, stop, step int) error {
	axis, err := r.nextAxis()
	if err != nil {
		return err
	}
	if step == Unset {
		step = 1
	}
	if step == 0 {
		return errors.Errorf("slice step cannot be zero")
	}
	n := r.fullShape[axis]
	first := sliceBound(start, n, step, true)
	last := sliceBound(stop, n, step, false)
	rg := []int{}
	for idx := first; (last-idx)*step > 0; idx += step {
		rg = append(rg, idx)
	}
	r.ranges = append(r.ranges, rg)
	r.transpose = append(r.transpose, axis)
	return nil
}

// SubNewAxis adds a destination axis of length 1.
func (r *Range) SubNewAxis() {
	r.transpose = append(r.transpose, NewAxis)
}

// Finish selects all the indices of the source axes not selected yet.
func (r *Range) Finish() {
	for axis := len(r.ranges); axis < len(r.fullShape); axis++ {
		r.ranges = append(r.ranges, seq(r.fullShape[axis]))
		r.transpose = append(r.transpose, axis)
	}
}

// InsertAxis inserts a new source axis of length dimension at srcAxis
// and maps it to the destination axis destAxis.
func (r *Range) InsertAxis(destAxis, srcAxis, dimension int) error {
	if srcAxis < 0 || srcAxis > len(r.ranges) {
		return errors.Errorf("cannot insert source axis %d in a range of %d axes", srcAxis, len(r.ranges))
	}
	if destAxis < 0 || destAxis > len(r.transpose) {
		return errors.Errorf("cannot insert destination axis %d in a range of %d axes", destAxis, len(r.transpose))
	}
	if dimension < 0 {
		return errors.Errorf("cannot insert an axis of negative length %d", dimension)
	}
	r.fullShape = slices.Insert(r.fullShape, srcAxis, dimension)
	r.ranges = slices.Insert(r.ranges, srcAxis, seq(dimension))
	for i, src := range r.transpose {
		if src >= srcAxis {
			r.transpose[i]++
		}
	}
	r.transpose = slices.Insert(r.transpose, destAxis, srcAxis)
	return nil
}

// RemoveDestinationAxis removes a destination axis of length 1.
func (r *Range) RemoveDestinationAxis(destAxis int) error {
	if destAxis < 0 || destAxis >= len(r.transpose) {
		return errors.Errorf("cannot remove destination axis %d from a range of %d axes", destAxis, len(r.transpose))
	}
	if src := r.transpose[destAxis]; src != NewAxis && len(r.ranges[src]) != 1 {
		return errors.Errorf("cannot remove destination axis %d of length %d", destAxis, len(r.ranges[src]))
	}
	r.transpose = slices.Delete(r.transpose, destAxis, destAxis+1)
	return nil
}

// ShiftAxis adds shift to all the indices selected on a source axis.
func (r *Range) ShiftAxis(axis, shift int) error {
	if axis < 0 || axis >= len(r.ranges) {
		return errors.Errorf("cannot shift axis %d of a range of %d axes", axis, len(r.ranges))
	}
	for _, idx := range r.ranges[axis] {
		if idx+shift < 0 || idx+shift >= r.fullShape[axis] {
			return errors.Errorf("shifting index %d by %d out of axis %d of length %d", idx, shift, axis, r.fullShape[axis])
		}
	}
	for i := range r.ranges[axis] {
		r.ranges[axis][i] += shift
	}
	return nil
}

// ExtendAxis sets the length of a source axis, typically before shifting it
// to place a sub-array inside a larger destination.
func (r *Range) ExtendAxis(axis, length int) error {
	if axis < 0 || axis >= len(r.fullShape) {
		return errors.Errorf("cannot extend axis %d of a range of %d axes", axis, len(r.fullShape))
	}
	if axis < len(r.ranges) {
		for _, idx := range r.ranges[axis] {
			if idx >= length {
				return errors.Errorf("cannot set length of axis %d to %d: index %d selected", axis, length, idx)
			}
		}
	}
	r.fullShape[axis] = length
	return nil
}

// Broadcast returns a range broadcasting the whole source to a target shape.
// The source shape is padded on the left with ones; axes of length 1 are
// repeated and the other axes must match the target.
func (r *Range) Broadcast(target Shape) (*Range, error) {
	pad := len(target) - len(r.fullShape)
	if pad < 0 {
		return nil, errors.Errorf("cannot broadcast shape %s to shape %s with fewer axes", r.fullShape, target)
	}
	res := &Range{
		fullShape: padLeft(r.fullShape, len(target)),
		ranges:    make([][]int, len(target)),
		transpose: seq(len(target)),
	}
	for axis, n := range res.fullShape {
		switch n {
		case target[axis]:
			res.ranges[axis] = seq(n)
		case 1:
			res.ranges[axis] = make([]int, target[axis])
		default:
			return nil, errors.Errorf("cannot broadcast shape %s to shape %s: axis %d has length %d instead of %d", r.fullShape, target, axis, n, target[axis])
		}
	}
	return res, nil
}

// String representation of the range.
func (r *Range) String() string {
	return fmt.Sprintf("Range{full: %s, ranges: %v, transpose: %v}", r.fullShape, r.ranges, r.transpose)
}
