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

package array

import (
	"slices"

	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// normAxis resolves a possibly negative axis in [-n, n).
func normAxis(axis, n int) (int, error) {
	abs, err := indexmap.AbsoluteIndex(axis, n)
	if err != nil {
		return 0, errors.Errorf("invalid axis %d for %d axes", axis, n)
	}
	return abs, nil
}

// PromoteInAxis inserts an axis of length 1 in a.
// A negative axis counts from the end of the new shape.
func PromoteInAxis(a *Array, axis int) (*Array, error) {
	if a.IsNone() {
		return nil, errors.Errorf("cannot promote none array")
	}
	axis, err := normAxis(axis, a.Rank()+1)
	if err != nil {
		return nil, err
	}
	return &Array{
		g:     a.g,
		shape: slices.Insert(a.shape.Clone(), axis, 1),
		elems: a.elems,
	}, nil
}

// setSubset copies the elements of src into dst following a range.
// The source of the range addresses dst and its destination addresses src.
func setSubset(dst []graph.Handle, r *indexmap.Range, src *Array) {
	for c := indexmap.NewCursor(r); c.Valid(); c.Next() {
		dst[c.Source()] = src.elems[c.Dest()]
	}
}

func checkGraphs(list []*Array) (*graph.Graph, error) {
	var g *graph.Graph
	for i, a := range list {
		if a.IsNone() {
			return nil, errors.Errorf("array %d is none", i)
		}
		if g == nil {
			g = a.g
		} else if a.g != g {
			return nil, errors.Errorf("array %d belongs to a different graph", i)
		}
	}
	return g, nil
}

// Stack joins arrays of the same shape along a new axis.
func Stack(list []*Array, axis int) (*Array, error) {
	if len(list) == 0 {
		return nil, errors.Errorf("cannot stack an empty list of arrays")
	}
	g, err := checkGraphs(list)
	if err != nil {
		return nil, err
	}
	sh := list[0].shape
	var errs error
	for i, a := range list[1:] {
		if !a.shape.Equal(sh) {
			errs = multierr.Append(errs, errors.Errorf("cannot stack array %d of shape %s with array 0 of shape %s", i+1, a.shape, sh))
		}
	}
	if errs != nil {
		return nil, errs
	}
	if len(list) == 1 {
		return PromoteInAxis(list[0], axis)
	}
	if axis, err = normAxis(axis, len(sh)+1); err != nil {
		return nil, err
	}
	res := newArray(g, slices.Insert(sh.Clone(), axis, len(list)))
	for i, a := range list {
		r := indexmap.Full(a.shape)
		if err := r.InsertAxis(axis, axis, 1); err != nil {
			return nil, err
		}
		if err := r.ExtendAxis(axis, len(list)); err != nil {
			return nil, err
		}
		if err := r.ShiftAxis(axis, i); err != nil {
			return nil, err
		}
		setSubset(res.elems, r, a)
	}
	return res, nil
}

// Concatenate joins arrays along an existing axis.
// Arrays with one axis fewer than the others are first promoted in axis.
// An empty list returns the none array.
func Concatenate(list []*Array, axis int) (*Array, error) {
	if len(list) == 0 {
		return None(), nil
	}
	g, err := checkGraphs(list)
	if err != nil {
		return nil, err
	}
	rank := 0
	for _, a := range list {
		rank = max(rank, a.Rank())
	}
	if rank == 0 {
		return nil, errors.Errorf("cannot concatenate scalars")
	}
	if axis, err = normAxis(axis, rank); err != nil {
		return nil, err
	}
	parts := make([]*Array, len(list))
	for i, a := range list {
		switch a.Rank() {
		case rank:
			parts[i] = a
		case rank - 1:
			if parts[i], err = PromoteInAxis(a, axis); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Errorf("cannot concatenate array %d of shape %s with arrays of %d axes", i, a.shape, rank)
		}
	}
	sh := parts[0].shape.Clone()
	sh[axis] = 0
	var errs error
	for i, a := range parts {
		for ax, n := range a.shape {
			if ax != axis && n != sh[ax] {
				errs = multierr.Append(errs, errors.Errorf("cannot concatenate array %d of shape %s along axis %d: axis %d has length %d instead of %d", i, a.shape, axis, ax, n, sh[ax]))
			}
		}
		sh[axis] += a.shape[axis]
	}
	if errs != nil {
		return nil, errs
	}
	res := newArray(g, sh)
	offset := 0
	for _, a := range parts {
		r := indexmap.Full(a.shape)
		if err := r.ExtendAxis(axis, sh[axis]); err != nil {
			return nil, err
		}
		if err := r.ShiftAxis(axis, offset); err != nil {
			return nil, err
		}
		setSubset(res.elems, r, a)
		offset += a.shape[axis]
	}
	return res, nil
}

// Append appends values to a along an axis.
// values is promoted in axis when it has one axis fewer than a.
// Appending to the none array promotes values.
func Append(a, values *Array, axis int) (*Array, error) {
	if a.IsNone() {
		return PromoteInAxis(values, axis)
	}
	return Concatenate([]*Array{a, values}, axis)
}
