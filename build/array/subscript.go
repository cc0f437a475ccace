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
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/pkg/errors"
)

type (
	// Subscript selects elements along the next axis of an array.
	Subscript interface {
		subscribe(*indexmap.Range) error
	}

	indexSub int

	listSub []int

	sliceSub struct {
		start, stop, step int
	}

	newAxisSub struct{}
)

// Index selects a single element and removes the axis.
func Index(i int) Subscript {
	return indexSub(i)
}

// List selects a list of elements.
func List(indices ...int) Subscript {
	return listSub(indices)
}

// Slice selects elements from start to stop (excluded) by step.
// Use indexmap.Unset for absent bounds.
func Slice(start, stop, step int) Subscript {
	return sliceSub{start: start, stop: stop, step: step}
}

// All selects all the elements of an axis.
func All() Subscript {
	return Slice(indexmap.Unset, indexmap.Unset, indexmap.Unset)
}

// NewAxis inserts an axis of length 1 in the result.
func NewAxis() Subscript {
	return newAxisSub{}
}

func (s indexSub) subscribe(r *indexmap.Range) error {
	return r.SubIndex(int(s))
}

func (s listSub) subscribe(r *indexmap.Range) error {
	return r.SubRange(s)
}

func (s sliceSub) subscribe(r *indexmap.Range) error {
	return r.SubSlice(s.start, s.stop, s.step)
}

func (newAxisSub) subscribe(r *indexmap.Range) error {
	r.SubNewAxis()
	return nil
}

// Subscribe returns the elements of a selected by subscripts.
// Axes without subscripts are fully selected.
func Subscribe(a *Array, subs ...Subscript) (*Array, error) {
	if a.IsNone() {
		return nil, errors.Errorf("cannot subscript none array")
	}
	r := indexmap.New(a.shape)
	for i, sub := range subs {
		if err := sub.subscribe(r); err != nil {
			return nil, errors.Wrapf(err, "subscript %d of array of shape %s", i, a.shape)
		}
	}
	r.Finish()
	res := newArray(a.g, r.Shape())
	for c := indexmap.NewCursor(r); c.Valid(); c.Next() {
		res.elems[c.Dest()] = a.elems[c.Source()]
	}
	return res, nil
}
