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

// Package fmtarray formats arrays into string.
package fmtarray

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const tab = "\t"

// Number is a type of the elements that can be printed.
type Number interface {
	~int32 | ~int64 | ~float32 | ~float64
}

type builder[T Number] struct {
	w       strings.Builder
	at      func(int) T
	axes    []int
	offsets []int
}

func newBuilder[T Number](size int, at func(int) T, axes []int) (*builder[T], error) {
	total := 1
	for _, n := range axes {
		total *= n
	}
	if total != size {
		return nil, errors.Errorf("%d elements do not match axes %v=%d", size, axes, total)
	}
	b := &builder[T]{at: at, axes: axes, offsets: make([]int, len(axes))}
	stride := 1
	for i := len(axes) - 1; i >= 0; i-- {
		b.offsets[i] = stride
		stride *= axes[i]
	}
	return b, nil
}

func toString[T Number](x T) string {
	switch v := any(x).(type) {
	case float32:
		return trimZeros(strconv.FormatFloat(float64(v), 'f', 6, 32))
	case float64:
		return trimZeros(strconv.FormatFloat(v, 'f', 10, 64))
	}
	return fmt.Sprint(x)
}

// trimZeros removes the trailing zeroes after the decimal point and
// the point itself if there are no digits after it.
func trimZeros(s string) string {
	if !strings.ContainsRune(s, '.') {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}

func (b *builder[T]) writeVector(offset int) {
	n := b.axes[len(b.axes)-1]
	vals := make([]string, n)
	for i := range n {
		vals[i] = toString(b.at(offset + i))
	}
	b.w.WriteString("{" + strings.Join(vals, ", ") + "}")
}

// write prints the sub-array starting at offset, from a given axis.
func (b *builder[T]) write(indent string, axis, offset int) {
	if axis == len(b.axes)-1 {
		b.writeVector(offset)
		return
	}
	b.w.WriteString("{\n")
	for i := range b.axes[axis] {
		b.w.WriteString(indent + tab)
		b.write(indent+tab, axis+1, offset+i*b.offsets[axis])
		b.w.WriteString(",\n")
	}
	b.w.WriteString(indent + "}")
}

func (b *builder[T]) writeData() {
	if len(b.axes) == 0 {
		b.w.WriteString("(" + toString(b.at(0)) + ")")
		return
	}
	b.write("", 0, 0)
}

func (b *builder[T]) writeType() {
	for _, n := range b.axes {
		fmt.Fprintf(&b.w, "[%d]", n)
	}
	var zero T
	fmt.Fprintf(&b.w, "%T", zero)
}

func sprint[T Number](size int, at func(int) T, axes []int, withType bool) string {
	b, err := newBuilder(size, at, axes)
	if err != nil {
		return err.Error()
	}
	if withType {
		b.writeType()
	}
	b.writeData()
	return b.w.String()
}

// SDataPrint returns a string representation of the content of an array without the type.
func SDataPrint[T Number](data []T, axes []int) string {
	return sprint(len(data), func(i int) T { return data[i] }, axes, false)
}

// Sprint returns a string representation of an array.
func Sprint[T Number](data []T, axes []int) string {
	return sprint(len(data), func(i int) T { return data[i] }, axes, true)
}

// SprintLane returns a string representation of one lane of an array of
// vectors, where element i of the array is stored in
// data[i*stride:(i+1)*stride].
func SprintLane[T Number](data []T, stride, lane int, axes []int) string {
	if lane < 0 || lane >= stride {
		return fmt.Sprintf("lane %d out of range [0, %d)", lane, stride)
	}
	return sprint(len(data)/stride, func(i int) T { return data[i*stride+lane] }, axes, true)
}
