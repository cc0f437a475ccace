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
	"github.com/gx-org/vecexpr/build/graph"
	"github.com/gx-org/vecexpr/build/indexmap"
	"github.com/pkg/errors"
)

// MatMul returns the matrix product of a and b over their last two axes,
// broadcasting the leading axes.
// A vector as the left operand is a row and a vector as the right operand
// is a column. The corresponding axis is removed from the result.
func MatMul(a, b *Array) (*Array, error) {
	g, err := operandGraph(graph.OpMul, a, b)
	if err != nil {
		return nil, err
	}
	if a.Rank() == 0 || b.Rank() == 0 {
		return nil, errors.Errorf("matrix multiplication of %s by %s: operands cannot be scalars", a.shape, b.shape)
	}
	rowVector, colVector := a.Rank() == 1, b.Rank() == 1
	if rowVector {
		if a, err = PromoteInAxis(a, 0); err != nil {
			return nil, err
		}
	}
	if colVector {
		if b, err = PromoteInAxis(b, -1); err != nil {
			return nil, err
		}
	}
	ra, rb := a.Rank(), b.Rank()
	m, n := a.shape[ra-2], a.shape[ra-1]
	k, p := b.shape[rb-2], b.shape[rb-1]
	if n != k {
		return nil, errors.Errorf("matrix multiplication of %s by %s: contraction axes of length %d and %d do not match", a.shape, b.shape, n, k)
	}
	if n == 0 {
		return nil, errors.Errorf("matrix multiplication of %s by %s: empty contraction axis", a.shape, b.shape)
	}
	batch, err := indexmap.CommonShape(a.shape[:ra-2], b.shape[:rb-2])
	if err != nil {
		return nil, errors.Wrap(err, "matrix multiplication")
	}
	if a, err = Broadcast(a, append(batch.Clone(), m, n)); err != nil {
		return nil, err
	}
	if b, err = Broadcast(b, append(batch.Clone(), n, p)); err != nil {
		return nil, err
	}
	resShape := append(batch.Clone(), m, p)
	res := newArray(g, resShape)
	for bi := range batch.Size() {
		aMat := a.elems[bi*m*n : (bi+1)*m*n]
		bMat := b.elems[bi*n*p : (bi+1)*n*p]
		out := res.elems[bi*m*p : (bi+1)*m*p]
		for i := range m {
			for j := range p {
				acc, err := g.Apply(graph.OpMul, aMat[i*n], bMat[j])
				if err != nil {
					return nil, err
				}
				for l := 1; l < n; l++ {
					prod, err := g.Apply(graph.OpMul, aMat[i*n+l], bMat[l*p+j])
					if err != nil {
						return nil, err
					}
					if acc, err = g.Apply(graph.OpAdd, acc, prod); err != nil {
						return nil, err
					}
				}
				out[i*p+j] = acc
			}
		}
	}
	if !rowVector && !colVector {
		return res, nil
	}
	r := indexmap.Full(resShape)
	rank := len(resShape)
	if colVector {
		if err := r.RemoveDestinationAxis(rank - 1); err != nil {
			return nil, err
		}
	}
	if rowVector {
		if err := r.RemoveDestinationAxis(rank - 2); err != nil {
			return nil, err
		}
	}
	res.shape = r.Shape()
	return res, nil
}
