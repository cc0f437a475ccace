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

// Op is the code of a scalar operation.
// Booleans are represented by 1 (true) and 0 (false).
type Op uint8

const (
	// OpNone is the operation of leaf nodes. It also terminates a program.
	OpNone Op = iota

	// Unary operations.
	OpCopy
	OpNeg
	OpNot
	OpAbs
	OpSqrt
	OpExp
	OpLog
	OpLog10
	OpSin
	OpSinh
	OpAsin
	OpCos
	OpCosh
	OpAcos
	OpTan
	OpTanh
	OpAtan
	OpCeil
	OpFloor
	OpIsNaN
	OpIsInf
	OpSign

	// Binary operations.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpAtan2
	OpMax
	OpMin
	OpEq
	OpNe
	OpLt
	OpLe
	OpAnd
	OpOr

	// OpSelect replaces the value of its first operand by its third operand
	// where its second operand is true. It is only computed in place.
	OpSelect

	// NumOps is the number of operation codes.
	NumOps
)

type opInfo struct {
	name  string
	arity int
}

var ops = [NumOps]opInfo{
	OpNone:   {"end", 0},
	OpCopy:   {"copy", 1},
	OpNeg:    {"neg", 1},
	OpNot:    {"not", 1},
	OpAbs:    {"abs", 1},
	OpSqrt:   {"sqrt", 1},
	OpExp:    {"exp", 1},
	OpLog:    {"log", 1},
	OpLog10:  {"log10", 1},
	OpSin:    {"sin", 1},
	OpSinh:   {"sinh", 1},
	OpAsin:   {"asin", 1},
	OpCos:    {"cos", 1},
	OpCosh:   {"cosh", 1},
	OpAcos:   {"acos", 1},
	OpTan:    {"tan", 1},
	OpTanh:   {"tanh", 1},
	OpAtan:   {"atan", 1},
	OpCeil:   {"ceil", 1},
	OpFloor:  {"floor", 1},
	OpIsNaN:  {"isnan", 1},
	OpIsInf:  {"isinf", 1},
	OpSign:   {"sign", 1},
	OpAdd:    {"add", 2},
	OpSub:    {"sub", 2},
	OpMul:    {"mul", 2},
	OpDiv:    {"div", 2},
	OpMod:    {"mod", 2},
	OpPow:    {"pow", 2},
	OpAtan2:  {"atan2", 2},
	OpMax:    {"max", 2},
	OpMin:    {"min", 2},
	OpEq:     {"eq", 2},
	OpNe:     {"ne", 2},
	OpLt:     {"lt", 2},
	OpLe:     {"le", 2},
	OpAnd:    {"and", 2},
	OpOr:     {"or", 2},
	OpSelect: {"select", 3},
}

// Valid returns true if the code is a known operation.
func (op Op) Valid() bool {
	return op < NumOps
}

// Arity returns the number of operands of the operation.
func (op Op) Arity() int {
	if !op.Valid() {
		return -1
	}
	return ops[op].arity
}

// String returns the name of the operation.
func (op Op) String() string {
	if !op.Valid() {
		return fmt.Sprintf("Op(%d)", uint8(op))
	}
	return ops[op].name
}
