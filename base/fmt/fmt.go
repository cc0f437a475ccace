// Copyright 2025 Google LLC
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

// Package fmt formats the textual representation of graphs and programs.
package fmt

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberFrom prefixes every line of a string with its number,
// the first line being numbered first. Numbers are padded with zeros
// to the width of the number of lines or of the last number, whichever
// is larger.
func NumberFrom(x string, first int) string {
	var lines []string
	for line := range strings.Lines(x) {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return x
	}
	// The width covers the number of lines even when numbering starts at 0.
	numDigits := len(strconv.Itoa(max(len(lines), first+len(lines)-1)))
	fmtString := fmt.Sprintf("%%0%dd %%s", numDigits)
	var s strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&s, fmtString, first+i, line)
	}
	return s.String()
}

// Number prefixes every line of a string with its number, starting at 1.
func Number(x string) string {
	return NumberFrom(x, 1)
}

// Indent every line of a string by a tabulation.
func Indent(x string) string {
	var y strings.Builder
	for line := range strings.Lines(x) {
		y.WriteString("\t")
		y.WriteString(line)
	}
	return y.String()
}
