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

package fmterr

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// InternalError is an error caused by a bug in vecexpr.
type InternalError struct {
	err error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Internal marks an error as internal.
// The stack trace of the call is recorded if err does not carry one.
func Internal(err error) error {
	var st stackTracer
	if !errors.As(err, &st) {
		err = errors.WithStack(err)
	}
	return &InternalError{err: err}
}

// Internalf returns a formatted internal error.
func Internalf(format string, a ...any) error {
	return Internal(errors.Errorf(format, a...))
}

// Error returns a string description of the error.
func (err *InternalError) Error() string {
	return fmt.Sprintf("vecexpr internal error. This is a bug in vecexpr. Please report it. Error:\n%v", err.err)
}

// Unwrap the error.
func (err *InternalError) Unwrap() error {
	return err.err
}

// StackTrace returns where the error was generated.
func (err *InternalError) StackTrace() errors.StackTrace {
	var st stackTracer
	if !errors.As(err.err, &st) {
		return nil
	}
	return st.StackTrace()
}

// Format writes the error into the state of the formatter.
// %+v appends the stack trace to the message.
func (err *InternalError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		io.WriteString(s, err.Error())
		if s.Flag('+') {
			fmt.Fprintf(s, "\nError generated at:%+v\n", err.StackTrace())
		}
	case 's':
		io.WriteString(s, err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}

// Check panics with an internal error if cond is false.
// Checks are compiled out with the vecexpr_nocheck build tag.
func Check(cond bool, format string, a ...any) {
	if !Checks || cond {
		return
	}
	panic(Internalf(format, a...))
}
