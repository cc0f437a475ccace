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

package fmterr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gx-org/vecexpr/build/fmterr"
	"github.com/pkg/errors"
)

func TestPrefixWith(t *testing.T) {
	prefix := fmterr.PrefixWith("variable %q: ", "x")
	if err := prefix(nil); err != nil {
		t.Errorf("got %v but want nil", err)
	}
	base := errors.New("negative axis")
	err := prefix(base)
	if got, want := err.Error(), `variable "x": negative axis`; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	if !errors.Is(err, base) {
		t.Errorf("prefixed error does not wrap the original error")
	}
}

func TestInternal(t *testing.T) {
	err := fmterr.Internalf("node %d has no slot", 3)
	var internal *fmterr.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("got %T but want %T", err, internal)
	}
	if !strings.Contains(err.Error(), "node 3 has no slot") {
		t.Errorf("error %q does not contain its cause", err.Error())
	}
	if verbose := fmt.Sprintf("%+v", err); !strings.Contains(verbose, "Error generated at:") {
		t.Errorf("verbose error does not contain a stack trace:\n%s", verbose)
	}
}

func TestInternalKeepsStack(t *testing.T) {
	cause := errors.New("slot out of range")
	err := fmterr.Internal(cause)
	var internal *fmterr.InternalError
	if !errors.As(err, &internal) {
		t.Fatalf("got %T but want %T", err, internal)
	}
	if len(internal.StackTrace()) == 0 {
		t.Errorf("internal error has no stack trace")
	}
	if !errors.Is(err, cause) {
		t.Errorf("internal error does not wrap its cause")
	}
	if got := fmt.Sprintf("%s", err); strings.Contains(got, "Error generated at:") {
		t.Errorf("%%s prints a stack trace:\n%s", got)
	}
}

func TestCheck(t *testing.T) {
	fmterr.Check(true, "never reported")
	if !fmterr.Checks {
		t.Skip("checks are disabled")
	}
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok {
			t.Fatalf("got %v but want a panic with an error", r)
		}
		if !strings.Contains(err.Error(), "cursor 1 at 4") {
			t.Errorf("unexpected error %q", err.Error())
		}
	}()
	fmterr.Check(false, "cursor %d at %d", 1, 4)
}
