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

package platform_test

import (
	"testing"

	"github.com/gx-org/vecexpr/golang/backend/platform"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string {
		return vars[key]
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		desc  string
		env   map[string]string
		f     platform.Features
		want  int
		force bool
		err   bool
	}{
		{desc: "no feature", want: 1},
		{desc: "sse4.1", f: platform.Features{SSE41: true}, want: 2},
		{desc: "asimd", f: platform.Features{ASIMD: true}, want: 2},
		{desc: "avx2", f: platform.Features{SSE41: true, AVX2: true}, want: 4},
		{desc: "avx512", f: platform.Features{SSE41: true, AVX2: true, AVX512F: true}, want: 8},
		{
			desc:  "no simd",
			env:   map[string]string{platform.NoSimdEnv: "1"},
			f:     platform.Features{AVX2: true},
			want:  1,
			force: true,
		},
		{
			desc: "no simd false",
			env:  map[string]string{platform.NoSimdEnv: "false"},
			f:    platform.Features{AVX2: true},
			want: 4,
		},
		{
			desc:  "forced lanes",
			env:   map[string]string{platform.LanesEnv: "2"},
			f:     platform.Features{AVX512F: true},
			want:  2,
			force: true,
		},
		{desc: "invalid lanes", env: map[string]string{platform.LanesEnv: "3"}, err: true},
		{desc: "lanes not a number", env: map[string]string{platform.LanesEnv: "four"}, err: true},
	}
	for _, test := range tests {
		got, err := platform.Probe(env(test.env), test.f)
		if test.err {
			if err == nil {
				t.Errorf("%s: expected an error", test.desc)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.desc, err)
			continue
		}
		if got.Lanes() != test.want {
			t.Errorf("%s: got %d lanes (%s) but want %d", test.desc, got.Lanes(), got.Level, test.want)
		}
		if got.Forced != test.force {
			t.Errorf("%s: got forced=%v but want %v", test.desc, got.Forced, test.force)
		}
	}
}

func TestLevelOf(t *testing.T) {
	for _, lanes := range []int{1, 2, 4, 8} {
		level, err := platform.LevelOf(lanes)
		if err != nil {
			t.Fatal(err)
		}
		if level.Lanes() != lanes {
			t.Errorf("got %d lanes for %s but want %d", level.Lanes(), level, lanes)
		}
	}
	if _, err := platform.LevelOf(16); err == nil {
		t.Errorf("expected an error for 16 lanes")
	}
}

func TestDetect(t *testing.T) {
	c1, err1 := platform.Detect()
	c2, err2 := platform.Detect()
	if err1 != err2 || c1 != c2 {
		t.Errorf("host probed twice with different results: %v/%v and %v/%v", c1, err1, c2, err2)
	}
}
