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

// Package platform probes the host CPU to select the number of float64
// lanes processed together by the kernels of a program.
package platform

import (
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sys/cpu"
)

// Level is a SIMD capability level.
type Level int

const (
	// Scalar processes one value at a time.
	Scalar Level = iota
	// Vec128 processes 128-bit vectors (SSE4.1 or ASIMD).
	Vec128
	// Vec256 processes 256-bit vectors (AVX2).
	Vec256
	// Vec512 processes 512-bit vectors (AVX-512).
	Vec512
)

// String returns the name of the level.
func (l Level) String() string {
	switch l {
	case Scalar:
		return "scalar"
	case Vec128:
		return "vec128"
	case Vec256:
		return "vec256"
	case Vec512:
		return "vec512"
	default:
		return "unknown"
	}
}

// Lanes returns the number of float64 processed together at that level.
func (l Level) Lanes() int {
	return 1 << l
}

// LevelOf returns the level processing a given number of lanes.
func LevelOf(lanes int) (Level, error) {
	switch lanes {
	case 1:
		return Scalar, nil
	case 2:
		return Vec128, nil
	case 4:
		return Vec256, nil
	case 8:
		return Vec512, nil
	}
	return Scalar, errors.Errorf("unsupported number of lanes %d: must be 1, 2, 4, or 8", lanes)
}

// Features are the CPU features relevant to the selection of a level.
type Features struct {
	AVX512F bool
	AVX2    bool
	SSE41   bool
	ASIMD   bool
}

// HostFeatures returns the features of the host CPU.
func HostFeatures() Features {
	return Features{
		AVX512F: cpu.X86.HasAVX512F,
		AVX2:    cpu.X86.HasAVX2,
		SSE41:   cpu.X86.HasSSE41,
		ASIMD:   cpu.ARM64.HasASIMD,
	}
}

// Select returns the highest level supported by a set of features.
func Select(f Features) Level {
	switch {
	case f.AVX512F:
		return Vec512
	case f.AVX2:
		return Vec256
	case f.SSE41, f.ASIMD:
		return Vec128
	default:
		return Scalar
	}
}

const (
	// NoSimdEnv is the environment variable forcing the scalar level when true.
	NoSimdEnv = "VECEXPR_NO_SIMD"

	// LanesEnv is the environment variable forcing the number of lanes.
	LanesEnv = "VECEXPR_LANES"
)

// Capability is the level selected for the host.
type Capability struct {
	Level  Level
	Forced bool
}

// Lanes returns the number of float64 processed together.
func (c Capability) Lanes() int {
	return c.Level.Lanes()
}

func noSimd(val string) bool {
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// Probe selects a level given the environment and a set of CPU features.
func Probe(getenv func(string) string, f Features) (Capability, error) {
	if noSimd(getenv(NoSimdEnv)) {
		return Capability{Level: Scalar, Forced: true}, nil
	}
	if val := getenv(LanesEnv); val != "" {
		lanes, err := strconv.Atoi(val)
		if err != nil {
			return Capability{}, errors.Errorf("invalid value %q for %s: %v", val, LanesEnv, err)
		}
		level, err := LevelOf(lanes)
		if err != nil {
			return Capability{}, errors.Wrapf(err, "invalid value for %s", LanesEnv)
		}
		return Capability{Level: level, Forced: true}, nil
	}
	return Capability{Level: Select(f)}, nil
}

var detect = sync.OnceValues(func() (Capability, error) {
	return Probe(os.Getenv, HostFeatures())
})

// Detect returns the capability of the host.
// The host is only probed once.
func Detect() (Capability, error) {
	return detect()
}
