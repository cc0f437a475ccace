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

// Package options specifies options for expressions.
package options

import (
	"maps"
	"math"

	"github.com/pkg/errors"
)

// DefaultVectorSize is the number of float64 in every variable window
// when no vector size is specified.
const DefaultVectorSize = 1024

type (
	// Config of an expression.
	Config struct {
		// VectorSize is the number of float64 in the window of every element
		// of a variable.
		VectorSize int
		// Lanes is the number of float64 processed together.
		// The host is probed when Lanes is 0.
		Lanes int
		// Defaults are scalar symbols available to all expressions
		// unless a variable or constant of the same name is set.
		Defaults map[string]float64
		// Dedup enables the deduplication of identical graph nodes.
		Dedup bool
	}

	// Option modifies a configuration.
	Option func(*Config) error
)

// DefaultSymbols returns the scalar symbols defined for all expressions.
func DefaultSymbols() map[string]float64 {
	return map[string]float64{
		"pi":    math.Pi,
		"e":     math.E,
		"true":  1,
		"false": 0,
	}
}

// New returns a configuration given a set of options.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		VectorSize: DefaultVectorSize,
		Defaults:   DefaultSymbols(),
		Dedup:      true,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithVectorSize sets the vector size.
func WithVectorSize(n int) Option {
	return func(cfg *Config) error {
		if n <= 0 {
			return errors.Errorf("invalid vector size %d: must be positive", n)
		}
		cfg.VectorSize = n
		return nil
	}
}

// WithLaneWidth forces the number of float64 processed together.
func WithLaneWidth(lanes int) Option {
	return func(cfg *Config) error {
		switch lanes {
		case 1, 2, 4, 8:
		default:
			return errors.Errorf("invalid lane width %d: must be 1, 2, 4, or 8", lanes)
		}
		cfg.Lanes = lanes
		return nil
	}
}

// WithDefaults replaces the default symbols.
func WithDefaults(defaults map[string]float64) Option {
	return func(cfg *Config) error {
		cfg.Defaults = maps.Clone(defaults)
		return nil
	}
}

// WithoutDedup disables the deduplication of identical graph nodes.
func WithoutDedup() Option {
	return func(cfg *Config) error {
		cfg.Dedup = false
		return nil
	}
}
