// Copyright 2025 The Rivaas Authors
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

package constraint

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStrategy indicates that a strategy is missing a required
	// name, store factory, or value deriver. This is fatal at construction
	// time and aborts router startup.
	ErrInvalidStrategy = errors.New("invalid constraint strategy")

	// ErrUnknownStrategy indicates that a constraint key references no
	// registered strategy. This is fatal for the registration call that
	// used the key.
	ErrUnknownStrategy = errors.New("unknown constraint strategy")
)

// ValidationError is returned when a strategy rejects a constraint value at
// route-registration time (e.g. an unparsable semantic-version range). It
// aborts the registration of that specific route and does not affect other
// routes.
type ValidationError struct {
	Strategy string // Strategy name that rejected the value
	Value    string // The rejected constraint value
	Err      error  // Underlying cause from the strategy's validator
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("constraint %q: invalid value %q: %v", e.Strategy, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
