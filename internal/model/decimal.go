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

package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// OptionalDecimal distinguishes "absent" from "present but zero," the same
// role OptionallySet[T] plays in the teacher's blob-state types. A decimal
// type is used instead of float64 throughout so that "5" and "5.00" compare
// equal per spec invariant on numeric equality, without floating point
// rounding artifacts.
type OptionalDecimal struct {
	Value decimal.Decimal
	Valid bool
}

// NoDecimal is the zero value representing an absent optional decimal.
var NoDecimal = OptionalDecimal{}

// SomeDecimal wraps a present value.
func SomeDecimal(d decimal.Decimal) OptionalDecimal {
	return OptionalDecimal{Value: d, Valid: true}
}

// ParseOptionalDecimal parses s into a present OptionalDecimal, or returns
// NoDecimal unchanged for an empty string.
func ParseOptionalDecimal(s string) (OptionalDecimal, error) {
	if s == "" {
		return NoDecimal, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return OptionalDecimal{}, fmt.Errorf("parse decimal %q: %w", s, err)
	}

	return SomeDecimal(d), nil
}

// Equal reports numeric equality: both sides must agree on presence, and if
// present, on value ("5" == "5.00").
func (o OptionalDecimal) Equal(other OptionalDecimal) bool {
	if o.Valid != other.Valid {
		return false
	}
	if !o.Valid {
		return true
	}

	return o.Value.Equal(other.Value)
}

// Format renders the decimal with no leading/trailing noise, stripping
// trailing zeros per the formatting convention in spec.md §6. An absent
// value renders as the em-dash sentinel.
func (o OptionalDecimal) Format() string {
	if !o.Valid {
		return "—"
	}

	s := o.Value.StringFixed(decimalDisplayPrecision)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}

	return s
}

// decimalDisplayPrecision is generous enough that rounding at this many
// places never discards a significant digit a real grade source would emit.
const decimalDisplayPrecision = 6
