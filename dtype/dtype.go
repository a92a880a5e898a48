// Copyright 2025 go-bestla Authors
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

// Package dtype defines the element types shared by the kernel and ref
// packages: sub-byte integer and float tags, the bf16 and f8 scalar
// containers, and the fixed dequantization lookup tables.
package dtype

import "math"

// S4Kind selects the interpretation of a signed 4-bit code.
type S4Kind uint8

const (
	// S4Clip renormalizes the nibble into the full int8 range by a left
	// shift of 4: code c maps to int8(c<<4), i.e. multiples of 16.
	S4Clip S4Kind = iota
	// S4FullRange recenters the nibble's [0,15] range to [-8,7] by
	// subtracting 8.
	S4FullRange
)

// F4Kind selects one of the fixed 4-bit float code tables.
type F4Kind uint8

const (
	F4BNB F4Kind = iota
	F4NF4
	F4E2M1
)

// F8Kind selects an 8-bit float layout by its exponent bit count.
type F8Kind uint8

const (
	F8E4M3 F8Kind = iota
	F8E5M2
	F8E3M4
	// F8E8M0 is exponent-only, used for power-of-two scale storage.
	F8E8M0
)

// Ebits returns the exponent bit count of the layout.
func (k F8Kind) Ebits() int {
	switch k {
	case F8E4M3:
		return 4
	case F8E5M2:
		return 5
	case F8E3M4:
		return 3
	case F8E8M0:
		return 8
	}
	return 0
}

// F8 is a raw 8-bit float code. Interpretation depends on an F8Kind.
type F8 int8

// BF16 is a bfloat16 value: the upper 16 bits of an IEEE-754 float32.
type BF16 uint16

// Float32 extends a bf16 to float32 by zero-filling the low mantissa bits.
func (b BF16) Float32() float32 {
	return math.Float32frombits(uint32(b) << 16)
}

// BF16FromFloat32 truncates a float32 to bf16, rounding by bias-then-truncate:
// the bit below the truncation point plus 0x7fff is added before the shift.
// This is the rounding the conversion kernels use; keep them in sync.
func BF16FromFloat32(f float32) BF16 {
	u := math.Float32bits(f)
	u += 0x7fff + ((u >> 16) & 1)
	return BF16(u >> 16)
}

// FP constrains the full-precision element types kernels read and write.
type FP interface {
	float32 | BF16
}

// ToFloat32 widens a kernel element to float32.
func ToFloat32[T FP](v T) float32 {
	switch x := any(v).(type) {
	case float32:
		return x
	case BF16:
		return x.Float32()
	}
	return 0
}

// FromFloat32 narrows a float32 to a kernel element type.
func FromFloat32[T FP](f float32) T {
	var v T
	switch p := any(&v).(type) {
	case *float32:
		*p = f
	case *BF16:
		*p = BF16FromFloat32(f)
	}
	return v
}
