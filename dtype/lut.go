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

package dtype

import "sort"

// NF4LUT maps a 4-bit NF4 code to its dequantized value. These are the
// sixteen fixed QLoRA normal-float quantiles, code order ascending.
var NF4LUT = [16]float32{
	-1.0, -0.6961928009986877, -0.5250730514526367, -0.39491748809814453,
	-0.28444138169288635, -0.18477343022823334, -0.09105003625154495, 0,
	0.07958029955625534, 0.16093020141124725, 0.24611230194568634, 0.33791524171829224,
	0.44070982933044434, 0.5626170039176941, 0.7229568362236023, 1.0,
}

// FP4BNBLUT maps a 4-bit bitsandbytes FP4 code to its value. Bit 3 is the
// sign; codes 0-7 carry the magnitudes in the bitsandbytes tree order.
var FP4BNBLUT = [16]float32{
	0.0, 0.0052083333, 0.6666666667, 1.0, 0.3333333333, 0.5, 0.1666666667, 0.25,
	-0.0, -0.0052083333, -0.6666666667, -1.0, -0.3333333333, -0.5, -0.1666666667, -0.25,
}

// FP4E2M1LUT maps a 4-bit e2m1 code to its value, normalized so the largest
// magnitude is 1.0. Bit 3 is the sign.
var FP4E2M1LUT = [16]float32{
	0, 1.0 / 12, 1.0 / 6, 0.25, 1.0 / 3, 0.5, 2.0 / 3, 1.0,
	-0, -1.0 / 12, -1.0 / 6, -0.25, -1.0 / 3, -0.5, -2.0 / 3, -1.0,
}

// F4LUT returns the table for the given 4-bit float kind.
func F4LUT(k F4Kind) *[16]float32 {
	switch k {
	case F4NF4:
		return &NF4LUT
	case F4E2M1:
		return &FP4E2M1LUT
	default:
		return &FP4BNBLUT
	}
}

// DQ8BNBLUT maps an 8-bit dynamic-quantization code to float32. It is the
// bitsandbytes signed dynamic map (7 non-sign bits, dynamic exponent),
// stored ascending so the code is the rank of the value. Built once at
// program start and never mutated.
var DQ8BNBLUT [256]float32

func init() {
	const maxExpBits = 7
	vals := make([]float64, 0, 256)
	for i := 0; i < maxExpBits; i++ {
		// 2^i midpoints of a uniform partition of [0.1, 1], scaled by the
		// decade for this exponent slot.
		items := 1 << i
		exp := pow10(i - (maxExpBits - 1))
		step := 0.9 / float64(items)
		for m := 0; m < items; m++ {
			mid := 0.1 + step*(float64(m)+0.5)
			vals = append(vals, exp*mid, -exp*mid)
		}
	}
	vals = append(vals, 0, 1.0)
	sort.Float64s(vals)
	for i, v := range vals {
		DQ8BNBLUT[i] = float32(v)
	}
}

func pow10(e int) float64 {
	p := 1.0
	for ; e < 0; e++ {
		p /= 10
	}
	return p
}
