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

package btl

import "math"

// Load creates a vector by loading data from a slice. Short slices yield a
// short vector; ops over mismatched lengths operate on the common prefix.
func Load[T Lanes](src []T) Vec[T] {
	n := MaxLanes[T]()
	if len(src) < n {
		n = len(src)
	}
	data := make([]T, n)
	copy(data, src[:n])
	return Vec[T]{data: data}
}

// Store writes a vector's data to a slice.
func Store[T Lanes](v Vec[T], dst []T) {
	n := len(v.data)
	if len(dst) < n {
		n = len(dst)
	}
	copy(dst[:n], v.data[:n])
}

// Set creates a vector with all lanes set to the same value.
func Set[T Lanes](value T) Vec[T] {
	n := MaxLanes[T]()
	data := make([]T, n)
	for i := range data {
		data[i] = value
	}
	return Vec[T]{data: data}
}

// Zero creates a vector with all lanes set to zero.
func Zero[T Lanes]() Vec[T] {
	return Vec[T]{data: make([]T, MaxLanes[T]())}
}

func binaryOp[T Lanes](a, b Vec[T], op func(x, y T) T) Vec[T] {
	n := len(a.data)
	if len(b.data) < n {
		n = len(b.data)
	}
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = op(a.data[i], b.data[i])
	}
	return Vec[T]{data: result}
}

// Add performs element-wise addition.
func Add[T Lanes](a, b Vec[T]) Vec[T] {
	return binaryOp(a, b, func(x, y T) T { return x + y })
}

// Sub performs element-wise subtraction.
func Sub[T Lanes](a, b Vec[T]) Vec[T] {
	return binaryOp(a, b, func(x, y T) T { return x - y })
}

// Mul performs element-wise multiplication.
func Mul[T Lanes](a, b Vec[T]) Vec[T] {
	return binaryOp(a, b, func(x, y T) T { return x * y })
}

// Div performs element-wise division.
func Div[T Floats](a, b Vec[T]) Vec[T] {
	return binaryOp(a, b, func(x, y T) T { return x / y })
}

// Min returns element-wise minimum.
func Min[T Lanes](a, b Vec[T]) Vec[T] {
	return binaryOp(a, b, func(x, y T) T {
		if x < y {
			return x
		}
		return y
	})
}

// Max returns element-wise maximum.
func Max[T Lanes](a, b Vec[T]) Vec[T] {
	return binaryOp(a, b, func(x, y T) T {
		if x > y {
			return x
		}
		return y
	})
}

// Neg negates all lanes.
func Neg[T Lanes](v Vec[T]) Vec[T] {
	result := make([]T, len(v.data))
	for i := range v.data {
		result[i] = -v.data[i]
	}
	return Vec[T]{data: result}
}

// Abs computes absolute value.
func Abs[T Lanes](v Vec[T]) Vec[T] {
	result := make([]T, len(v.data))
	for i := range v.data {
		val := v.data[i]
		if val < 0 {
			val = -val
		}
		result[i] = val
	}
	return Vec[T]{data: result}
}

// MulAdd computes a*b + c element-wise.
func MulAdd[T Floats](a, b, c Vec[T]) Vec[T] {
	n := len(a.data)
	if len(b.data) < n {
		n = len(b.data)
	}
	if len(c.data) < n {
		n = len(c.data)
	}
	result := make([]T, n)
	for i := 0; i < n; i++ {
		result[i] = a.data[i]*b.data[i] + c.data[i]
	}
	return Vec[T]{data: result}
}

// Round rounds each lane to the nearest integer, ties to even. This matches
// the default rounding mode of hardware float-to-int conversions, so the
// scalar tail of a kernel agrees with its vector body for every input.
func Round[T Floats](v Vec[T]) Vec[T] {
	result := make([]T, len(v.data))
	for i := range v.data {
		result[i] = T(math.RoundToEven(float64(v.data[i])))
	}
	return Vec[T]{data: result}
}

// Clamp limits each lane to [lo, hi].
func Clamp[T Lanes](v, lo, hi Vec[T]) Vec[T] {
	return Min(Max(v, lo), hi)
}

// Sqrt computes element-wise square root.
func Sqrt[T Floats](v Vec[T]) Vec[T] {
	result := make([]T, len(v.data))
	for i := range v.data {
		result[i] = T(math.Sqrt(float64(v.data[i])))
	}
	return Vec[T]{data: result}
}

// reduceTree folds lanes with op using a fixed halve-and-combine tree:
// the upper half is combined into the lower half, repeatedly. This is the
// reduction order of the wide-register horizontal reductions (cross-lane
// combine followed by in-lane shuffle rounds), reproduced here so scalar
// and accelerated builds agree lane-for-lane.
func reduceTree[T Lanes](v Vec[T], op func(x, y T) T) T {
	if len(v.data) == 0 {
		var z T
		return z
	}
	d := make([]T, len(v.data))
	copy(d, v.data)
	n := len(d)
	for n > 1 && n%2 == 0 {
		h := n / 2
		for i := 0; i < h; i++ {
			d[i] = op(d[i], d[i+h])
		}
		n = h
	}
	acc := d[0]
	for i := 1; i < n; i++ {
		acc = op(acc, d[i])
	}
	return acc
}

// ReduceSum sums all lanes.
func ReduceSum[T Lanes](v Vec[T]) T {
	return reduceTree(v, func(x, y T) T { return x + y })
}

// ReduceMin returns the minimum lane.
func ReduceMin[T Lanes](v Vec[T]) T {
	return reduceTree(v, func(x, y T) T {
		if x < y {
			return x
		}
		return y
	})
}

// ReduceMax returns the maximum lane.
func ReduceMax[T Lanes](v Vec[T]) T {
	return reduceTree(v, func(x, y T) T {
		if x > y {
			return x
		}
		return y
	})
}

// LessThan performs element-wise less-than comparison.
func LessThan[T Lanes](a, b Vec[T]) Mask[T] {
	n := len(a.data)
	if len(b.data) < n {
		n = len(b.data)
	}
	bits := make([]bool, n)
	for i := 0; i < n; i++ {
		bits[i] = a.data[i] < b.data[i]
	}
	return Mask[T]{bits: bits}
}

// IfThenElse selects a where the mask is true, b elsewhere.
func IfThenElse[T Lanes](mask Mask[T], a, b Vec[T]) Vec[T] {
	n := len(mask.bits)
	if len(a.data) < n {
		n = len(a.data)
	}
	if len(b.data) < n {
		n = len(b.data)
	}
	result := make([]T, n)
	for i := 0; i < n; i++ {
		if mask.bits[i] {
			result[i] = a.data[i]
		} else {
			result[i] = b.data[i]
		}
	}
	return Vec[T]{data: result}
}
