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

// Package btl provides the portable vector core used by the kernel package.
// A Vec[T] holds MaxLanes[T] lanes; the lane count is fixed at init time from
// the detected register width, so the same kernel body serves every target.
// The pure Go lane loops below are the scalar fallback; they also define the
// semantics that any accelerated build must reproduce.
package btl

import "unsafe"

// Lanes is the set of element types a vector may hold.
type Lanes interface {
	~float32 | ~float64 | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Floats is the floating-point subset of Lanes.
type Floats interface {
	~float32 | ~float64
}

// Vec is a fixed-width vector of T. Create with Load, Set or Zero.
type Vec[T Lanes] struct {
	data []T
}

// Mask is a per-lane boolean produced by comparisons.
type Mask[T Lanes] struct {
	bits []bool
}

// MaxLanes returns the lane count for element type T at the current
// dispatch width.
func MaxLanes[T Lanes]() int {
	var z T
	return currentWidth / int(unsafe.Sizeof(z))
}

// NumLanes is an alias for MaxLanes, matching the naming used by kernels.
func NumLanes[T Lanes]() int {
	return MaxLanes[T]()
}
