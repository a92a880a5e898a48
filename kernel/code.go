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

// Package kernel implements the block-quantized dequantization,
// requantization and correction kernels. Every kernel is a pure function
// over caller-provided buffers: it writes only dst[:row*ldDst], never
// mutates its sources, and allocates nothing beyond per-call lane buffers.
// Scratch space, where a kernel needs it, is caller-supplied and
// size-checked.
//
// Each operation has a scalar twin in the ref subpackage; the two must
// agree for every input, and the vector kernels delegate their per-element
// tails to ref so the agreement holds by construction.
package kernel

import "github.com/quantkernel/go-bestla/kernel/ref"

// Status sentinels shared with the ref package.
var (
	ErrNotSupport  = ref.ErrNotSupport
	ErrShortBuffer = ref.ErrShortBuffer
)
