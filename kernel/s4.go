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

package kernel

import (
	"github.com/quantkernel/go-bestla/dtype"
	"github.com/quantkernel/go-bestla/kernel/ref"
)

// Packed 4-bit layout: two codes per byte, low nibble first. The unpack
// routines process 16 codes (8 bytes) per step; the remainder goes through
// the identical per-nibble decode in ref.

// convertS4S8 unpacks n 4-bit integer codes (n even) from src into dst,
// applying the S4 kind's recentring or renormalization.
func convertS4S8(dst []int8, src []byte, n int, kind dtype.S4Kind) {
	for i := 0; i < n; i += 2 {
		b := src[i/2]
		dst[i] = ref.GetS8(b&0x0f, kind)
		dst[i+1] = ref.GetS8(b>>4, kind)
	}
}

// padBit4 unpacks n 4-bit codes (n even) to one byte each without any
// recentring; the raw [0,15] code is kept for table lookup downstream.
func padBit4(dst []int8, src []byte, n int) {
	for i := 0; i < n; i += 2 {
		b := src[i/2]
		dst[i] = int8(b & 0x0f)
		dst[i+1] = int8(b >> 4)
	}
}

// DecompressS4S8 unpacks packed 4-bit integer codes to int8. Only the
// contiguous layout (col == ldSrc == ldDst) is supported.
func DecompressS4S8(src []byte, dst []int8, row, col, ldSrc, ldDst int, kind dtype.S4Kind) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	elesize := row * col
	ele16 := elesize / 16 * 16
	i := 0
	for ; i < ele16; i += 16 {
		convertS4S8(dst[i:i+16], src[i/2:], 16, kind)
	}
	for ; i < elesize; i += 2 {
		b := src[i/2]
		dst[i] = ref.GetS8(b&0x0f, kind)
		dst[i+1] = ref.GetS8(b>>4, kind)
	}
	return nil
}

// DecompressKBlockS4S8FP unpacks 4-bit integer codes straight to full
// precision without scaling. tmp is caller scratch for the unpacked
// intermediate and must hold at least 16 bytes.
func DecompressKBlockS4S8FP[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int,
	kind dtype.S4Kind, tmp []int8) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	if len(tmp) < 16 {
		return ErrShortBuffer
	}
	elesize := row * col
	ele16 := elesize / 16 * 16
	i := 0
	for ; i < ele16; i += 16 {
		convertS4S8(tmp[:16], src[i/2:], 16, kind)
		s8ToFP(dst[i:i+16], tmp[:16])
	}
	for ; i < elesize; i += 2 {
		b := src[i/2]
		dst[i] = dtype.FromFloat32[D](float32(ref.GetS8(b&0x0f, kind)))
		dst[i+1] = dtype.FromFloat32[D](float32(ref.GetS8(b>>4, kind)))
	}
	return nil
}

// DecompressKBlockS8S8FP widens int8 values to full precision without
// scaling. Only the contiguous layout is supported.
func DecompressKBlockS8S8FP[D dtype.FP](src []int8, dst []D, row, col, ldSrc, ldDst int) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	n := row * col
	n64 := n / 64 * 64
	i := 0
	for ; i < n64; i += 64 {
		s8ToFP(dst[i:i+64], src[i:i+64])
	}
	for ; i < n; i++ {
		dst[i] = dtype.FromFloat32[D](float32(src[i]))
	}
	return nil
}

// DecompressKBlockS4FP dequantizes packed 4-bit integer codes with
// per-block scales and optional zero points (nil zeroPoints = symmetric).
// tmp must hold at least unrollRow*col bytes. Pack-row replication other
// than 1 is not implemented for the 4-bit path.
func DecompressKBlockS4FP[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int,
	scales []float32, zeroPoints []int8, kOffset, kblock, nPad, packRow int,
	kind dtype.S4Kind, tmp []int8) error {
	if packRow != 1 {
		return ErrNotSupport
	}
	pad := func(d []int8, s []byte, n int) { convertS4S8(d, s, n, kind) }
	return decompressKBlockBit4PackRow1(src, dst, row, col, ldSrc, ldDst,
		scales, zeroPoints, kOffset, kblock, nPad, dequantS8Row[D], pad, tmp)
}

// s8ToFP widens a run of int8 values to full precision.
func s8ToFP[D dtype.FP](dst []D, src []int8) {
	for i, v := range src {
		dst[i] = dtype.FromFloat32[D](float32(v))
	}
}
