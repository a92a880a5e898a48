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
	"github.com/quantkernel/go-bestla/btl"
	"github.com/quantkernel/go-bestla/dtype"
)

// dequantF4Row maps one row of raw 4-bit float codes through the kind's
// lookup table and multiplies by the per-column scales. Zero points do
// not apply to float codes.
func dequantF4Row[D dtype.FP](lut *[16]float32) dequantRowFunc[D] {
	return func(dst []D, src []int8, scales []float32, _ []int8) {
		lanes := btl.NumLanes[float32]()
		buf := make([]float32, lanes)
		j := 0
		for ; j+lanes <= len(src); j += lanes {
			for k := 0; k < lanes; k++ {
				buf[k] = lut[uint8(src[j+k])&0x0f]
			}
			r := btl.Mul(btl.Load(buf), btl.Load(scales[j:j+lanes]))
			btl.Store(r, buf)
			for k := 0; k < lanes; k++ {
				dst[j+k] = dtype.FromFloat32[D](buf[k])
			}
		}
		for ; j < len(src); j++ {
			dst[j] = dtype.FromFloat32[D](lut[uint8(src[j])&0x0f] * scales[j])
		}
	}
}

// DecompressKBlockF4FP dequantizes packed 4-bit float codes with
// per-block scales. Only pack-row 1 is supported for 4-bit sources.
func DecompressKBlockF4FP[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int,
	scales []float32, kOffset, kblock, nPad, packRow int, kind dtype.F4Kind, tmp []int8) error {
	if packRow != 1 {
		return ErrNotSupport
	}
	lut := dtype.F4LUT(kind)
	return decompressKBlockBit4PackRow1(src, dst, row, col, ldSrc, ldDst,
		scales, nil, kOffset, kblock, nPad, dequantF4Row[D](lut), padBit4, tmp)
}

// DecompressKBlockF4FPNoScale decodes packed 4-bit float codes through
// the lookup table without applying scales. Strided layouts are not
// supported.
func DecompressKBlockF4FPNoScale[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int,
	kind dtype.F4Kind, tmp []int8) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	if col%2 != 0 {
		return ErrNotSupport
	}
	if len(tmp) < 16 {
		return ErrShortBuffer
	}
	lut := dtype.F4LUT(kind)
	n := row * col
	i := 0
	for ; i+16 <= n; i += 16 {
		padBit4(tmp[:16], src[i/2:], 16)
		for k := 0; k < 16; k++ {
			dst[i+k] = dtype.FromFloat32[D](lut[uint8(tmp[k])&0x0f])
		}
	}
	for ; i < n; i += 2 {
		b := src[i/2]
		dst[i] = dtype.FromFloat32[D](lut[b&0x0f])
		dst[i+1] = dtype.FromFloat32[D](lut[b>>4])
	}
	return nil
}
