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
	"math"

	"github.com/quantkernel/go-bestla/btl"
	"github.com/quantkernel/go-bestla/dtype"
	"github.com/quantkernel/go-bestla/kernel/ref"
)

// pow2f builds 2^e by placing the biased exponent directly, for e in the
// normal float32 exponent range.
func pow2f(e int8) float32 {
	if e <= -127 {
		return float32(math.Pow(2, float64(e)))
	}
	return math.Float32frombits(uint32(127+int32(e)) << 23)
}

// DecompressKBlockF8FP decodes 8-bit float codes with optional float32
// per-block scales (nil scales = decode only). Pack-row 1 and 2 are
// supported.
func DecompressKBlockF8FP(src []dtype.F8, dst []float32, row, col, ldSrc, ldDst int,
	scales []float32, kOffset, kblock, nPad, packRow int, kind dtype.F8Kind) error {
	if kind == dtype.F8E8M0 {
		// e8m0 has no mantissa; it is only a scale container.
		return ErrNotSupport
	}
	if packRow != 1 && packRow != 2 {
		return ErrNotSupport
	}
	lanes := btl.NumLanes[float32]()
	buf := make([]float32, lanes)
	sbuf := make([]float32, lanes)
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		j := 0
		for ; j+lanes <= col; j += lanes {
			for k := 0; k < lanes; k++ {
				buf[k] = ref.F8ToFP32(src[i*ldSrc+j+k], kind)
			}
			v := btl.Load(buf)
			if scales != nil {
				for k := 0; k < lanes; k++ {
					sbuf[k] = scales[kpos*nPad+(j+k)/packRow]
				}
				v = btl.Mul(v, btl.Load(sbuf))
			}
			btl.Store(v, dst[i*ldDst+j:i*ldDst+j+lanes])
		}
		for ; j < col; j++ {
			v := ref.F8ToFP32(src[i*ldSrc+j], kind)
			if scales != nil {
				v *= scales[kpos*nPad+j/packRow]
			}
			dst[i*ldDst+j] = v
		}
	}
	return nil
}

// DecompressKBlockF8FPExpScale decodes 8-bit float codes and applies
// power-of-two scales stored as signed exponent codes.
func DecompressKBlockF8FPExpScale(src []dtype.F8, dst []float32, row, col, ldSrc, ldDst int,
	scales []dtype.F8, kOffset, kblock, nPad, packRow int, kind dtype.F8Kind) error {
	if kind == dtype.F8E8M0 {
		return ErrNotSupport
	}
	if packRow != 1 && packRow != 2 {
		return ErrNotSupport
	}
	lanes := btl.NumLanes[float32]()
	buf := make([]float32, lanes)
	sbuf := make([]float32, lanes)
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		j := 0
		for ; j+lanes <= col; j += lanes {
			for k := 0; k < lanes; k++ {
				buf[k] = ref.F8ToFP32(src[i*ldSrc+j+k], kind)
				sbuf[k] = pow2f(int8(scales[kpos*nPad+(j+k)/packRow]))
			}
			r := btl.Mul(btl.Load(buf), btl.Load(sbuf))
			btl.Store(r, dst[i*ldDst+j:i*ldDst+j+lanes])
		}
		for ; j < col; j++ {
			v := ref.F8ToFP32(src[i*ldSrc+j], kind)
			dst[i*ldDst+j] = v * pow2f(int8(scales[kpos*nPad+j/packRow]))
		}
	}
	return nil
}
