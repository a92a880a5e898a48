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

// RemoveActZeroPointBias subtracts the activation zero-point cross term
// zpa*scaleA*reduceB[j] from accumulators already scaled to float.
func RemoveActZeroPointBias(acc []float32, ldacc, row, col int, zps []uint8, scales []float32, lds int, reduce []float32) error {
	lanes := btl.NumLanes[float32]()
	for i := 0; i < row; i++ {
		zpf := float32(zps[i*lds]) * scales[i*lds]
		vzp := btl.Set(zpf)
		j := 0
		for ; j+lanes <= col; j += lanes {
			off := i*ldacc + j
			r := btl.Sub(btl.Load(acc[off:off+lanes]), btl.Mul(vzp, btl.Load(reduce[j:j+lanes])))
			btl.Store(r, acc[off:off+lanes])
		}
		for ; j < col; j++ {
			acc[i*ldacc+j] -= zpf * reduce[j]
		}
	}
	return nil
}

// RemoveWeiZeroPointBias subtracts the weight zero-point cross term
// zpb[j]*scaleB[j]*reduceA[i].
func RemoveWeiZeroPointBias(acc []float32, ldacc, row, col int, zps []int8, scales []float32, lds int, reduce []float32) error {
	lanes := btl.NumLanes[float32]()
	zbuf := make([]float32, lanes)
	for i := 0; i < row; i++ {
		vred := btl.Set(reduce[i*lds])
		j := 0
		for ; j+lanes <= col; j += lanes {
			for k := 0; k < lanes; k++ {
				zbuf[k] = float32(zps[j+k]) * scales[j+k]
			}
			off := i*ldacc + j
			r := btl.Sub(btl.Load(acc[off:off+lanes]), btl.Mul(btl.Load(zbuf), vred))
			btl.Store(r, acc[off:off+lanes])
		}
		for ; j < col; j++ {
			acc[i*ldacc+j] -= float32(zps[j]) * scales[j] * reduce[i*lds]
		}
	}
	return nil
}

// RemoveZeroPointBias subtracts both zero-point cross terms plus the
// constant zpa*zpb*K term they jointly introduce. Term order matters for
// bit-exact agreement across paths, so the scalar tail mirrors the
// vector body.
func RemoveZeroPointBias(acc []float32, ldacc, row, col int, zpa []uint8, zpb []int8,
	scaleA, scaleB []float32, lds, k int, reduceA, reduceB []float32) error {
	lanes := btl.NumLanes[float32]()
	zbuf := make([]float32, lanes)
	kf := float32(k)
	for i := 0; i < row; i++ {
		zpaf := float32(zpa[i*lds]) * scaleA[i*lds]
		vzpa := btl.Set(zpaf)
		vredA := btl.Set(reduceA[i*lds])
		j := 0
		for ; j+lanes <= col; j += lanes {
			for k2 := 0; k2 < lanes; k2++ {
				zbuf[k2] = float32(zpb[j+k2]) * scaleB[j+k2]
			}
			vzpb := btl.Load(zbuf)
			off := i*ldacc + j
			r := btl.Load(acc[off : off+lanes])
			r = btl.Sub(r, btl.Mul(vzpb, vredA))
			r = btl.Sub(r, btl.Mul(vzpa, btl.Load(reduceB[j:j+lanes])))
			r = btl.Sub(r, btl.Mul(btl.Mul(vzpa, vzpb), btl.Set(kf)))
			btl.Store(r, acc[off:off+lanes])
		}
		for ; j < col; j++ {
			zpbf := float32(zpb[j]) * scaleB[j]
			acc[i*ldacc+j] -= zpbf * reduceA[i*lds]
			acc[i*ldacc+j] -= zpaf * reduceB[j]
			acc[i*ldacc+j] -= zpaf * zpbf * kf
		}
	}
	return nil
}

// AlphaBetaF32 computes dst = alpha*src + beta*src1 over a 2D region.
// beta == 0 skips the src1 read entirely.
func AlphaBetaF32(alpha float32, src []float32, srcStep int, beta float32, src1 []float32, src1Step int,
	dst []float32, dstStep, m, n int) error {
	lanes := btl.NumLanes[float32]()
	valpha := btl.Set(alpha)
	vbeta := btl.Set(beta)
	for i := 0; i < m; i++ {
		j := 0
		for ; j+lanes <= n; j += lanes {
			r := btl.Mul(valpha, btl.Load(src[i*srcStep+j:i*srcStep+j+lanes]))
			if beta != 0 {
				r = btl.Add(r, btl.Mul(vbeta, btl.Load(src1[i*src1Step+j:i*src1Step+j+lanes])))
			}
			btl.Store(r, dst[i*dstStep+j:i*dstStep+j+lanes])
		}
		for ; j < n; j++ {
			v := alpha * src[i*srcStep+j]
			if beta != 0 {
				v += beta * src1[i*src1Step+j]
			}
			dst[i*dstStep+j] = v
		}
	}
	return nil
}

// AccumAlphaN accumulates dst += alpha[j]*src with a per-column alpha.
// An 8-bit float alpha is interpreted as a power-of-two exponent code.
func AccumAlphaN[S float32 | dtype.BF16 | dtype.F8](alpha []S, src []float32, srcStep int,
	dst []float32, dstStep, m, n int) error {
	lanes := btl.NumLanes[float32]()
	abuf := make([]float32, lanes)
	for i := 0; i < m; i++ {
		j := 0
		for ; j+lanes <= n; j += lanes {
			for k := 0; k < lanes; k++ {
				abuf[k] = alphaToF32(alpha[j+k])
			}
			off := i*dstStep + j
			r := btl.MulAdd(btl.Load(abuf),
				btl.Load(src[i*srcStep+j:i*srcStep+j+lanes]),
				btl.Load(dst[off:off+lanes]))
			btl.Store(r, dst[off:off+lanes])
		}
		for ; j < n; j++ {
			dst[i*dstStep+j] += alphaToF32(alpha[j]) * src[i*srcStep+j]
		}
	}
	return nil
}

func alphaToF32[S float32 | dtype.BF16 | dtype.F8](a S) float32 {
	switch x := any(a).(type) {
	case float32:
		return x
	case dtype.BF16:
		return x.Float32()
	case dtype.F8:
		return pow2f(int8(x))
	}
	return 0
}
