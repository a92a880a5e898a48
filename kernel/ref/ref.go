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

// Package ref holds plain scalar implementations of every kernel. The
// vectorized kernels call into this package for per-element tails, and the
// test suites compare each vector kernel against its counterpart here.
package ref

import (
	"math"

	"github.com/quantkernel/go-bestla/dtype"
)

// GetS8 decodes one 4-bit code to int8 according to the S4 kind.
func GetS8(code uint8, kind dtype.S4Kind) int8 {
	code &= 0x0f
	if kind == dtype.S4FullRange {
		return int8(code) - 8
	}
	return int8(code << 4)
}

// F4Unpack decodes one 4-bit float code through its lookup table.
func F4Unpack(code uint8, kind dtype.F4Kind) float32 {
	return dtype.F4LUT(kind)[code&0x0f]
}

// F8ToFP32 decodes an 8-bit float code with the given exponent width by
// direct bit manipulation. The all-zero magnitude decodes to signed zero;
// other denormal or special-value codes go through the normal-number
// formula and yield implementation-defined results. The kind must carry a
// mantissa: e8m0 is a scale container, not a value format, and the
// decompress kernels reject it before reaching this decode.
func F8ToFP32(code dtype.F8, kind dtype.F8Kind) float32 {
	ebits := kind.Ebits()
	mantissabit := 7 - ebits
	u := uint32(uint8(code))
	if u&0x7f == 0 {
		return math.Float32frombits((u & 0x80) << 24)
	}
	sign := (u & 0x80) << 24
	e := int32((u & 0x7f) >> mantissabit)
	e -= int32(1<<(ebits-1)) - 128
	mant := (u << (23 - uint(mantissabit))) & 0x7fffff
	return math.Float32frombits(sign | uint32(e)<<23 | mant)
}

// Round converts to the nearest integer, ties to even, as the hardware
// float-to-int conversions do.
func Round(f float32) int {
	return int(math.RoundToEven(float64(f)))
}

func clampU8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// DecompressS4S8 unpacks packed 4-bit codes to int8, two codes per source
// byte, low nibble first.
func DecompressS4S8(src []byte, dst []int8, row, col, ldSrc, ldDst int, kind dtype.S4Kind) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	n := row * col
	for i := 0; i < n; i += 2 {
		b := src[i/2]
		dst[i] = GetS8(b&0x0f, kind)
		dst[i+1] = GetS8(b>>4, kind)
	}
	return nil
}

// DecompressKBlockS4S8FP unpacks 4-bit integer codes straight to full
// precision without applying scales.
func DecompressKBlockS4S8FP[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int, kind dtype.S4Kind) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	n := row * col
	for i := 0; i < n; i += 2 {
		b := src[i/2]
		dst[i] = dtype.FromFloat32[D](float32(GetS8(b&0x0f, kind)))
		dst[i+1] = dtype.FromFloat32[D](float32(GetS8(b>>4, kind)))
	}
	return nil
}

// DecompressKBlockS8S8FP widens int8 values to full precision.
func DecompressKBlockS8S8FP[D dtype.FP](src []int8, dst []D, row, col, ldSrc, ldDst int) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	n := row * col
	for i := 0; i < n; i++ {
		dst[i] = dtype.FromFloat32[D](float32(src[i]))
	}
	return nil
}

// DecompressKBlockS4FP dequantizes packed 4-bit integer codes with
// per-block scales and optional zero points.
func DecompressKBlockS4FP[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int,
	scales []float32, zeroPoints []int8, kOffset, kblock, nPad, packRow int, kind dtype.S4Kind) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	if packRow != 1 {
		return ErrNotSupport
	}
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		sptr := scales[kpos*nPad:]
		for j := 0; j < col; j++ {
			b := src[(i*ldSrc+j)/2]
			var code uint8
			if j%2 == 0 {
				code = b & 0x0f
			} else {
				code = b >> 4
			}
			v := float32(GetS8(code, kind))
			if zeroPoints != nil {
				v -= float32(zeroPoints[kpos*nPad+j])
			}
			dst[i*ldDst+j] = dtype.FromFloat32[D](v * sptr[j])
		}
	}
	return nil
}

// DecompressKBlockS8FP dequantizes int8 values with per-block scales,
// optional zero points, and a pack-row replication factor of 1, 2 or 4.
func DecompressKBlockS8FP[D dtype.FP](src []int8, dst []D, row, col, ldSrc, ldDst int,
	scales []float32, zeroPoints []int8, kOffset, kblock, nPad, packRow int) error {
	if packRow != 1 && packRow != 2 && packRow != 4 {
		return ErrNotSupport
	}
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		sptr := scales[kpos*nPad:]
		for j := 0; j < col; j++ {
			v := float32(src[i*ldSrc+j])
			if zeroPoints != nil {
				v -= float32(zeroPoints[kpos*nPad+j/packRow])
			}
			dst[i*ldDst+j] = dtype.FromFloat32[D](v * sptr[j/packRow])
		}
	}
	return nil
}

// DecompressKBlockF4FPNoScale decodes packed 4-bit float codes through the
// lookup table without applying scales.
func DecompressKBlockF4FPNoScale[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int, kind dtype.F4Kind) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	n := row * col
	for i := 0; i < n; i += 2 {
		b := src[i/2]
		dst[i] = dtype.FromFloat32[D](F4Unpack(b&0x0f, kind))
		dst[i+1] = dtype.FromFloat32[D](F4Unpack(b>>4, kind))
	}
	return nil
}

// DecompressKBlockF4FP decodes packed 4-bit float codes and applies
// per-block scales.
func DecompressKBlockF4FP[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int,
	scales []float32, kOffset, kblock, nPad, packRow int, kind dtype.F4Kind) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	if packRow != 1 {
		return ErrNotSupport
	}
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		sptr := scales[kpos*nPad:]
		for j := 0; j < col; j++ {
			b := src[(i*ldSrc+j)/2]
			var code uint8
			if j%2 == 0 {
				code = b & 0x0f
			} else {
				code = b >> 4
			}
			dst[i*ldDst+j] = dtype.FromFloat32[D](F4Unpack(code, kind) * sptr[j])
		}
	}
	return nil
}

// DecompressKBlockF8FP decodes 8-bit float codes with optional float32
// per-block scales. A nil scales slice means no scaling.
func DecompressKBlockF8FP(src []dtype.F8, dst []float32, row, col, ldSrc, ldDst int,
	scales []float32, kOffset, kblock, nPad, packRow int, kind dtype.F8Kind) error {
	if kind == dtype.F8E8M0 {
		// e8m0 has no mantissa; it is only a scale container.
		return ErrNotSupport
	}
	if packRow != 1 && packRow != 2 {
		return ErrNotSupport
	}
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		for j := 0; j < col; j++ {
			v := F8ToFP32(src[i*ldSrc+j], kind)
			if scales != nil {
				v *= scales[kpos*nPad+j/packRow]
			}
			dst[i*ldDst+j] = v
		}
	}
	return nil
}

// DecompressKBlockF8FPExpScale decodes 8-bit float codes and applies
// power-of-two scales stored as e8m0 codes.
func DecompressKBlockF8FPExpScale(src []dtype.F8, dst []float32, row, col, ldSrc, ldDst int,
	scales []dtype.F8, kOffset, kblock, nPad, packRow int, kind dtype.F8Kind) error {
	if kind == dtype.F8E8M0 {
		return ErrNotSupport
	}
	if packRow != 1 && packRow != 2 {
		return ErrNotSupport
	}
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		for j := 0; j < col; j++ {
			v := F8ToFP32(src[i*ldSrc+j], kind)
			s := float32(math.Pow(2, float64(scales[kpos*nPad+j/packRow])))
			dst[i*ldDst+j] = v * s
		}
	}
	return nil
}

// DQ8GetFPScale recovers float scales from double-quantized 8-bit scale
// storage: dst = LUT[code]*dqScale[block] + dqScale[offsetIdx].
func DQ8GetFPScale(src []uint8, dst []float32, row, col, scaleOffset, dqBlk, dqOffsetIdx int,
	dqScale []float32, srcStride, dstStride int, zeroPadding bool) error {
	if zeroPadding {
		return ErrNotSupport
	}
	for i := 0; i < row; i++ {
		for j := 0; j < col; j++ {
			idx := (scaleOffset + j) / dqBlk
			dst[i*dstStride+j] = dtype.DQ8BNBLUT[src[i*srcStride+j]]*dqScale[idx] + dqScale[dqOffsetIdx]
		}
	}
	return nil
}

// QuantizeFPU8ColBlock quantizes rows to unsigned 8-bit codes with one
// scale and zero point per blocksize columns. If blkReduce is non-nil it
// receives sum(quantized before zero point) * scale per block.
func QuantizeFPU8ColBlock[S dtype.FP](row, col int, src []S, ldSrc int, dst []uint8, ldDst int,
	scales []float32, ldScale int, zps []uint8, blocksize int, blkReduce []float32) error {
	colblk := col / blocksize * blocksize
	for i := 0; i < row; i++ {
		for j := 0; j < col; j += blocksize {
			blk := blocksize
			if j >= colblk {
				blk = col - j
			}
			maxval, minval := float32(0), float32(0)
			for ij := 0; ij < blk; ij++ {
				v := dtype.ToFloat32(src[i*ldSrc+j+ij])
				if v > maxval {
					maxval = v
				}
				if v < minval {
					minval = v
				}
			}
			scale := (maxval - minval) / 255
			rscale := 1 / scale
			zp := clampU8(Round((0 - minval) * rscale))
			scales[i*ldScale+j/blocksize] = scale
			zps[i*ldScale+j/blocksize] = zp
			sum := 0
			for ij := 0; ij < blk; ij++ {
				v := dtype.ToFloat32(src[i*ldSrc+j+ij])
				q := Round(v * rscale)
				sum += q
				dst[i*ldDst+j+ij] = clampU8(q + int(zp))
			}
			if blkReduce != nil {
				blkReduce[i*ldScale+j/blocksize] = float32(sum) * scale
			}
		}
	}
	return nil
}

// ColBlockReduceSum writes per-block sums of each row.
func ColBlockReduceSum(src []float32, ldSrc, row, col, blocksize int, reduce []float32, ldr int) error {
	for i := 0; i < row; i++ {
		for j := 0; j < col; j += blocksize {
			blk := blocksize
			if j+blk > col {
				blk = col - j
			}
			sum := float32(0)
			for jj := 0; jj < blk; jj++ {
				sum += src[i*ldSrc+j+jj]
			}
			reduce[i*ldr+j/blocksize] = sum
		}
	}
	return nil
}

// RemoveActZeroPointBias subtracts the activation zero-point cross term
// from int32 matmul accumulators already scaled to float.
func RemoveActZeroPointBias(acc []float32, ldacc, row, col int, zps []uint8, scales []float32, lds int, reduce []float32) error {
	for i := 0; i < row; i++ {
		zpf := float32(zps[i*lds]) * scales[i*lds]
		for j := 0; j < col; j++ {
			acc[i*ldacc+j] -= zpf * reduce[j]
		}
	}
	return nil
}

// RemoveWeiZeroPointBias subtracts the weight zero-point cross term.
func RemoveWeiZeroPointBias(acc []float32, ldacc, row, col int, zps []int8, scales []float32, lds int, reduce []float32) error {
	for i := 0; i < row; i++ {
		for j := 0; j < col; j++ {
			acc[i*ldacc+j] -= float32(zps[j]) * scales[j] * reduce[i*lds]
		}
	}
	return nil
}

// RemoveZeroPointBias subtracts both zero-point cross terms plus the
// constant zpa*zpb*K term they jointly introduce.
func RemoveZeroPointBias(acc []float32, ldacc, row, col int, zpa []uint8, zpb []int8,
	scaleA, scaleB []float32, lds, k int, reduceA, reduceB []float32) error {
	for i := 0; i < row; i++ {
		zpaf := float32(zpa[i*lds]) * scaleA[i*lds]
		for j := 0; j < col; j++ {
			zpbf := float32(zpb[j]) * scaleB[j]
			acc[i*ldacc+j] -= zpbf * reduceA[i*lds]
			acc[i*ldacc+j] -= zpaf * reduceB[j]
			acc[i*ldacc+j] -= zpaf * zpbf * float32(k)
		}
	}
	return nil
}

// AlphaBetaF32 computes dst = alpha*src + beta*src1 element-wise over a
// 2D region.
func AlphaBetaF32(alpha float32, src []float32, srcStep int, beta float32, src1 []float32, src1Step int,
	dst []float32, dstStep, m, n int) error {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v := alpha * src[i*srcStep+j]
			if beta != 0 {
				v += beta * src1[i*src1Step+j]
			}
			dst[i*dstStep+j] = v
		}
	}
	return nil
}

// DequantS32FP32 scales int32 accumulators by a per-row scale and a
// per-column scale.
func DequantS32FP32[S float32 | dtype.BF16](src []int32, srcStep int, dst []float32, dstStep, row, col int,
	scaleA []float32, ldsa int, scaleB []S) error {
	for i := 0; i < row; i++ {
		a := scaleA[i*ldsa]
		for j := 0; j < col; j++ {
			var b float32
			switch x := any(scaleB[j]).(type) {
			case float32:
				b = x
			case dtype.BF16:
				b = x.Float32()
			}
			dst[i*dstStep+j] = a * b * float32(src[i*srcStep+j])
		}
	}
	return nil
}

// AccumAlphaN accumulates dst += alpha[j]*src with a per-column alpha.
// An F8 alpha is interpreted as a power-of-two exponent.
func AccumAlphaN[S float32 | dtype.BF16 | dtype.F8](alpha []S, src []float32, srcStep int,
	dst []float32, dstStep, m, n int) error {
	for j := 0; j < n; j++ {
		var a float32
		switch x := any(alpha[j]).(type) {
		case float32:
			a = x
		case dtype.BF16:
			a = x.Float32()
		case dtype.F8:
			a = float32(math.Pow(2, float64(x)))
		}
		for i := 0; i < m; i++ {
			dst[i*dstStep+j] += a * src[i*srcStep+j]
		}
	}
	return nil
}

// LayerNorm normalizes one contiguous vector, optionally applying affine
// scale and bias. simplified selects the RMS-norm variant. meanOut and
// meanSqOut, when non-nil, receive the raw statistics.
func LayerNorm(src, scale, bias []float32, epsilon float32, normSize int,
	dst []float32, meanOut, meanSqOut *float32, simplified bool) error {
	mean, meanSq := float32(0), float32(0)
	for h := 0; h < normSize; h++ {
		mean += src[h]
		meanSq += src[h] * src[h]
	}
	mean /= float32(normSize)
	if simplified {
		meanSq = float32(math.Sqrt(float64(meanSq/float32(normSize) + epsilon)))
	} else {
		meanSq = float32(math.Sqrt(float64(meanSq/float32(normSize) - mean*mean + epsilon)))
	}
	inv := 1 / meanSq
	for h := 0; h < normSize; h++ {
		var v float32
		if simplified {
			v = src[h] * inv
		} else {
			v = (src[h] - mean) * inv
		}
		if scale != nil {
			v *= scale[h]
		}
		if !simplified && bias != nil {
			v += bias[h]
		}
		dst[h] = v
	}
	if meanOut != nil {
		*meanOut = mean
	}
	if meanSqOut != nil {
		*meanSqOut = meanSq
	}
	return nil
}
