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

// unrollRow is the row unroll of the 4-bit steady-state loop. kblock must
// divide evenly into unrollRow chunks for the optimized path.
const unrollRow = 4

// padFunc unpacks n packed 4-bit codes (n even) into one byte each.
type padFunc func(dst []int8, src []byte, n int)

// dequantRowFunc dequantizes one row of unpacked codes against the scale
// (and optional zero-point) row of the current block.
type dequantRowFunc[D dtype.FP] func(dst []D, src []int8, scales []float32, zps []int8)

// decompressKBlockBit4PackRow1 is the shared three-phase core for 4-bit
// dequantization at pack-row 1: a prologue covering the partial first
// block, a steady state of whole kblock-row chunks, and an epilogue for
// the partial last block. The scale and zero-point rows are reloaded once
// per block boundary, not once per row.
func decompressKBlockBit4PackRow1[D dtype.FP](src []byte, dst []D, row, col, ldSrc, ldDst int,
	scales []float32, zeroPoints []int8, kOffset, kblock, nPad int,
	dequantize dequantRowFunc[D], pad padFunc, tmp []int8) error {
	if col != ldSrc || ldSrc != ldDst {
		return ErrNotSupport
	}
	if col%2 != 0 || kblock%unrollRow != 0 {
		return ErrNotSupport
	}
	if len(tmp) < col*unrollRow {
		return ErrShortBuffer
	}

	process := func(start, end int) {
		kpos := (kOffset + start) / kblock
		sc := scales[kpos*nPad:]
		var zp []int8
		if zeroPoints != nil {
			zp = zeroPoints[kpos*nPad:]
		}
		ir := start
		for ; ir+unrollRow <= end; ir += unrollRow {
			for r := 0; r < unrollRow; r++ {
				pad(tmp[r*col:(r+1)*col], src[(ir+r)*ldSrc/2:], col)
			}
			for r := 0; r < unrollRow; r++ {
				off := (ir + r) * ldDst
				dequantize(dst[off:off+col], tmp[r*col:(r+1)*col], sc, zp)
			}
		}
		for ; ir < end; ir++ {
			pad(tmp[:col], src[ir*ldSrc/2:], col)
			off := ir * ldDst
			dequantize(dst[off:off+col], tmp[:col], sc, zp)
		}
	}

	row0 := kblock - kOffset%kblock
	if row0 == kblock {
		row0 = 0
	}
	if row0 > row {
		row0 = row
	}
	process(0, row0)
	for irow := row0; irow < row; {
		n := kblock
		if irow+n > row {
			n = row - irow
		}
		process(irow, irow+n)
		irow += n
	}
	return nil
}

// dequantS8Row dequantizes one row of int8 codes: (v - zp) * scale, with
// the zero-point subtraction in the integer domain.
func dequantS8Row[D dtype.FP](dst []D, src []int8, scales []float32, zps []int8) {
	lanes := btl.NumLanes[float32]()
	buf := make([]float32, lanes)
	j := 0
	for ; j+lanes <= len(src); j += lanes {
		for k := 0; k < lanes; k++ {
			v := int32(src[j+k])
			if zps != nil {
				v -= int32(zps[j+k])
			}
			buf[k] = float32(v)
		}
		r := btl.Mul(btl.Load(buf), btl.Load(scales[j:j+lanes]))
		btl.Store(r, buf)
		for k := 0; k < lanes; k++ {
			dst[j+k] = dtype.FromFloat32[D](buf[k])
		}
	}
	for ; j < len(src); j++ {
		v := float32(src[j])
		if zps != nil {
			v -= float32(zps[j])
		}
		dst[j] = dtype.FromFloat32[D](v * scales[j])
	}
}

// DecompressKBlockS8FP dequantizes int8 values with per-block scales,
// optional zero points, and pack-row replication of 1, 2 or 4: output
// column j uses scale index j/packRow.
func DecompressKBlockS8FP[D dtype.FP](src []int8, dst []D, row, col, ldSrc, ldDst int,
	scales []float32, zeroPoints []int8, kOffset, kblock, nPad, packRow int) error {
	if packRow != 1 && packRow != 2 && packRow != 4 {
		return ErrNotSupport
	}
	lanes := btl.NumLanes[float32]()
	buf := make([]float32, lanes)
	sbuf := make([]float32, lanes)
	for i := 0; i < row; i++ {
		kpos := (kOffset + i) / kblock
		sptr := scales[kpos*nPad:]
		var zptr []int8
		if zeroPoints != nil {
			zptr = zeroPoints[kpos*nPad:]
		}
		j := 0
		for ; j+lanes <= col; j += lanes {
			for k := 0; k < lanes; k++ {
				v := int32(src[i*ldSrc+j+k])
				if zptr != nil {
					v -= int32(zptr[(j+k)/packRow])
				}
				buf[k] = float32(v)
				sbuf[k] = sptr[(j+k)/packRow]
			}
			r := btl.Mul(btl.Load(buf), btl.Load(sbuf))
			btl.Store(r, buf)
			for k := 0; k < lanes; k++ {
				dst[i*ldDst+j+k] = dtype.FromFloat32[D](buf[k])
			}
		}
		for ; j < col; j++ {
			v := float32(src[i*ldSrc+j])
			if zptr != nil {
				v -= float32(zptr[j/packRow])
			}
			dst[i*ldDst+j] = dtype.FromFloat32[D](v * sptr[j/packRow])
		}
	}
	return nil
}

// DQ8GetFPScale recovers float scales from double-quantized 8-bit scale
// storage: dst = LUT[code]*dqScale[scaleBlock] + dqScale[dqOffsetIdx].
// scaleOffset locates this tile's first scale inside the logical scale
// matrix, so the dqScale block index follows the global position. The
// zero-padding variant is not implemented.
func DQ8GetFPScale(src []uint8, dst []float32, row, col, scaleOffset, dqBlk, dqOffsetIdx int,
	dqScale []float32, srcStride, dstStride int, zeroPadding bool) error {
	if zeroPadding {
		return ErrNotSupport
	}
	lanes := btl.NumLanes[float32]()
	buf := make([]float32, lanes)
	offset := btl.Set(dqScale[dqOffsetIdx])
	for i := 0; i < row; i++ {
		j := 0
		for ; j+lanes <= col; j += lanes {
			// One dqScale block can end mid-vector; fall back to scalar
			// for the straddling group.
			first := (scaleOffset + j) / dqBlk
			last := (scaleOffset + j + lanes - 1) / dqBlk
			if first != last {
				break
			}
			for k := 0; k < lanes; k++ {
				buf[k] = dtype.DQ8BNBLUT[src[i*srcStride+j+k]]
			}
			r := btl.Add(btl.Mul(btl.Load(buf), btl.Set(dqScale[first])), offset)
			btl.Store(r, dst[i*dstStride+j:i*dstStride+j+lanes])
		}
		for ; j < col; j++ {
			idx := (scaleOffset + j) / dqBlk
			dst[i*dstStride+j] = dtype.DQ8BNBLUT[src[i*srcStride+j]]*dqScale[idx] + dqScale[dqOffsetIdx]
		}
	}
	return nil
}

// DequantS32FP32 recovers float results from raw int32 matmul
// accumulators using a per-row activation scale and per-column weight
// scales (float32 or bf16).
func DequantS32FP32[S float32 | dtype.BF16](src []int32, srcStep int, dst []float32, dstStep, row, col int,
	scaleA []float32, ldsa int, scaleB []S) error {
	lanes := btl.NumLanes[float32]()
	buf := make([]float32, lanes)
	sbuf := make([]float32, lanes)
	for i := 0; i < row; i++ {
		a := scaleA[i*ldsa]
		va := btl.Set(a)
		j := 0
		for ; j+lanes <= col; j += lanes {
			for k := 0; k < lanes; k++ {
				sbuf[k] = scaleBToF32(scaleB[j+k])
				buf[k] = float32(src[i*srcStep+j+k])
			}
			vscale := btl.Mul(va, btl.Load(sbuf))
			r := btl.Mul(btl.Load(buf), vscale)
			btl.Store(r, dst[i*dstStep+j:i*dstStep+j+lanes])
		}
		for ; j < col; j++ {
			dst[i*dstStep+j] = a * scaleBToF32(scaleB[j]) * float32(src[i*srcStep+j])
		}
	}
	return nil
}

func scaleBToF32[S float32 | dtype.BF16](s S) float32 {
	switch x := any(s).(type) {
	case float32:
		return x
	case dtype.BF16:
		return x.Float32()
	}
	return 0
}
