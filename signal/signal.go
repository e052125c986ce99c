// Package signal converts between interleaved integer PCM and
// non-interleaved float64 channels, and manipulates float64 buffers.
package signal

import (
	"time"
)

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

// Supported bit depths.
const (
	BitDepth8  = BitDepth(8)
	BitDepth16 = BitDepth(16)
	BitDepth24 = BitDepth(24)
	BitDepth32 = BitDepth(32)
)

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

// scale returns the full scale int value. Zero bit depth means samples
// are not scaled.
func (bitDepth BitDepth) scale() float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 1
	}
	return float64(int64(1)<<uint(bitDepth-1) - 1)
}

// DurationOf returns time duration of samples at this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}

// AsFloat64 converts interleaved int signal to float64. Incomplete last
// frame is padded with zeros.
func (ints InterInt) AsFloat64() Float64 {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	size := (len(ints.Data) + ints.NumChannels - 1) / ints.NumChannels
	floats := EmptyFloat64(ints.NumChannels, size)
	scale := ints.BitDepth.scale()
	for i := range floats {
		pos := 0
		for j := i; j < len(ints.Data); j = j + ints.NumChannels {
			floats[i][pos] = float64(ints.Data[j]) / scale
			pos++
		}
	}
	return floats
}

// AsInterInt converts float64 signal to interleaved int. Samples are
// clipped to [-1, 1] when bit depth is set.
func (floats Float64) AsInterInt(bitDepth BitDepth) InterInt {
	numChannels := floats.NumChannels()
	if numChannels == 0 {
		return InterInt{BitDepth: bitDepth}
	}
	scale := bitDepth.scale()
	clip := scale > 1
	size := floats.Size()
	ints := make([]int, size*numChannels)
	for j := range floats {
		for i := 0; i < len(floats[j]) && i < size; i++ {
			v := floats[j][i]
			if clip {
				if v > 1 {
					v = 1
				} else if v < -1 {
					v = -1
				}
			}
			ints[i*numChannels+j] = int(v * scale)
		}
	}
	return InterInt{
		Data:        ints,
		NumChannels: numChannels,
		BitDepth:    bitDepth,
	}
}

// EmptyFloat64 returns an empty buffer of specified dimensions.
func EmptyFloat64(numChannels int, size int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, size)
	}
	return result
}

// NumChannels returns number of channels in this sample slice.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples in single channel.
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Append source to the buffer. New buffer is allocated if floats is nil.
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make([][]float64, source.NumChannels())
		for i := range floats {
			floats[i] = make([]float64, 0, source.Size())
		}
	}
	for i := range source {
		floats[i] = append(floats[i], source[i]...)
	}
	return floats
}

// Slice returns a view of the buffer from start position with defined
// length. Nil is returned if start is out of range, length is shortened
// at the end of the buffer.
func (floats Float64) Slice(start int, length int) Float64 {
	if floats == nil || start >= floats.Size() || start < 0 {
		return nil
	}
	end := start + length
	if end > floats.Size() {
		end = floats.Size()
	}
	result := make([][]float64, floats.NumChannels())
	for i := range floats {
		result[i] = floats[i][start:end:end]
	}
	return result
}
