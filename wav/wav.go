// Package wav reads and writes PCM wav files as channels of float64
// samples in range [-1, 1].
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"pipelined.dev/faust/signal"
)

// pcmFormat is the wav audio format of integer PCM.
const pcmFormat = 1

// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
var ErrUnsupportedBitDepth = errors.New("only 16, 24 and 32 bit depth is supported")

// Audio is decoded wav content.
type Audio struct {
	Samples    signal.Float64
	SampleRate int
	BitDepth   int
}

// Size returns number of frames.
func (a Audio) Size() int {
	return a.Samples.Size()
}

// Read decodes wav file at path.
func Read(path string) (Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return Audio{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads wav content.
func Decode(r io.ReadSeeker) (Audio, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return Audio{}, errors.New("wav is not valid")
	}
	bitDepth := int(decoder.BitDepth)
	if !supported(bitDepth) {
		return Audio{}, ErrUnsupportedBitDepth
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Audio{}, fmt.Errorf("decode wav: %w", err)
	}
	ints := signal.InterInt{
		Data:        buf.Data,
		NumChannels: buf.Format.NumChannels,
		BitDepth:    signal.BitDepth(bitDepth),
	}
	return Audio{
		Samples:    ints.AsFloat64(),
		SampleRate: int(decoder.SampleRate),
		BitDepth:   bitDepth,
	}, nil
}

// Write encodes audio into wav file at path. Samples are clipped to
// [-1, 1].
func Write(path string, a Audio) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes audio as wav content.
func Encode(w io.WriteSeeker, a Audio) error {
	if !supported(a.BitDepth) {
		return ErrUnsupportedBitDepth
	}
	ints := a.Samples.AsInterInt(signal.BitDepth(a.BitDepth))
	encoder := wav.NewEncoder(w, a.SampleRate, a.BitDepth, ints.NumChannels, pcmFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: ints.NumChannels,
			SampleRate:  a.SampleRate,
		},
		Data:           ints.Data,
		SourceBitDepth: a.BitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return encoder.Close()
}

func supported(bitDepth int) bool {
	return bitDepth == 16 || bitDepth == 24 || bitDepth == 32
}
