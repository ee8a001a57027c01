package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// HeaderSize is the length of a canonical PCM WAV header: RIFF descriptor,
// a 16-byte fmt chunk and the data chunk preamble.
const HeaderSize = 44

const (
	fmtChunkSize  = 16
	formatPCM     = 1
	bitsPerSample = 16
	bytesPerFrame = bitsPerSample / 8
)

// ErrInvalidArgument is returned when a header is requested for a negative
// payload length or a non-positive sample rate or channel count.
var ErrInvalidArgument = errors.New("invalid WAV header argument")

// ErrInvalidHeader is returned by ParseHeader for input that does not start
// with a canonical 44-byte PCM header.
var ErrInvalidHeader = errors.New("invalid WAV header")

// Header holds the twelve fields of a canonical PCM WAV header.
type Header struct {
	ChunkSize     uint32
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2Size uint32
}

// NewHeader validates the arguments and returns the header describing
// pcmLength bytes of 16-bit PCM.
func NewHeader(pcmLength, sampleRate, channels int) (Header, error) {
	if pcmLength < 0 {
		return Header{}, fmt.Errorf("%w: negative PCM length %d", ErrInvalidArgument, pcmLength)
	}
	if sampleRate <= 0 {
		return Header{}, fmt.Errorf("%w: sample rate %d", ErrInvalidArgument, sampleRate)
	}
	if channels <= 0 || channels > math.MaxUint16/bytesPerFrame {
		return Header{}, fmt.Errorf("%w: channel count %d", ErrInvalidArgument, channels)
	}
	if int64(pcmLength)+36 > math.MaxUint32 {
		return Header{}, fmt.Errorf("%w: PCM length %d exceeds RIFF limit", ErrInvalidArgument, pcmLength)
	}
	byteRate := int64(sampleRate) * int64(channels) * bytesPerFrame
	if byteRate > math.MaxUint32 {
		return Header{}, fmt.Errorf("%w: byte rate %d overflows", ErrInvalidArgument, byteRate)
	}

	return Header{
		ChunkSize:     uint32(36 + pcmLength),
		Subchunk1Size: fmtChunkSize,
		AudioFormat:   formatPCM,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    uint16(channels * bytesPerFrame),
		BitsPerSample: bitsPerSample,
		Subchunk2Size: uint32(pcmLength),
	}, nil
}

// MakeHeader returns the 44-byte header for pcmLength bytes of 16-bit PCM at
// the given sample rate and channel count.
func MakeHeader(pcmLength, sampleRate, channels int) ([]byte, error) {
	h, err := NewHeader(pcmLength, sampleRate, channels)
	if err != nil {
		return nil, err
	}
	b := h.Bytes()
	return b[:], nil
}

// MustHeader is like MakeHeader but panics on invalid arguments.
func MustHeader(pcmLength, sampleRate, channels int) []byte {
	b, err := MakeHeader(pcmLength, sampleRate, channels)
	if err != nil {
		panic(err)
	}
	return b
}

// Bytes serializes the header. Multi-byte fields are little-endian.
func (h Header) Bytes() [HeaderSize]byte {
	var hdr [HeaderSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], h.ChunkSize)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], h.Subchunk1Size)
	binary.LittleEndian.PutUint16(hdr[20:22], h.AudioFormat)
	binary.LittleEndian.PutUint16(hdr[22:24], h.NumChannels)
	binary.LittleEndian.PutUint32(hdr[24:28], h.SampleRate)
	binary.LittleEndian.PutUint32(hdr[28:32], h.ByteRate)
	binary.LittleEndian.PutUint16(hdr[32:34], h.BlockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], h.BitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], h.Subchunk2Size)
	return hdr
}

// WriteTo writes the serialized header to w.
func (h Header) WriteTo(w io.Writer) (int64, error) {
	b := h.Bytes()
	n, err := w.Write(b[:])
	return int64(n), err
}

// ParseHeader reads a canonical 44-byte header from the start of data.
// Extended chunks (LIST, fact, ...) are not supported.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes, need %d", ErrInvalidHeader, len(data), HeaderSize)
	}
	for _, tag := range []struct {
		off  int
		want string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(data[tag.off : tag.off+4]); got != tag.want {
			return Header{}, fmt.Errorf("%w: tag at offset %d is %q, want %q", ErrInvalidHeader, tag.off, got, tag.want)
		}
	}

	return Header{
		ChunkSize:     binary.LittleEndian.Uint32(data[4:8]),
		Subchunk1Size: binary.LittleEndian.Uint32(data[16:20]),
		AudioFormat:   binary.LittleEndian.Uint16(data[20:22]),
		NumChannels:   binary.LittleEndian.Uint16(data[22:24]),
		SampleRate:    binary.LittleEndian.Uint32(data[24:28]),
		ByteRate:      binary.LittleEndian.Uint32(data[28:32]),
		BlockAlign:    binary.LittleEndian.Uint16(data[32:34]),
		BitsPerSample: binary.LittleEndian.Uint16(data[34:36]),
		Subchunk2Size: binary.LittleEndian.Uint32(data[40:44]),
	}, nil
}
