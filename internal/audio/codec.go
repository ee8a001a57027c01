package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// DataURIPrefix is prepended to every combined clip.
const DataURIPrefix = "data:audio/wav;base64,"

// ErrInvalidEncoding is returned when a clip's payload is not valid base64.
var ErrInvalidEncoding = errors.New("invalid base64 encoding")

// Codec converts between binary payloads and their textual form.
type Codec interface {
	Encode(data []byte) string
	Decode(text string) ([]byte, error)
}

// StdCodec is the standard base64 alphabet (RFC 4648 §4). Encode pads;
// Decode accepts input with or without trailing '=' padding.
type StdCodec struct{}

func (StdCodec) Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func (StdCodec) Decode(text string) ([]byte, error) {
	b, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(text, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b, nil
}

// ClipPayload strips an optional "data:...;base64," prefix. Everything after
// the first comma is the payload; without a comma the whole string is.
func ClipPayload(clip string) string {
	if _, payload, ok := strings.Cut(clip, ","); ok {
		return payload
	}
	return clip
}

// DecodeClip decodes a bare base64 clip or a data URI into raw bytes.
func DecodeClip(clip string) ([]byte, error) {
	return decodeClip(StdCodec{}, clip)
}

func decodeClip(c Codec, clip string) ([]byte, error) {
	b, err := c.Decode(ClipPayload(clip))
	if err != nil {
		if errors.Is(err, ErrInvalidEncoding) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return b, nil
}

// EncodeDataURI returns wav as a data:audio/wav;base64 URI.
func EncodeDataURI(wav []byte) string {
	return DataURIPrefix + StdCodec{}.Encode(wav)
}
