package text

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned when a script holds nothing but whitespace.
var ErrEmptyText = errors.New("text is empty")

// DefaultMaxChars keeps single speech requests comfortably small.
const DefaultMaxChars = 400

// Normalize converts CRLF and CR line endings to LF and trims the text.
func Normalize(s string) (string, error) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyText
	}
	return s, nil
}

// SplitScript turns a narration script into ordered speech segments. Every
// non-blank line is one segment; lines longer than maxChars are chunked by
// sentence. Runs of spaces and tabs inside a line collapse to one space.
func SplitScript(script string, maxChars int) ([]string, error) {
	s, err := Normalize(script)
	if err != nil {
		return nil, err
	}

	var segments []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		if maxChars > 0 && len(line) > maxChars {
			segments = append(segments, ChunkBySentence(line, maxChars)...)
			continue
		}
		segments = append(segments, line)
	}
	return segments, nil
}
