package text

import "strings"

// ChunkBySentence splits text at sentence boundaries and packs consecutive
// sentences into chunks of at most maxChars bytes. A sentence longer than
// maxChars is broken between words; a single word longer than maxChars is
// kept whole. maxChars <= 0 disables splitting.
func ChunkBySentence(text string, maxChars int) []string {
	if maxChars <= 0 {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return []string{text}
	}
	if len(sentences) == 1 && len(sentences[0]) <= maxChars {
		return sentences
	}

	var p packer
	p.max = maxChars
	for _, s := range sentences {
		if len(s) <= maxChars {
			p.add(s)
			continue
		}
		p.flush()
		for _, w := range strings.Fields(s) {
			p.add(w)
		}
		p.flush()
	}
	p.flush()
	return p.chunks
}

// packer joins pieces with single spaces without exceeding max.
type packer struct {
	max     int
	current strings.Builder
	chunks  []string
}

func (p *packer) add(piece string) {
	if p.current.Len() > 0 && p.current.Len()+1+len(piece) > p.max {
		p.flush()
	}
	if p.current.Len() > 0 {
		p.current.WriteByte(' ')
	}
	p.current.WriteString(piece)
}

func (p *packer) flush() {
	if p.current.Len() == 0 {
		return
	}
	p.chunks = append(p.chunks, p.current.String())
	p.current.Reset()
}

// splitSentences splits on runs of '.', '!' and '?', keeping the run and any
// closing quotes or brackets attached to the sentence. Blank pieces are
// dropped.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	emit := func(end int) {
		if s := strings.TrimSpace(text[start:end]); s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		if !isTerminator(text[i]) {
			continue
		}
		j := i + 1
		for j < len(text) && (isTerminator(text[j]) || isCloser(text[j])) {
			j++
		}
		emit(j)
		i = j - 1
	}
	if start < len(text) {
		emit(len(text))
	}
	return sentences
}

func isTerminator(b byte) bool { return b == '.' || b == '!' || b == '?' }

func isCloser(b byte) bool { return b == '"' || b == '\'' || b == ')' || b == ']' }
