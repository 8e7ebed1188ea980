package processing

// DefaultChunkSize is used when a document's strategy carries no
// usable window size.
const DefaultChunkSize = 1000

// Chunk is one window cut from a document's text. Start and End are
// rune offsets into the source, [Start, End).
type Chunk struct {
	Index   int
	Content string
	Start   int
	End     int
}

// SplitText cuts text into fixed-size windows. With overlap == 0 the
// windows tile the text exactly: concatenating the contents
// reconstructs the input and boundaries are contiguous. With
// overlap > 0 consecutive windows share `overlap` runes.
//
// This is a pure function: identical input always yields identical
// chunk boundaries. Empty text yields no chunks; text shorter than one
// window yields a single chunk spanning all of it.
func SplitText(text string, size, overlap int) []Chunk {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	stride := size - overlap

	var chunks []Chunk
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Content: string(runes[start:end]),
			Start:   start,
			End:     end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
