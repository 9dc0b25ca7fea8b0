package badger

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/poiesic/docsearch/core"
)

// Key prefixes for different data types
const (
	documentPrefix = "docrec"
	termPrefix     = "docterm"
	documentIDSeq  = "docrecseq"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeTermKey generates a composite key for the lexical term index.
// Format: prefix:term:id. Terms contain only letters and digits, so the
// separator is unambiguous. The ID is written in BigEndian order so
// lexicographic sort works correctly.
func makeTermKey(term string, id core.ID) []byte {
	prefix := termPrefix + ":" + term + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialTermKey generates the scan prefix for a term's postings.
func makePartialTermKey(term string) []byte {
	return []byte(termPrefix + ":" + term + ":")
}

// termKeyID extracts the document ID from a term index key.
func termKeyID(key []byte) (core.ID, bool) {
	if len(key) < 8 {
		return 0, false
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:])), true
}

// marshalWeight encodes a term weight as 4 BigEndian bytes.
func marshalWeight(w float32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, math.Float32bits(w))
	return buf
}

// unmarshalWeight decodes a term weight.
func unmarshalWeight(data []byte) (float32, bool) {
	if len(data) != 4 {
		return 0, false
	}
	return math.Float32frombits(binary.BigEndian.Uint32(data)), true
}

// makeCheckpointKey generates a key for job checkpoints.
func makeCheckpointKey(jobType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", jobType))
}
