package modelstore

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"os"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
	apperrors "github.com/tokensift/token-screening-platform/pkg/errors"
)

// Decode parses a .tsfm payload back into a FrequencyModel, validating the
// magic bytes, format version, and body checksum. A successful round trip
// reproduces every weight and max-frequency value exactly.
func Decode(data []byte) (*nonsense.FrequencyModel, error) {
	if len(data) < headerSize+footerSize {
		return nil, fmt.Errorf("%w: file truncated (%d bytes)", apperrors.ErrModelCorrupt, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != MagicBytes {
		return nil, fmt.Errorf("%w: bad magic bytes %x", apperrors.ErrModelCorrupt, magic)
	}
	if version := binary.LittleEndian.Uint32(data[4:8]); version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", apperrors.ErrModelCorrupt, version)
	}
	n := int(binary.LittleEndian.Uint32(data[8:12]))
	entryCount := int(binary.LittleEndian.Uint32(data[12:16]))
	maxTotalFreq := int(binary.LittleEndian.Uint64(data[16:24]))

	body := data[headerSize : len(data)-footerSize]
	entrySize := n + 12
	if len(body) != entryCount*entrySize {
		return nil, fmt.Errorf("%w: entry table size mismatch (have %d, want %d)",
			apperrors.ErrModelCorrupt, len(body), entryCount*entrySize)
	}
	stored := binary.LittleEndian.Uint32(data[len(data)-footerSize:])
	if sum := checksum(body); sum != stored {
		return nil, fmt.Errorf("%w: checksum mismatch (have %08x, want %08x)",
			apperrors.ErrModelCorrupt, sum, stored)
	}

	stats := make(map[string]nonsense.NGramStats, entryCount)
	for pos := 0; pos < len(body); pos += entrySize {
		gram := string(body[pos : pos+n])
		weight := math.Float64frombits(binary.LittleEndian.Uint64(body[pos+n:]))
		maxFreq := int(binary.LittleEndian.Uint32(body[pos+n+8:]))
		stats[gram] = nonsense.NGramStats{Weight: weight, MaxFreq: maxFreq}
	}
	model, err := nonsense.NewFrequencyModel(n, stats, maxTotalFreq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrModelCorrupt, err)
	}
	return model, nil
}

// ReadFile loads and decodes the model at path.
func ReadFile(path string) (*nonsense.FrequencyModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("reading model file %s: %w", path, err)
	}
	model, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding model file %s: %w", path, err)
	}
	return model, nil
}

func checksum(body []byte) uint32 {
	return crc32.ChecksumIEEE(body)
}
