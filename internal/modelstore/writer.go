// Package modelstore serialises frequency models to disk. Files carry a
// fixed header, a dense entry table, and a CRC32 footer, and are written to
// a temp file then renamed so a reader never observes a partial model.
package modelstore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tokensift/token-screening-platform/internal/nonsense"
)

const (
	// MagicBytes identifies a valid .tsfm model file.
	MagicBytes    uint32 = 0x5453464D
	FormatVersion uint32 = 1
	headerSize    int    = 32
	footerSize    int    = 4
)

// fileExt is the extension given to model files in a Store directory.
const fileExt = ".tsfm"

// Encode serialises a model into the .tsfm wire form. Entries are written in
// sorted n-gram order so encoding is deterministic.
func Encode(model *nonsense.FrequencyModel) ([]byte, error) {
	n := model.N()

	grams := make([]string, 0, model.Len())
	model.Range(func(gram string, _ nonsense.NGramStats) bool {
		grams = append(grams, gram)
		return true
	})
	sort.Strings(grams)

	var body bytes.Buffer
	body.Grow(len(grams) * (n + 12))
	var enc [8]byte
	for _, gram := range grams {
		stats := model.Lookup(gram)
		body.WriteString(gram)
		binary.LittleEndian.PutUint64(enc[:], math.Float64bits(stats.Weight))
		body.Write(enc[:])
		binary.LittleEndian.PutUint32(enc[:4], uint32(stats.MaxFreq))
		body.Write(enc[:4])
	}

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(n))
	binary.LittleEndian.PutUint32(header[12:16], uint32(len(grams)))
	binary.LittleEndian.PutUint64(header[16:24], uint64(model.MaxTotalFreq()))
	binary.LittleEndian.PutUint64(header[24:32], uint64(time.Now().Unix()))

	out := make([]byte, 0, headerSize+body.Len()+footerSize)
	out = append(out, header...)
	out = append(out, body.Bytes()...)
	binary.LittleEndian.PutUint32(enc[:4], checksum(body.Bytes()))
	out = append(out, enc[:4]...)
	return out, nil
}

// WriteFile atomically writes the encoded model to path: the data goes to a
// .tmp sibling first and is renamed into place after a successful sync.
func WriteFile(path string, model *nonsense.FrequencyModel) error {
	data, err := Encode(model)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp model file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing model file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing model file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing model file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming model file: %w", err)
	}
	return nil
}
