package index

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"
)

// flatFile is the on-disk representation of a Flat index. The format is
// private to this package: callers only get the round-trip guarantee that
// Load(Save(f)) searches identically to f.
type flatFile struct {
	Dimension int
	Vectors   [][]float32
}

// WriteTo encodes the index to w in its binary on-disk format.
func (f *Flat) WriteTo(w io.Writer) error {
	enc := gob.NewEncoder(w)
	return enc.Encode(flatFile{Dimension: f.dim, Vectors: f.vectors})
}

// Save writes the index to path. The write is staged through a temporary
// file and renamed into place, so a crash mid-write cannot clobber an
// existing index file.
func (f *Flat) Save(path string) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := f.WriteTo(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadFrom decodes an index from r.
func ReadFrom(r io.Reader) (*Flat, error) {
	var file flatFile
	if err := gob.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	for i, v := range file.Vectors {
		if len(v) != file.Dimension {
			return nil, fmt.Errorf("%w: row %d has %d dimensions, expected %d",
				ErrCorruptIndex, i, len(v), file.Dimension)
		}
	}
	return &Flat{dim: file.Dimension, vectors: file.Vectors}, nil
}

// Load reads an index previously written by Save.
func Load(path string) (*Flat, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()
	return ReadFrom(file)
}
