package flat

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// File format: 4-byte magic, uint32 dim, uint32 count, then count*dim
// little-endian float32 values. The index is written and read wholesale.
var magic = [4]byte{'K', 'C', 'F', '1'}

func (ix *Index) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	written := int64(0)

	if _, err := bw.Write(magic[:]); err != nil {
		return written, fmt.Errorf("write magic: %w", err)
	}
	written += int64(len(magic))

	header := []uint32{uint32(ix.dim), uint32(ix.Count())}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return written, fmt.Errorf("write header: %w", err)
		}
		written += 4
	}
	if err := binary.Write(bw, binary.LittleEndian, ix.data); err != nil {
		return written, fmt.Errorf("write vectors: %w", err)
	}
	written += int64(4 * len(ix.data))

	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("flush index: %w", err)
	}
	return written, nil
}

func ReadFrom(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)

	var gotMagic [4]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("bad index magic %q", gotMagic)
	}

	var dim, count uint32
	if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dim: %w", err)
	}
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	if dim == 0 && count > 0 {
		return nil, fmt.Errorf("zero dimension with %d vectors", count)
	}

	ix := New(int(dim))
	if n := int(dim) * int(count); n > 0 {
		ix.data = make([]float32, n)
		if err := binary.Read(br, binary.LittleEndian, ix.data); err != nil {
			return nil, fmt.Errorf("read vectors: %w", err)
		}
	}
	return ix, nil
}

func WriteFile(path string, ix *Index) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	if _, err := ix.WriteTo(f); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync index file: %w", err)
	}
	return nil
}

func ReadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	return ReadFrom(f)
}
