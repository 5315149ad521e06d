package kv

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

var snapshotMagic = []byte("tdbsnap1")

const importChunk = 512

// Export writes every pair visible to s as a zstd compressed stream.
func Export(s Session, w io.Writer) (n int, err error) {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return 0, errors.Wrap(err, "zstd writer")
	}
	defer func() {
		if e := zw.Close(); e != nil && err == nil {
			err = errors.Wrap(e, "zstd close")
		}
	}()

	if _, err := zw.Write(snapshotMagic); err != nil {
		return 0, err
	}

	var lenBuf [binary.MaxVarintLen64]byte

	writeBytes := func(b []byte) error {
		l := binary.PutUvarint(lenBuf[:], uint64(len(b)))
		if _, err := zw.Write(lenBuf[:l]); err != nil {
			return err
		}
		_, err := zw.Write(b)
		return err
	}

	err = Walk(s, nil, nil, func(k, v []byte) error {
		if err := writeBytes(k); err != nil {
			return err
		}
		if err := writeBytes(v); err != nil {
			return err
		}
		n++
		return nil
	})

	return n, err
}

// Import reads a stream written by Export and puts every pair into s.
func Import(s Session, r io.Reader) (n int, err error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return 0, errors.Wrap(err, "zstd reader")
	}
	defer zr.Close()

	br := bufio.NewReader(zr)

	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return 0, errors.Wrap(err, "read snapshot header")
	}
	if string(magic) != string(snapshotMagic) {
		return 0, errors.Errorf("invalid snapshot header %q", magic)
	}

	readBytes := func() ([]byte, error) {
		l, err := binary.ReadUvarint(br)
		if err != nil {
			return nil, err
		}
		b := make([]byte, l)
		if _, err := io.ReadFull(br, b); err != nil {
			return nil, err
		}
		return b, nil
	}

	ops := make([]Op, 0, importChunk)

	for {
		k, err := readBytes()
		if err != nil {
			if err == io.EOF {
				break
			}
			return n, errors.Wrap(err, "read key")
		}
		v, err := readBytes()
		if err != nil {
			return n, errors.Wrapf(err, "read value of %x", k)
		}

		ops = append(ops, PutOp(k, v))
		if len(ops) == importChunk {
			if err := s.Apply(ops...); err != nil {
				return n, err
			}
			n += len(ops)
			ops = ops[:0]
		}
	}

	if err := s.Apply(ops...); err != nil {
		return n, err
	}

	return n + len(ops), nil
}
