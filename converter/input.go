package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"
)

// Input is the raw sentence stream. For plain regular files the whole
// input is memory mapped and Data is non-nil; otherwise read Stream.
type Input struct {
	Data    []byte // the mmapped file, read-only
	Stream  io.Reader
	closers []func() error
}

func (in *Input) Close() error {
	var first error
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenInput opens path for reading. "-" means stdin. Files ending in
// .gz, .zst or .zstd are decompressed on the fly; plain regular files
// are memory mapped so the reader can hand out line slices without
// copying.
func OpenInput(path string) (*Input, error) {
	if path == "-" {
		return &Input{Stream: os.Stdin}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	in := &Input{closers: []func() error{f.Close}}
	switch filepath.Ext(path) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		in.Stream = gz
		in.closers = append(in.closers, gz.Close)
		return in, nil
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		in.Stream = zr
		in.closers = append(in.closers, func() error {
			zr.Close()
			return nil
		})
		return in, nil
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Mode().IsRegular() && fi.Size() > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, int(fi.Size()),
			unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			in.Data = data
			in.closers = append(in.closers, func() error {
				return unix.Munmap(data)
			})
			return in, nil
		}
		// some filesystems can't mmap; plain reads always work
	}
	in.Stream = f
	return in, nil
}
