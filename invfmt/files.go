// Copyright 2024 The invstat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package invfmt

import "os"

// A FileReader is a Reader bound to an open results file. Close
// releases the underlying file handle.
type FileReader struct {
	Reader
	f *os.File
}

// Open opens a results file and returns a Reader for the given
// format. A nonexistent path surfaces as an error satisfying
// os.IsNotExist; callers are expected to treat that as "no data" for
// the source rather than a fatal condition.
func Open(path string, format Format) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fr := &FileReader{f: f}
	switch format {
	case FormatCSV:
		fr.Reader = NewCSVReader(f, path)
	default:
		fr.Reader = NewLogReader(f, path)
	}
	return fr, nil
}

// Close releases the file handle.
func (fr *FileReader) Close() error {
	return fr.f.Close()
}
