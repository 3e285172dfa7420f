// Package evio implements the evio v6 binary data format: a self-describing
// container for physics event data organized as a stream of hierarchical
// bank/segment/tagsegment structures, grouped into compressed records and
// framed into files.
//
// # Basic usage
//
// Writing a file:
//
//	w, _ := evio.CreateWriter("run.evio", writer.WithCompression(format.CompressionLZ4Fast))
//	w.AddEvent(eventBytes)
//	w.Close()
//
// Reading one back:
//
//	r, _ := evio.OpenFile("run.evio")
//	defer r.Close()
//	for {
//	    has, _ := r.HasNext()
//	    if !has {
//	        break
//	    }
//	    ev, _ := r.NextEvent()
//	    _ = ev
//	}
//
// This package provides thin top-level wrappers around writer.New and
// reader.Open. For fine-grained control — building records directly,
// parsing standalone byte slices, or editing compact node trees — use the
// record, tree, and compact packages directly.
package evio

import (
	"github.com/jlab-evio/evio/reader"
	"github.com/jlab-evio/evio/writer"
)

// CreateWriter opens path for writing and returns a Writer configured by
// opts. See the writer package for the full option set.
func CreateWriter(path string, opts ...writer.Option) (*writer.Writer, error) {
	return writer.New(path, opts...)
}

// OpenFile opens path for reading, decoding its file header and, if
// present, its embedded dictionary and first event.
func OpenFile(path string) (*reader.Reader, error) {
	return reader.Open(path)
}
