// Package swap converts an EVIO structure tree's on-the-wire byte order,
// operating directly on a buffer/offset pair rather than a parsed
// tree.Structure so a whole record's event payloads can be swapped
// without first building a tree. Ported from
// original_source/evioswap.c, generalized from the original's
// in-place-or-to-dest pair of modes to an explicit dst buffer (nil means
// in place) and from bank-only recursion to all three structure kinds.
//
// dst, when given, is assumed to mirror src's layout byte for byte (same
// offsets throughout) — exactly the "dest" buffer evioswap.c swaps into.
package swap

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/composite"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
)

// Structure swaps one structure (and everything nested under it) of the
// given kind at off, reading header fields through src's current byte
// order and writing swapped bytes either back into src (dst == nil) or
// into dst at the same offset. It returns the number of bytes occupied
// by the structure.
func Structure(src *bytebuf.Buffer, off int, kind format.Kind, dst *bytebuf.Buffer) (int, error) {
	if dst == nil {
		dst = src
	}

	switch kind {
	case format.KindBank:
		return swapBank(src, off, dst)
	case format.KindSegment:
		return swapSegment(src, off, dst)
	default:
		return swapTagSegment(src, off, dst)
	}
}

func swapBank(src *bytebuf.Buffer, off int, dst *bytebuf.Buffer) (int, error) {
	var bh header.BankHeader
	bh.Decode(src, off)
	dataType := bh.Type.Canonical()
	totalBytes := bh.TotalBytes()
	swapWords(src, off, dst, header.BankHeaderWords)

	dataOff := off + 4*header.BankHeaderWords
	return totalBytes, swapPayload(src, dst, dataOff, totalBytes-4*header.BankHeaderWords, dataType, int(bh.Pad))
}

func swapSegment(src *bytebuf.Buffer, off int, dst *bytebuf.Buffer) (int, error) {
	var sh header.SegmentHeader
	sh.Decode(src, off)
	dataType := sh.Type.Canonical()
	totalBytes := sh.TotalBytes()
	swapWords(src, off, dst, header.SegmentHeaderWords)

	dataOff := off + 4*header.SegmentHeaderWords
	return totalBytes, swapPayload(src, dst, dataOff, totalBytes-4*header.SegmentHeaderWords, dataType, int(sh.Pad))
}

func swapTagSegment(src *bytebuf.Buffer, off int, dst *bytebuf.Buffer) (int, error) {
	var th header.TagSegmentHeader
	th.Decode(src, off)
	dataType := th.Type.Canonical()
	totalBytes := th.TotalBytes()
	swapWords(src, off, dst, header.TagSegmentHeaderWords)

	dataOff := off + 4*header.TagSegmentHeaderWords
	return totalBytes, swapPayload(src, dst, dataOff, totalBytes-4*header.TagSegmentHeaderWords, dataType, 0)
}

// swapWords reverses the raw bytes of n 32-bit header words in place
// within dst (src == dst for an in-place swap).
func swapWords(src *bytebuf.Buffer, off int, dst *bytebuf.Buffer, n int) {
	for i := 0; i < n; i++ {
		dst.PutUint32At(off+4*i, endian.Swap32(src.GetUint32At(off+4*i)))
	}
}

func swapPayload(src, dst *bytebuf.Buffer, off int, length int, dataType format.DataType, pad int) error {
	n := length - pad

	switch dataType {
	case format.Uint32, format.Float32, format.Int32, format.Unknown32:
		swapWordRun(src, dst, off, n/4)
	case format.Int16, format.Uint16:
		swapShortRun(src, dst, off, n/2)
	case format.Int64, format.Uint64, format.Float64:
		swapLongRun(src, dst, off, n/8)
	case format.Int8, format.Uint8, format.CharStar8:
		copyRun(src, dst, off, length)
		return nil
	case format.Bank, format.AltBank:
		return swapContainerRun(src, dst, off, n, format.KindBank)
	case format.Segment, format.AltSegment:
		return swapContainerRun(src, dst, off, n, format.KindSegment)
	case format.TagSegment:
		return swapContainerRun(src, dst, off, n, format.KindTagSegment)
	case format.Composite:
		if err := swapComposite(src, dst, off, n); err != nil {
			return err
		}
	default:
		swapWordRun(src, dst, off, n/4)
	}

	if pad > 0 {
		copyRun(src, dst, off+n, pad)
	}

	return nil
}

func swapWordRun(src, dst *bytebuf.Buffer, off int, count int) {
	for i := 0; i < count; i++ {
		dst.PutUint32At(off+4*i, endian.Swap32(src.GetUint32At(off+4*i)))
	}
}

func swapShortRun(src, dst *bytebuf.Buffer, off int, count int) {
	for i := 0; i < count; i++ {
		dst.PutUint16At(off+2*i, endian.Swap16(src.GetUint16At(off+2*i)))
	}
}

func swapLongRun(src, dst *bytebuf.Buffer, off int, count int) {
	for i := 0; i < count; i++ {
		dst.PutUint64At(off+8*i, endian.Swap64(src.GetUint64At(off+8*i)))
	}
}

func copyRun(src, dst *bytebuf.Buffer, off int, count int) {
	if src == dst {
		return
	}
	for i := 0; i < count; i++ {
		dst.PutUint8At(off+i, src.GetUint8At(off+i))
	}
}

func swapContainerRun(src, dst *bytebuf.Buffer, off int, length int, kind format.Kind) error {
	pos := 0
	for pos < length {
		n, err := Structure(src, off+pos, kind, dst)
		if err != nil {
			return err
		}
		pos += n
	}
	return nil
}

// swapComposite byte-swaps a composite payload in place: per spec.md
// §3.8 the payload is self-contained, a tagsegment carrying the format
// string followed by a bank carrying the raw data, so the format is
// read from the payload itself rather than resolved externally. The
// tagsegment's own header word is swapped like any nested structure
// header; its char8 body (the format string) passes through unchanged.
// The data bank's header word is likewise swapped, and its body is
// byte-swapped per-element using the opcodes the recovered format
// string compiles to.
func swapComposite(src, dst *bytebuf.Buffer, off int, length int) error {
	if length < 4*header.TagSegmentHeaderWords {
		return evioerr.Wrap(evioerr.ErrTruncated, "composite at offset %d: truncated format tagsegment", off)
	}

	var th header.TagSegmentHeader
	th.Decode(src, off)
	tsBytes := th.TotalBytes()
	if tsBytes > length {
		return evioerr.Wrap(evioerr.ErrInvalidLength, "composite at offset %d: format tagsegment declares %d bytes, have %d", off, tsBytes, length)
	}
	swapWords(src, off, dst, header.TagSegmentHeaderWords)
	copyRun(src, dst, off+4*header.TagSegmentHeaderWords, tsBytes-4*header.TagSegmentHeaderWords)

	formatStr := composite.ParseFormatString(src.Bytes()[off+4*header.TagSegmentHeaderWords : off+tsBytes])

	bankOff := off + tsBytes
	if bankOff+4*header.BankHeaderWords > off+length {
		return evioerr.Wrap(evioerr.ErrTruncated, "composite at offset %d: truncated data bank", off)
	}
	var bh header.BankHeader
	bh.Decode(src, bankOff)
	bankBytes := bh.TotalBytes()
	if bankOff+bankBytes > off+length {
		return evioerr.Wrap(evioerr.ErrInvalidLength, "composite at offset %d: data bank declares %d bytes, have %d", off, bankBytes, length-tsBytes)
	}
	swapWords(src, bankOff, dst, header.BankHeaderWords)

	dataOff := bankOff + 4*header.BankHeaderWords
	dataLen := bankBytes - 4*header.BankHeaderWords

	ops, err := composite.Compile(formatStr)
	if err != nil {
		return evioerr.WrapCause(evioerr.ErrInvalidFormat, err, "composite at offset %d: format %q", off, formatStr)
	}

	copyRun(src, dst, dataOff, dataLen)
	view := dst.SliceRange(dataOff, dataLen)
	return composite.SwapAll(ops, view, int(bh.Pad))
}
