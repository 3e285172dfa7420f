package composite

import (
	"github.com/jlab-evio/evio/bytebuf"
	"github.com/jlab-evio/evio/endian"
	"github.com/jlab-evio/evio/evioerr"
	"github.com/jlab-evio/evio/format"
	"github.com/jlab-evio/evio/header"
)

// ReadContainer decodes the self-contained wrapper composite data is
// stored in, per spec.md §3.8: a tagsegment whose body is the
// NUL/'\4'-padded format string, followed by a bank whose body is the
// raw item data. Grounded on original_source's CompositeTester.cpp
// bank layout, whose comments note both substructures' tag/num/type
// fields are ignored by a reader — only their lengths matter.
func ReadContainer(raw []byte, order endian.EndianEngine) (formatStr string, data []byte, err error) {
	if len(raw) < 4*header.TagSegmentHeaderWords {
		return "", nil, evioerr.Wrap(evioerr.ErrTruncated, "composite: truncated format tagsegment")
	}
	buf := bytebuf.Wrap(raw).SetOrder(order)

	var th header.TagSegmentHeader
	th.Decode(buf, 0)
	tsBytes := th.TotalBytes()
	if tsBytes > len(raw) {
		return "", nil, evioerr.Wrap(evioerr.ErrInvalidLength, "composite: format tagsegment declares %d bytes, have %d", tsBytes, len(raw))
	}
	formatStr = ParseFormatString(raw[4*header.TagSegmentHeaderWords : tsBytes])

	bankOff := tsBytes
	if bankOff+4*header.BankHeaderWords > len(raw) {
		return "", nil, evioerr.Wrap(evioerr.ErrTruncated, "composite: truncated data bank")
	}
	var bh header.BankHeader
	bh.Decode(buf, bankOff)
	bankBytes := bh.TotalBytes()
	if bankOff+bankBytes > len(raw) {
		return "", nil, evioerr.Wrap(evioerr.ErrInvalidLength, "composite: data bank declares %d bytes, have %d", bankBytes, len(raw)-bankOff)
	}

	dataOff := bankOff + 4*header.BankHeaderWords
	dataEnd := bankOff + bankBytes - int(bh.Pad)
	if dataEnd < dataOff {
		return "", nil, evioerr.Wrap(evioerr.ErrInvalidLength, "composite: data bank pad %d exceeds its own length", bh.Pad)
	}

	return formatStr, raw[dataOff:dataEnd], nil
}

// WriteContainer is ReadContainer's mirror: it wraps an already-packed
// item data stream (as produced by Build) and its format string in the
// self-contained tagsegment+bank layout spec.md §3.8 describes.
func WriteContainer(formatStr string, data []byte, order endian.EndianEngine) []byte {
	fsBytes := formatStringBytes(formatStr)

	pad := 0
	if n := len(data) % 4; n != 0 {
		pad = 4 - n
	}
	dataWords := (len(data) + pad) / 4

	tsBytes := 4*header.TagSegmentHeaderWords + len(fsBytes)
	bankBytes := 4*header.BankHeaderWords + len(data) + pad

	out := bytebuf.New(tsBytes + bankBytes)
	out.SetOrder(order)

	th := header.TagSegmentHeader{Tag: 0, Type: format.CharStar8, LenWords: uint32(len(fsBytes) / 4)}
	th.Encode(out, 0)
	out.SetPosition(4 * header.TagSegmentHeaderWords)
	out.PutBytes(fsBytes)

	bankOff := out.Position()
	bh := header.BankHeader{LenWords: uint32(1 + dataWords), Tag: 0, Pad: uint8(pad), Type: format.Composite, Num: 0}
	bh.Encode(out, bankOff)
	out.SetPosition(bankOff + 4*header.BankHeaderWords)
	out.PutBytes(data)
	for i := 0; i < pad; i++ {
		out.PutUint8(0)
	}

	out.Flip()
	return out.Bytes()
}

// DecodeContainer decodes a whole self-contained composite payload:
// its embedded format string, and the Items that format compiles to
// against the embedded data bank's bytes.
func DecodeContainer(raw []byte, order endian.EndianEngine) (formatStr string, items []Item, err error) {
	formatStr, data, err := ReadContainer(raw, order)
	if err != nil {
		return "", nil, err
	}
	ops, err := Compile(formatStr)
	if err != nil {
		return "", nil, err
	}
	items, err = Decode(ops, bytebuf.Wrap(data).SetOrder(order), 0)
	if err != nil {
		return "", nil, err
	}
	return formatStr, items, nil
}

// EncodeContainer builds items against formatStr and wraps the result
// in the self-contained container WriteContainer describes; the
// encode-side counterpart to DecodeContainer.
func EncodeContainer(formatStr string, items []Item, order endian.EndianEngine) ([]byte, error) {
	data, err := Build(formatStr, items, order)
	if err != nil {
		return nil, err
	}
	return WriteContainer(formatStr, data, order), nil
}

// ParseFormatString splits a NUL-terminated, '\4'-padded format string
// out of a raw char8 byte region, per spec.md §3.3's string-array
// convention (tree.DecodeStringPayload's single-string case).
func ParseFormatString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// formatStringBytes packs s as a NUL-terminated, '\4'-padded char8
// byte region sized to a whole number of words, mirroring
// tree.StringPayload's single-string encoding.
func formatStringBytes(s string) []byte {
	n := len(s) + 1
	total := n + 4
	if rem := n % 4; rem != 0 {
		total = n + (4 - rem)
	}
	b := make([]byte, total)
	copy(b, s)
	for i := n; i < total; i++ {
		b[i] = 4
	}
	return b
}
