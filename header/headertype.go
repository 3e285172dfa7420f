package header

// HeaderType is the 4-bit nibble stored in bits 28-31 of a record or file
// header's bit-info word. It distinguishes the evio and hipo wire-formats
// and, within each, files from records from trailers, because the two
// container formats share a header-level layout but not a magic word.
//
// The original source's HeaderType.h was not part of the retrieval pack,
// so these values follow the EVIO/HIPO wire-format convention documented
// inline at each FileHeader/RecordHeader call site that reads or writes
// the nibble; see DESIGN.md for the reasoning.
type HeaderType uint8

const (
	HeaderTypeUnknown     HeaderType = 0
	HeaderTypeEvioRecord  HeaderType = 1
	HeaderTypeEvioFile    HeaderType = 2
	HeaderTypeHipoRecord  HeaderType = 3
	HeaderTypeHipoFile    HeaderType = 4
	HeaderTypeEvioTrailer HeaderType = 5
	HeaderTypeHipoTrailer HeaderType = 6
)

func (t HeaderType) String() string {
	switch t {
	case HeaderTypeEvioRecord:
		return "evio-record"
	case HeaderTypeEvioFile:
		return "evio-file"
	case HeaderTypeHipoRecord:
		return "hipo-record"
	case HeaderTypeHipoFile:
		return "hipo-file"
	case HeaderTypeEvioTrailer:
		return "evio-trailer"
	case HeaderTypeHipoTrailer:
		return "hipo-trailer"
	default:
		return "unknown"
	}
}

// IsFile reports whether t names a file-level (as opposed to record-level) header.
func (t HeaderType) IsFile() bool {
	return t == HeaderTypeEvioFile || t == HeaderTypeHipoFile
}

// IsTrailer reports whether t names a trailer header.
func (t HeaderType) IsTrailer() bool {
	return t == HeaderTypeEvioTrailer || t == HeaderTypeHipoTrailer
}

// headerTypeFromNibble decodes the raw 4-bit value found in bits 28-31 of
// a bit-info word. An unrecognized nibble decodes as EVIO_RECORD rather
// than UNKNOWN, mirroring FileHeader::readHeader's tolerant fallback.
func headerTypeFromNibble(n uint32) HeaderType {
	t := HeaderType(n & 0xf)
	switch t {
	case HeaderTypeEvioRecord, HeaderTypeEvioFile, HeaderTypeHipoRecord,
		HeaderTypeHipoFile, HeaderTypeEvioTrailer, HeaderTypeHipoTrailer:
		return t
	default:
		return HeaderTypeEvioRecord
	}
}
