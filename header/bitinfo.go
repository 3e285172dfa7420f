package header

// BitInfo is the packed word spec.md §3.4 calls bit_info_version: evio
// version in the low 8 bits, 4-byte user-header padding count in bits
// 20-21, the first-event/dictionary/last-record flags, and the header
// type nibble in bits 28-31. It is shared, bit-for-bit, between record
// and file headers.
type BitInfo uint32

const (
	bitInfoVersionMask = 0xff
	bitInfoPaddingShift = 20
	bitInfoPaddingMask  = 0x3
	bitInfoHeaderTypeShift = 28

	// FirstEventBit marks that the record/file carries a first event in
	// its user header.
	FirstEventBit uint32 = 0x200
	// DictionaryBit marks that the record/file carries a dictionary in
	// its user header.
	DictionaryBit uint32 = 0x100
	// TrailerWithIndexBit marks a trailer record that carries a
	// record-length index array.
	TrailerWithIndexBit uint32 = 0x400
)

// Version returns the evio format version encoded in the low 8 bits.
func (b BitInfo) Version() int { return int(uint32(b) & bitInfoVersionMask) }

// Padding returns the number of pad bytes (0-3) appended to the user header
// to bring it to a 4-byte boundary.
func (b BitInfo) Padding() int {
	return int((uint32(b) >> bitInfoPaddingShift) & bitInfoPaddingMask)
}

// HeaderType returns the decoded header-type nibble, tolerating unrecognized
// values by folding them to HeaderTypeEvioRecord.
func (b BitInfo) HeaderType() HeaderType {
	return headerTypeFromNibble(uint32(b) >> bitInfoHeaderTypeShift)
}

// HasDictionary reports whether the dictionary flag bit is set.
func (b BitInfo) HasDictionary() bool { return uint32(b)&DictionaryBit != 0 }

// HasFirstEvent reports whether the first-event flag bit is set.
func (b BitInfo) HasFirstEvent() bool { return uint32(b)&FirstEventBit != 0 }

// HasTrailerWithIndex reports whether the trailer-with-index flag bit is set.
func (b BitInfo) HasTrailerWithIndex() bool { return uint32(b)&TrailerWithIndexBit != 0 }

// IsLastRecord reports whether this record closes the file (bit 0x200 on a
// record header doubles as "last record" outside trailers, matching the
// source's single FIRST_EVENT_BIT/"last record" bit reuse at the record
// level; callers distinguish the two uses by header type).
func (b BitInfo) IsLastRecord() bool { return uint32(b)&FirstEventBit != 0 }

// NewBitInfo packs a bit-info word from its components.
func NewBitInfo(version int, padding int, t HeaderType, hasDictionary, hasFirstEvent, trailerWithIndex bool) BitInfo {
	v := uint32(version) & bitInfoVersionMask
	v |= (uint32(padding) & bitInfoPaddingMask) << bitInfoPaddingShift
	v |= uint32(t&0xf) << bitInfoHeaderTypeShift
	if hasDictionary {
		v |= DictionaryBit
	}
	if hasFirstEvent {
		v |= FirstEventBit
	}
	if trailerWithIndex {
		v |= TrailerWithIndexBit
	}
	return BitInfo(v)
}

// PadValue mirrors FileHeader::padValue: the number of padding bytes
// needed to bring a byte length up to the next 4-byte boundary.
func PadValue(length int) int {
	table := [4]int{0, 3, 2, 1}
	return table[length%4]
}
