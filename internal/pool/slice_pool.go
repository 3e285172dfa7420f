package pool

import "sync"

// Slice pools for efficient reuse of typed slices. The record reader
// (C7) needs a scratch []uint32 for the event-length index array on every
// RecordInput.Read call, and the compact-node edit path (C6) needs a
// scratch []byte equal in size to a shifted region; both are on hot
// paths, so they're pooled the same way the teacher pools its columnar
// int64/float64/string slices.
var (
	uint32SlicePool = sync.Pool{
		New: func() any { return &[]uint32{} },
	}
	byteSlicePool = sync.Pool{
		New: func() any { return &[]byte{} },
	}
)

// GetUint32Slice retrieves and resizes a uint32 slice from the pool.
//
// The returned slice will have the exact length specified by the size parameter.
// If the pooled slice has insufficient capacity, a new slice will be allocated.
// The caller must call the returned cleanup function to return the slice to the pool.
func GetUint32Slice(size int) ([]uint32, func()) {
	ptr, _ := uint32SlicePool.Get().(*[]uint32)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint32, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { uint32SlicePool.Put(ptr) }
}

// GetByteSlice retrieves and resizes a byte slice from the pool.
//
// The returned slice will have the exact length specified by the size parameter.
// If the pooled slice has insufficient capacity, a new slice will be allocated.
// The caller must call the returned cleanup function to return the slice to the pool.
func GetByteSlice(size int) ([]byte, func()) {
	ptr, _ := byteSlicePool.Get().(*[]byte)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]byte, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { byteSlicePool.Put(ptr) }
}
