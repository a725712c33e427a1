// Package unsafecast exposes functions to bypass the Go type system and
// perform conversions between types that would otherwise not be possible.
//
// The functions of this package are mostly useful as optimizations to avoid
// memory copies when converting between compatible memory layouts; for
// example reinterpreting a []int32 as a []byte in order to memcpy it
// directly into a PLAIN-encoded page on a little-endian host.
//
//	With great power comes great responsibility.
package unsafecast

import "unsafe"

// The slice type represents the memory layout of slices in Go. It is similar
// to reflect.SliceHeader but uses an unsafe.Pointer instead of uintptr for
// the backing array so the garbage collector can still track the reference.
type slice struct {
	ptr unsafe.Pointer
	len int
	cap int
}

// Slice converts the data slice of type []From to a slice of type []To
// sharing the same backing array. The length and capacity of the returned
// slice are scaled according to the size difference between the source and
// destination types.
//
// The function does not check that the memory layouts of the two types are
// compatible; callers are responsible for only using it between types with
// matching size and alignment (e.g. int32 and uint32, or byte and a fixed
// array of bytes).
func Slice[To, From any](data []From) []To {
	var zf From
	var zt To
	s := slice{
		ptr: *(*unsafe.Pointer)(unsafe.Pointer(&data)),
		len: int((uintptr(len(data)) * unsafe.Sizeof(zf)) / unsafe.Sizeof(zt)),
		cap: int((uintptr(cap(data)) * unsafe.Sizeof(zf)) / unsafe.Sizeof(zt)),
	}
	return *(*[]To)(unsafe.Pointer(&s))
}

// BytesToString converts a byte slice to a string value. The returned string
// shares the backing array of the byte slice.
func BytesToString(data []byte) string {
	return unsafe.String(unsafe.SliceData(data), len(data))
}

// StringToBytes applies the inverse conversion of BytesToString.
func StringToBytes(data string) []byte {
	return unsafe.Slice(unsafe.StringData(data), len(data))
}
