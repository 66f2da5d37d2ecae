package bheap

import "unsafe"

// uintptrOfSlice returns the address backing a Go byte slice, for tests
// that want to plant chunks directly into ordinary heap-allocated memory
// without going through a PageSource.
func uintptrOfSlice(b []byte) uintptr {
	return uintptr(unsafe.Pointer(&b[0]))
}

// uintptrOfPtr converts an unsafe.Pointer to its integer address, for
// comparing page-source results in tests.
func uintptrOfPtr(p unsafe.Pointer) uintptr {
	return uintptr(p)
}
