// Package platform hides the operating system specifics of executable memory
// behind the three operations the engine needs: map a code segment writable,
// seal it for execution once relocation has written its final bytes, and
// unmap it on teardown.
package platform

import "errors"

// MmapCodeSegment copies code into a fresh anonymous mapping that can be made
// executable and returns the byte slice of the region. On architectures that
// permit it the mapping is read-write-exec immediately; otherwise it stays
// read-write until FinalizeCodeSegment.
//
// See https://man7.org/linux/man-pages/man2/mmap.2.html for mmap API and flags.
func MmapCodeSegment(code []byte) ([]byte, error) {
	if len(code) == 0 {
		panic(errors.New("BUG: MmapCodeSegment with zero length"))
	}
	return mmapCodeSegment(code)
}

// FinalizeCodeSegment transitions a mapping returned by MmapCodeSegment to
// its executable protection. Must run after the final code bytes are written
// and before the first call into the segment; a no-op where the initial
// mapping is already executable.
func FinalizeCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic(errors.New("BUG: FinalizeCodeSegment with zero length"))
	}
	return finalizeCodeSegment(code)
}

// MunmapCodeSegment unmaps the given memory region, releasing its execute
// permission with it.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic(errors.New("BUG: MunmapCodeSegment with zero length"))
	}
	return munmapCodeSegment(code)
}
