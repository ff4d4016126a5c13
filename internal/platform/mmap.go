//go:build !windows

package platform

import (
	"runtime"
	"syscall"
)

func mmapCodeSegment(code []byte) ([]byte, error) {
	if runtime.GOARCH == "amd64" {
		return mmapCodeSegmentAMD64(code)
	}
	return mmapCodeSegmentOther(code)
}

func finalizeCodeSegment(code []byte) error {
	if runtime.GOARCH == "amd64" {
		// The region is already RWX.
		return nil
	}
	return syscall.Mprotect(code, syscall.PROT_READ|syscall.PROT_EXEC)
}

func munmapCodeSegment(code []byte) error {
	return syscall.Munmap(code)
}

// mmapCodeSegmentAMD64 gives all read-write-exec permission to the mmap
// region so relocation can patch in place and the code can be entered
// without a further protection change.
func mmapCodeSegmentAMD64(code []byte) ([]byte, error) {
	mmapFunc, err := syscall.Mmap(
		-1,
		0,
		len(code),
		// The region must be RWX: RW for writing native codes, X for executing the region.
		syscall.PROT_READ|syscall.PROT_WRITE|syscall.PROT_EXEC,
		// Anonymous as this is not an actual file, but a memory,
		// Private as this is in-process memory region.
		syscall.MAP_ANON|syscall.MAP_PRIVATE,
	)
	if err != nil {
		return nil, err
	}
	copy(mmapFunc, code)
	return mmapFunc, nil
}

// mmapCodeSegmentOther maps read-write only. Architectures enforcing
// write-xor-execute reject an RWX mapping; the region stays writable through
// relocation and FinalizeCodeSegment flips it to read-exec.
func mmapCodeSegmentOther(code []byte) ([]byte, error) {
	mmapFunc, err := syscall.Mmap(
		-1,
		0,
		len(code),
		syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_ANON|syscall.MAP_PRIVATE,
	)
	if err != nil {
		return nil, err
	}
	copy(mmapFunc, code)
	return mmapFunc, nil
}
