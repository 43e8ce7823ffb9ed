//go:build linux

// Package transport
// Author: momentics <momentics@gmail.com>
//
// Linux read-ahead hint for file sources.

package transport

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel to read ahead aggressively.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
