//go:build !linux

// Package transport
// Author: momentics <momentics@gmail.com>

package transport

import "os"

func adviseSequential(*os.File) {}
