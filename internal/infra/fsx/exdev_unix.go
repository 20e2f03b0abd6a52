//go:build unix

package fsx

import "syscall"

var errCrossDevice error = syscall.EXDEV
