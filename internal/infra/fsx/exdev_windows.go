//go:build windows

package fsx

import "syscall"

// ERROR_NOT_SAME_DEVICE：回放目录与数据目录不在同一个盘符。
var errCrossDevice error = syscall.Errno(17)
