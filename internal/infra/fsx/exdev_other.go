//go:build !unix && !windows

package fsx

var errCrossDevice error
