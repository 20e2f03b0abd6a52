package fsx

import (
	"errors"
	"os"
)

// isEXDEV 判断 rename 是否因为跨设备（跨卷）失败。
func isEXDEV(err error) bool {
	if errCrossDevice == nil || err == nil {
		return false
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		err = le.Err
	}
	return errors.Is(err, errCrossDevice)
}
