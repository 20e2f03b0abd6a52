package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Filename 是数据目录下的调试日志文件名。
const Filename = "scan_debug.log"

// Open 打开（追加写）<dataDir>/scan_debug.log 并返回写入该文件的 logger。
//
// 调用方负责 Close 返回的 io.Closer。
func Open(dataDir, level string) (*log.Logger, io.Closer, error) {
	lv, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("创建数据目录失败：%w", err)
	}

	path := filepath.Join(dataDir, Filename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("打开日志文件失败：%w", err)
	}
	return New(f, lv), f, nil
}

// New 创建写入 w 的 logger（RFC3339 时间戳）。
func New(w io.Writer, lv log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lv,
	})
}

// Discard 返回丢弃所有输出的 logger。
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel 解析 debug/info/warn/error；空串视为 info。
func ParseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.InfoLevel, nil
	}
	lv, err := log.ParseLevel(level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("无效的日志级别 %q：%w", level, err)
	}
	return lv, nil
}
