package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatLength 把对局时长格式化为 "m:ss" 或 "h:mm:ss"；零值返回空串。
func FormatLength(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	sec := int(d.Round(time.Second).Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseLengthSeconds 解析索引里的 length 字段，返回秒数；无法解析返回 0。
//
// 兼容的写法：
// - "h:mm:ss" / "m:ss"
// - "m.ss"（旧索引的“分.秒”写法）
// - "12"（纯分钟数）
func ParseLengthSeconds(v string) int {
	raw := strings.TrimSpace(v)
	if raw == "" {
		return 0
	}
	if strings.Contains(raw, ":") {
		parts := strings.Split(raw, ":")
		nums := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil {
				return 0
			}
			nums = append(nums, n)
		}
		switch len(nums) {
		case 3:
			return nums[0]*3600 + nums[1]*60 + nums[2]
		case 2:
			return nums[0]*60 + nums[1]
		default:
			return 0
		}
	}
	if left, right, ok := strings.Cut(raw, "."); ok {
		m, err1 := strconv.Atoi(left)
		s, err2 := strconv.Atoi(right)
		if err1 != nil || err2 != nil {
			return 0
		}
		return m*60 + s
	}
	minutes, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(minutes * 60)
}

// FormatTotalSeconds 把总秒数格式化为 "h:mm:ss"（用于列表合计）。
func FormatTotalSeconds(sec int) string {
	if sec <= 0 {
		return "0:00:00"
	}
	return fmt.Sprintf("%d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// DisplayBuildOrder 返回展示用的建造顺序：手动设置优先，其次自动推导。
func DisplayBuildOrder(manual, auto string) string {
	if strings.TrimSpace(manual) != "" {
		return manual
	}
	return auto
}
