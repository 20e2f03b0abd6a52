package domain

import (
	"strconv"
	"strings"
	"time"
)

// FormatPlayers 格式化为 "Name(R) | Name(R)"；种族为空时只写名字。
func FormatPlayers(players []PlayerSummary) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		if p.Race == "" {
			parts = append(parts, p.Name)
			continue
		}
		parts = append(parts, p.Name+"("+p.Race+")")
	}
	return strings.Join(parts, " | ")
}

// FormatDate 把 RFC3339 时间格式化为 "2006-01-02 15:04"；无法解析时原样返回。
func FormatDate(v string) string {
	if v == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}
	return t.Format("2006-01-02 15:04")
}

// FormatDistance 保留一位小数；nil 返回空串。
func FormatDistance(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

// FormatProxy 按玩家列出 proxy 距离："Name(R):41.5 | ..."。
// 没有任何玩家距离时回退到最大距离。
func FormatProxy(r ReplayRecord) string {
	parts := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		d, ok := r.ProxyDistances[p.PID]
		if !ok {
			continue
		}
		parts = append(parts, p.Name+"("+p.Race+"):"+FormatDistance(&d))
	}
	if len(parts) == 0 {
		return FormatDistance(r.ProxyDistanceMax)
	}
	return strings.Join(parts, " | ")
}
