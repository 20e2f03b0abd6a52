package domain

import "testing"

func TestFormatProxy(t *testing.T) {
	max := 52.34
	r := ReplayRecord{
		Players: []PlayerSummary{
			{Name: "A", Race: "P", PID: 1},
			{Name: "B", Race: "T", PID: 2},
		},
		ProxyDistances:   map[int]float64{2: 52.34},
		ProxyDistanceMax: &max,
	}
	if got := FormatProxy(r); got != "B(T):52.3" {
		t.Fatalf("按玩家格式化不符合预期：%q", got)
	}

	r.ProxyDistances = map[int]float64{}
	if got := FormatProxy(r); got != FormatDistance(&max) {
		t.Fatalf("没有玩家距离时应回退到最大值：%q", got)
	}
	r.ProxyDistanceMax = nil
	if got := FormatProxy(r); got != "" {
		t.Fatalf("都没有时应为空：%q", got)
	}
}

func TestFormatPlayersAndDate(t *testing.T) {
	got := FormatPlayers([]PlayerSummary{{Name: "A", Race: "Z"}, {Name: "B"}})
	if got != "A(Z) | B" {
		t.Fatalf("FormatPlayers 不符合预期：%q", got)
	}
	if got := FormatDate("2024-03-01T10:05:00Z"); got != "2024-03-01 10:05" {
		t.Fatalf("FormatDate 不符合预期：%q", got)
	}
	if got := FormatDate("yesterday"); got != "yesterday" {
		t.Fatalf("无法解析时应原样返回：%q", got)
	}
}
