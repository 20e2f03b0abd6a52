package domain

import "strings"

const (
	RaceTerran  = "T"
	RaceProtoss = "P"
	RaceZerg    = "Z"
	RaceRandom  = "R"
	RaceUnknown = "U"
)

// NormalizeRace 取种族字符串首字母（大写）；不在 {P,T,Z,R} 内的一律归为 U。
// 缺失的种族同样得到 U。
func NormalizeRace(race string) string {
	race = strings.TrimSpace(race)
	if race == "" {
		return RaceUnknown
	}
	switch r := strings.ToUpper(race[:1]); r {
	case RaceTerran, RaceProtoss, RaceZerg, RaceRandom:
		return r
	default:
		return RaceUnknown
	}
}

// IsWinResult 判断结果字符串是否表示胜利（大小写不敏感）。
func IsWinResult(result string) bool {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "win", "winner", "victory":
		return true
	default:
		return false
	}
}

// Winners 返回所有胜者名字并以 " | " 连接；没有胜者时返回 "Unknown"。
func Winners(players []PlayerSummary) string {
	names := make([]string, 0, 2)
	for _, p := range players {
		if !IsWinResult(p.Result) || p.Name == "" {
			continue
		}
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, " | ")
}
