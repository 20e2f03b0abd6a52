package app

import (
	"strings"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

// Filter 是 list/export 的过滤条件；零值表示不过滤。
type Filter struct {
	Folder       string   // 来源目录（绝对路径）
	Matchup      string   // 精确匹配，例如 "PvT"
	Race         string   // T/P/Z：任一玩家是该种族
	PlayerCount  int      // 0 => 不限
	FavoriteOnly bool
	ProxyOnly    bool
	Tags         []string // 全部命中（大小写不敏感）
	Player       string   // 玩家名子串（大小写不敏感）
	Map          string   // 地图名子串（大小写不敏感）

	// BuildOrder 是 tech 序列的前缀；Race 非空时只看该种族的序列。
	BuildOrder []string
}

// Select 返回满足过滤条件的记录下标（保持索引顺序）。
func Select(x domain.Index, snap tags.Snapshot, f Filter) []int {
	player := strings.ToLower(strings.TrimSpace(f.Player))
	mapQ := strings.ToLower(strings.TrimSpace(f.Map))

	out := make([]int, 0, len(x.Replays))
	for i, r := range x.Replays {
		if f.Folder != "" && !SameFolder(RecordFolder(x, r), f.Folder) {
			continue
		}
		if f.Matchup != "" && r.Matchup != f.Matchup {
			continue
		}
		if f.FavoriteOnly && !snap.Favorites[r.Path] {
			continue
		}
		if f.ProxyOnly && !r.ProxyFlag {
			continue
		}
		if f.PlayerCount > 0 && len(r.Players) != f.PlayerCount {
			continue
		}
		if f.Race != "" && !r.HasRace(f.Race) {
			continue
		}
		if !hasAllTags(snap, r.Path, f.Tags) {
			continue
		}
		if player != "" && !hasPlayer(r, player) {
			continue
		}
		if mapQ != "" && !strings.Contains(strings.ToLower(r.Map), mapQ) {
			continue
		}
		if !MatchBuildOrder(r, f.BuildOrder, f.Race) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func hasAllTags(snap tags.Snapshot, path string, want []string) bool {
	for _, t := range want {
		if !snap.HasTag(path, t) {
			return false
		}
	}
	return true
}

func hasPlayer(r domain.ReplayRecord, q string) bool {
	for _, p := range r.Players {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return true
		}
	}
	return false
}

// MatchBuildOrder 报告是否有玩家的 tech 序列以 steps 开头。
func MatchBuildOrder(r domain.ReplayRecord, steps []string, race string) bool {
	if len(steps) == 0 {
		return true
	}
	for _, s := range r.Sequences {
		if race != "" && s.Race != race {
			continue
		}
		if len(s.Tech) < len(steps) {
			continue
		}
		ok := true
		for i := range steps {
			if s.Tech[i] != steps[i] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Records 按下标取出记录。
func Records(x domain.Index, idx []int) []domain.ReplayRecord {
	out := make([]domain.ReplayRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, x.Replays[i])
	}
	return out
}

// Matchups 返回索引中出现过的 matchup：短的在前，同长度按字母序（大小写不敏感）。
func Matchups(x domain.Index) []string {
	seen := map[string]struct{}{}
	for _, r := range x.Replays {
		m := r.Matchup
		if m == "" {
			m = "Unknown"
		}
		seen[m] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sortMatchups(out)
	return out
}
