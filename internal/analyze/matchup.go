package analyze

import (
	"sort"
	"strings"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

// Summaries 把解码器给出的玩家信息规范化为 PlayerSummary。
//
// 默认值：名字缺失为 "Unknown"；种族缺失或不可识别为 "U"；结果缺失为 "Unknown"。
func Summaries(players []domain.MatchPlayer) []domain.PlayerSummary {
	out := make([]domain.PlayerSummary, 0, len(players))
	for _, p := range players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = "Unknown"
		}
		result := strings.TrimSpace(p.Result)
		if result == "" {
			result = "Unknown"
		}
		out = append(out, domain.PlayerSummary{
			Name:       name,
			Race:       domain.NormalizeRace(p.Race),
			Result:     result,
			TeamID:     copyInt(p.TeamID),
			PID:        p.PID,
			TeamNumber: copyInt(p.TeamNumber),
		})
	}
	return out
}

// Matchup 根据玩家种族与队伍推导对阵标签。
//
// - 无玩家：Unknown
// - 两名玩家：种族字母排序后用 v 连接（与玩家顺序无关），例如 PvT
// - 其他人数：按队伍分组（team_id 缺失时回退到队伍编号），组内种族排序后用 + 连接，
//   组之间用 " vs " 连接；组的顺序按队伍首次出现的顺序
func Matchup(players []domain.PlayerSummary) string {
	if len(players) == 0 {
		return "Unknown"
	}

	if len(players) == 2 {
		races := []string{domain.NormalizeRace(players[0].Race), domain.NormalizeRace(players[1].Race)}
		sort.Strings(races)
		return races[0] + "v" + races[1]
	}

	type teamKey struct {
		ok bool
		id int
	}
	index := make(map[teamKey]int, 4)
	teams := make([][]string, 0, 4)
	for _, p := range players {
		k := teamKey{}
		switch {
		case p.TeamID != nil:
			k = teamKey{ok: true, id: *p.TeamID}
		case p.TeamNumber != nil:
			k = teamKey{ok: true, id: *p.TeamNumber}
		}
		race := domain.NormalizeRace(p.Race)
		if i, ok := index[k]; ok {
			teams[i] = append(teams[i], race)
			continue
		}
		index[k] = len(teams)
		teams = append(teams, []string{race})
	}

	parts := make([]string, 0, len(teams))
	for _, races := range teams {
		sort.Strings(races)
		parts = append(parts, strings.Join(races, "+"))
	}
	return strings.Join(parts, " vs ")
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
