package app

import (
	"sort"
	"strings"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

// WinCount 是胜场/总场。
type WinCount struct {
	Games int `json:"games"`
	Wins  int `json:"wins"`
}

// Pct 返回胜率（百分比，保留一位小数）；没有对局时为 0。
func (c WinCount) Pct() float64 {
	if c.Games == 0 {
		return 0
	}
	return roundTenth(float64(c.Wins) * 100 / float64(c.Games))
}

func (c *WinCount) add(won bool) {
	c.Games++
	if won {
		c.Wins++
	}
}

// PlayerStats 是单个玩家在一组记录上的统计。
type PlayerStats struct {
	Player       string   `json:"player"`
	Total        WinCount `json:"total"`
	TotalSeconds int      `json:"total_seconds"`

	// ProxyAgainst 统计对手（非队友）proxy 距离超过阈值的对局。
	ProxyAgainst WinCount `json:"proxy_against"`

	ByMatchup      map[string]WinCount `json:"by_matchup"`
	ByOpponentRace map[string]WinCount `json:"by_opponent_race"`

	// Versus 仅在指定了第二个玩家时有意义：两人同场的对局。
	Opponent string   `json:"opponent,omitempty"`
	Versus   WinCount `json:"versus"`
}

// ProxyAgainstPct 是遭遇 proxy 的对局占比。
func (s PlayerStats) ProxyAgainstPct() float64 {
	if s.Total.Games == 0 {
		return 0
	}
	return roundTenth(float64(s.ProxyAgainst.Games) * 100 / float64(s.Total.Games))
}

// ComputeStats 统计 player（名字精确匹配）在 recs 上的战绩；opponent 可为空。
func ComputeStats(recs []domain.ReplayRecord, player, opponent string) PlayerStats {
	st := PlayerStats{
		Player:         player,
		Opponent:       opponent,
		ByMatchup:      map[string]WinCount{},
		ByOpponentRace: map[string]WinCount{},
	}
	for _, r := range recs {
		var me, other *domain.PlayerSummary
		for i := range r.Players {
			p := &r.Players[i]
			if p.Name == player {
				me = p
			}
			if opponent != "" && p.Name == opponent {
				other = p
			}
		}
		if me == nil {
			continue
		}

		won := domain.IsWinResult(me.Result)
		st.Total.add(won)
		st.TotalSeconds += domain.ParseLengthSeconds(r.Length)

		m := r.Matchup
		if m == "" {
			m = "Unknown"
		}
		c := st.ByMatchup[m]
		c.add(won)
		st.ByMatchup[m] = c

		rk := opponentRaceKey(r, me.PID)
		c = st.ByOpponentRace[rk]
		c.add(won)
		st.ByOpponentRace[rk] = c

		if proxyAgainst(r, me) {
			st.ProxyAgainst.add(won)
		}
		if other != nil {
			st.Versus.add(won)
		}
	}
	return st
}

func opponentRaceKey(r domain.ReplayRecord, pid int) string {
	races := make([]string, 0, len(r.Players))
	for _, p := range r.Players {
		if p.PID == pid || p.Race == "" {
			continue
		}
		races = append(races, p.Race)
	}
	if len(races) == 0 {
		return "Unknown"
	}
	sort.Strings(races)
	return strings.Join(races, "+")
}

func proxyAgainst(r domain.ReplayRecord, me *domain.PlayerSummary) bool {
	th := r.ProxyThreshold
	if th <= 0 {
		th = domain.DefaultProxyThreshold
	}
	for _, p := range r.Players {
		if p.PID == me.PID {
			continue
		}
		if me.TeamID != nil && p.TeamID != nil && *p.TeamID == *me.TeamID {
			continue
		}
		if d, ok := r.ProxyDistances[p.PID]; ok && d > th {
			return true
		}
	}
	return false
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func sortMatchups(ms []string) {
	sort.Slice(ms, func(i, j int) bool {
		if len(ms[i]) != len(ms[j]) {
			return len(ms[i]) < len(ms[j])
		}
		return strings.ToLower(ms[i]) < strings.ToLower(ms[j])
	})
}
