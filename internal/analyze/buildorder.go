package analyze

import (
	"sort"
	"strings"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/unitname"
)

// BuildOrders 按时间顺序回放事件流，为每个已知玩家重建两条建造序列。
//
// 规则：
// - 事件按 Loop 升序稳定排序（同一 Loop 保持原始顺序）
// - 只看“单位/建筑开始存在”的事件；归属未知玩家的事件跳过
// - tech：能在科技建筑词表中解析的名称，最多 8 项
// - general：名称取 科技解析 > 主基地解析 > 原始名；农民不计入；
//   每个玩家遇到的第一个主基地视为出生点而跳过，之后的主基地（开矿）照常计入；最多 8 项
//
// 返回顺序与 players 中已知玩家（PID>0）的顺序一致；序列为空不是错误。
func BuildOrders(events []domain.Event, players []domain.PlayerSummary) []domain.BuildOrderSequence {
	known := knownPlayers(players)
	if len(known.order) == 0 {
		return []domain.BuildOrderSequence{}
	}

	type state struct {
		tech           []string
		general        []string
		skippedStartTH bool
	}
	states := make(map[int]*state, len(known.order))
	for _, pid := range known.order {
		states[pid] = &state{tech: []string{}, general: []string{}}
	}

	for _, e := range sortedByLoop(events) {
		if !e.IsCreation() || e.TypeName == "" {
			continue
		}
		pid, ok := e.Owner()
		if !ok {
			continue
		}
		st, ok := states[pid]
		if !ok {
			continue
		}

		techName, isTech := unitname.TechBuildings.Resolve(e.TypeName)
		if isTech && len(st.tech) < domain.MaxBuildOrderSteps {
			st.tech = append(st.tech, techName)
		}

		thName, isTownhall := unitname.Townhalls.Resolve(e.TypeName)
		general := e.TypeName
		switch {
		case isTech:
			general = techName
		case isTownhall:
			general = thName
		}

		if unitname.IsWorker(e.TypeName) {
			continue
		}
		if isTownhall && !st.skippedStartTH {
			st.skippedStartTH = true
			continue
		}
		if len(st.general) < domain.MaxBuildOrderSteps {
			st.general = append(st.general, general)
		}
	}

	out := make([]domain.BuildOrderSequence, 0, len(known.order))
	for _, pid := range known.order {
		p := known.byPID[pid]
		st := states[pid]
		out = append(out, domain.BuildOrderSequence{
			PID:     pid,
			Race:    domain.NormalizeRace(p.Race),
			Name:    p.Name,
			Tech:    st.tech,
			General: st.general,
		})
	}
	return out
}

// AutoBuildOrder 把建造序列渲染为一行摘要：
// 每个 tech 序列非空的玩家输出 "{race}: a > b > c"（取前 3 项），玩家之间用 " | " 连接。
func AutoBuildOrder(seqs []domain.BuildOrderSequence) string {
	parts := make([]string, 0, len(seqs))
	for _, s := range seqs {
		if len(s.Tech) == 0 {
			continue
		}
		race := s.Race
		if race == "" {
			race = domain.RaceUnknown
		}
		head := s.Tech
		if len(head) > 3 {
			head = head[:3]
		}
		parts = append(parts, race+": "+strings.Join(head, " > "))
	}
	return strings.Join(parts, " | ")
}

type playerSet struct {
	order []int
	byPID map[int]domain.PlayerSummary
}

// knownPlayers 只保留有编号的玩家；同一编号重复出现时保留第一次出现的位置与信息。
func knownPlayers(players []domain.PlayerSummary) playerSet {
	ps := playerSet{
		order: make([]int, 0, len(players)),
		byPID: make(map[int]domain.PlayerSummary, len(players)),
	}
	for _, p := range players {
		if p.PID <= 0 {
			continue
		}
		if _, ok := ps.byPID[p.PID]; ok {
			continue
		}
		ps.byPID[p.PID] = p
		ps.order = append(ps.order, p.PID)
	}
	return ps
}

// sortedByLoop 返回按 Loop 稳定排序后的副本，不修改入参。
func sortedByLoop(events []domain.Event) []domain.Event {
	out := append([]domain.Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Loop < out[j].Loop })
	return out
}
