package analyze

import (
	"math"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/unitname"
)

// proxySampleSize 是每个玩家参与测距的非主基地建筑数量上限。
const proxySampleSize = 4

type buildingEvent struct {
	loop       int64
	pos        domain.Point
	name       string
	isTownhall bool
}

// Proxy 检测玩家是否把早期建筑造在远离自己出生点的位置。
//
// 距离是“相对自己”的：每个玩家以自己的出生点为原点，取前 4 个非主基地建筑的最大距离。
// 想知道“对手是否在 proxy 我”，调用方应查对手自己的距离值。
//
// - 事件流为空：返回未启用的结果（Flag=false，Max=nil，Distances 为空），Threshold 仍记录入参
// - 出生点：该玩家第一个主基地事件的位置；没有主基地时取其最早的建筑事件位置
// - 没有任何非主基地建筑的玩家不出现在 Distances 中
// - Flag 当且仅当 Max 存在且严格大于 threshold（等于阈值不算）
func Proxy(events []domain.Event, players []domain.PlayerSummary, threshold float64) domain.ProxyInfo {
	info := domain.ProxyInfo{
		Distances: map[int]float64{},
		Threshold: threshold,
	}
	if len(events) == 0 {
		return info
	}

	known := knownPlayers(players)
	perPlayer := make(map[int][]buildingEvent, len(known.order))

	for _, e := range sortedByLoop(events) {
		if !e.IsCreation() || e.TypeName == "" {
			continue
		}
		name, ok := unitname.Buildings.Resolve(e.TypeName)
		if !ok {
			continue
		}
		pid, ok := e.Owner()
		if !ok {
			continue
		}
		if _, ok := known.byPID[pid]; !ok {
			continue
		}
		pos, ok := e.Position()
		if !ok {
			continue
		}
		perPlayer[pid] = append(perPlayer[pid], buildingEvent{
			loop:       e.Loop,
			pos:        pos,
			name:       name,
			isTownhall: unitname.Townhalls.Contains(name),
		})
	}

	for _, pid := range known.order {
		evs := perPlayer[pid]
		if len(evs) == 0 {
			continue
		}
		start := startPosition(evs)

		dist, ok := maxEarlyDistance(start, evs)
		if !ok {
			continue
		}
		info.Distances[pid] = dist
		if info.Max == nil || dist > *info.Max {
			d := dist
			info.Max = &d
		}
	}

	info.Flag = info.Max != nil && *info.Max > threshold
	return info
}

// startPosition 要求 evs 已按时间排序且非空。
func startPosition(evs []buildingEvent) domain.Point {
	for _, e := range evs {
		if e.isTownhall {
			return e.pos
		}
	}
	return evs[0].pos
}

func maxEarlyDistance(start domain.Point, evs []buildingEvent) (float64, bool) {
	n := 0
	maxDist := 0.0
	for _, e := range evs {
		if e.isTownhall {
			continue
		}
		d := distance(start, e.pos)
		if n == 0 || d > maxDist {
			maxDist = d
		}
		n++
		if n >= proxySampleSize {
			break
		}
	}
	return maxDist, n > 0
}

func distance(a, b domain.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
