package s2prot

import (
	"fmt"
	"strings"
	"time"

	"github.com/icza/s2prot"
	"github.com/icza/s2prot/rep"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

// Decoder 用 icza/s2prot 解析 .SC2Replay。
//
// 只读取 details/init data/header 与 tracker 事件；game/message 事件不解析。
type Decoder struct{}

func New() Decoder { return Decoder{} }

// Decode 解析回放并映射为 domain.Match。
//
// s2prot 遇到损坏数据时可能 panic；调用方（扫描引擎）负责 recover。
func (Decoder) Decode(path string) (domain.Match, error) {
	r, err := rep.NewFromFileEvts(path, false, false, true)
	if err != nil {
		return domain.Match{}, err
	}
	defer r.Close()

	var m domain.Match

	players := r.Details.Players()
	m.Players = make([]domain.MatchPlayer, 0, len(players))
	for i := range players {
		m.Players = append(m.Players, mapPlayer(i, players[i].Struct))
	}

	m.MapName = strings.TrimSpace(r.Details.Stringv("title"))
	m.Start = fileTimeUTC(r.Details.Int("timeUTC"))
	m.GameType = GameType(m.Players)

	speed := r.InitData.Int("syncLobbyState", "gameDescription", "gameSpeed")
	m.Speed = SpeedName(speed)
	m.Length = RealLength(r.Header.Int("elapsedGameLoops"), speed)

	if r.TrackerEvts != nil {
		evts := r.TrackerEvts.Evts
		m.Events = make([]domain.Event, 0, len(evts)/4)
		for i := range evts {
			e := &evts[i]
			if e.EvtType == nil {
				continue
			}
			m.Events = append(m.Events, mapEvent(e.Name, e.Loop(), e.Struct))
		}
	}
	return m, nil
}

// mapPlayer 把 details.playerList 的一项映射为 MatchPlayer。
// tracker 事件里的 controlPlayerId 从 1 开始，与 playerList 的顺序一致。
func mapPlayer(i int, s s2prot.Struct) domain.MatchPlayer {
	p := domain.MatchPlayer{
		Name:   strings.TrimSpace(s.Stringv("name")),
		Race:   s.Stringv("race"),
		Result: resultName(s.Int("result")),
		PID:    i + 1,
	}
	if s.Value("teamId") != nil {
		team := int(s.Int("teamId"))
		p.TeamID = &team
	}
	return p
}

func resultName(v int64) string {
	switch v {
	case 1:
		return "Win"
	case 2:
		return "Loss"
	case 3:
		return "Tie"
	default:
		return "Unknown"
	}
}

// mapEvent 只保留单位出生/建造开始事件的字段；其他事件只保留 kind 与 loop。
func mapEvent(name string, loop int64, s s2prot.Struct) domain.Event {
	ev := domain.Event{Loop: loop}
	switch name {
	case "UnitInit":
		ev.Kind = domain.EventUnitInit
	case "UnitBorn":
		ev.Kind = domain.EventUnitBorn
	default:
		return ev
	}

	ev.TypeName = s.Stringv("unitTypeName")
	ev.PlayerID = int(s.Int("controlPlayerId"))
	if s.Value("x") != nil && s.Value("y") != nil {
		ev.Pos = &domain.Point{X: float64(s.Int("x")), Y: float64(s.Int("y"))}
	}
	return ev
}

// fileTimeUTC 把 Windows FILETIME（100ns，自 1601-01-01）转换为 UTC 时间；0 表示未知。
func fileTimeUTC(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	const epochDiff = 11644473600 // 1601 -> 1970 的秒数
	sec := v/10_000_000 - epochDiff
	nsec := (v % 10_000_000) * 100
	return time.Unix(sec, nsec).UTC()
}

var speedNames = []string{"Slower", "Slow", "Normal", "Fast", "Faster"}

// 每个速度档位相对 Normal 的倍率。
var speedFactors = []float64{0.6, 0.8, 1.0, 1.2, 1.4}

// SpeedName 把 gameSpeed 枚举映射为名称；未知值返回空串。
func SpeedName(v int64) string {
	if v < 0 || int(v) >= len(speedNames) {
		return ""
	}
	return speedNames[v]
}

// RealLength 把 gameloop 数换算为真实时间（Normal 速度 16 loop/秒）。
func RealLength(loops, speed int64) time.Duration {
	if loops <= 0 {
		return 0
	}
	factor := 1.4
	if speed >= 0 && int(speed) < len(speedFactors) {
		factor = speedFactors[speed]
	}
	sec := float64(loops) / 16 / factor
	return time.Duration(sec * float64(time.Second)).Round(time.Millisecond)
}

// GameType 按队伍人数推导对局类型："1v1"、"2v2"、"FFA"；无法判断时返回空串。
func GameType(players []domain.MatchPlayer) string {
	if len(players) == 0 {
		return ""
	}
	sizes := map[int]int{}
	order := make([]int, 0, 2)
	for _, p := range players {
		if p.TeamID == nil {
			return ""
		}
		if _, ok := sizes[*p.TeamID]; !ok {
			order = append(order, *p.TeamID)
		}
		sizes[*p.TeamID]++
	}
	if len(order) > 2 && len(order) == len(players) {
		return "FFA"
	}
	parts := make([]string, 0, len(order))
	for _, t := range order {
		parts = append(parts, fmt.Sprint(sizes[t]))
	}
	return strings.Join(parts, "v")
}
