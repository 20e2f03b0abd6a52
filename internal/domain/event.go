package domain

import "time"

// EventKind 区分 tracker 事件的种类。分析层只关心“单位/建筑开始存在”的两类事件。
type EventKind int

const (
	EventOther EventKind = iota
	// EventUnitInit 表示建筑开始建造（construction-start）。
	EventUnitInit
	// EventUnitBorn 表示单位/建筑直接出生（unit-created，例如开局主基地、训练完成的单位）。
	EventUnitBorn
)

// Point 是地图上的二维坐标。
type Point struct {
	X float64
	Y float64
}

// Event 是解码器适配层产出的固定形态事件。
//
// 约定（适配层负责一次性映射，分析层不再做“猜字段名”）：
// - PlayerID=0 表示无归属玩家（中立单位等）
// - Pos=nil 表示事件不带坐标
// - Loop 是单调可比较的时间序键（gameloop）
type Event struct {
	Kind     EventKind
	Loop     int64
	PlayerID int
	TypeName string
	Pos      *Point
}

func (e Event) Owner() (int, bool) { return e.PlayerID, e.PlayerID > 0 }

func (e Event) OrderKey() int64 { return e.Loop }

func (e Event) Position() (Point, bool) {
	if e.Pos == nil {
		return Point{}, false
	}
	return *e.Pos, true
}

// IsCreation 报告该事件是否代表一个单位/建筑开始存在。
func (e Event) IsCreation() bool {
	return e.Kind == EventUnitInit || e.Kind == EventUnitBorn
}

// MatchPlayer 是解码器给出的玩家原始信息（尚未规范化）。
type MatchPlayer struct {
	Name   string
	Race   string // "Terran" / "Prot" / "Z" 等任意写法；规范化见 NormalizeRace
	Result string

	// TeamID 优先；缺失时回退到 TeamNumber（某些版本只提供队伍编号）。
	TeamID     *int
	TeamNumber *int

	// PID 为 0 表示解码器没有给出玩家编号；这类玩家不参与按玩家聚合的分析。
	PID int
}

// Match 是一场对局的结构化视图（外部解码器输出经适配后的形态）。
type Match struct {
	Players  []MatchPlayer
	MapName  string
	Start    time.Time // 零值表示未知
	Length   time.Duration
	GameType string
	Speed    string
	Events   []Event
}
