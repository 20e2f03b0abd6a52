package domain

// PlayerSummary 是索引中保存的玩家摘要。
type PlayerSummary struct {
	Name   string `json:"name"`
	Race   string `json:"race"` // T/P/Z/R/U
	Result string `json:"result"`
	TeamID *int   `json:"team_id"`
	PID    int    `json:"pid"`

	// TeamNumber 只参与 matchup 分组的回退，不落盘。
	TeamNumber *int `json:"-"`
}

// BuildOrderSequence 是单个玩家的建造序列。
//
// 不变量：
// - Tech/General 长度均不超过 MaxBuildOrderSteps
// - General 不含农民，且不含该玩家遇到的第一个主基地
type BuildOrderSequence struct {
	PID     int      `json:"pid"`
	Race    string   `json:"race"`
	Name    string   `json:"name"`
	Tech    []string `json:"seq_tech"`
	General []string `json:"seq_general"`
}

// MaxBuildOrderSteps 是每条序列的最大长度。
const MaxBuildOrderSteps = 8

// DefaultProxyThreshold 是 proxy 判定的默认距离阈值。
const DefaultProxyThreshold = 35.0

// ProxyInfo 是 proxy 距离检测的结果。
//
// Distances 的 key 是玩家编号；JSON 中序列化为字符串 key。
// 没有任何合格建筑事件的玩家不会出现在 Distances 中（不是 0）。
type ProxyInfo struct {
	Flag      bool
	Max       *float64
	Distances map[int]float64
	Threshold float64
}

// ReplayRecord 是一场对局的完整派生记录。
//
// 不变量：Path 是 clean + absolute，并且在一个 Index 内唯一。
type ReplayRecord struct {
	Path         string `json:"path"`
	Filename     string `json:"filename"`
	SourceFolder string `json:"source_folder"`

	Map       string `json:"map"`
	StartTime string `json:"start_time"` // RFC3339（UTC）或空串
	Length    string `json:"length"`
	GameType  string `json:"game_type"`
	Speed     string `json:"speed"`

	Matchup        string               `json:"matchup"`
	Players        []PlayerSummary      `json:"players"`
	BuildOrderAuto string               `json:"build_order_auto"`
	Sequences      []BuildOrderSequence `json:"bo_sequences"`

	ProxyFlag        bool            `json:"proxy_flag"`
	ProxyDistanceMax *float64        `json:"proxy_distance_max"`
	ProxyDistances   map[int]float64 `json:"proxy_distances"`
	ProxyThreshold   float64         `json:"proxy_threshold"`

	// MTime 是 Unix 秒（含小数部分），与 Size 一起构成缓存键的一部分。
	MTime float64 `json:"mtime"`
	Size  int64   `json:"size"`
}

// ApplyProxy 把 ProxyInfo 展开写入记录字段。
func (r *ReplayRecord) ApplyProxy(p ProxyInfo) {
	r.ProxyFlag = p.Flag
	r.ProxyDistanceMax = p.Max
	r.ProxyDistances = p.Distances
	if r.ProxyDistances == nil {
		r.ProxyDistances = map[int]float64{}
	}
	r.ProxyThreshold = p.Threshold
}

// HasRace 报告记录中是否有该种族的玩家（用于 list 的种族过滤）。
func (r ReplayRecord) HasRace(race string) bool {
	for _, p := range r.Players {
		if p.Race == race {
			return true
		}
	}
	return false
}
