package domain

// Index 是对外稳定的索引结构（replay_index.json）。
//
// - Replays 保持发现顺序（不保证排序）
// - 只有扫描引擎和 CSV 导入（export.MergeIndex）会修改 Index；其他组件只读
type Index struct {
	Replays []ReplayRecord `json:"replays"`
	Errors  []string       `json:"errors"`
	Folders []string       `json:"folders"`

	// Folder 仅在单目录扫描时写入（兼容旧版 settings/索引的单目录字段）。
	Folder string `json:"folder,omitempty"`

	ProxyThreshold float64 `json:"proxy_threshold"`

	ScanID    string `json:"scan_id,omitempty"`
	ScannedAt string `json:"scanned_at,omitempty"` // RFC3339（UTC）
}

// Summary 是一次扫描的计数摘要（不落盘，仅用于输出）。
type Summary struct {
	Total  int `json:"total"`
	Hits   int `json:"cache_hits"`
	Parsed int `json:"parsed"`
	Failed int `json:"failed"`
}

// Normalize 保证切片/映射非 nil（JSON 输出 [] / {} 而不是 null）。
func (x *Index) Normalize() {
	if x.Replays == nil {
		x.Replays = []ReplayRecord{}
	}
	if x.Errors == nil {
		x.Errors = []string{}
	}
	if x.Folders == nil {
		x.Folders = []string{}
	}
	for i := range x.Replays {
		r := &x.Replays[i]
		if r.Players == nil {
			r.Players = []PlayerSummary{}
		}
		if r.Sequences == nil {
			r.Sequences = []BuildOrderSequence{}
		}
		if r.ProxyDistances == nil {
			r.ProxyDistances = map[int]float64{}
		}
		for j := range r.Sequences {
			if r.Sequences[j].Tech == nil {
				r.Sequences[j].Tech = []string{}
			}
			if r.Sequences[j].General == nil {
				r.Sequences[j].General = []string{}
			}
		}
	}
}

// ByPath 返回 path -> record 的查找表（用作缓存）。
func (x Index) ByPath() map[string]ReplayRecord {
	m := make(map[string]ReplayRecord, len(x.Replays))
	for _, r := range x.Replays {
		m[r.Path] = r
	}
	return m
}

// Paths 返回索引中所有记录的路径（保持记录顺序）。
func (x Index) Paths() []string {
	out := make([]string, 0, len(x.Replays))
	for _, r := range x.Replays {
		if r.Path != "" {
			out = append(out, r.Path)
		}
	}
	return out
}
