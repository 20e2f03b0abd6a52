package domain

// ReplayFile 描述一次扫描得到的回放文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - SourceFolder 是发现该文件时调用方提供的来源目录（clean + absolute）
type ReplayFile struct {
	AbsPath      string
	RelPath      string
	SourceFolder string
	Name         string // 含扩展名
	Size         int64
	MTime        float64 // Unix 秒（含纳秒精度的小数部分）
}
