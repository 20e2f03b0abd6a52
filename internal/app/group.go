package app

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

// FolderGroup 是同一来源目录下的记录（RecIdx 存下标，不复制记录）。
type FolderGroup struct {
	Folder string
	RecIdx []int
}

// GroupByFolder 按来源目录分组。
//
// - 分组稳定排序：按 Folder 字典序
// - 组内 RecIdx 稳定排序：按 Filename 字典序
func GroupByFolder(x domain.Index, idx []int) []FolderGroup {
	pos := make(map[string]int, 8)
	groups := make([]FolderGroup, 0, 8)

	for _, i := range idx {
		f := RecordFolder(x, x.Replays[i])
		if g, ok := pos[f]; ok {
			groups[g].RecIdx = append(groups[g].RecIdx, i)
			continue
		}
		pos[f] = len(groups)
		groups = append(groups, FolderGroup{Folder: f, RecIdx: []int{i}})
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Folder < groups[j].Folder })
	for g := range groups {
		ids := groups[g].RecIdx
		sort.SliceStable(ids, func(a, b int) bool {
			return x.Replays[ids[a]].Filename < x.Replays[ids[b]].Filename
		})
	}
	return groups
}

// RecordFolder 返回记录的来源目录。
//
// 旧索引可能没有 source_folder：路径在单目录字段之下时取该目录，否则取父目录。
func RecordFolder(x domain.Index, r domain.ReplayRecord) string {
	if r.SourceFolder != "" {
		return r.SourceFolder
	}
	if x.Folder != "" && strings.HasPrefix(r.Path, x.Folder) {
		return x.Folder
	}
	if r.Path == "" {
		return ""
	}
	return filepath.Dir(r.Path)
}

// SameFolder 按平台规则比较两个目录（Windows 下大小写不敏感）。
func SameFolder(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if os.PathSeparator == '\\' {
		return strings.EqualFold(a, b)
	}
	return a == b
}
