package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

// Columns 是完整 CSV 导出的列（顺序固定）。
var Columns = []string{
	"filename",
	"path",
	"source_folder",
	"map",
	"start_time",
	"length",
	"game_type",
	"speed",
	"matchup",
	"players",
	"build_order_auto",
	"bo_sequences",
	"proxy_flag",
	"proxy_distance_max",
	"proxy_distances",
	"proxy_threshold",
	"mtime",
	"size",
	"tags",
	"build_order_manual",
	"favorite",
}

var ErrEmptyCSV = errors.New("export: CSV 没有数据行")

// WriteCSV 写出完整 CSV：每条记录一行，嵌套字段（players/bo_sequences/proxy_distances）编码为 JSON。
func WriteCSV(w io.Writer, recs []domain.ReplayRecord, snap tags.Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range recs {
		row, err := csvRow(r, snap)
		if err != nil {
			return fmt.Errorf("%s: %w", r.Path, err)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r domain.ReplayRecord, snap tags.Snapshot) ([]string, error) {
	players, err := jsonCell(r.Players, "[]")
	if err != nil {
		return nil, err
	}
	seqs, err := jsonCell(r.Sequences, "[]")
	if err != nil {
		return nil, err
	}
	dists, err := jsonCell(r.ProxyDistances, "{}")
	if err != nil {
		return nil, err
	}
	max := ""
	if r.ProxyDistanceMax != nil {
		max = formatFloat(*r.ProxyDistanceMax)
	}

	return []string{
		r.Filename,
		r.Path,
		r.SourceFolder,
		r.Map,
		r.StartTime,
		r.Length,
		r.GameType,
		r.Speed,
		r.Matchup,
		players,
		r.BuildOrderAuto,
		seqs,
		strconv.FormatBool(r.ProxyFlag),
		max,
		dists,
		formatFloat(r.ProxyThreshold),
		formatFloat(r.MTime),
		strconv.FormatInt(r.Size, 10),
		strings.Join(snap.Tags[r.Path], ", "),
		snap.BuildOrders[r.Path],
		strconv.FormatBool(snap.Favorites[r.Path]),
	}, nil
}

func jsonCell(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s := string(b)
	if s == "null" {
		return empty, nil
	}
	return s, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ImportRow 是 CSV 中的一行：一条记录 + 该记录的用户元数据。
type ImportRow struct {
	Record     domain.ReplayRecord
	Tags       []string
	BuildOrder string
	Favorite   bool
}

// ReadCSV 读取完整 CSV（列按表头名匹配，缺失的列视为空）。
//
// 路径解析：<baseFolder>/<filename> 存在时优先使用（CSV 随回放一起被拷贝到别处的情况），
// 否则使用 path 列，两者都没有时仍用 <baseFolder>/<filename>。
// source_folder 列为空时取 baseFolder。没有 filename 的行被跳过。
func ReadCSV(r io.Reader, baseFolder string) ([]ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyCSV
	}
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}

	out := make([]ImportRow, 0, 64)
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(fields) {
				return ""
			}
			return fields[i]
		}

		name := strings.TrimSpace(get("filename"))
		if name == "" {
			continue
		}
		out = append(out, parseRow(get, name, baseFolder))
	}
	if len(out) == 0 {
		return nil, ErrEmptyCSV
	}
	return out, nil
}

func parseRow(get func(string) string, name, baseFolder string) ImportRow {
	local := filepath.Clean(filepath.Join(baseFolder, name))
	path := local
	if _, err := os.Stat(local); err != nil {
		if p := strings.TrimSpace(get("path")); p != "" {
			path = p
		}
	}

	src := get("source_folder")
	if src == "" {
		src = baseFolder
	}

	rec := domain.ReplayRecord{
		Path:           path,
		Filename:       name,
		SourceFolder:   src,
		Map:            get("map"),
		StartTime:      get("start_time"),
		Length:         get("length"),
		GameType:       get("game_type"),
		Speed:          get("speed"),
		Matchup:        get("matchup"),
		BuildOrderAuto: get("build_order_auto"),
		ProxyFlag:      truthy(get("proxy_flag")),
		ProxyThreshold: parseFloat(get("proxy_threshold")),
		MTime:          parseFloat(get("mtime")),
		Size:           int64(parseFloat(get("size"))),
	}
	// JSON 单元格损坏时回退为空值，不中断导入。
	_ = json.Unmarshal([]byte(get("players")), &rec.Players)
	_ = json.Unmarshal([]byte(get("bo_sequences")), &rec.Sequences)
	_ = json.Unmarshal([]byte(get("proxy_distances")), &rec.ProxyDistances)
	if v := strings.TrimSpace(get("proxy_distance_max")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			rec.ProxyDistanceMax = &f
		}
	}

	return ImportRow{
		Record:     rec,
		Tags:       tags.SplitTags(get("tags")),
		BuildOrder: get("build_order_manual"),
		Favorite:   truthy(get("favorite")),
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func parseFloat(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return f
}

// MergeIndex 把导入的记录并入索引。
//
// 记录以 (source_folder, filename) 为键：同键的已有记录被替换，新键追加在末尾。
// Folders 重新计算为全部记录来源目录的排序去重结果。
func MergeIndex(x domain.Index, rows []ImportRow) domain.Index {
	key := func(r domain.ReplayRecord) string {
		src := r.SourceFolder
		if src == "" {
			if x.Folder != "" && strings.HasPrefix(r.Path, x.Folder) {
				src = x.Folder
			} else {
				src = filepath.Dir(r.Path)
			}
		}
		return src + "|" + r.Filename
	}

	pos := make(map[string]int, len(x.Replays)+len(rows))
	merged := make([]domain.ReplayRecord, 0, len(x.Replays)+len(rows))
	for _, r := range x.Replays {
		k := key(r)
		if i, ok := pos[k]; ok {
			merged[i] = r
			continue
		}
		pos[k] = len(merged)
		merged = append(merged, r)
	}
	for _, row := range rows {
		k := key(row.Record)
		if i, ok := pos[k]; ok {
			merged[i] = row.Record
			continue
		}
		pos[k] = len(merged)
		merged = append(merged, row.Record)
	}

	folders := map[string]struct{}{}
	for _, r := range merged {
		if r.SourceFolder != "" {
			folders[r.SourceFolder] = struct{}{}
		}
	}
	x.Folders = make([]string, 0, len(folders))
	for f := range folders {
		x.Folders = append(x.Folders, f)
	}
	sort.Strings(x.Folders)

	x.Replays = merged
	x.Normalize()
	return x
}

// ApplyTags 把导入行的用户元数据并入标签库：标签取并集，非空的手动建造顺序覆盖，收藏只增不减。
func ApplyTags(s *tags.Store, rows []ImportRow) error {
	for _, row := range rows {
		p := row.Record.Path
		if len(row.Tags) > 0 {
			cur, err := s.Tags(p)
			if err != nil {
				return err
			}
			if err := s.SetTags(p, append(cur, row.Tags...)); err != nil {
				return err
			}
		}
		if strings.TrimSpace(row.BuildOrder) != "" {
			if err := s.SetBuildOrder(p, row.BuildOrder); err != nil {
				return err
			}
		}
		if row.Favorite {
			if err := s.SetFavorite(p, true); err != nil {
				return err
			}
		}
	}
	return nil
}
