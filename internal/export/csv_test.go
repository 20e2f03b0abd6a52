package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

func sampleRecord(folder, name string) domain.ReplayRecord {
	team := 1
	max := 41.5
	return domain.ReplayRecord{
		Path:         filepath.Join(folder, name),
		Filename:     name,
		SourceFolder: folder,
		Map:          "Alcyone LE",
		StartTime:    "2024-03-01T10:00:00Z",
		Length:       "12:34",
		GameType:     "1v1",
		Speed:        "Faster",
		Matchup:      "PvT",
		Players: []domain.PlayerSummary{
			{Name: "Alice", Race: "P", Result: "Win", TeamID: &team, PID: 1},
		},
		BuildOrderAuto: "P: Nexus > Gateway",
		Sequences: []domain.BuildOrderSequence{
			{PID: 1, Race: "P", Name: "Alice", Tech: []string{"Nexus", "Gateway"}, General: []string{"Gateway"}},
		},
		ProxyFlag:        true,
		ProxyDistanceMax: &max,
		ProxyDistances:   map[int]float64{1: 41.5},
		ProxyThreshold:   35,
		MTime:            1700000000.25,
		Size:             2048,
	}
}

func TestCSV_WriteReadRoundTrip(t *testing.T) {
	folder := filepath.Join(string(filepath.Separator), "replays")
	rec := sampleRecord(folder, "a.SC2Replay")
	snap := tags.Snapshot{
		Favorites:   map[string]bool{rec.Path: true},
		Tags:        map[string][]string{rec.Path: {"cheese", "ladder"}},
		BuildOrders: map[string]string{rec.Path: "proxy 2 gate"},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []domain.ReplayRecord{rec}, snap); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.HasPrefix(buf.String(), strings.Join(Columns, ",")+"\n") {
		t.Fatalf("表头不符合预期：%q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	rows, err := ReadCSV(&buf, folder)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("期望 1 行，实际 %d", len(rows))
	}
	got := rows[0]
	if !reflect.DeepEqual(got.Record, rec) {
		t.Fatalf("记录 round-trip 不一致：\n got=%+v\nwant=%+v", got.Record, rec)
	}
	if !reflect.DeepEqual(got.Tags, []string{"cheese", "ladder"}) || got.BuildOrder != "proxy 2 gate" || !got.Favorite {
		t.Fatalf("用户元数据不符合预期：%+v", got)
	}
}

func TestReadCSV_PathResolution(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "local.SC2Replay"), []byte("x"), 0o644); err != nil {
		t.Fatalf("写入失败：%v", err)
	}

	// BOM 表头、缺列、没有 filename 的行。
	in := "\ufefffilename,path,source_folder\n" +
		"local.SC2Replay,/elsewhere/local.SC2Replay,\n" +
		"remote.SC2Replay,/elsewhere/remote.SC2Replay,/elsewhere\n" +
		",/ignored.SC2Replay,\n" +
		"bare.SC2Replay,,\n"

	rows, err := ReadCSV(strings.NewReader(in), base)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("期望 3 行，实际 %d", len(rows))
	}
	if rows[0].Record.Path != filepath.Join(base, "local.SC2Replay") || rows[0].Record.SourceFolder != base {
		t.Fatalf("本地存在时应使用本地路径：%+v", rows[0].Record)
	}
	if rows[1].Record.Path != "/elsewhere/remote.SC2Replay" || rows[1].Record.SourceFolder != "/elsewhere" {
		t.Fatalf("本地不存在时应使用 path 列：%+v", rows[1].Record)
	}
	if rows[2].Record.Path != filepath.Join(base, "bare.SC2Replay") {
		t.Fatalf("都没有时应回退到本地路径：%+v", rows[2].Record)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	for _, in := range []string{"", "filename,path\n", "filename\n,\n"} {
		if _, err := ReadCSV(strings.NewReader(in), "/r"); !errors.Is(err, ErrEmptyCSV) {
			t.Fatalf("输入 %q：期望 ErrEmptyCSV，实际 %v", in, err)
		}
	}
}

func TestMergeIndex_ReplaceAndAppend(t *testing.T) {
	old := sampleRecord("/r/a", "x.SC2Replay")
	other := sampleRecord("/r/a", "y.SC2Replay")
	x := domain.Index{Replays: []domain.ReplayRecord{old, other}, Folders: []string{"/r/a"}}

	updated := old
	updated.Map = "Oceanborn LE"
	added := sampleRecord("/r/b", "x.SC2Replay")

	got := MergeIndex(x, []ImportRow{{Record: updated}, {Record: added}})
	if len(got.Replays) != 3 {
		t.Fatalf("期望 3 条记录，实际 %d", len(got.Replays))
	}
	if got.Replays[0].Map != "Oceanborn LE" {
		t.Fatalf("同键记录应被替换并保持位置：%+v", got.Replays[0])
	}
	if got.Replays[2].SourceFolder != "/r/b" {
		t.Fatalf("新记录应追加在末尾：%+v", got.Replays[2])
	}
	if !reflect.DeepEqual(got.Folders, []string{"/r/a", "/r/b"}) {
		t.Fatalf("folders 应重新计算：%v", got.Folders)
	}
}

func TestApplyTags_MergesIntoStore(t *testing.T) {
	s, err := tags.Open(filepath.Join(t.TempDir(), tags.Filename))
	if err != nil {
		t.Fatalf("打开标签库失败：%v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	const p = "/r/a.SC2Replay"
	if err := s.SetTags(p, []string{"old"}); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := s.SetBuildOrder(p, "keep me"); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := s.SetFavorite(p, true); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	rows := []ImportRow{{
		Record:     domain.ReplayRecord{Path: p},
		Tags:       []string{"new", "old"},
		BuildOrder: "",
		Favorite:   false,
	}}
	if err := ApplyTags(s, rows); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	got, _ := s.Tags(p)
	if !reflect.DeepEqual(got, []string{"new", "old"}) {
		t.Fatalf("标签应取并集：%v", got)
	}
	if bo, _ := s.BuildOrder(p); bo != "keep me" {
		t.Fatalf("空的建造顺序不应覆盖：%q", bo)
	}
	if fav, _ := s.IsFavorite(p); !fav {
		t.Fatalf("收藏只增不减")
	}
}
