package tags

import (
	"path/filepath"
	"reflect"
	"testing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), Filename))
	if err != nil {
		t.Fatalf("打开标签库失败：%v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Favorites(t *testing.T) {
	s := openTemp(t)
	const p = "/r/a.SC2Replay"

	if err := s.SetFavorite(p, true); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 重复收藏是幂等的。
	if err := s.SetFavorite(p, true); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	ok, err := s.IsFavorite(p)
	if err != nil || !ok {
		t.Fatalf("期望已收藏：ok=%v err=%v", ok, err)
	}

	if err := s.SetFavorite(p, false); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ok, _ := s.IsFavorite(p); ok {
		t.Fatalf("期望已取消收藏")
	}
}

func TestStore_TagsReplaceAndClean(t *testing.T) {
	s := openTemp(t)
	const p = "/r/a.SC2Replay"

	if err := s.SetTags(p, []string{" proxy ", "cheese", "", "proxy"}); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	got, err := s.Tags(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if want := []string{"cheese", "proxy"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}

	if err := s.SetTags(p, []string{"  "}); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	got, _ = s.Tags(p)
	if len(got) != 0 {
		t.Fatalf("空标签列表应删除全部标签：%v", got)
	}
}

func TestStore_BuildOrderEmptyDeletes(t *testing.T) {
	s := openTemp(t)
	const p = "/r/a.SC2Replay"

	if err := s.SetBuildOrder(p, "3 rax reaper"); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if err := s.SetBuildOrder(p, "2-1-1"); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if v, _ := s.BuildOrder(p); v != "2-1-1" {
		t.Fatalf("期望覆盖为 2-1-1，实际 %q", v)
	}

	if err := s.SetBuildOrder(p, ""); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if v, err := s.BuildOrder(p); err != nil || v != "" {
		t.Fatalf("空串应删除：%q err=%v", v, err)
	}
}

func TestStore_SnapshotAndPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	_ = s.SetFavorite("/r/a.SC2Replay", true)
	_ = s.SetTags("/r/a.SC2Replay", []string{"proxy"})
	_ = s.SetTags("/r/b.SC2Replay", []string{"zvz", "Proxy"})
	_ = s.SetBuildOrder("/r/b.SC2Replay", "12 pool")
	if err := s.Close(); err != nil {
		t.Fatalf("关闭失败：%v", err)
	}

	// 重新打开：内容应持久化。
	s, err = Open(path)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	defer s.Close()

	snap, err := s.Snapshot()
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !snap.Favorites["/r/a.SC2Replay"] || snap.Favorites["/r/b.SC2Replay"] {
		t.Fatalf("favorites 不符合预期：%v", snap.Favorites)
	}
	if snap.BuildOrders["/r/b.SC2Replay"] != "12 pool" {
		t.Fatalf("build orders 不符合预期：%v", snap.BuildOrders)
	}
	if !snap.HasTag("/r/b.SC2Replay", "proxy") || snap.HasTag("/r/a.SC2Replay", "zvz") {
		t.Fatalf("HasTag 不符合预期：%v", snap.Tags)
	}
	if want := []string{"Proxy", "proxy", "zvz"}; !reflect.DeepEqual(snap.AllTags(), want) {
		t.Fatalf("期望 %v，实际 %v", want, snap.AllTags())
	}
}

func TestSplitTags(t *testing.T) {
	if got, want := SplitTags("b, a,,a "), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
}

func TestStore_SeparateFilesDoNotShareState(t *testing.T) {
	a := openTemp(t)
	b := openTemp(t)
	const p = "/r/a.SC2Replay"

	if err := a.SetFavorite(p, true); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	ok, err := b.IsFavorite(p)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ok {
		t.Fatalf("两个标签库文件之间不应共享收藏")
	}
}
