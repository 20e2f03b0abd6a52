package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

func TestWriteHTML_Table(t *testing.T) {
	a := sampleRecord("/r", "a.SC2Replay")
	b := sampleRecord("/r", "b<script>.SC2Replay")
	b.Length = "1:00:00"
	b.ProxyFlag = false
	b.ProxyDistances = map[int]float64{}
	b.ProxyDistanceMax = nil

	snap := tags.Snapshot{
		Favorites:   map[string]bool{a.Path: true},
		Tags:        map[string][]string{a.Path: {"cheese", "ladder"}},
		BuildOrders: map[string]string{a.Path: "proxy 2 gate"},
	}

	var buf bytes.Buffer
	now := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
	if err := WriteHTML(&buf, []domain.ReplayRecord{a, b}, snap, "", now); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Fatalf("文件名必须被转义")
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		t.Fatalf("解析 HTML 失败：%v", err)
	}
	if got := doc.Find("title").Text(); got != "SC2 Replays" {
		t.Fatalf("默认标题不符合预期：%q", got)
	}

	rows := doc.Find("#replays tbody tr")
	if rows.Length() != 2 {
		t.Fatalf("期望 2 行，实际 %d", rows.Length())
	}

	first := rows.Eq(0)
	cell := func(s *goquery.Selection, class string) string {
		return strings.TrimSpace(s.Find("td." + class).Text())
	}
	if !first.HasClass("proxy") {
		t.Fatalf("proxy 行应带 proxy class")
	}
	if v, _ := first.Attr("data-path"); v != a.Path {
		t.Fatalf("data-path 不符合预期：%q", v)
	}
	checks := map[string]string{
		"favorite":    "★",
		"filename":    "a.SC2Replay",
		"matchup":     "PvT",
		"players":     "Alice(P)",
		"winner":      "Alice",
		"date":        "2024-03-01 10:00",
		"length":      "12:34",
		"proxy":       "Alice(P):41.5",
		"build-order": "proxy 2 gate",
		"tags":        "cheese, ladder",
	}
	for class, want := range checks {
		if got := cell(first, class); got != want {
			t.Fatalf("列 %s：期望 %q，实际 %q", class, want, got)
		}
	}

	second := rows.Eq(1)
	if second.HasClass("proxy") || cell(second, "favorite") != "" || cell(second, "proxy") != "" {
		t.Fatalf("第二行不应有收藏/proxy")
	}
	if got := cell(second, "build-order"); got != "P: Nexus > Gateway" {
		t.Fatalf("没有手动建造顺序时应显示自动推导：%q", got)
	}
	if got := cell(second, "filename"); got != "b<script>.SC2Replay" {
		t.Fatalf("转义后文本应还原：%q", got)
	}

	if got := strings.TrimSpace(doc.Find("tfoot td.total-length").Text()); got != "1:12:34" {
		t.Fatalf("时长合计不符合预期：%q", got)
	}
	if got := strings.TrimSpace(doc.Find("tfoot td.count").Text()); got != "2 replays" {
		t.Fatalf("计数不符合预期：%q", got)
	}
}
