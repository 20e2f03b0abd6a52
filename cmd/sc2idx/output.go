package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"

	"github.com/John-Robertt/sc2idx/internal/app"
	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func writeJSONLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// listItem 是 list 的 JSON 输出：记录本身 + 用户元数据 + 展示字段。
type listItem struct {
	domain.ReplayRecord
	Favorite   bool     `json:"favorite"`
	Tags       []string `json:"tags"`
	BuildOrder string   `json:"build_order"`
	Winner     string   `json:"winner"`
}

func newListItem(r domain.ReplayRecord, snap tags.Snapshot) listItem {
	tl := snap.Tags[r.Path]
	if tl == nil {
		tl = []string{}
	}
	return listItem{
		ReplayRecord: r,
		Favorite:     snap.Favorites[r.Path],
		Tags:         tl,
		BuildOrder:   domain.DisplayBuildOrder(snap.BuildOrders[r.Path], r.BuildOrderAuto),
		Winner:       domain.Winners(r.Players),
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	proxyStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#f85149"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func renderList(w io.Writer, recs []domain.ReplayRecord, snap tags.Snapshot, long bool) {
	headers := []string{"★", "File", "Players", "Winner", "Matchup", "Map", "Date", "Length", "Tags", "Build Order", "Proxy"}
	if long {
		headers = append(headers, "Size", "Modified")
	}

	proxyCol := 10
	t := newTable(headers...).StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == proxyCol && row >= 0 && row < len(recs) && recs[row].ProxyFlag {
			return proxyStyle
		}
		return cellStyle
	})

	for _, r := range recs {
		fav := ""
		if snap.Favorites[r.Path] {
			fav = "★"
		}
		row := []string{
			fav,
			r.Filename,
			domain.FormatPlayers(r.Players),
			domain.Winners(r.Players),
			r.Matchup,
			r.Map,
			domain.FormatDate(r.StartTime),
			r.Length,
			formatTags(snap.Tags[r.Path]),
			truncate(domain.DisplayBuildOrder(snap.BuildOrders[r.Path], r.BuildOrderAuto), 60),
			domain.FormatProxy(r),
		}
		if long {
			row = append(row, humanize.Bytes(uint64(max(r.Size, 0))), formatMTime(r.MTime))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
}

func listFooter(recs []domain.ReplayRecord, indexed int) string {
	total := 0
	for _, r := range recs {
		total += domain.ParseLengthSeconds(r.Length)
	}
	return fmt.Sprintf("共 %s 条（索引 %s 条），总时长 %s",
		humanize.Comma(int64(len(recs))), humanize.Comma(int64(indexed)), domain.FormatTotalSeconds(total),
	)
}

func formatMTime(sec float64) string {
	if sec <= 0 {
		return ""
	}
	return humanize.Time(time.Unix(0, int64(sec*float64(time.Second))))
}

func formatTags(ts []string) string {
	return strings.Join(ts, ", ")
}

func renderStats(w io.Writer, ps app.PlayerStats) {
	fmt.Fprintf(w, "Player: %s\n", ps.Player)
	fmt.Fprintf(w, "Games: %d\n", ps.Total.Games)
	fmt.Fprintf(w, "Win%%: %.1f\n", ps.Total.Pct())
	fmt.Fprintf(w, "Total Time: %s\n", domain.FormatTotalSeconds(ps.TotalSeconds))
	fmt.Fprintf(w, "Proxy Against%%: %.1f\n", ps.ProxyAgainstPct())
	fmt.Fprintf(w, "Win%% vs Proxy: %.1f\n", ps.ProxyAgainst.Pct())
	if ps.Opponent != "" {
		fmt.Fprintf(w, "Matchup vs %s: %.1f%% (%d/%d)\n", ps.Opponent, ps.Versus.Pct(), ps.Versus.Wins, ps.Versus.Games)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Win% by Opponent Race:")
	fmt.Fprintln(w, winTable("Opponent", ps.ByOpponentRace).Render())
	fmt.Fprintln(w, "Win% by Matchup:")
	fmt.Fprintln(w, winTable("Matchup", ps.ByMatchup).Render())
}

func winTable(key string, m map[string]app.WinCount) *table.Table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable(key, "Win%", "Wins", "Games").StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		return cellStyle
	})
	for _, k := range keys {
		c := m[k]
		t.Row(k, fmt.Sprintf("%.1f", c.Pct()), fmt.Sprint(c.Wins), fmt.Sprint(c.Games))
	}
	return t
}
