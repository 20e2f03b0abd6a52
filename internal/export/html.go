package export

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/John-Robertt/sc2idx/internal/domain"
	"github.com/John-Robertt/sc2idx/internal/tags"
)

// HTMLRow 是 HTML 报表中的一行（已格式化）。
type HTMLRow struct {
	Favorite   bool
	Filename   string
	Path       string
	Map        string
	Matchup    string
	Players    string
	Winner     string
	Date       string
	Length     string
	Proxy      string
	ProxyFlag  bool
	BuildOrder string
	Tags       string
}

type htmlPage struct {
	Title       string
	GeneratedAt string
	Rows        []HTMLRow
	Count       int
	TotalLength string
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 1.5em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; font-size: 13px; }
th { background: #f0f0f0; }
tr.proxy td.proxy { color: #b00; font-weight: bold; }
tfoot td { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="generated">{{.GeneratedAt}}</p>
<table id="replays">
<thead>
<tr><th>★</th><th>File</th><th>Map</th><th>Matchup</th><th>Players</th><th>Winner</th><th>Date</th><th>Length</th><th>Proxy</th><th>Build Order</th><th>Tags</th></tr>
</thead>
<tbody>
{{- range .Rows}}
<tr data-path="{{.Path}}"{{if .ProxyFlag}} class="proxy"{{end}}>
<td class="favorite">{{if .Favorite}}★{{end}}</td>
<td class="filename">{{.Filename}}</td>
<td class="map">{{.Map}}</td>
<td class="matchup">{{.Matchup}}</td>
<td class="players">{{.Players}}</td>
<td class="winner">{{.Winner}}</td>
<td class="date">{{.Date}}</td>
<td class="length">{{.Length}}</td>
<td class="proxy">{{.Proxy}}</td>
<td class="build-order">{{.BuildOrder}}</td>
<td class="tags">{{.Tags}}</td>
</tr>
{{- end}}
</tbody>
<tfoot>
<tr><td colspan="7" class="count">{{.Count}} replays</td><td class="total-length">{{.TotalLength}}</td><td colspan="3"></td></tr>
</tfoot>
</table>
</body>
</html>
`))

// WriteHTML 写出一个独立的 HTML 报表（无外部资源）。
func WriteHTML(w io.Writer, recs []domain.ReplayRecord, snap tags.Snapshot, title string, now time.Time) error {
	if strings.TrimSpace(title) == "" {
		title = "SC2 Replays"
	}
	page := htmlPage{
		Title:       title,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Rows:        make([]HTMLRow, 0, len(recs)),
		Count:       len(recs),
	}
	total := 0
	for _, r := range recs {
		total += domain.ParseLengthSeconds(r.Length)
		page.Rows = append(page.Rows, BuildHTMLRow(r, snap))
	}
	page.TotalLength = domain.FormatTotalSeconds(total)
	return reportTmpl.Execute(w, page)
}

// BuildHTMLRow 把记录格式化为报表行。
func BuildHTMLRow(r domain.ReplayRecord, snap tags.Snapshot) HTMLRow {
	return HTMLRow{
		Favorite:   snap.Favorites[r.Path],
		Filename:   r.Filename,
		Path:       r.Path,
		Map:        r.Map,
		Matchup:    r.Matchup,
		Players:    domain.FormatPlayers(r.Players),
		Winner:     domain.Winners(r.Players),
		Date:       domain.FormatDate(r.StartTime),
		Length:     r.Length,
		Proxy:      domain.FormatProxy(r),
		ProxyFlag:  r.ProxyFlag,
		BuildOrder: domain.DisplayBuildOrder(snap.BuildOrders[r.Path], r.BuildOrderAuto),
		Tags:       strings.Join(snap.Tags[r.Path], ", "),
	}
}
