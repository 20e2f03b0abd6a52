package planner

import (
	"testing"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

func cachedRecord() *domain.ReplayRecord {
	return &domain.ReplayRecord{
		Path:           "/r/a.SC2Replay",
		SourceFolder:   "/r",
		MTime:          1700000000.5,
		Size:           100,
		ProxyThreshold: 35,
	}
}

func fileFor(r *domain.ReplayRecord) domain.ReplayFile {
	return domain.ReplayFile{
		AbsPath:      r.Path,
		SourceFolder: r.SourceFolder,
		MTime:        r.MTime,
		Size:         r.Size,
	}
}

func TestDecide_HitWhenKeyMatches(t *testing.T) {
	c := cachedRecord()
	d := Decide(true, KeyFor(fileFor(c), 35, true), c)
	if !d.Reuse || d.Reason != ReasonHit {
		t.Fatalf("期望命中，实际 %+v", d)
	}
}

func TestDecide_Misses(t *testing.T) {
	c := cachedRecord()

	cases := []struct {
		name    string
		useC    bool
		key     Key
		cached  *domain.ReplayRecord
		wantWhy Reason
	}{
		{"disabled", false, KeyFor(fileFor(c), 35, false), c, ReasonCacheDisabled},
		{"missing", true, KeyFor(fileFor(c), 35, false), nil, ReasonNotIndexed},
		{"mtime", true, Key{MTime: c.MTime + 1, Size: c.Size, Threshold: 35}, c, ReasonFileChanged},
		{"size", true, Key{MTime: c.MTime, Size: c.Size + 1, Threshold: 35}, c, ReasonFileChanged},
		{"threshold", true, KeyFor(fileFor(c), 36, false), c, ReasonThresholdChanged},
		{"folder", true, Key{MTime: c.MTime, Size: c.Size, Threshold: 35, Folder: "/other", StrictFolder: true}, c, ReasonFolderChanged},
	}
	for _, tc := range cases {
		d := Decide(tc.useC, tc.key, tc.cached)
		if d.Reuse || d.Reason != tc.wantWhy {
			t.Fatalf("%s: 期望 miss(%s)，实际 %+v", tc.name, tc.wantWhy, d)
		}
	}
}

func TestDecide_FolderIgnoredForSingleFolderScan(t *testing.T) {
	c := cachedRecord()
	k := Key{MTime: c.MTime, Size: c.Size, Threshold: 35, Folder: "/other"}
	if d := Decide(true, k, c); !d.Reuse {
		t.Fatalf("单目录扫描不应比较 source_folder：%+v", d)
	}
}

func TestStats(t *testing.T) {
	var s Stats
	s.Add(Decision{Reuse: true, Reason: ReasonHit})
	s.Add(Decision{Reason: ReasonNotIndexed})
	s.Add(Decision{Reason: ReasonNotIndexed})
	s.Add(Decision{Reason: ReasonThresholdChanged})

	if s.Hits != 1 || s.MissTotal() != 3 || s.Misses[ReasonNotIndexed] != 2 {
		t.Fatalf("统计不符合预期：%+v", s)
	}
}
