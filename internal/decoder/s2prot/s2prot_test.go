package s2prot

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/icza/s2prot"

	"github.com/John-Robertt/sc2idx/internal/domain"
)

func team(v int) *int { return &v }

func TestMapEvent_UnitBornWithPosition(t *testing.T) {
	ev := mapEvent("UnitBorn", 120, s2prot.Struct{
		"unitTypeName":    "Barracks",
		"controlPlayerId": int64(2),
		"x":               int64(40),
		"y":               int64(52),
	})

	if ev.Kind != domain.EventUnitBorn || ev.Loop != 120 || ev.TypeName != "Barracks" || ev.PlayerID != 2 {
		t.Fatalf("映射结果不符合预期：%+v", ev)
	}
	pos, ok := ev.Position()
	if !ok || pos.X != 40 || pos.Y != 52 {
		t.Fatalf("坐标不符合预期：%+v ok=%v", pos, ok)
	}
}

func TestMapEvent_MissingPositionAndOtherKinds(t *testing.T) {
	ev := mapEvent("UnitInit", 5, s2prot.Struct{
		"unitTypeName":    "Pylon",
		"controlPlayerId": int64(1),
	})
	if ev.Kind != domain.EventUnitInit || ev.Pos != nil {
		t.Fatalf("缺失坐标时 Pos 应为 nil：%+v", ev)
	}

	other := mapEvent("PlayerStats", 9, s2prot.Struct{"controlPlayerId": int64(1)})
	if other.Kind != domain.EventOther || other.PlayerID != 0 || other.IsCreation() {
		t.Fatalf("其他事件只保留 kind/loop：%+v", other)
	}
}

func TestMapPlayer(t *testing.T) {
	p := mapPlayer(1, s2prot.Struct{
		"name":   " Serral ",
		"race":   "Zerg",
		"result": int64(1),
		"teamId": int64(1),
	})
	if p.Name != "Serral" || p.Race != "Zerg" || p.Result != "Win" || p.PID != 2 {
		t.Fatalf("玩家映射不符合预期：%+v", p)
	}
	if p.TeamID == nil || *p.TeamID != 1 {
		t.Fatalf("team 不符合预期：%+v", p.TeamID)
	}

	noTeam := mapPlayer(0, s2prot.Struct{"name": "A"})
	if noTeam.TeamID != nil || noTeam.Result != "Unknown" {
		t.Fatalf("缺失字段应使用默认值：%+v", noTeam)
	}
}

func TestFileTimeUTC(t *testing.T) {
	// 2020-01-01T00:00:00Z
	v := int64(132223104000000000)
	got := fileTimeUTC(v)
	want := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
	if !fileTimeUTC(0).IsZero() {
		t.Fatalf("0 应返回零值时间")
	}
}

func TestSpeedAndLength(t *testing.T) {
	if SpeedName(4) != "Faster" || SpeedName(9) != "" {
		t.Fatalf("speed 映射不符合预期")
	}
	// Faster：22.4 loop/秒
	if got := RealLength(22400, 4); got != 1000*time.Second {
		t.Fatalf("期望 1000s，实际 %v", got)
	}
	if got := RealLength(1600, 2); got != 100*time.Second {
		t.Fatalf("期望 100s，实际 %v", got)
	}
}

func TestGameType(t *testing.T) {
	duel := []domain.MatchPlayer{{TeamID: team(0)}, {TeamID: team(1)}}
	if got := GameType(duel); got != "1v1" {
		t.Fatalf("期望 1v1，实际 %q", got)
	}
	teams := []domain.MatchPlayer{{TeamID: team(0)}, {TeamID: team(0)}, {TeamID: team(1)}, {TeamID: team(1)}}
	if got := GameType(teams); got != "2v2" {
		t.Fatalf("期望 2v2，实际 %q", got)
	}
	ffa := []domain.MatchPlayer{{TeamID: team(0)}, {TeamID: team(1)}, {TeamID: team(2)}}
	if got := GameType(ffa); got != "FFA" {
		t.Fatalf("期望 FFA，实际 %q", got)
	}
	if got := GameType([]domain.MatchPlayer{{}}); got != "" {
		t.Fatalf("缺失 team 时应为空串，实际 %q", got)
	}
}

func TestDecode_MissingFile(t *testing.T) {
	_, err := New().Decode(filepath.Join(t.TempDir(), "nope.SC2Replay"))
	if err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
}
