package analyze

import "github.com/John-Robertt/sc2idx/internal/domain"

// Result 汇总一场对局的全部分析结果。三个分析器彼此独立、无状态。
type Result struct {
	Players        []domain.PlayerSummary
	Matchup        string
	Sequences      []domain.BuildOrderSequence
	BuildOrderAuto string
	Proxy          domain.ProxyInfo
}

// Match 对一场已解码的对局运行 matchup / 建造序列 / proxy 三项分析。
func Match(m domain.Match, threshold float64) Result {
	players := Summaries(m.Players)
	seqs := BuildOrders(m.Events, players)
	return Result{
		Players:        players,
		Matchup:        Matchup(players),
		Sequences:      seqs,
		BuildOrderAuto: AutoBuildOrder(seqs),
		Proxy:          Proxy(m.Events, players, threshold),
	}
}
