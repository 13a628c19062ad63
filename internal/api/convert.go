package api

import (
	"github.com/traderwatch/hl-monitor/internal/model"
	"github.com/traderwatch/hl-monitor/internal/wire"
)

// candidateFromRow converts a leaderboard row into a candidate. Score is left
// zero; scoring happens at selection time.
func candidateFromRow(row leaderboardRow) model.CandidateTrader {
	c := model.CandidateTrader{
		Address:      row.EthAddress,
		DisplayName:  row.DisplayName,
		AccountValue: wire.ParseDecimal(row.AccountValue),
	}

	for _, pair := range row.WindowPerformances {
		perf := model.WindowPerformance{
			PnL:    wire.ParseDecimal(pair.Perf.PnL),
			ROI:    wire.ParseDecimal(pair.Perf.ROI),
			Volume: wire.ParseDecimal(pair.Perf.Volume),
		}
		switch pair.Window {
		case "day":
			c.Windows.Day = perf
		case "week":
			c.Windows.Week = perf
		case "month":
			c.Windows.Month = perf
		case "allTime":
			c.Windows.AllTime = perf
		}
	}

	return c
}
