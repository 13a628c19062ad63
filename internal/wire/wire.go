// Package wire holds the Hyperliquid JSON shapes shared by the REST and
// WebSocket paths: the clearinghouse state object arrives both from the info
// endpoint and inside webData2 frames, so both decoders go through here.
package wire

import (
	"strconv"
	"time"

	"github.com/traderwatch/hl-monitor/internal/model"
)

// ClearinghouseState is one account's position state as the exchange
// reports it. Numeric fields are decimal strings.
type ClearinghouseState struct {
	AssetPositions []AssetPosition `json:"assetPositions"`
	MarginSummary  MarginSummary   `json:"marginSummary"`
	Time           int64           `json:"time"` // ms since epoch
}

// AssetPosition wraps one position entry.
type AssetPosition struct {
	Position Position `json:"position"`
}

// Position is one open position within a clearinghouse state.
type Position struct {
	Coin           string   `json:"coin"`
	Szi            string   `json:"szi"`
	EntryPx        string   `json:"entryPx"`
	PositionValue  string   `json:"positionValue"`
	UnrealizedPnl  string   `json:"unrealizedPnl"`
	ReturnOnEquity string   `json:"returnOnEquity"`
	LiquidationPx  string   `json:"liquidationPx"`
	MarginUsed     string   `json:"marginUsed"`
	Leverage       Leverage `json:"leverage"`
}

// Leverage is the leverage block attached to a position.
type Leverage struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// MarginSummary is the account-level margin block.
type MarginSummary struct {
	AccountValue    string `json:"accountValue"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUSD     string `json:"totalRawUsd"`
	TotalMarginUsed string `json:"totalMarginUsed"`
}

// Snapshot converts a clearinghouse state into a domain snapshot. Only
// entries with non-zero size count as active positions; a missing exchange
// timestamp falls back to the local receive time.
func Snapshot(address string, state ClearinghouseState, receivedAt time.Time, source string, clientID int) *model.PositionSnapshot {
	ts := receivedAt
	if state.Time > 0 {
		ts = time.UnixMilli(state.Time).UTC()
	}

	positions := make([]model.PositionEntry, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		size := ParseDecimal(ap.Position.Szi)
		if size == 0 {
			continue
		}
		positions = append(positions, model.PositionEntry{
			Coin:           ap.Position.Coin,
			Size:           size,
			EntryPrice:     ParseDecimal(ap.Position.EntryPx),
			PositionValue:  ParseDecimal(ap.Position.PositionValue),
			UnrealizedPnL:  ParseDecimal(ap.Position.UnrealizedPnl),
			LeverageValue:  ap.Position.Leverage.Value,
			LiquidationPx:  ParseDecimal(ap.Position.LiquidationPx),
			MarginUsed:     ParseDecimal(ap.Position.MarginUsed),
			ReturnOnEquity: ParseDecimal(ap.Position.ReturnOnEquity),
		})
	}

	return &model.PositionSnapshot{
		Address:    address,
		Timestamp:  ts,
		ReceivedAt: receivedAt,
		Positions:  positions,
		Margin: model.MarginSummary{
			AccountValue:    ParseDecimal(state.MarginSummary.AccountValue),
			TotalNotional:   ParseDecimal(state.MarginSummary.TotalNtlPos),
			TotalRawUSD:     ParseDecimal(state.MarginSummary.TotalRawUSD),
			TotalMarginUsed: ParseDecimal(state.MarginSummary.TotalMarginUsed),
		},
		Source:   source,
		ClientID: clientID,
	}
}

// ParseDecimal converts the exchange's decimal strings to float64.
// Empty and unparseable values become 0.
func ParseDecimal(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
