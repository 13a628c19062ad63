package api

import (
	"encoding/json"
	"fmt"
)

// infoRequest is the body for info requests keyed only by type.
type infoRequest struct {
	Type string `json:"type"`
}

// userRequest is the body for per-address info requests.
type userRequest struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// leaderboardResponse is the wire shape of the leaderboard endpoint.
type leaderboardResponse struct {
	Rows []leaderboardRow `json:"leaderboardRows"`
}

type leaderboardRow struct {
	EthAddress         string                  `json:"ethAddress"`
	DisplayName        string                  `json:"displayName"`
	AccountValue       string                  `json:"accountValue"`
	WindowPerformances []windowPerformancePair `json:"windowPerformances"`
	Prize              float64                 `json:"prize"`
}

// windowPerformancePair decodes the leaderboard's ["day", {...}] tuples.
type windowPerformancePair struct {
	Window string
	Perf   windowPerformanceWire
}

func (p *windowPerformancePair) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode window pair: %w", err)
	}
	if err := json.Unmarshal(raw[0], &p.Window); err != nil {
		return fmt.Errorf("decode window name: %w", err)
	}
	if len(raw[1]) == 0 {
		return fmt.Errorf("decode window pair: missing performance object")
	}
	if err := json.Unmarshal(raw[1], &p.Perf); err != nil {
		return fmt.Errorf("decode window performance: %w", err)
	}
	return nil
}

type windowPerformanceWire struct {
	PnL    string `json:"pnl"`
	ROI    string `json:"roi"`
	Volume string `json:"vlm"`
}
