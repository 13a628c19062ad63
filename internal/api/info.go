package api

import (
	"context"
	"fmt"
	"time"

	"github.com/traderwatch/hl-monitor/internal/model"
	"github.com/traderwatch/hl-monitor/internal/wire"
)

// Leaderboard fetches the leaderboard and converts every row into an unscored
// candidate.
func (c *Client) Leaderboard(ctx context.Context) ([]model.CandidateTrader, error) {
	var resp leaderboardResponse
	if err := c.post(ctx, infoRequest{Type: "leaderboard"}, &resp); err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	candidates := make([]model.CandidateTrader, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		if row.EthAddress == "" {
			continue
		}
		candidates = append(candidates, candidateFromRow(row))
	}

	c.logger.Debug("fetched leaderboard", "rows", len(resp.Rows), "candidates", len(candidates))
	return candidates, nil
}

// ClearinghouseState fetches the current position state for one address via
// REST, for on-demand snapshots outside the WebSocket stream.
func (c *Client) ClearinghouseState(ctx context.Context, address string) (*model.PositionSnapshot, error) {
	var resp wire.ClearinghouseState
	if err := c.post(ctx, userRequest{Type: "clearinghouseState", User: address}, &resp); err != nil {
		return nil, fmt.Errorf("fetch clearinghouse state for %s: %w", address, err)
	}

	return wire.Snapshot(address, resp, time.Now().UTC(), "rest", -1), nil
}
