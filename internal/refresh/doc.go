// Package refresh runs periodic selection cycles: fetch the leaderboard,
// score and select targets, and replace the tracked target set.
package refresh
