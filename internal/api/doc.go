// Package api provides the Hyperliquid info API client.
//
// All requests are POSTs to the info endpoint with a JSON body carrying a
// "type" discriminator:
//   - Production: https://api.hyperliquid.xyz/info
//   - Testnet: https://api.hyperliquid-testnet.xyz/info
//
// Key request types: leaderboard, clearinghouseState
package api
