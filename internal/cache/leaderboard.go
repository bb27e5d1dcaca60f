// internal/cache/leaderboard.go
package cache

import (
	"context"
)

// leaderboardKey is the sorted set of game wins per player name.
const leaderboardKey = "chrummy:wins"

// RecordWin bumps a player's win count.
func (c *Client) RecordWin(ctx context.Context, name string) {
	if err := c.rdb.ZIncrBy(ctx, leaderboardKey, 1, name).Err(); err != nil {
		c.log.WithError(err).Warn("Failed to record leaderboard win")
	}
}

// Entry is one leaderboard row.
type Entry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// Top returns the n winningest players, most wins first.
func (c *Client) Top(ctx context.Context, n int) ([]Entry, error) {
	zs, err := c.rdb.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		out = append(out, Entry{Name: name, Wins: int(z.Score)})
	}
	return out, nil
}
