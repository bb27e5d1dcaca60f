// internal/cache/journal.go
//
// Action journal: every applied table action is pushed onto a Redis
// list for out-of-process consumers (replay tooling, analytics). The
// queue is fire-and-forget from the room's point of view.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// journalQueue is the Redis list the journal appends to.
const journalQueue = "chrummy:actions"

// ActionRecord is one journaled table action.
type ActionRecord struct {
	RoomCode  string    `json:"room_code"`
	GameID    uuid.UUID `json:"game_id"`
	Seat      int       `json:"seat"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// EnqueueAction appends one record to the journal queue.
func (c *Client) EnqueueAction(ctx context.Context, rec ActionRecord) {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		c.log.WithError(err).Warn("Failed to marshal action record")
		return
	}
	if err := c.rdb.RPush(ctx, journalQueue, data).Err(); err != nil {
		c.log.WithError(err).Warn("Failed to journal action")
	}
}

// DrainActions pops up to max journaled actions, oldest first. Intended
// for the external historian process; exposed here for tooling.
func (c *Client) DrainActions(ctx context.Context, max int) ([]ActionRecord, error) {
	var out []ActionRecord
	for i := 0; i < max; i++ {
		data, err := c.rdb.LPop(ctx, journalQueue).Bytes()
		if err != nil {
			break
		}
		var rec ActionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
