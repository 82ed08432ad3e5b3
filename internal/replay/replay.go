// Package replay reconstructs an agent's effective conversation by walking
// ancestry, honoring clear markers, and filtering interrupted turns
// (spec §4.4).
package replay

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/ikigai/internal/store"
)

// Source is the subset of store access the replay walk needs.
type Source interface {
	FindClear(ctx context.Context, agentUUID string, maxID int64) (int64, error)
	QueryRange(ctx context.Context, r store.ReplayRange) ([]*store.Message, error)
	Get(ctx context.Context, uuid string) (*store.Agent, error)
}

// BuildRanges walks backwards from leaf, honoring clear markers and fork
// points, and returns chronological (root-first) ranges.
func BuildRanges(ctx context.Context, src Source, leafUUID string) ([]store.ReplayRange, error) {
	var reversed []store.ReplayRange

	current := leafUUID
	var endID int64

	for {
		clearID, err := src.FindClear(ctx, current, endID)
		if err != nil {
			return nil, fmt.Errorf("find clear for %s: %w", current, err)
		}

		if clearID > 0 {
			reversed = append(reversed, store.ReplayRange{AgentUUID: current, StartID: clearID, EndID: endID})
			break
		}

		reversed = append(reversed, store.ReplayRange{AgentUUID: current, StartID: 0, EndID: endID})

		agent, err := src.Get(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("get agent %s: %w", current, err)
		}
		if agent.IsRoot() {
			break
		}

		endID = agent.ForkMessageID
		current = agent.ParentUUID
	}

	ranges := make([]store.ReplayRange, len(reversed))
	for i, r := range reversed {
		ranges[len(reversed)-1-i] = r
	}
	return ranges, nil
}

// History assembles the filtered, chronological message sequence for an
// agent: build ranges, query each in order, then drop interrupted turns.
func History(ctx context.Context, src Source, leafUUID string) ([]*store.Message, error) {
	ranges, err := BuildRanges(ctx, src, leafUUID)
	if err != nil {
		return nil, err
	}

	var all []*store.Message
	for _, r := range ranges {
		msgs, err := src.QueryRange(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("query range %+v: %w", r, err)
		}
		all = append(all, msgs...)
	}

	return FilterInterrupted(all), nil
}

// FilterInterrupted removes every interrupted turn: on encountering an
// 'interrupted' message at index i, everything from the last 'user'
// message's index through i (inclusive) is dropped.
func FilterInterrupted(msgs []*store.Message) []*store.Message {
	if len(msgs) == 0 {
		return msgs
	}

	keep := make([]bool, len(msgs))
	for i := range keep {
		keep[i] = true
	}

	lastUserIdx := 0
	for i, m := range msgs {
		switch m.Kind {
		case store.MsgInterrupted:
			for j := lastUserIdx; j <= i; j++ {
				keep[j] = false
			}
		case store.MsgUser:
			lastUserIdx = i
		}
	}

	out := make([]*store.Message, 0, len(msgs))
	for i, m := range msgs {
		if keep[i] {
			out = append(out, m)
		}
	}
	return out
}
