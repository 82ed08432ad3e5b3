package providers

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/nextlevelbuilder/ikigai/internal/id"
)

// building accumulates one content block across its start/delta/done events.
type building struct {
	block Block
	args  []byte
}

// CollectResponse drains a StartStream event channel to completion and
// assembles the same Response shape Start returns, so the agent runtime can
// drive every provider round-trip over the streaming pipeline (spec §4.2)
// and treat the result uniformly regardless of how it arrived.
func CollectResponse(ctx context.Context, events <-chan StreamEvent) (*Response, error) {
	resp := &Response{}
	blocks := map[int]*building{}
	var order []int

	touch := func(idx int) *building {
		b, ok := blocks[idx]
		if !ok {
			b = &building{}
			blocks[idx] = b
			order = append(order, idx)
		}
		return b
	}

	for ev := range events {
		switch ev.Kind {
		case EventStart:
			resp.Model = ev.Model

		case EventTextDelta:
			b := touch(ev.Index)
			b.block.Type = BlockText
			b.block.Text += ev.Text

		case EventThinkingDelta:
			b := touch(ev.Index)
			b.block.Type = BlockThinking
			b.block.Text += ev.Text

		case EventThinkingSignature:
			b := touch(ev.Index)
			b.block.Type = BlockThinking
			b.block.Signature = ev.Signature

		case EventRedactedThinking:
			b := touch(ev.Index)
			b.block.Type = BlockRedactedThinking
			b.block.RedactedData = ev.RedactedData

		case EventToolCallStart:
			b := touch(ev.Index)
			b.block.Type = BlockToolUse
			b.block.ToolUseID = ev.ToolCallID
			b.block.ToolName = ev.ToolCallName

		case EventToolCallDelta:
			b := touch(ev.Index)
			b.args = append(b.args, ev.PartialJSON...)

		case EventToolCallDone:
			b := touch(ev.Index)
			if len(b.args) == 0 {
				b.args = []byte("{}")
			}
			b.block.ToolInput = json.RawMessage(b.args)

		case EventDone:
			resp.FinishReason = ev.FinishReason
			resp.Usage = ev.Usage

		case EventError:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, id.New(id.KindProvider, "anthropic stream: %s: %s", ev.ErrorCategory, ev.ErrorMessage)
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sort.Ints(order)
	resp.Blocks = make([]Block, 0, len(order))
	for _, idx := range order {
		resp.Blocks = append(resp.Blocks, blocks[idx].block)
	}
	return resp, nil
}
