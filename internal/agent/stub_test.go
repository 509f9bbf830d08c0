package agent

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// stubModel replays canned replies in order and records the user prompts it
// saw. It stands in for both chat models in every agent test.
type stubModel struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (m *stubModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(input) > 0 {
		m.prompts = append(m.prompts, input[len(input)-1].Content)
	}
	if m.calls >= len(m.replies) {
		return nil, errors.New("stub model ran out of replies")
	}
	reply := m.replies[m.calls]
	m.calls++
	return schema.AssistantMessage(reply, nil), nil
}
