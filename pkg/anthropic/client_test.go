package anthropic

import (
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSDKMessages(t *testing.T) {
	out := toSDKMessages([]Message{
		{Role: "user", Content: "summarize revenue trend"},
		{Role: "assistant", Content: "revenue grew each quarter"},
		{Role: "", Content: "defaults to user"},
	})

	require.Len(t, out, 3)
	assert.Equal(t, sdk.MessageParamRoleUser, out[0].Role)
	assert.Equal(t, sdk.MessageParamRoleAssistant, out[1].Role)
	assert.Equal(t, sdk.MessageParamRoleUser, out[2].Role)
}

func TestFromSDKMessage_JoinsTextBlocks(t *testing.T) {
	msg := &sdk.Message{
		ID:    "msg_1",
		Model: "claude-sonnet-4-5-20250929",
		Content: []sdk.ContentBlockUnion{
			{Type: "text", Text: "part one. "},
			{Type: "tool_use"},
			{Type: "text", Text: "part two."},
		},
		StopReason: "end_turn",
	}
	msg.Usage.InputTokens = 120
	msg.Usage.OutputTokens = 45

	resp := fromSDKMessage(msg)
	assert.Equal(t, "msg_1", resp.ID)
	assert.Equal(t, "part one. part two.", resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, int64(120), resp.Usage.InputTokens)
	assert.Equal(t, int64(45), resp.Usage.OutputTokens)
}

func TestTokenUsage_EstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	assert.InDelta(t, 18.0, u.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.Zero(t, u.EstimateCost("unknown-model"))
}
