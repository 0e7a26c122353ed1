package remote

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantResult  bool
		wantCode    *int
		wantMessage string
	}{
		{
			name:       "result",
			status:     200,
			body:       `{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`,
			wantResult: true,
		},
		{
			name:        "error object",
			status:      200,
			body:        `{"jsonrpc":"2.0","id":1,"error":{"code":-32001,"message":"auth required"}}`,
			wantCode:    intPtr(-32001),
			wantMessage: "auth required",
		},
		{
			name:        "non object error",
			status:      200,
			body:        `{"jsonrpc":"2.0","id":1,"error":"nope"}`,
			wantMessage: "nope",
		},
		{
			name:        "html body",
			status:      403,
			body:        `<html>forbidden</html>`,
			wantMessage: "non-json response",
		},
		{
			name:        "array payload",
			status:      200,
			body:        `[1,2]`,
			wantMessage: "unexpected payload",
		},
		{
			name:        "event stream",
			status:      200,
			contentType: "text/event-stream; charset=utf-8",
			body:        "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":1,\"result\":{\"tools\":[]}}\n\n",
			wantResult:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := decodeReply(tt.status, tt.contentType, []byte(tt.body))

			assert.Equal(t, tt.status, r.Status)
			assert.Equal(t, tt.wantResult, r.ok())

			if tt.wantMessage == "" {
				assert.Nil(t, r.Err)
				return
			}

			require.NotNil(t, r.Err)
			assert.Equal(t, tt.wantMessage, r.Err.Message)
			assert.Equal(t, tt.wantCode, r.Err.Code)
		})
	}
}

func TestReplyAuthRefused(t *testing.T) {
	assert.True(t, reply{Status: 401}.authRefused())
	assert.True(t, reply{Status: 403}.authRefused())
	assert.True(t, decodeReply(200, "", []byte(`{"error":{"code":-32001,"message":"x"}}`)).authRefused())
	assert.True(t, decodeReply(200, "", []byte(`{"error":{"code":401,"message":"x"}}`)).authRefused())
	assert.False(t, decodeReply(200, "", []byte(`{"error":{"code":-32601,"message":"x"}}`)).authRefused())
	assert.False(t, reply{Status: 500}.authRefused())
}

func TestToolNames(t *testing.T) {
	var tools []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`[{"name":"file.write"},{"name":7},"bare",{"title":"x"},{"name":"list_items"}]`), &tools))

	assert.Equal(t, []string{"file.write", "bare", "list_items"}, toolNames(tools))
}

func intPtr(n int) *int { return &n }
