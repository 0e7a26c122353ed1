package remote

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/theopenlane/mcpscout/internal/fetcher"
	"github.com/theopenlane/mcpscout/internal/types"
)

const (
	jsonrpcVersion = "2.0"
	acceptHeader   = "application/json, text/event-stream"
	eventStream    = "text/event-stream"
)

// authErrorCodes are JSON-RPC error codes treated as an authentication refusal
var authErrorCodes = []int{http.StatusUnauthorized, http.StatusForbidden, -32001}

type rpcReq struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      int            `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcResp struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   json.RawMessage `json:"error"`
}

type rpcErrObj struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

// reply is the outcome of one JSON-RPC call
type reply struct {
	Status int
	Result json.RawMessage
	Err    *types.RPCError
}

// ok reports whether the call returned HTTP 200 with a usable result
func (r reply) ok() bool {
	return r.Status == http.StatusOK && len(r.Result) > 0 && !bytes.Equal(r.Result, []byte("null"))
}

// authRefused reports whether the endpoint demanded credentials
func (r reply) authRefused() bool {
	if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden {
		return true
	}

	if r.Status == http.StatusOK && r.Err != nil && r.Err.Code != nil {
		return lo.Contains(authErrorCodes, *r.Err.Code)
	}

	return false
}

// call posts one JSON-RPC request and decodes the response, capping the body read
func (p *Prober) call(ctx context.Context, endpoint, method string, id int) reply {
	body, err := json.Marshal(rpcReq{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Method:  method,
		Params:  map[string]any{},
	})
	if err != nil {
		return reply{Err: &types.RPCError{Message: err.Error()}}
	}

	ctx, cancel := context.WithTimeout(ctx, p.options.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return reply{Err: &types.RPCError{Message: "invalid endpoint"}}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", p.options.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return reply{Err: &types.RPCError{Message: fetcher.ErrorKind(err)}}
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, int64(p.options.MaxBodyBytes)))
	if err != nil {
		return reply{Status: resp.StatusCode, Err: &types.RPCError{Message: fetcher.ErrorKind(err)}}
	}

	return decodeReply(resp.StatusCode, resp.Header.Get("Content-Type"), raw)
}

// decodeReply interprets a response body as a JSON-RPC response object
func decodeReply(status int, contentType string, raw []byte) reply {
	out := reply{Status: status}

	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == eventStream {
		raw = firstEventData(raw)
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		out.Err = &types.RPCError{Message: ErrNonJSONResponse.Error()}
		return out
	}

	if _, isObject := payload.(map[string]any); !isObject {
		out.Err = &types.RPCError{Message: ErrUnexpectedPayload.Error()}
		return out
	}

	var resp rpcResp
	if err := json.Unmarshal(raw, &resp); err != nil {
		out.Err = &types.RPCError{Message: ErrUnexpectedPayload.Error()}
		return out
	}

	if len(resp.Error) > 0 && !bytes.Equal(resp.Error, []byte("null")) {
		var eo rpcErrObj
		if err := json.Unmarshal(resp.Error, &eo); err != nil {
			// non-object error members are kept as their raw text
			out.Err = &types.RPCError{Message: strings.Trim(string(resp.Error), `"`)}
		} else {
			out.Err = &types.RPCError{Code: eo.Code, Message: eo.Message}
		}

		return out
	}

	out.Result = resp.Result

	return out
}

// firstEventData returns the payload of the first data event in an SSE body
func firstEventData(raw []byte) []byte {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 0, len(raw)+1), len(raw)+1)

	var data []byte

	for sc.Scan() {
		line := sc.Bytes()

		switch {
		case bytes.HasPrefix(line, []byte("data:")):
			data = append(data, bytes.TrimSpace(line[len("data:"):])...)
		case len(line) == 0 && len(data) > 0:
			return data
		}
	}

	return data
}

// listLen returns the length of an array member of a result object
func listLen(result json.RawMessage, key string) (int, bool) {
	items, ok := listMember(result, key)
	if !ok {
		return 0, false
	}

	return len(items), true
}

// listMember decodes an array member of a result object
func listMember(result json.RawMessage, key string) ([]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(result, &obj); err != nil {
		return nil, false
	}

	raw, ok := obj[key]
	if !ok {
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, false
	}

	return items, true
}

// toolNames returns tool names from entries that are either a bare string or
// an object with a string name, skipping anything else
func toolNames(tools []json.RawMessage) []string {
	return lo.FilterMap(tools, func(raw json.RawMessage, _ int) (string, bool) {
		if name, ok := asString(raw); ok {
			return name, true
		}

		var tool struct {
			Name json.RawMessage `json:"name"`
		}

		if err := json.Unmarshal(raw, &tool); err != nil {
			return "", false
		}

		return asString(tool.Name)
	})
}
