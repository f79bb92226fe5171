package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flarexio/pointgate"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MethodNotFound answers a request for a method no endpoint serves.
func MethodNotFound(id mcp.RequestId) mcp.JSONRPCError {
	return ErrorResponse(id, mcp.METHOD_NOT_FOUND, "method not found")
}

func ErrorResponse(id mcp.RequestId, code int, message string) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data,omitempty"`
		}{
			Code:    code,
			Message: message,
		},
	}
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

const MCPSERVER_INSTRUCTIONS string = `pointgate exposes a vector database of items and chat messages.

Available tools:
- search: semantic search over stored messages, optionally filtered by exact payload values
- group_search: the same search, returning the best hit per distinct value of a payload key
- get_item: fetch one item by id
- next_id: allocate the next sequence number`

const (
	ToolSearch      = "search"
	ToolGroupSearch = "group_search"
	ToolGetItem     = "get_item"
	ToolNextID      = "next_id"
)

var ErrToolNotFound = errors.New("tool not found")

func Tools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(ToolSearch,
			mcp.WithDescription("Semantic search over stored points. Returns at most 7 hits with their m and u fields."),
			mcp.WithString("q", mcp.Required(), mcp.Description("Free-text query")),
			mcp.WithObject("f", mcp.Description("Payload field to exact value filters")),
		),
		mcp.NewTool(ToolGroupSearch,
			mcp.WithDescription("Semantic search grouped by a payload key, one hit per group."),
			mcp.WithString("k", mcp.Required(), mcp.Description("Payload key to group by")),
			mcp.WithString("q", mcp.Required(), mcp.Description("Free-text query")),
			mcp.WithObject("f", mcp.Description("Payload field to exact value filters")),
		),
		mcp.NewTool(ToolGetItem,
			mcp.WithDescription("Fetch an item by id. Private items are only returned to their owner."),
			mcp.WithString("i", mcp.Required(), mcp.Description("Item id")),
			mcp.WithString("u", mcp.Description("Caller's user id")),
			mcp.WithString("c", mcp.Description("Category hint")),
		),
		mcp.NewTool(ToolNextID,
			mcp.WithDescription("Allocate the next sequence number."),
		),
	}
}

func InitializeEndpoint(svc pointgate.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "pointgate",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc pointgate.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{},
		}
	}
}

func ListToolsEndpoint(svc pointgate.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result: &mcp.ListToolsResult{
				Tools: Tools(),
			},
		}
	}
}

func CallToolEndpoint(svc pointgate.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		args, err := json.Marshal(params.Arguments)
		if err != nil {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		text, err := callTool(ctx, svc, params.Name, args)
		if errors.Is(err, ErrToolNotFound) {
			return ErrorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		var result *mcp.CallToolResult
		if err != nil {
			result = mcp.NewToolResultError(err.Error())
		} else {
			result = mcp.NewToolResultText(text)
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func callTool(ctx context.Context, svc pointgate.Service, name string, args []byte) (string, error) {
	switch name {
	case ToolSearch:
		var req pointgate.SearchRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return "", err
		}

		raw, err := svc.Search(ctx, req)
		return string(raw), err

	case ToolGroupSearch:
		var req pointgate.GroupSearchRequest
		if err := json.Unmarshal(args, &req); err != nil {
			return "", err
		}

		raw, err := svc.GroupSearch(ctx, req)
		return string(raw), err

	case ToolGetItem:
		var query pointgate.ItemQuery
		if err := json.Unmarshal(args, &query); err != nil {
			return "", err
		}

		item, err := svc.GetItem(ctx, query)
		if err != nil {
			return "", err
		}

		bs, err := json.Marshal(item)
		return string(bs), err

	case ToolNextID:
		id, err := svc.NextID(ctx)
		return strconv.FormatInt(id, 10), err

	default:
		return "", ErrToolNotFound
	}
}
