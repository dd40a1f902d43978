package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/banglabot/internal/pipeline"
)

const (
	defaultContextLimit  = 6
	historyResourceLimit = 50
)

// NewMCPServer creates an MCP server exposing the bot as tools and resources.
func NewMCPServer(deps Deps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"banglabot",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("banglabot: a Bangla chatbot. Classify utterances against its intent catalog or hold a conversation with it."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("classify_intent",
			mcp.WithDescription("Classify an utterance against the intent catalog without recording it."),
			mcp.WithString("text", mcp.Description("Utterance to classify"), mcp.Required()),
		),
		mcpClassifyIntent(deps),
	)

	s.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Send a message to the bot and return its reply. The turn is recorded in the conversation history."),
			mcp.WithString("text", mcp.Description("Message text"), mcp.Required()),
		),
		mcpSendMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("recent_context",
			mcp.WithDescription("Return the most recent conversation turns as \"role: text\" lines."),
			mcp.WithNumber("limit", mcp.Description("Number of turns (default 6)")),
		),
		mcpRecentContext(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"chat://intents",
			"Intent Catalog",
			mcp.WithResourceDescription("Intent tags with pattern and response counts"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceIntents(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"chat://history",
			"Conversation History",
			mcp.WithResourceDescription("Last 50 conversation turns"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

type classifyResult struct {
	Tag     string `json:"tag,omitempty"`
	Score   int    `json:"score"`
	Matched bool   `json:"matched"`
}

func mcpClassifyIntent(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		c := deps.Responder.Classifier()
		m := c.Score(text)
		res := classifyResult{Score: m.Score, Matched: m.Score >= c.MinScore()}
		if res.Matched {
			res.Tag = m.Tag
		}

		b, err := json.Marshal(res)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSendMessage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}

		reply, err := deps.Responder.Respond(ctx, text)
		if err != nil {
			if errors.Is(err, pipeline.ErrFallback) {
				return mcpError(fmt.Sprintf("the bot could not answer: %v", err)), nil
			}
			return mcpError(fmt.Sprintf("respond failed: %v", err)), nil
		}
		return mcpText(reply.Text), nil
	}
}

func mcpRecentContext(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit := req.GetInt("limit", defaultContextLimit)
		text := deps.Responder.History().RecentContext(limit)
		if text == "" {
			return mcpText("No conversation yet."), nil
		}
		return mcpText(text), nil
	}
}

func mcpResourceIntents(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(summarizeIntents(deps.Catalog))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal intents: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceHistory(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Responder.History().Recent(historyResourceLimit))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal history: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
