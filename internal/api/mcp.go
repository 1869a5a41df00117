package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates an MCP server exposing the tutor over stdio, so
// other agent frontends can drive the same workspaces the REST API does.
func NewMCPServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"lango",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("lango — local language-tutor orchestrator with per-language workspaces and spaced-repetition tracking."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("bootstrap_language",
			mcp.WithDescription("Set up a new language workspace with tutor instructions and empty study files."),
			mcp.WithString("language", mcp.Description("Language name, e.g. \"korean\""), mcp.Required()),
		),
		mcpBootstrapLanguage(deps),
	)

	s.AddTool(
		mcp.NewTool("send_message",
			mcp.WithDescription("Send a chat message to the tutor for a language and return its reply. Study files are updated in the background."),
			mcp.WithString("language", mcp.Description("Language of the workspace to chat in"), mcp.Required()),
			mcp.WithString("message", mcp.Description("The message to send"), mcp.Required()),
		),
		mcpSendMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("get_vocabulary",
			mcp.WithDescription("Return the vocabulary study file for a language as JSON."),
			mcp.WithString("language", mcp.Description("Language of the workspace"), mcp.Required()),
		),
		mcpArtifact(deps, "vocabulary"),
	)

	s.AddTool(
		mcp.NewTool("get_grammar",
			mcp.WithDescription("Return the grammar study file for a language as JSON."),
			mcp.WithString("language", mcp.Description("Language of the workspace"), mcp.Required()),
		),
		mcpArtifact(deps, "grammar"),
	)

	s.AddTool(
		mcp.NewTool("list_languages",
			mcp.WithDescription("List all bootstrapped language workspaces."),
		),
		mcpListLanguages(deps),
	)

	s.AddTool(
		mcp.NewTool("delete_language",
			mcp.WithDescription("Delete a language workspace and all its study files. This cannot be undone."),
			mcp.WithString("language", mcp.Description("Language of the workspace to delete"), mcp.Required()),
		),
		mcpDeleteLanguage(deps),
	)

	s.AddTool(
		mcp.NewTool("get_chat_history",
			mcp.WithDescription("Return the turns of the most recent tutor conversation for a language."),
			mcp.WithString("language", mcp.Description("Language of the workspace"), mcp.Required()),
		),
		mcpChatHistory(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"lango://languages",
			"Languages",
			mcp.WithResourceDescription("Bootstrapped language workspaces as a JSON list"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceLanguages(deps),
	)

	return s
}

func mcpBootstrapLanguage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		language, err := req.RequireString("language")
		if err != nil {
			return mcpError("language is required"), nil
		}

		ws, err := deps.Workspaces.Bootstrap(language)
		if err != nil {
			return mcpError(fmt.Sprintf("bootstrap failed: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Bootstrapped workspace for %s at %s", ws.Key, ws.Dir)), nil
	}
}

func mcpSendMessage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		language, err := req.RequireString("language")
		if err != nil {
			return mcpError("language is required"), nil
		}
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}

		reply, err := deps.Chat.SendMessage(ctx, language, message)
		if err != nil {
			return mcpError(fmt.Sprintf("chat failed: %v", err)), nil
		}

		return mcpText(reply), nil
	}
}

func mcpArtifact(deps Deps, kind string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		language, err := req.RequireString("language")
		if err != nil {
			return mcpError("language is required"), nil
		}

		var body string
		switch kind {
		case "vocabulary":
			body, err = deps.Workspaces.Vocabulary(language)
		case "grammar":
			body, err = deps.Workspaces.Grammar(language)
		}
		if err != nil {
			return mcpError(fmt.Sprintf("reading %s failed: %v", kind, err)), nil
		}

		return mcpText(body), nil
	}
}

func mcpListLanguages(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		languages, err := deps.Workspaces.List()
		if err != nil {
			return mcpError(fmt.Sprintf("listing failed: %v", err)), nil
		}

		b, err := json.Marshal(languages)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal languages: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpDeleteLanguage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		language, err := req.RequireString("language")
		if err != nil {
			return mcpError("language is required"), nil
		}

		if err := deps.Workspaces.Delete(language); err != nil {
			return mcpError(fmt.Sprintf("delete failed: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Deleted workspace for %s", language)), nil
	}
}

func mcpChatHistory(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		language, err := req.RequireString("language")
		if err != nil {
			return mcpError("language is required"), nil
		}

		ws, err := deps.Workspaces.Resolve(language)
		if err != nil {
			return mcpError(fmt.Sprintf("resolving %s failed: %v", language, err)), nil
		}
		if !ws.Exists() {
			return mcpError(fmt.Sprintf("language %q is not set up", language)), nil
		}

		turns, err := deps.Transcripts.ReadLatest(ws.Dir)
		if err != nil {
			return mcpError(fmt.Sprintf("reading history failed: %v", err)), nil
		}

		b, err := json.Marshal(turns)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal history: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceLanguages(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		languages, err := deps.Workspaces.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list languages: %w", err)
		}

		b, err := json.Marshal(languages)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal languages: %w", err)
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
