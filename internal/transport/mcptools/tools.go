// Package mcptools exposes the structured data tester as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/internal/render"
	"github.com/leofalp/sdtt/pkg/sdtt"
	"github.com/leofalp/sdtt/providers/observability"
)

// Tool names.
const (
	ToolTest        = "structured_data_test"
	ToolListPresets = "list_presets"
	ToolListSchemas = "list_schemas"
)

// endpoint handles one decoded tool call.
type endpoint func(ctx context.Context, req json.RawMessage) (any, error)

// Tools binds the tool handlers to a client.
type Tools struct {
	client   *sdtt.Client
	observer observability.Provider
}

// New creates the tool set. obs may be nil.
func New(client *sdtt.Client, obs observability.Provider) *Tools {
	return &Tools{client: client, observer: observability.OrNop(obs)}
}

// NewServer returns an MCP server with every tool registered.
func (t *Tools) NewServer(version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "sdtt", Version: version}, nil)
	t.Register(srv)
	return srv
}

// ServeStdio runs srv over stdin and stdout until ctx is done or the client
// disconnects.
func ServeStdio(ctx context.Context, srv *mcp.Server) error {
	return srv.Run(ctx, &mcp.StdioTransport{})
}

// Register adds the tools to srv.
func (t *Tools) Register(srv *mcp.Server) {
	register(srv, &mcp.Tool{
		Name: ToolTest,
		Description: "Fetch a web page (or take inline HTML), extract its structured data " +
			"(JSON-LD, microdata, RDFa, Open Graph, Twitter cards, meta tags) and check it " +
			"against presets and schemas. Returns the full report; passed is false when a required field is missing or invalid.",
		InputSchema: inputSchema(map[string]any{
			"url":      map[string]any{"type": "string", "description": "Page to test; https:// is assumed when no scheme is given"},
			"html":     map[string]any{"type": "string", "description": "Inline HTML to test instead of a URL"},
			"base_url": map[string]any{"type": "string", "description": "Base URL for relative links in inline HTML"},
			"presets":  stringList("Preset names, e.g. SocialMedia"),
			"schemas":  stringList("Schema tokens, e.g. jsonld:Article or og:Basic"),
			"select":   stringList("Mixed preset and schema tokens; a bare name is a schema when one exists, otherwise a preset"),
			"render":   map[string]any{"type": "boolean", "description": "Render the page in headless Chrome before extraction"},
			"include_text": map[string]any{
				"type":        "boolean",
				"description": "Also return the page content as Markdown",
			},
		}, nil),
	}, t.test)

	register(srv, &mcp.Tool{
		Name:        ToolListPresets,
		Description: "List the available presets and the schemas each one expands to.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(context.Context, json.RawMessage) (any, error) {
		if reg := t.client.Presets(); reg != nil {
			return map[string]any{"presets": render.PresetEntries(reg)}, nil
		}
		return map[string]any{"presets": []render.PresetEntry{}}, nil
	})

	register(srv, &mcp.Tool{
		Name:        ToolListSchemas,
		Description: "List the available schemas with their required and optional fields.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}, func(context.Context, json.RawMessage) (any, error) {
		return map[string]any{"schemas": render.SchemaEntries(t.client.Schemas())}, nil
	})
}

type testArgs struct {
	URL     string   `json:"url"`
	HTML    string   `json:"html"`
	BaseURL string   `json:"base_url"`
	Presets []string `json:"presets"`
	Schemas []string `json:"schemas"`
	Select  []string `json:"select"`
	Render  bool     `json:"render"`
	// IncludeText adds the page converted to Markdown.
	IncludeText bool `json:"include_text"`
}

// TestResult is the payload of a structured_data_test call.
type TestResult struct {
	RunID  string         `json:"run_id"`
	Passed bool           `json:"passed"`
	Report *report.Report `json:"report"`
	Text   string         `json:"text,omitempty"`
}

func (t *Tools) test(ctx context.Context, raw json.RawMessage) (any, error) {
	var args testArgs
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
	}

	runID := uuid.NewString()

	req := sdtt.Request{
		URL:     args.URL,
		HTML:    args.HTML,
		BaseURL: args.BaseURL,
		Presets: args.Presets,
		Schemas: args.Schemas,
		Select:  args.Select,
		Render:  args.Render,
	}
	if !args.IncludeText {
		rep, err := t.client.Test(ctx, req)
		return t.result(ctx, runID, rep, err, "")
	}

	// Selections are checked before the page is loaded.
	if _, err := t.client.SelectionsFor(req); err != nil {
		return t.result(ctx, runID, nil, err, "")
	}
	doc, err := t.client.Load(ctx, req)
	if err != nil {
		return t.result(ctx, runID, nil, err, "")
	}
	text, err := doc.Markdown()
	if err != nil {
		t.observer.Warn(ctx, "markdown conversion failed",
			observability.String(observability.AttrRunID, runID), observability.Error(err))
	}
	rep, err := t.client.TestDocument(ctx, req, doc)
	return t.result(ctx, runID, rep, err, text)
}

func (t *Tools) result(ctx context.Context, runID string, rep *report.Report, err error, text string) (any, error) {
	attrs := []observability.Attribute{observability.String(observability.AttrRunID, runID)}
	var failed *report.ValidationFailedError
	if err != nil && !errors.As(err, &failed) {
		t.observer.Warn(ctx, "mcp test error", append(attrs, observability.Error(err))...)
		return nil, err
	}
	t.observer.Info(ctx, "mcp test done", append(attrs, observability.Bool(observability.AttrRunPassed, err == nil))...)
	return TestResult{RunID: runID, Passed: err == nil, Report: rep, Text: text}, nil
}

func register(srv *mcp.Server, tool *mcp.Tool, handle endpoint) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := handle(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func stringList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": description,
	}
}
