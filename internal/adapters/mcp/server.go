// Package mcpadapter exposes pack health scoring as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/core/ports"
)

const (
	serverName = "packhealth"

	toolEvaluate = "evaluate_pack_health"
	toolPreview  = "preview_pack_health"
)

type Server struct {
	evaluator ports.PackHealthEvaluator
	mcp       *server.MCPServer
}

func NewServer(evaluator ports.PackHealthEvaluator, version string) *Server {
	s := &Server{
		evaluator: evaluator,
		mcp:       server.NewMCPServer(serverName, version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool(toolEvaluate,
		mcp.WithDescription("Score a stored proof pack, persist the snapshot and return gaps with ranked remediation actions."),
		mcp.WithString("profile_id", mcp.Required(), mcp.Description("Profile that owns the proof pack.")),
		mcp.WithString("as_of", mcp.Description("Optional RFC 3339 timestamp or YYYY-MM-DD date to score against.")),
	), s.evaluate)

	s.mcp.AddTool(mcp.NewTool(toolPreview,
		mcp.WithDescription("Score a list of documents without storing anything."),
		mcp.WithString("documents", mcp.Required(), mcp.Description("JSON array of documents: id, file_name, category, uploaded_at, expiration_date, metadata.")),
		mcp.WithString("gaps", mcp.Description("Optional JSON array of gaps with statuses. Omit to derive gaps from the documents.")),
		mcp.WithString("as_of", mcp.Description("Optional RFC 3339 timestamp or YYYY-MM-DD date to score against.")),
	), s.preview)

	return s
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) evaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	profileID, err := req.RequireString("profile_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	asOf, err := parseAsOf(req.GetString("as_of", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.evaluator.Evaluate(ctx, profileID, asOf)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluate pack health: %v", err)), nil
	}
	return jsonResult(report)
}

func (s *Server) preview(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawDocs, err := req.RequireString("documents")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var docs []domain.Document
	if err := json.Unmarshal([]byte(rawDocs), &docs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("documents must be a JSON array: %v", err)), nil
	}

	var gaps []domain.GapItem
	if rawGaps := strings.TrimSpace(req.GetString("gaps", "")); rawGaps != "" {
		if err := json.Unmarshal([]byte(rawGaps), &gaps); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("gaps must be a JSON array: %v", err)), nil
		}
		if gaps == nil {
			gaps = []domain.GapItem{}
		}
	}

	asOf, err := parseAsOf(req.GetString("as_of", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.evaluator.Preview(docs, gaps, asOf)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("preview pack health: %v", err)), nil
	}
	return jsonResult(report)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func parseAsOf(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	var asOf time.Time
	if err := runtime.BindStringToObject(raw, &asOf); err != nil {
		return time.Time{}, fmt.Errorf("as_of must be RFC 3339 or YYYY-MM-DD: %w", err)
	}
	return asOf.UTC(), nil
}
