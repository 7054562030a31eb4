// Package mcpserver exposes the assessment pipelines as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/models"
)

const serverVersion = "1.0.0"

// Service is the subset of pipeline operations offered as tools
type Service interface {
	AssessToken(ctx context.Context, req models.AssessTokenRequest) (*models.AssessmentResult, error)
	InterpretTransaction(ctx context.Context, req models.InterpretRequest) (*models.InterpretationResult, error)
	WalletProfile(ctx context.Context, req models.WalletRequest) (*models.WalletProfile, error)
}

// Handlers implements the MCP tool handlers on top of a Service
type Handlers struct {
	service Service
}

// NewHandlers creates handlers for service
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

// NewMCPServer creates a configured MCP server with all tools registered
func NewMCPServer(service Service) *server.MCPServer {
	s := server.NewMCPServer("walletroast", serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	h := NewHandlers(service)

	s.AddTool(ToolRoastToken, h.HandleRoastToken)
	s.AddTool(ToolInterpretTransaction, h.HandleInterpretTransaction)
	s.AddTool(ToolCriminalRecord, h.HandleCriminalRecord)

	return s
}

// HandleRoastToken runs the token roast pipeline
func (h *Handlers) HandleRoastToken(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contract := req.GetString("contract_address", "")
	if contract == "" {
		return mcp.NewToolResultError("contract_address is required"), nil
	}

	result, err := h.service.AssessToken(ctx, models.AssessTokenRequest{
		ContractAddress: contract,
		FromAddress:     req.GetString("from_address", ""),
	})
	if err != nil {
		return toolError(ctx, "roast_token", err), nil
	}
	return jsonResult(result)
}

// HandleInterpretTransaction runs the transaction interpretation pipeline
func (h *Handlers) HandleInterpretTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from := req.GetString("from_address", "")
	if from == "" {
		return mcp.NewToolResultError("from_address is required"), nil
	}
	to := req.GetString("to_address", "")
	if to == "" {
		return mcp.NewToolResultError("to_address is required"), nil
	}

	result, err := h.service.InterpretTransaction(ctx, models.InterpretRequest{
		FromAddress: from,
		ToAddress:   to,
		Value:       req.GetString("value", ""),
		Data:        req.GetString("data", ""),
	})
	if err != nil {
		return toolError(ctx, "interpret_transaction", err), nil
	}
	return jsonResult(result)
}

// HandleCriminalRecord runs the wallet record pipeline
func (h *Handlers) HandleCriminalRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	wallet := req.GetString("wallet_address", "")
	if wallet == "" {
		return mcp.NewToolResultError("wallet_address is required"), nil
	}

	profile, err := h.service.WalletProfile(ctx, models.WalletRequest{WalletAddress: wallet})
	if err != nil {
		return toolError(ctx, "criminal_record", err), nil
	}
	return jsonResult(profile)
}

// toolError reports a pipeline failure as a tool error carrying its kind.
// Internal details stay in the logs.
func toolError(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	logging.L(ctx).Warn().Err(err).Str("tool", tool).Msg("tool call failed")

	kind := models.KindOf(err)
	message := "internal error"
	var pipelineErr *models.Error
	if errors.As(err, &pipelineErr) && kind != models.KindInternal {
		message = pipelineErr.Message
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", kind, message))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
