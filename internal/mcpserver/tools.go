package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the walletroast MCP server.
// Descriptions are what the calling model reads to pick a tool.

var ToolRoastToken = mcp.NewTool("roast_token",
	mcp.WithDescription(
		"Assess an ERC-20 token contract for scam risk. "+
			"Returns a deterministic verdict (SAFE, RISKY or SCAM), a 0-100 risk score, "+
			"the raw security facts and a short roast grounded in those facts."),
	mcp.WithString("contract_address",
		mcp.Required(),
		mcp.Description("The token contract address (e.g. '0x6982508145454ce325ddbe47a25d4ec3d2311933')")),
	mcp.WithString("from_address",
		mcp.Description("Optional wallet address used to simulate interacting with the contract")),
)

var ToolInterpretTransaction = mcp.NewTool("interpret_transaction",
	mcp.WithDescription(
		"Explain what an unsigned transaction will do before it is signed. "+
			"Simulates the asset changes, checks the destination contract and returns a "+
			"LOW, MEDIUM or HIGH risk level with warnings."),
	mcp.WithString("from_address",
		mcp.Required(),
		mcp.Description("The sender address")),
	mcp.WithString("to_address",
		mcp.Required(),
		mcp.Description("The destination address or contract")),
	mcp.WithString("value",
		mcp.Description("Native value in wei, as a decimal string or 0x-prefixed hex")),
	mcp.WithString("data",
		mcp.Description("0x-prefixed calldata, omit for a plain transfer")),
)

var ToolCriminalRecord = mcp.NewTool("criminal_record",
	mcp.WithDescription(
		"Build a wallet's 'criminal record' from the tokens it holds. "+
			"Scans up to a fixed number of non-zero holdings and returns per-token verdicts, "+
			"aggregate stats, a degen level and a themed rap sheet."),
	mcp.WithString("wallet_address",
		mcp.Required(),
		mcp.Description("The wallet address to investigate")),
)
