package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/walletroast/walletroast/internal/agent"
	"github.com/walletroast/walletroast/internal/api"
	"github.com/walletroast/walletroast/internal/config"
	"github.com/walletroast/walletroast/internal/logging"
	"github.com/walletroast/walletroast/internal/mcpserver"
	"github.com/walletroast/walletroast/internal/models"
	"github.com/walletroast/walletroast/internal/tracing"
)

const (
	serviceName     = "walletroast"
	version         = "1.0.0"
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          serviceName,
		Short:        "Token, transaction and wallet risk assessment",
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMCPCmd(),
		newRoastCmd(),
		newInterpretCmd(),
		newRecordCmd(),
	)
	return root
}

// runtime bundles what every command needs
type runtime struct {
	cfg    *config.Config
	logger zerolog.Logger
	agent  *agent.Agent
	ctx    context.Context
	close  func()
}

func setup(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx = logger.WithContext(ctx)

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	walletAgent, err := agent.NewAgent(ctx, cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("failed to initialize agent: %w", err)
	}

	if !walletAgent.SimulationEnabled() {
		logger.Warn().Msg("ALCHEMY_API_KEY not set: simulations and wallet records are unavailable")
	}

	return &runtime{
		cfg:    cfg,
		logger: logger,
		agent:  walletAgent,
		ctx:    ctx,
		close: func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn().Err(err).Msg("failed to flush traces")
			}
		},
	}, nil
}

func newServeCmd() *cobra.Command {
	var httpAddr, mcpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when configured, the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			if httpAddr == "" {
				httpAddr = rt.cfg.HTTPAddr
			}
			if mcpAddr == "" {
				mcpAddr = rt.cfg.MCPAddr
			}
			return runServers(rt, httpAddr, mcpAddr)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP server address (default from HTTP_ADDR)")
	cmd.Flags().StringVar(&mcpAddr, "mcp-addr", "", "MCP server address, empty disables it (default from MCP_ADDR)")
	return cmd
}

func runServers(rt *runtime, httpAddr, mcpAddr string) error {
	errChan := make(chan error, 2)

	httpServer := api.NewServer(httpAddr, rt.agent, rt.logger)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var mcpServer *server.StreamableHTTPServer
	if mcpAddr != "" {
		mcpServer = server.NewStreamableHTTPServer(mcpserver.NewMCPServer(rt.agent))
		go func() {
			rt.logger.Info().Str("address", mcpAddr).Msg("starting MCP server")
			if err := mcpServer.Start(mcpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("MCP server error: %w", err)
			}
		}()
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChan)

	var runErr error
	select {
	case sig := <-signalChan:
		rt.logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case runErr = <-errChan:
		rt.logger.Error().Err(runErr).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		rt.logger.Error().Err(err).Msg("failed to stop HTTP server")
	}
	if mcpServer != nil {
		if err := mcpServer.Shutdown(shutdownCtx); err != nil {
			rt.logger.Error().Err(err).Msg("failed to stop MCP server")
		}
	}

	rt.logger.Info().Msg("shutdown completed")
	return runErr
}

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			return server.ServeStdio(mcpserver.NewMCPServer(rt.agent))
		},
	}
}

func newRoastCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "roast <contract-address>",
		Short: "Roast a token contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.agent.AssessToken(rt.ctx, models.AssessTokenRequest{
				ContractAddress: args[0],
				FromAddress:     from,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "wallet address to simulate interacting with the contract")
	return cmd
}

func newInterpretCmd() *cobra.Command {
	var req models.InterpretRequest

	cmd := &cobra.Command{
		Use:   "interpret",
		Short: "Explain an unsigned transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			result, err := rt.agent.InterpretTransaction(rt.ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&req.FromAddress, "from", "", "sender address")
	cmd.Flags().StringVar(&req.ToAddress, "to", "", "destination address")
	cmd.Flags().StringVar(&req.Value, "value", "", "value in wei, decimal or 0x hex")
	cmd.Flags().StringVar(&req.Data, "data", "", "0x-prefixed calldata")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newRecordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "record <wallet-address>",
		Short: "Build the criminal record of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.close()

			profile, err := rt.agent.WalletProfile(rt.ctx, models.WalletRequest{WalletAddress: args[0]})
			if err != nil {
				return err
			}
			return printJSON(cmd, profile)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
