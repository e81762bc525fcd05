package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/a3tai/mcq-extractor/internal/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the extractor as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	queue, err := a.openReviewQueue()
	if err != nil {
		return err
	}
	defer queue.Close()

	server, err := mcp.NewServer(a.cfg, mcp.Backend{
		Source: a.extractor(),
		Text:   a.reader(),
		Bank:   a.bank,
		Review: queue,
	}, a.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("serving MCP over stdio", "data_root", a.cfg.DataRoot)
	return server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
