package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"intake-assistant/internal/config"
	"intake-assistant/internal/core"
	httpserver "intake-assistant/internal/http"
	"intake-assistant/internal/llm"
	"intake-assistant/internal/metrics"
	"intake-assistant/internal/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Twilio webhook and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting server", "port", cfg.Port, "db_driver", cfg.DB.Driver, "model", cfg.LLM.Model)
	logger.Info("Credentials",
		"groq_api_key_set", cfg.LLM.APIKey != "",
		"openai_api_key_set", cfg.Summary.APIKey != "",
		"database_url_set", cfg.DB.URL != "",
	)

	st, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close(logger)

	catalog := core.DefaultCatalog()
	sessions := session.NewStore(st.profiles, logger)
	m := metrics.New(sessions.Len)

	engine := core.NewEngine(sessions, st.profiles, newChatClient(cfg), catalog, m, logger, core.Options{
		ResetCommand: cfg.Commands.Reset,
		StopCommand:  cfg.Commands.Stop,
	})
	summarizer := core.NewSummarizer(st.profiles, newSummaryClient(cfg))

	resetCmd, stopCmd := engine.Commands()
	handler, err := httpserver.NewServer(engine, summarizer, m.Handler(), httpserver.IndexData{
		Languages:    catalog.Languages(),
		ResetCommand: resetCmd,
		StopCommand:  stopCmd,
	}, logger)
	if err != nil {
		return fmt.Errorf("construct server: %w", err)
	}

	// Writes wait on the completion call, so they outlive LLM_TIMEOUT.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.LLM.Timeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped successfully")
	return nil
}

func newChatClient(c *config.Config) *llm.OpenAIClient {
	return llm.NewOpenAIClient(llm.Options{
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     c.LLM.Timeout,
	})
}

func newSummaryClient(c *config.Config) *llm.OpenAIClient {
	return llm.NewOpenAIClient(llm.Options{
		APIKey:      c.Summary.APIKey,
		BaseURL:     c.Summary.BaseURL,
		Model:       c.Summary.Model,
		Temperature: c.Summary.Temperature,
		MaxTokens:   c.Summary.MaxTokens,
		Timeout:     c.Summary.Timeout,
	})
}
