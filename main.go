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

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/justmike1/alpaca/commands"
	"github.com/justmike1/alpaca/config"
	"github.com/justmike1/alpaca/github"
	"github.com/justmike1/alpaca/prompts"
	"github.com/justmike1/alpaca/server"
	alpacaslack "github.com/justmike1/alpaca/slack"
	"github.com/justmike1/alpaca/tasks"
)

const shutdownTimeout = 30 * time.Second

func main() {
	root := &cobra.Command{
		Use:          "alpaca",
		Short:        "Slack mention bot backed by a chat completion API",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the greeting and Slack mention webhooks",
		RunE:  runServe,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}

	if err := prompts.Load(cfg.PromptsFile); err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	slackClient := alpacaslack.NewClient(cfg.SlackUserToken, cfg.SlackWebhookURL)
	modelsClient := github.NewModelsClient(cfg.CompletionURL, cfg.CompletionKey, cfg.Model, cfg.Temperature)

	if cfg.EnableActions && !cfg.GitHubConfigured() {
		log.Warn("deployment actions enabled without GITHUB_TOKEN, GITHUB_OWNER and GITHUB_REPO; they will fail")
	}
	ghClient := github.NewClient(cfg.GitHubToken, github.DeploymentTarget{
		Owner:      cfg.GitHubOwner,
		Repo:       cfg.GitHubRepo,
		HeadBranch: cfg.DeployHeadBranch,
		BaseBranch: cfg.DeployBaseBranch,
		Title:      cfg.DeployPRTitle,
	})

	processor := commands.NewProcessor(slackClient, modelsClient, ghClient, prompts.Provider{}, commands.ProcessorOptions{
		EnableActions: cfg.EnableActions,
		ThreadTarget:  cfg.ReplyThreadTarget,
	})

	runner := tasks.NewRunner()
	handler := alpacaslack.NewHandler(runner, processor.Process)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("alpaca server starting on :%s (model: %s)", cfg.Port, cfg.Model)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}

	log.Info("waiting for in-flight mentions")
	runner.Wait()
	return nil
}

func setupLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}
