package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clinicbook/internal/console"
	"clinicbook/internal/dashboard"
	"clinicbook/internal/events"
	"clinicbook/internal/fakeapi"
	"clinicbook/pkg/client"
	"clinicbook/pkg/config"
	"clinicbook/pkg/kafka"

	"github.com/spf13/cobra"
)

const ServiceName = "clinic"

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic",
		Short: "Clinic scheduling client",
	}

	rootCmd.AddCommand(shellCmd())
	rootCmd.AddCommand(stubCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func shellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive scheduling shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiURL, _ := cmd.Flags().GetString("api")
			return runShell(apiURL)
		},
	}
	cmd.Flags().String("api", "", "collaborator base URL (overrides API_BASE_URL)")
	return cmd
}

func stubCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stub",
		Short: "Run the in-memory reference API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(ServiceName + "-stub")
			cfg.Log.Info("Starting reference API")
			application, _ := fakeapi.New(cfg)
			application.Run()
			return nil
		},
	}
}

func runShell(apiURL string) error {
	cfg := config.Load(ServiceName)
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	publisher, closePublisher := initPublisher(cfg)
	defer closePublisher()

	api := client.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	shell := dashboard.NewShell(api, publisher, dashboard.Options{
		DefaultDurationMinutes: cfg.DefaultDurationMinutes,
	}, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Shell started", "api", cfg.APIBaseURL)
	return console.New(shell, os.Stdout, cfg.RequestTimeout, cfg.Log).Run(ctx, os.Stdin)
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.EventsEnabled() {
		return events.Nop{}, func() {}
	}

	producer, err := kafka.NewProducer(kafka.DefaultProducerConfig(cfg))
	if err != nil {
		cfg.Log.Warn("Event publishing disabled", "error", err)
		return events.Nop{}, func() {}
	}
	publisher := events.NewKafkaPublisher(producer, cfg.Log)
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	}
}
