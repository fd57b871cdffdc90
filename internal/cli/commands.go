package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sagealpha/sagecli/internal/api"
	"github.com/sagealpha/sagecli/internal/clientid"
	"github.com/sagealpha/sagecli/internal/config"
	"github.com/sagealpha/sagecli/internal/display"
	"github.com/sagealpha/sagecli/internal/markdown"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	// Initialize configuration early
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "sagealpha",
		Short: "SageAlpha - AI-Powered Equity Research Assistant",
		Long: `SageAlpha is an AI-powered equity research assistant. Chat about listed
companies, generate downloadable research reports and pull structured market
intelligence for any ticker.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if assistant, _ := cmd.Flags().GetString("assistant"); assistant != "" {
				cfg.Assistant = assistant
			}
			if !api.Assistant(cfg.Assistant).Valid() {
				return fmt.Errorf("unknown assistant %q (choose sagealpha, compliance, defender or chatter)", cfg.Assistant)
			}
			// Ensure directories exist
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("failed to create directories: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: start interactive mode
			return runInteractiveMode(cfg)
		},
	}

	// Add subcommands
	rootCmd.AddCommand(newChatCmd(cfg))
	rootCmd.AddCommand(newReportCmd(cfg))
	rootCmd.AddCommand(newShareCmd(cfg))
	rootCmd.AddCommand(newUsageCmd(cfg))
	rootCmd.AddCommand(newDownloadCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	// Global flags
	rootCmd.PersistentFlags().String("assistant", "", "Assistant persona (sagealpha, compliance, defender, chatter)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")

	return rootCmd
}

// newClient builds the backend client for the configured persona.
func newClient(cfg *config.Config) *api.Client {
	clientID := clientid.GetOrCreate(cfg.DataDir)
	return api.New(cfg.APIBaseURL, api.Assistant(cfg.Assistant), clientID, cfg.RequestTimeout)
}

// newChatCmd creates the one-shot chat command
func newChatCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [MESSAGE]",
		Short: "Send a single chat message and print the reply",
		Long: `Send one message to the assistant and print the rendered reply.
Example: sagealpha chat "What is the outlook for AAPL?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return fmt.Errorf("message is required")
			}
			sessionID, _ := cmd.Flags().GetString("session")

			client := newClient(cfg)
			res, err := client.Chat(context.Background(), message, sessionID)
			if err != nil {
				if errors.Is(err, api.ErrUsageLimitReached) {
					fmt.Println("⚠️  You've reached the free usage limit. Visit " + cfg.PlansURL() + " to upgrade.")
					return nil
				}
				return fmt.Errorf("chat failed: %w", err)
			}

			fmt.Println(display.RenderNodes(markdown.Render(res.Response)))
			if res.SessionID != "" {
				fmt.Printf("\n💬 Session: %s\n", res.SessionID)
			}
			return nil
		},
	}

	cmd.Flags().String("session", "", "Continue an existing session by id")

	return cmd
}

// newReportCmd creates the report command
func newReportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "report [TICKER]",
		Short: "Generate a research report for a ticker",
		Long: `Generate a downloadable equity research report for a ticker symbol.
Example: sagealpha report AAPL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker := strings.ToUpper(strings.TrimSpace(args[0]))
			if ticker == "" {
				return fmt.Errorf("ticker is required")
			}

			fmt.Printf("🚀 Generating report for %s...\n", ticker)

			client := newClient(cfg)
			res, err := client.CreateReport(context.Background(), ticker, "")
			if err != nil {
				if errors.Is(err, api.ErrUsageLimitReached) {
					fmt.Println("⚠️  You've reached the free usage limit. Visit " + cfg.PlansURL() + " to upgrade.")
					return nil
				}
				return fmt.Errorf("report generation failed: %w", err)
			}

			fmt.Println(display.RenderNodes(markdown.Render(res.Response)))

			ids := display.DownloadIDs(res.Response)
			for _, id := range ids {
				fmt.Printf("\n💡 Download with: sagealpha download %s\n", id)
			}
			return nil
		},
	}
}

// newShareCmd creates the share command
func newShareCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "share [SHARE_ID]",
		Short: "View a shared chat transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shareID := strings.TrimSpace(args[0])

			client := newClient(cfg)
			shared, err := client.SharedChat(context.Background(), shareID)
			if err != nil {
				switch {
				case errors.Is(err, api.ErrShareNotFound):
					fmt.Println("❌ Chat not found. This shared chat does not exist or the link is invalid.")
					return nil
				case errors.Is(err, api.ErrShareExpired):
					fmt.Println("⌛ This shared chat link has expired. Ask the owner to share it again.")
					return nil
				}
				return fmt.Errorf("failed to load shared chat: %w", err)
			}

			title := shared.Title
			if title == "" {
				title = "Shared Chat"
			}
			fmt.Printf("📎 %s\n", title)
			if shared.CreatedAt != "" {
				fmt.Printf("Shared on %s\n", shared.CreatedAt)
			}
			fmt.Println(strings.Repeat("─", 60))
			for _, msg := range shared.Messages {
				fmt.Println(display.RenderMessage(msg))
				fmt.Println()
			}
			return nil
		},
	}
}

// newUsageCmd creates the usage command
func newUsageCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show your metered usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cfg)
			status, err := client.UsageStatus(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch usage: %w", err)
			}

			fmt.Println("📊 SageAlpha Usage")
			fmt.Println("─────────────────────")
			fmt.Printf("Chat requests:    %d\n", status.Chat.UsageCount)
			fmt.Printf("Market requests:  %d\n", status.Market.UsageCount)
			fmt.Printf("\n💡 Upgrade at %s for unlimited access.\n", cfg.PlansURL())
			return nil
		},
	}
}

// newDownloadCmd creates the download command
func newDownloadCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [REPORT_ID]",
		Short: "Download a generated report as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reportID := strings.TrimSpace(args[0])
			sendEmail, _ := cmd.Flags().GetBool("email")

			client := newClient(cfg)

			fmt.Printf("⬇️  Downloading report %s...\n", reportID)
			path, err := client.DownloadReport(context.Background(), reportID, cfg.ReportsDir)
			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			fmt.Printf("✅ Saved to %s\n", path)

			if sendEmail {
				email, err := PromptForEmail()
				if err != nil {
					return err
				}
				if err := client.SendReportEmail(context.Background(), reportID, email); err != nil {
					return fmt.Errorf("failed to send report email: %w", err)
				}
				fmt.Printf("📧 Report sent to %s\n", email)
			}
			return nil
		},
	}

	cmd.Flags().Bool("email", false, "Also email the report to an address")

	return cmd
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("SageAlpha CLI v1.0.0")
			fmt.Println("AI-Powered Equity Research Assistant")
			fmt.Println("Built with ❤️  using Go")
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Manage SageAlpha configuration settings",
	}

	// config show subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			showConfig(cfg)
		},
	})

	// config validate subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateConfig(cfg)
		},
	})

	return configCmd
}

// showConfig displays the current configuration
func showConfig(cfg *config.Config) {
	fmt.Println("📋 Current SageAlpha Configuration:")
	fmt.Println("═══════════════════════════════════════")
	fmt.Printf("Backend URL:          %s\n", cfg.APIBaseURL)
	fmt.Printf("Assistant:            %s\n", cfg.Assistant)
	fmt.Println()
	fmt.Printf("Data Directory:       %s\n", cfg.DataDir)
	fmt.Printf("Reports Directory:    %s\n", cfg.ReportsDir)
	fmt.Println()
	fmt.Printf("Request Timeout:      %s\n", cfg.RequestTimeout)
	fmt.Printf("Debug Mode:           %t\n", cfg.Debug)
	fmt.Println()
	fmt.Printf("Client ID:            %s\n", clientid.GetOrCreate(cfg.DataDir))
}

// validateConfig validates the configuration and backend reachability
func validateConfig(cfg *config.Config) error {
	fmt.Println("🔍 Validating SageAlpha Configuration...")
	fmt.Println("═══════════════════════════════════════")

	// Check directories
	fmt.Print("📁 Checking directories... ")
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Println("❌")
		return fmt.Errorf("directory validation failed: %w", err)
	}
	fmt.Println("✅")

	// Check persona
	fmt.Print("🎭 Checking assistant persona... ")
	if !api.Assistant(cfg.Assistant).Valid() {
		fmt.Println("❌")
		return fmt.Errorf("unknown assistant %q", cfg.Assistant)
	}
	fmt.Println("✅")

	// Check backend reachability
	fmt.Print("🌐 Checking backend... ")
	client := newClient(cfg)
	if _, err := client.UsageStatus(context.Background()); err != nil {
		fmt.Println("⚠️")
		fmt.Printf("  ⚠️  Backend not reachable: %v\n", err)
	} else {
		fmt.Println("✅")
	}

	fmt.Println()
	fmt.Println("💡 Tips:")
	fmt.Println("  • Set SAGEALPHA_API_URL to point at a different backend")
	fmt.Println("  • Set SAGEALPHA_ASSISTANT to switch persona")
	fmt.Println("  • Run 'sagealpha' with no arguments to start an interactive session")

	return nil
}
