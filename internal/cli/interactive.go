package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sagealpha/sagecli/internal/api"
	"github.com/sagealpha/sagecli/internal/attach"
	"github.com/sagealpha/sagecli/internal/chat"
	"github.com/sagealpha/sagecli/internal/config"
	"github.com/sagealpha/sagecli/internal/display"
	"github.com/sagealpha/sagecli/internal/history"
)

// runInteractiveMode starts the interactive chat session
func runInteractiveMode(cfg *config.Config) error {
	client := newClient(cfg)
	staging := attach.NewStaging(client)
	conv := chat.New(client, staging)

	store, err := history.NewStore(filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		fmt.Printf("⚠️  Local history unavailable: %v\n", err)
		store = nil
	}
	var recorder *history.Recorder
	if store != nil {
		defer store.Close()
		recorder = history.NewRecorder(store)
	}

	// Print transcript changes as they land; the fire-and-forget session
	// sync and intelligence fetches surface through the same observer.
	// Resolved lines are also mirrored to the local history store; the
	// recorder holds back lines that resolve before a session id exists.
	conv.SetOnEvent(func(ev chat.Event) {
		switch ev.Kind {
		case chat.EventEntryAppended:
			fmt.Println(display.RenderEntry(ev.Entry))
		case chat.EventEntryResolved:
			fmt.Println(display.RenderEntry(ev.Entry))
		}
		if recorder != nil && ev.Kind != chat.EventStateChanged && ev.Entry.Status == chat.StatusResolved {
			if err := recorder.Observe(conv.SessionID(), string(ev.Entry.Role), ev.Entry.Content); err != nil {
				fmt.Printf("⚠️  %v\n", err)
			}
		}
	})

	fmt.Println("🚀 Welcome to SageAlpha - AI-Powered Equity Research")
	fmt.Println("=" + strings.Repeat("=", 58))
	fmt.Printf("🎭 Assistant: %s\n", cfg.Assistant)
	fmt.Println("Type a question, or 'help' for commands.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print(promptLabel(conv))
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		command := strings.ToLower(fields[0])
		args := fields[1:]

		switch command {
		case "exit", "quit":
			fmt.Println("👋 Thank you for using SageAlpha!")
			return nil

		case "help":
			printInteractiveHelp()

		case "new":
			conv.Reset()
			if recorder != nil {
				recorder.Reset()
			}
			fmt.Println("🆕 Started a new conversation.")

		case "session":
			if len(args) == 0 {
				if id := conv.SessionID(); id != "" {
					fmt.Printf("💬 Current session: %s\n", id)
				} else {
					fmt.Println("💬 No active session yet. Send a message to start one.")
				}
				continue
			}
			if err := conv.LoadSession(context.Background(), args[0]); err != nil {
				fmt.Printf("❌ Failed to load session: %v\n", err)
				showLocalSession(store, args[0])
				continue
			}
			fmt.Printf("💬 Loaded session %s:\n\n", args[0])
			for _, entry := range conv.Entries() {
				fmt.Println(display.RenderEntry(entry))
				fmt.Println()
			}

		case "report":
			if len(args) == 0 {
				fmt.Println("Usage: report TICKER   (e.g. report AAPL)")
				continue
			}
			runReport(conv, strings.ToUpper(args[0]), cfg)

		case "usage":
			status, err := client.UsageStatus(context.Background())
			if err != nil {
				fmt.Printf("❌ Failed to fetch usage: %v\n", err)
				continue
			}
			fmt.Printf("📊 Chat: %d requests, Market: %d requests\n", status.Chat.UsageCount, status.Market.UsageCount)

		case "attach":
			if len(args) == 0 {
				path, err := PromptForFilePath()
				if err != nil {
					continue
				}
				args = []string{path}
			}
			for _, path := range args {
				if err := staging.Add(path); err != nil {
					fmt.Printf("❌ %v\n", err)
					continue
				}
				fmt.Printf("📎 Staged %s\n", path)
			}

		case "detach":
			if len(args) == 0 {
				fmt.Println("Usage: detach N   (see 'files' for positions)")
				continue
			}
			pos, err := strconv.Atoi(args[0])
			if err != nil || !staging.RemoveAt(pos) {
				fmt.Println("❌ No staged file at that position.")
				continue
			}
			fmt.Println("🗑️  Removed.")

		case "files":
			files := staging.Files()
			if len(files) == 0 {
				fmt.Println("📎 No files staged.")
				continue
			}
			for i, f := range files {
				fmt.Printf("  %d. %s (%s, %s)\n", i+1, f.Name, f.MIMEType, display.FormatFileSize(f.Size))
			}

		case "history":
			if store == nil {
				fmt.Println("📜 Local history is unavailable.")
				continue
			}
			sessions, err := store.Sessions(20)
			if err != nil {
				fmt.Printf("❌ %v\n", err)
				continue
			}
			if len(sessions) == 0 {
				fmt.Println("📜 No recorded sessions yet.")
				continue
			}
			for _, sum := range sessions {
				title := sum.FirstMessage
				if len(title) > 50 {
					title = title[:50] + "…"
				}
				fmt.Printf("  %s  %s (%d messages, %s)\n",
					sum.SessionID, title, sum.MessageCount, sum.LastSeen.Format("2006-01-02 15:04"))
			}
			fmt.Println("💡 Resume one with: session ID")

		case "upgrade":
			runUpgrade(conv, cfg)

		default:
			runSend(conv, line, cfg)
		}

		fmt.Println()
	}

	return nil
}

// runSend pushes one user message through the conversation controller.
func runSend(conv *chat.Conversation, text string, cfg *config.Config) {
	err := conv.SendChat(context.Background(), text)
	switch {
	case errors.Is(err, chat.ErrLimited):
		fmt.Println("⚠️  Usage limit reached. Type 'upgrade' to continue.")
	case err != nil:
		fmt.Printf("❌ %v\n", err)
	}
}

// runReport generates a report through the controller so limits and the
// transcript behave exactly as plain chat does.
func runReport(conv *chat.Conversation, ticker string, cfg *config.Config) {
	fmt.Printf("🚀 Generating report for %s...\n", ticker)
	err := conv.GenerateReport(context.Background(), ticker)
	switch {
	case errors.Is(err, chat.ErrLimited):
		fmt.Println("⚠️  Usage limit reached. Type 'upgrade' to continue.")
		return
	case err != nil:
		fmt.Printf("❌ %v\n", err)
		return
	}

	for _, entry := range conv.Entries() {
		if entry.Role != chat.RoleAssistant || entry.Status != chat.StatusResolved {
			continue
		}
		for _, id := range display.DownloadIDs(entry.Content) {
			fmt.Printf("💡 Download with: sagealpha download %s\n", id)
		}
	}
}

// runUpgrade is the only path out of the limited state.
func runUpgrade(conv *chat.Conversation, cfg *config.Config) {
	if conv.State() != chat.StateLimited {
		fmt.Printf("💡 You are not rate limited. Plans: %s\n", cfg.PlansURL())
		return
	}
	confirmed, err := ConfirmUpgrade(cfg.PlansURL())
	if err != nil || !confirmed {
		fmt.Println("Staying on the free plan.")
		return
	}
	conv.ClearLimit()
	fmt.Printf("✅ Visit %s to complete your upgrade. Chat re-enabled.\n", cfg.PlansURL())
}

// showLocalSession prints the locally recorded copy of a session when the
// backend copy cannot be loaded. Read-only: the conversation itself is left
// untouched.
func showLocalSession(store *history.Store, sessionID string) {
	if store == nil {
		return
	}
	msgs, err := store.Messages(sessionID)
	if err != nil || len(msgs) == 0 {
		return
	}
	fmt.Printf("📜 Showing local history for %s (read-only):\n\n", sessionID)
	for _, m := range msgs {
		fmt.Println(display.RenderMessage(api.Message{Role: m[0], Content: m[1]}))
		fmt.Println()
	}
}

func promptLabel(conv *chat.Conversation) string {
	switch conv.State() {
	case chat.StateLimited:
		return "🔒 (limited) > "
	case chat.StateSending:
		return "… > "
	default:
		return "💬 > "
	}
}

func printInteractiveHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  <message>        Chat with the assistant")
	fmt.Println("  report TICKER    Generate a research report")
	fmt.Println("  attach [PATH]    Stage a file for the next message")
	fmt.Println("  detach N         Remove staged file N")
	fmt.Println("  files            List staged files")
	fmt.Println("  session [ID]     Show or load a session")
	fmt.Println("  history          List locally recorded sessions")
	fmt.Println("  new              Start a new conversation")
	fmt.Println("  usage            Show metered usage")
	fmt.Println("  upgrade          Unlock chat after hitting the free limit")
	fmt.Println("  help             Show this help")
	fmt.Println("  exit             Quit")
}
