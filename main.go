package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"GoRAGAgent/app/clients"
	"GoRAGAgent/app/configs"
	"GoRAGAgent/app/documents"
	"GoRAGAgent/app/utils"
)

var (
	configPath   string
	documentPath string
	sessionID    string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "goragagent",
	Short: "Ask questions about a text document",
	Long: `Loads a text document, splits it into overlapping chunks and stores their
embeddings in a persisted collection. Questions typed at the prompt are answered
by a tool-calling agent that drafts answers from the most similar chunks.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "YAML or TOML config file")
	rootCmd.Flags().StringVarP(&documentPath, "document", "d", "", "text document to ingest (overrides config)")
	rootCmd.Flags().StringVarP(&sessionID, "session", "s", "", "conversation thread id (overrides config)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "mirror debug logs to stderr")
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️ .env not loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(rootCmd.OutOrStdout(), "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := configs.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	fmt.Fprintln(out, "Initializing system...")

	text, err := documents.Load(cfg.Document.Path)
	if errors.Is(err, documents.ErrFileNotFound) {
		return fmt.Errorf("%s file not found!", cfg.Document.Path)
	}
	if err != nil {
		return err
	}

	var echo io.Writer
	if cfg.Logging.Verbose {
		echo = cmd.ErrOrStderr()
	}
	color := colorizer(echo)
	appAudit, err := utils.NewAuditLogger(cfg.Logging.Dir, "app", echo, color("\033[90m"))
	if err != nil {
		return fmt.Errorf("open app log: %w", err)
	}
	defer appAudit.Close()
	log.SetOutput(appAudit.Writer())
	defer log.SetOutput(os.Stderr)

	ragAudit, err := utils.NewAuditLogger(cfg.Logging.Dir, "rag", echo, color("\033[36m"))
	if err != nil {
		return fmt.Errorf("open rag log: %w", err)
	}
	defer ragAudit.Close()
	agentAudit, err := utils.NewAuditLogger(cfg.Logging.Dir, "agent", echo, color("\033[35m"))
	if err != nil {
		return fmt.Errorf("open agent log: %w", err)
	}
	defer agentAudit.Close()

	answerModel, agentModel := cfg.BuildModels(cfg.BuildRestClient())

	store, err := cfg.BuildRAG(answerModel, ragAudit)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := store.Ingest(ctx, text, cfg.Document.Path)
	if err != nil {
		return err
	}
	log.Printf("📚 %s: %d chunks, %d added, skipped=%t, other sources=%d",
		report.Source, report.Chunks, report.Added, report.Skipped, report.Foreign)
	if dim := answerModel.Dimension(); dim > 0 {
		log.Printf("📐 Embedding dimension %d", dim)
	}

	memory, err := cfg.BuildMemory()
	if err != nil {
		return err
	}
	defer memory.Close()

	answerTool := cfg.BuildAnswerTool(store, answerModel, ragAudit)
	agent, err := cfg.BuildRuntime(agentModel, memory, agentAudit, answerTool.Tool())
	if err != nil {
		return err
	}

	fmt.Fprint(out, "Ready!\n\n")

	console := clients.NewConsole(agent, cmd.InOrStdin(), out, cfg.Agent.SessionID, cfg.TurnTimeout())
	return console.Run(ctx)
}

func applyFlags(cmd *cobra.Command, cfg *configs.Config) {
	if cmd.Flags().Changed("document") {
		cfg.Document.Path = documentPath
	}
	if cmd.Flags().Changed("session") && sessionID != "" {
		cfg.Agent.SessionID = sessionID
	}
	if verbose {
		cfg.Logging.Verbose = true
	}
}

// colorizer drops ANSI colors unless the echo target is a terminal.
func colorizer(w io.Writer) func(string) string {
	f, ok := w.(*os.File)
	tty := ok && term.IsTerminal(int(f.Fd()))
	return func(c string) string {
		if tty {
			return c
		}
		return ""
	}
}
