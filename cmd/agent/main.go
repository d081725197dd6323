package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avalonis/browserpilot/internal/browsergateway"
	"github.com/avalonis/browserpilot/internal/catalogue"
	"github.com/avalonis/browserpilot/internal/config"
	"github.com/avalonis/browserpilot/internal/controller"
	"github.com/avalonis/browserpilot/internal/decision"
	"github.com/avalonis/browserpilot/internal/domain"
	"github.com/avalonis/browserpilot/internal/guardrails"
	"github.com/avalonis/browserpilot/internal/llm"
	"github.com/avalonis/browserpilot/internal/memory"
	"github.com/avalonis/browserpilot/internal/planner"
	"github.com/avalonis/browserpilot/internal/store"
	"github.com/avalonis/browserpilot/internal/transport"
	"github.com/avalonis/browserpilot/internal/verifier"
)

type cliOptions struct {
	task      string
	storage   string
	saveState string
	dbPath    string
	wsAddr    string
}

func main() {
	opts := parseFlags()
	if opts.task == "" {
		task, cancelled, err := promptTask()
		if err != nil {
			log.Fatal().Err(err).Msg("prompt task failed")
		}
		if cancelled {
			fmt.Println("Cancelled.")
			return
		}
		opts.task = task
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmClient, err := llm.NewClientWithLogger(log.With().Str("comp", "llm").Logger())
	if err != nil {
		log.Warn().Err(err).Msg("llm init failed; continuing with heuristic-only planning and decisions")
		llmClient = nil
	}

	relay := transport.NewRelay(log.Logger)
	go serveRelay(opts.wsAddr, relay)

	launcher, err := browsergateway.Launch(ctx, log.With().Str("comp", "browsergateway").Logger(), cfg.Headless)
	if err != nil {
		log.Fatal().Err(err).Msg("browser launch")
	}
	defer launcher.Close()

	gw, err := launcher.NewGateway(ctx, opts.storage)
	if err != nil {
		log.Fatal().Err(err).Msg("new gateway")
	}
	defer gw.Close(ctx)

	if cfg.StartURL != "" && cfg.StartURL != "about:blank" {
		if _, err := gw.Page().Goto(cfg.StartURL); err != nil {
			log.Error().Err(err).Str("url", cfg.StartURL).Msg("initial navigation failed")
		}
	}

	cat := catalogue.New(gw, log.With().Str("comp", "catalogue").Logger())
	policy := guardrails.New(cfg.Guardrails)
	oracle := decision.New(llmClient, log.With().Str("comp", "decision").Logger())
	verf := verifier.New()
	plnr := planner.New(llmClient, log.With().Str("comp", "planner").Logger())

	memStore, closeStore := openMemoryStore(opts.dbPath)
	if closeStore != nil {
		defer closeStore()
	}

	sessionID := uuid.NewString()
	ctrl := controller.New(gw, cat, policy, oracle, verf, memStore, llmClient, sessionID, log.With().Str("comp", "controller").Logger())

	onStep := func(c context.Context, event domain.StepEvent) {
		action := ""
		if event.Action != nil {
			action = event.Action.Describe()
		}
		log.Info().Str("phase", string(event.Phase)).Str("msg", event.Message).Msg("step")
		relay.Send(c, string(event.Phase), event.Message, action)
	}

	plan, err := plnr.Plan(ctx, opts.task)
	if err != nil {
		log.Fatal().Err(err).Msg("planning failed")
	}

	fmt.Println("Starting task...")
	runPlan(ctx, ctrl, plan, opts.task, onStep)

	if opts.saveState != "" {
		if err := gw.SaveState(ctx, opts.saveState); err != nil {
			log.Error().Err(err).Msg("save state")
		} else {
			log.Info().Str("path", opts.saveState).Msg("storage state saved")
		}
	}
}

// runPlan drives the plan's steps in order against one Controller,
// embedding each step as a "CURRENT STEP:"-marked task string the
// auto-scroll gate's extractStepObjective looks for (spec §4.5/§4.6
// step 3). The step budget (domain.MaxSteps) is session-wide, so only
// the very first RunLoop call resets it; later steps and pause resumes
// keep counting where the session left off (spec §6.1).
func runPlan(ctx context.Context, ctrl *controller.Controller, plan *domain.Plan, originalTask string, onStep controller.OnStep) {
	reader := bufio.NewReader(os.Stdin)
	resetStepCount := true

	for _, step := range plan.Steps {
		if ctx.Err() != nil {
			return
		}
		if step.NeedsAuth {
			fmt.Printf("\n=== Step %s may require authentication: %s ===\n", step.ID, step.Title)
			terminalPrompt(reader, "Complete any login/credentials in the browser, then press enter to continue > ")
		}
		fmt.Printf("\n--- Step %s: %s ---\n", step.ID, step.Title)
		stepTask := fmt.Sprintf("%s\n\nCURRENT STEP: %s\n%s", originalTask, step.Title, step.Description)

		if !runToCompletion(ctx, ctrl, reader, stepTask, onStep, resetStepCount) {
			return
		}
		resetStepCount = false
	}
}

// runToCompletion drives RunLoop for one task string across
// CONFIRM/ASK_USER/OSCILLATION pauses by prompting on the terminal and
// resuming, mirroring the teacher's orchestrator-plus-PromptFunc
// interaction loop. Returns false when the caller should stop driving
// further steps (fatal error, unresolved pause, or context
// cancellation).
func runToCompletion(ctx context.Context, ctrl *controller.Controller, reader *bufio.Reader, task string, onStep controller.OnStep, resetStepCount bool) bool {
	opts := controller.RunOptions{ResetStepCount: resetStepCount}

	for {
		result, err := ctrl.RunLoop(ctx, task, onStep, opts)
		opts = controller.RunOptions{} // subsequent resumes keep the step count
		if err != nil {
			log.Error().Err(err).Msg("run loop error")
			return false
		}
		if result.Completed {
			fmt.Println("Done:", result.Reason)
			return true
		}
		if result.PauseKind == domain.PauseNone {
			log.Error().Str("reason", result.Reason).Msg("run loop stopped without completing")
			return false
		}

		fmt.Printf("\n=== Paused (%s) ===\n%s\n", result.PauseKind, result.Reason)
		if result.PendingAction == nil {
			return false
		}

		if result.PauseKind == domain.PauseOscillation {
			answer := terminalPrompt(reader, "Is this step already complete? (y/n) > ")
			if strings.EqualFold(strings.TrimSpace(answer), "y") {
				ctrl.ResetOscillation()
				continue
			}
		} else {
			_ = terminalPrompt(reader, "Press enter to approve and continue, or type a note > ")
		}

		if err := ctrl.ExecuteAction(ctx, result.PendingAction); err != nil {
			log.Error().Err(err).Msg("resume action failed")
			return false
		}
	}
}

func openMemoryStore(dbPath string) (memory.Store, func()) {
	if strings.TrimSpace(dbPath) == "" {
		return memory.NewInProcess(), nil
	}
	sq, err := store.Open(dbPath)
	if err != nil {
		log.Warn().Err(err).Str("path", dbPath).Msg("sqlite open failed, falling back to in-process history")
		return memory.NewInProcess(), nil
	}
	return sq, func() { _ = sq.Close() }
}

func serveRelay(addr string, relay *transport.Relay) {
	if strings.TrimSpace(addr) == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", relay.HandleWS)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Str("addr", addr).Msg("websocket relay server stopped")
	}
}

func parseFlags() cliOptions {
	task := flag.String("task", "", "Task description")
	storage := flag.String("storage", "", "Path to Playwright storage state to load")
	save := flag.String("save-state", "", "Path to save updated storage state")
	db := flag.String("history-db", "", "Path to a SQLite file for durable step history (defaults to in-process memory)")
	ws := flag.String("ws-addr", ":8765", "Address to serve the step-event WebSocket relay on (empty disables it)")
	flag.Parse()
	return cliOptions{
		task:      strings.TrimSpace(*task),
		storage:   strings.TrimSpace(*storage),
		saveState: strings.TrimSpace(*save),
		dbPath:    strings.TrimSpace(*db),
		wsAddr:    strings.TrimSpace(*ws),
	}
}

func promptTask() (string, bool, error) {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Enter a task (leave blank to cancel): ")
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", false, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", true, nil
	}

	const maxTaskLength = 2000
	if len(line) > maxTaskLength {
		fmt.Printf("Task too long (max %d characters), truncating\n", maxTaskLength)
		line = line[:maxTaskLength]
	}

	var sanitized strings.Builder
	for _, r := range line {
		if r >= 32 || r == '\n' || r == '\r' || r == '\t' {
			sanitized.WriteRune(r)
		}
	}
	return sanitized.String(), false, nil
}

func terminalPrompt(reader *bufio.Reader, message string) string {
	fmt.Print(message)
	text, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
