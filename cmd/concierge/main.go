package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/concierge/concierge/internal/agent"
	"github.com/concierge/concierge/internal/feedback"
	"github.com/concierge/concierge/internal/models"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(logrus.DebugLevel)
	}

	printBanner()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down...")
		cancel()
	}()

	configStore := buildConfigStore(log)
	svc := buildFeedbackService(configStore, log)
	defer svc.Close()

	providers := agent.DefaultProviders()
	if alphaURL := os.Getenv("DGRAPH_ALPHA_URL"); alphaURL != "" {
		semantic, err := agent.NewSemanticProvider("semantic", models.TopicLegal, alphaURL)
		if err != nil {
			log.WithError(err).Warn("Dgraph provider unavailable, continuing without it")
		} else {
			providers = append(providers, semantic)
			defer semantic.Close()
		}
	}

	orchestrator := agent.NewOrchestrator(providers, agent.DefaultConfig(), configStore, log)
	defer orchestrator.Close()

	fmt.Println("Specialist providers active:")
	for _, p := range providers {
		fmt.Printf("   • %-12s %s\n", p.ID(), p.Topic())
	}
	fmt.Println()

	userCtx := models.UserContext{
		UserID:   "local",
		Language: envOr("CONCIERGE_LANG", "en"),
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if !handleCommand(ctx, input, svc) {
				return
			}
			continue
		}

		resp, err := orchestrator.Ask(ctx, agent.QueryRequest{Query: input, Context: userCtx})
		if err != nil {
			fmt.Printf("Error: %v\n\n", err)
			continue
		}

		fmt.Printf("\n%s\n\n", resp.Answer.Text)
		fmt.Printf("⏱ %.0fms | consulted: %s", resp.Duration.Seconds()*1000, strings.Join(resp.ProvidersConsulted, ", "))
		if len(resp.ProvidersFailed) > 0 {
			fmt.Printf(" | failed: %s", strings.Join(resp.ProvidersFailed, ", "))
		}
		if resp.Degraded {
			fmt.Print(" | degraded")
		}
		fmt.Print("\n\n")
	}
}

// buildFeedbackService wires the feedback path against Badger, Redis, and
// SQLite, falling back to in-memory stores when a backend is not
// configured or reachable.
func buildFeedbackService(configStore feedback.ConfigStore, log *logrus.Logger) *feedback.Service {
	var cases feedback.CaseStore
	var patterns feedback.PatternStore

	if path := os.Getenv("BADGER_PATH"); path != "" {
		store, err := feedback.NewBadgerStore(path)
		if err != nil {
			log.WithError(err).Warn("Badger unavailable, using in-memory case store")
		} else {
			cases, patterns = store, store
		}
	}
	if cases == nil {
		cases = feedback.NewMemoryCaseStore()
		patterns = feedback.NewMemoryPatternStore()
	}

	var audit feedback.AdjustmentLog
	if path := os.Getenv("AUDIT_DB_PATH"); path != "" {
		l, err := feedback.NewSQLiteAdjustmentLog(path)
		if err != nil {
			log.WithError(err).Warn("audit log unavailable, adjustments will not be audited")
		} else {
			audit = l
		}
	}

	return feedback.NewService(cases, patterns, configStore, audit, feedback.DefaultConfig(), log)
}

// buildConfigStore prefers Redis so calibration survives restarts
func buildConfigStore(log *logrus.Logger) feedback.ConfigStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return feedback.NewMemoryConfigStore()
	}

	store, err := feedback.NewRedisConfigStore(feedback.RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-memory config store")
		return feedback.NewMemoryConfigStore()
	}
	return store
}

// handleCommand runs one slash command; it returns false on /exit
func handleCommand(ctx context.Context, cmd string, svc *feedback.Service) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return true
	}

	switch parts[0] {
	case "/help":
		fmt.Println("\nCommands: /help /metrics /patterns [type] /exit")
		fmt.Print("Anything else is answered by the specialist providers.\n\n")
	case "/metrics":
		snap, err := svc.GetMetrics(ctx)
		if err != nil {
			fmt.Printf("Error: %v\n\n", err)
			return true
		}
		fmt.Printf("\nCases: %d | Accuracy: %.1f | Timeline: %.2f | Cost: %.2f | Risk: %.2f\n",
			snap.TotalCases, snap.AccuracyRate, snap.TimelinePrecision,
			snap.CostPrecision, snap.RiskPredictionAccuracy)
		for _, imp := range snap.Improvements {
			fmt.Printf("%s: %.1f → %.1f (%+.1f)\n", imp.Metric, imp.OlderMean, imp.RecentMean, imp.Delta)
		}
		fmt.Println()
	case "/patterns":
		var filter *models.PatternType
		if len(parts) > 1 {
			t := models.PatternType(parts[1])
			filter = &t
		}
		patterns, err := svc.GetPatterns(ctx, filter)
		if err != nil {
			fmt.Printf("Error: %v\n\n", err)
			return true
		}
		if len(patterns) == 0 {
			fmt.Print("\nNo patterns mined yet.\n\n")
			return true
		}
		fmt.Println()
		for _, p := range patterns {
			fmt.Printf("[%s] x%d (%.0f%%) %s\n", p.Type, p.Frequency, p.Confidence*100, p.Recommendation)
		}
		fmt.Println()
	case "/exit", "/quit":
		fmt.Println("Sampai jumpa! 👋")
		return false
	default:
		fmt.Printf("Unknown command %s — try /help\n\n", parts[0])
	}
	return true
}

func printBanner() {
	fmt.Printf(`
╔═════════════════════════════════════════════════════════╗
║          Concierge — business setup assistant %s      ║
║        routed specialists · calibrated predictions      ║
╚═════════════════════════════════════════════════════════╝

`, version)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
