// Package main provides the adventure binary: a single-player text
// adventure REPL over the turn engine.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/adventure/internal/config"
	"github.com/cory-johannsen/adventure/internal/game/combat"
	"github.com/cory-johannsen/adventure/internal/game/dialogue"
	"github.com/cory-johannsen/adventure/internal/game/engine"
	"github.com/cory-johannsen/adventure/internal/game/intent"
	"github.com/cory-johannsen/adventure/internal/game/rng"
	"github.com/cory-johannsen/adventure/internal/game/world"
	"github.com/cory-johannsen/adventure/internal/llm"
	"github.com/cory-johannsen/adventure/internal/observability"
	"github.com/cory-johannsen/adventure/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	worldPath := flag.String("world", "", "path to world YAML file; overrides content.world")
	seed := flag.Int64("seed", 0, "deterministic RNG seed; 0 = crypto randomness")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	worldFile := cfg.Content.World
	if *worldPath != "" {
		worldFile = *worldPath
	}

	snap, err := world.Load(worldFile)
	if err != nil {
		logger.Fatal("loading world", zap.String("path", worldFile), zap.Error(err))
	}
	logger.Info("world loaded",
		zap.String("title", snap.Title),
		zap.Int("rooms", len(snap.Rooms)),
		zap.Int("characters", len(snap.Characters)),
		zap.Int("items", snap.Items.Len()),
	)

	var chat llm.Service
	if cfg.LLM.APIKey != "" {
		chat = llm.NewBoundedService(
			llm.NewAnthropicService(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.MaxTokens),
			llm.RetryPolicy{
				Timeout:        cfg.LLM.Timeout,
				MaxRetries:     cfg.LLM.MaxRetries,
				InitialBackoff: cfg.LLM.InitialBackoff,
			},
			logger,
		)
	} else {
		logger.Warn("no LLM API key configured, using fallback parser and stock dialogue")
	}

	var src rng.Source
	if *seed != 0 {
		src = rng.NewSeededSource(*seed)
	} else {
		src = rng.NewCryptoSource()
	}

	var hooks *scripting.Hooks
	if snap.ScriptFile != "" {
		scriptPath := snap.ScriptFile
		if !filepath.IsAbs(scriptPath) {
			scriptPath = filepath.Join(filepath.Dir(worldFile), scriptPath)
		}
		hooks, err = scripting.NewHooks(scriptPath, cfg.Game.ScriptInstructionLimit, logger)
		if err != nil {
			logger.Fatal("loading script", zap.String("path", scriptPath), zap.Error(err))
		}
		defer hooks.Close()
	}

	eng, err := engine.New(engine.Config{
		Snapshot: snap,
		Intents:  intent.NewResolver(chat, logger),
		Combat: combat.NewResolver(snap.SlotConfig, rng.NewLoggedSource(src, logger), combat.Options{
			ArmorReductionCap: cfg.Game.ArmorReductionCap,
			FleeBaseChance:    cfg.Game.FleeBaseChance,
		}),
		Speaker:     dialogue.NewSpeaker(chat, logger),
		Hooks:       hooks,
		Logger:      logger,
		HistorySize: cfg.Game.HistorySize,
	})
	if err != nil {
		logger.Fatal("creating engine", zap.Error(err))
	}

	logger.Info("adventure ready", zap.Duration("startup", time.Since(start)))

	if err := runREPL(ctx, eng, snap.Title); err != nil {
		logger.Fatal("game loop", zap.Error(err))
	}
}

// runREPL reads player commands from stdin and prints turn results until
// the game ends or input is exhausted.
func runREPL(ctx context.Context, eng *engine.Engine, title string) error {
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	fmt.Fprintf(out, "=== %s ===\n\n", title)

	// Open with a room description so the player knows where they stand.
	opening, err := eng.HandleTurn(ctx, "look")
	if err != nil {
		return fmt.Errorf("main.runREPL: opening look: %w", err)
	}
	printTurn(out, opening)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		out.Flush()
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		result, err := eng.HandleTurn(ctx, input)
		if err != nil {
			return fmt.Errorf("main.runREPL: handling turn: %w", err)
		}
		printTurn(out, result)

		if result.Quit || result.Ended {
			break
		}
	}
	return scanner.Err()
}

func printTurn(out *bufio.Writer, result *engine.TurnResult) {
	for _, action := range result.Actions {
		if action.Message != "" {
			fmt.Fprintln(out, action.Message)
		}
	}
	if result.Ended && result.EndingText != "" {
		fmt.Fprintf(out, "\n%s\n", result.EndingText)
	}
	fmt.Fprintln(out)
	out.Flush()
}
