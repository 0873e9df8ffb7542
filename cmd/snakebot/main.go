package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brensch/snekworld/client"
	"github.com/brensch/snekworld/config"
	"github.com/brensch/snekworld/logging"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg := config.Register(flag.CommandLine, config.Default())
	defaults := client.DefaultConfig()
	url := flag.String("url", defaults.URL, "Websocket endpoint of a running snakeserver")
	games := flag.Int("games", defaults.Games, "Games to play before disconnecting")
	flag.Parse()

	logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(sigCtx, cfg.Timeout)
	defer cancel()

	botCfg := defaults
	botCfg.URL = *url
	botCfg.Games = *games
	botCfg.MaxTurns = cfg.MaxTurns

	bot := client.NewBot(botCfg, logger)
	results, err := bot.Play(ctx)
	for _, r := range results {
		fmt.Printf("%s  %-6s points=%d turns=%d\n", r.GameID, r.Status, r.Points, r.Turns)
	}
	stats := bot.Stats()
	logger.Info("bot finished", "games", len(results), "frames", stats.Frames, "intents", stats.Intents)
	if err != nil {
		log.Fatalf("Bot failed: %v", err)
	}
}
