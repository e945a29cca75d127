package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pokerlite/pokerlite/pkg/bot"
	"github.com/pokerlite/pokerlite/pkg/logging"
	"github.com/pokerlite/pokerlite/pkg/server"
	"github.com/pokerlite/pokerlite/pkg/utils"
)

const (
	appName       = "pokersrv"
	mainTable     = "main"
	consolePlayer = "console"
)

var (
	numBots   = flag.Int("bots", 3, "Number of auto-played seats at the main table")
	console   = flag.Bool("console", false, "Join the main table as a player typing commands on stdin")
	thinkTime = flag.Duration("think", bot.DefaultThinkTime, "How long auto-players wait before acting")
	handPause = flag.Duration("handpause", bot.DefaultHandPause, "Pause between hands before auto-players start the next one")
)

func realMain() error {
	flags := server.RegisterFlags(flag.CommandLine)
	flag.Parse()

	cfg, err := server.LoadConfig(flags, appName)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := utils.EnsureDataDirExists(cfg.DataDir, "logs"); err != nil {
		return err
	}

	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:     cfg.LogFile,
		DebugLevel:  cfg.DebugLevel,
		MaxLogFiles: cfg.MaxLogFiles,
	})
	if err != nil {
		return fmt.Errorf("failed to create log backend: %w", err)
	}
	defer logBackend.Close()
	cfg.LogBackend = logBackend
	log := logBackend.Logger("MAIN")

	db, err := server.NewDatabase(cfg.DBFile)
	if err != nil {
		return err
	}
	defer db.Close()

	watch := consolePlayer
	if !*console {
		watch = botID(0)
	}
	b := &logBroadcaster{
		log:     logBackend.Logger("FEED"),
		watch:   watch,
		console: *console,
	}
	srv := server.NewServer(cfg, db, b)
	defer srv.Stop()

	if _, err := srv.CreateTable(server.TableOptions{ID: mainTable}); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < *numBots; i++ {
		id := botID(i)
		role, err := srv.Connect(mainTable, id, fmt.Sprintf("Bot %d", i+1))
		if err != nil {
			return err
		}
		log.Infof("%s joined table %s as %s", id, mainTable, role)

		seed := cfg.Seed + int64(i) + 1
		if cfg.Seed == 0 {
			seed = time.Now().UnixNano() + int64(i)
		}
		p := bot.NewAutoPlayer(logBackend.Logger("BOTS"), srv, mainTable, id, seed)
		p.SetTimings(*thinkTime, *handPause)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("%s stopped: %v", id, err)
			}
		}()
	}

	if *console {
		role, err := srv.Connect(mainTable, consolePlayer, "You")
		if err != nil {
			return err
		}
		fmt.Printf("Joined table %s as %s. Type 'help' for commands.\n", mainTable, role)
		// Stdin reads cannot be interrupted; the reader is left behind on shutdown.
		go runConsole(ctx, bot.NewState(srv, logBackend.Logger("CMDS")), cancel)
	}

	log.Infof("Server running with data dir %s", cfg.DataDir)
	<-ctx.Done()
	log.Infof("Shutting down...")
	wg.Wait()
	return nil
}

func botID(i int) string {
	return fmt.Sprintf("bot%d", i+1)
}

func runConsole(ctx context.Context, state *bot.State, cancel func()) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		if line == "quit" || line == "exit" {
			cancel()
			return
		}
		if reply := state.HandleCommand(mainTable, consolePlayer, line); reply != "" {
			fmt.Println(reply)
		}
	}
	cancel()
}

func main() {
	if err := realMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
