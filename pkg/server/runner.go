package server

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/pokerlite/pokerlite/pkg/poker"
)

// tableRunner is the background timer of one table. Every tick it lets the
// table expire turns or deal the next runout street. After a runout street it
// pauses so players can follow the board.
type tableRunner struct {
	log         slog.Logger
	table       *poker.Table
	interval    time.Duration
	runoutDelay time.Duration
	now         func() time.Time
	onTick      func(poker.TickResult)

	mu   sync.Mutex
	quit chan struct{}
	done chan struct{}
}

func newTableRunner(log slog.Logger, table *poker.Table, interval, runoutDelay time.Duration,
	onTick func(poker.TickResult)) *tableRunner {

	return &tableRunner{
		log:         log,
		table:       table,
		interval:    interval,
		runoutDelay: runoutDelay,
		now:         table.Config().Now,
		onTick:      onTick,
	}
}

// Start launches the timer goroutine unless it is already running.
func (r *tableRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.quit != nil {
		return
	}
	r.quit = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(r.quit, r.done)
	r.log.Infof("Started timer for table %s", r.table.ID())
}

// Stop ends the timer goroutine and waits for it to exit. It must not be
// called from onTick.
func (r *tableRunner) Stop() {
	r.mu.Lock()
	quit, done := r.quit, r.done
	r.quit, r.done = nil, nil
	r.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	<-done
	r.log.Infof("Stopped timer for table %s", r.table.ID())
}

// Running reports whether the timer goroutine is active.
func (r *tableRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quit != nil
}

func (r *tableRunner) run(quit, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
		}

		res := r.table.Tick(r.now())
		if res.Changed && r.onTick != nil {
			r.onTick(res)
		}
		if !res.RunoutPending || r.runoutDelay <= 0 {
			continue
		}

		select {
		case <-quit:
			return
		case <-time.After(r.runoutDelay):
		}
	}
}
