package server

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/decred/slog"
)

// GameEventType represents the type of game event
type GameEventType string

const (
	GameEventTypeNarration    GameEventType = "narration"
	GameEventTypeTableState   GameEventType = "table_state"
	GameEventTypeShowdown     GameEventType = "showdown"
	GameEventTypePlayerJoined GameEventType = "player_joined"
	GameEventTypePlayerLeft   GameEventType = "player_left"
)

// GameEvent is an immutable record of something that happened at a table,
// collected after the table lock was released.
type GameEvent struct {
	Type      GameEventType
	TableID   string
	PlayerIDs []string // connected viewers who should receive it
	Payload   EventPayload
	Timestamp time.Time
}

// EventHandler consumes processed events. Handlers run on the event workers,
// never under a table lock.
type EventHandler interface {
	HandleEvent(event *GameEvent)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(event *GameEvent)

// HandleEvent calls f(event).
func (f EventHandlerFunc) HandleEvent(event *GameEvent) { f(event) }

// EventProcessor manages the processing of game events. Events of one table
// always go to the same worker, so they are handled in publish order.
type EventProcessor struct {
	log      slog.Logger
	handlers []EventHandler
	workers  []*eventWorker
	stopChan chan struct{}
	wg       sync.WaitGroup
	started  bool
	mu       sync.Mutex
}

// eventWorker processes events from its queue
type eventWorker struct {
	id        int
	processor *EventProcessor
	queue     chan *GameEvent
}

// NewEventProcessor creates a new event processor. Each worker buffers up to
// queueSize events.
func NewEventProcessor(log slog.Logger, queueSize, workerCount int, handlers ...EventHandler) *EventProcessor {
	if log == nil {
		log = slog.Disabled
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	processor := &EventProcessor{
		log:      log,
		handlers: handlers,
		stopChan: make(chan struct{}),
	}

	processor.workers = make([]*eventWorker, workerCount)
	for i := 0; i < workerCount; i++ {
		processor.workers[i] = &eventWorker{
			id:        i,
			processor: processor,
			queue:     make(chan *GameEvent, queueSize),
		}
	}
	return processor
}

// Start begins processing events
func (ep *EventProcessor) Start() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.started {
		return
	}
	ep.started = true
	ep.stopChan = make(chan struct{})
	ep.log.Infof("Starting event processor with %d workers", len(ep.workers))

	for _, worker := range ep.workers {
		ep.wg.Add(1)
		go worker.run(ep.stopChan)
	}
}

// Stop waits for the workers to drain their queues and exit.
func (ep *EventProcessor) Stop() {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if !ep.started {
		return
	}
	ep.log.Infof("Stopping event processor...")
	close(ep.stopChan)
	ep.wg.Wait()
	ep.started = false
	ep.log.Infof("Event processor stopped")
}

// PublishEvent queues an event without blocking. Events published before
// Start, or to a full queue, are dropped.
func (ep *EventProcessor) PublishEvent(event *GameEvent) {
	ep.mu.Lock()
	started := ep.started
	ep.mu.Unlock()

	if !started {
		ep.log.Warnf("Event processor not started, dropping event: %v", event.Type)
		return
	}

	worker := ep.workerFor(event.TableID)
	select {
	case worker.queue <- event:
		ep.log.Tracef("Published event: %s for table %s", event.Type, event.TableID)
	default:
		ep.log.Warnf("Event queue full, dropping event: %s for table %s", event.Type, event.TableID)
	}
}

func (ep *EventProcessor) workerFor(tableID string) *eventWorker {
	h := fnv.New32a()
	h.Write([]byte(tableID))
	return ep.workers[h.Sum32()%uint32(len(ep.workers))]
}

// run executes the worker loop
func (w *eventWorker) run(stop <-chan struct{}) {
	defer w.processor.wg.Done()
	w.processor.log.Debugf("Event worker %d started", w.id)

	for {
		select {
		case <-stop:
			w.drain()
			w.processor.log.Debugf("Event worker %d stopping", w.id)
			return

		case event := <-w.queue:
			if event != nil {
				w.processEvent(event)
			}
		}
	}
}

// drain handles whatever is still queued at shutdown.
func (w *eventWorker) drain() {
	for {
		select {
		case event := <-w.queue:
			if event != nil {
				w.processEvent(event)
			}
		default:
			return
		}
	}
}

// processEvent processes a single event using all registered handlers
func (w *eventWorker) processEvent(event *GameEvent) {
	w.processor.log.Tracef("Worker %d processing event: %s for table %s", w.id, event.Type, event.TableID)
	for _, h := range w.processor.handlers {
		h.HandleEvent(event)
	}
}
