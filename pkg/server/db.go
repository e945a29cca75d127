package server

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/decred/slog"

	"github.com/pokerlite/pokerlite/pkg/poker"
	"github.com/pokerlite/pokerlite/pkg/server/internal/db"
)

// Database defines the interface for hand history storage.
type Database interface {
	// SaveHand records a finished hand.
	SaveHand(h *db.HandRecord) error
	// RecentHands returns up to limit hands of a table, newest first.
	RecentHands(tableID string, limit int) ([]*db.HandRecord, error)
	// Close closes the database connection
	Close() error
}

// HandRecord is a stored hand as returned by Database.RecentHands.
type HandRecord = db.HandRecord

// NewDatabase opens the sqlite hand history at dbPath, creating the file and
// its directory when missing.
func NewDatabase(dbPath string) (Database, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	store, err := db.NewDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return store, nil
}

// handRecord converts a showdown result into its stored form.
func handRecord(res *poker.ShowdownResult) *db.HandRecord {
	h := &db.HandRecord{
		HandID:      res.HandID,
		TableID:     res.TableID,
		HandNumber:  res.HandNumber,
		Board:       cardCodes(res.Board),
		Pot:         res.PotWon,
		Winners:     append([]string(nil), res.WinnerIDs...),
		WinningHand: res.WinningHandName,
		FoldWin:     res.FoldWin,
		Narration:   res.Narration,
	}
	for _, p := range res.Pots {
		h.Pots = append(h.Pots, db.PotRecord{
			Label:    p.Label,
			Amount:   p.Amount,
			Winners:  append([]string(nil), p.Winners...),
			Refunded: p.Refunded,
		})
	}

	shown := make(map[string]poker.ShowdownPlayer, len(res.Players))
	for _, p := range res.Players {
		shown[p.PlayerID] = p
	}
	ids := make([]string, 0, len(res.Contributions))
	for id := range res.Contributions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rec := db.PlayerRecord{
			PlayerID:    id,
			Contributed: res.Contributions[id],
			Won:         res.Winnings[id],
		}
		if p, ok := shown[id]; ok {
			rec.HoleCards = cardCodes(p.HoleCards)
			rec.HandName = p.HandName
		}
		h.Players = append(h.Players, rec)
	}
	return h
}

func cardCodes(cards []poker.Card) []string {
	if len(cards) == 0 {
		return nil
	}
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.Code()
	}
	return codes
}

// PersistenceHandler records every showdown event in the hand history.
type PersistenceHandler struct {
	log slog.Logger
	db  Database
}

// NewPersistenceHandler creates a handler writing to database.
func NewPersistenceHandler(log slog.Logger, database Database) *PersistenceHandler {
	return &PersistenceHandler{log: log, db: database}
}

// HandleEvent implements EventHandler.
func (h *PersistenceHandler) HandleEvent(event *GameEvent) {
	p, ok := event.Payload.(ShowdownPayload)
	if !ok || h.db == nil {
		return
	}
	if err := h.db.SaveHand(handRecord(p.Result)); err != nil {
		h.log.Errorf("Failed to save hand %s of table %s: %v", p.Result.HandID, event.TableID, err)
		return
	}
	h.log.Debugf("Saved hand %d (%s) of table %s", p.Result.HandNumber, p.Result.HandID, event.TableID)
}
