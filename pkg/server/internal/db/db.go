package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// HandRecord is one finished hand.
type HandRecord struct {
	HandID      string
	TableID     string
	HandNumber  int
	Board       []string // card codes, e.g. "Td"
	Pot         int64
	Winners     []string
	WinningHand string
	FoldWin     bool
	Narration   string
	CreatedAt   time.Time

	Pots    []PotRecord
	Players []PlayerRecord
}

// PotRecord is one settled pot of a hand.
type PotRecord struct {
	Label    string
	Amount   int64
	Winners  []string
	Refunded bool
}

// PlayerRecord is one participant's part in a hand.
type PlayerRecord struct {
	PlayerID    string
	Contributed int64
	Won         int64
	HoleCards   []string // empty unless the cards were shown
	HandName    string
}

// DB represents the database connection
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the hand history database.
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS hands (
			hand_id TEXT PRIMARY KEY,
			table_id TEXT NOT NULL,
			hand_number INTEGER NOT NULL,
			board TEXT NOT NULL,
			pot INTEGER NOT NULL,
			winners TEXT NOT NULL,
			winning_hand TEXT,
			fold_win INTEGER NOT NULL DEFAULT 0,
			narration TEXT,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create hands table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS hand_pots (
			hand_id TEXT NOT NULL,
			pot_index INTEGER NOT NULL,
			label TEXT NOT NULL,
			amount INTEGER NOT NULL,
			winners TEXT NOT NULL,
			refunded INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (hand_id, pot_index),
			FOREIGN KEY (hand_id) REFERENCES hands(hand_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create hand_pots table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS hand_players (
			hand_id TEXT NOT NULL,
			player_id TEXT NOT NULL,
			contributed INTEGER NOT NULL,
			won INTEGER NOT NULL,
			hole_cards TEXT NOT NULL,
			hand_name TEXT,
			PRIMARY KEY (hand_id, player_id),
			FOREIGN KEY (hand_id) REFERENCES hands(hand_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create hand_players table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS hands_by_table ON hands (table_id, hand_number)`)
	if err != nil {
		return fmt.Errorf("failed to create hands index: %w", err)
	}
	return nil
}

// SaveHand stores a hand with its pots and players in one transaction.
// Saving the same hand again replaces it.
func (db *DB) SaveHand(h *HandRecord) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM hand_pots WHERE hand_id = ?`,
		`DELETE FROM hand_players WHERE hand_id = ?`,
		`DELETE FROM hands WHERE hand_id = ?`,
	} {
		if _, err := tx.Exec(q, h.HandID); err != nil {
			return fmt.Errorf("failed to clear hand %s: %w", h.HandID, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO hands (hand_id, table_id, hand_number, board, pot, winners,
			winning_hand, fold_win, narration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, h.HandID, h.TableID, h.HandNumber, joinList(h.Board), h.Pot, joinList(h.Winners),
		h.WinningHand, h.FoldWin, h.Narration, h.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert hand %s: %w", h.HandID, err)
	}

	for i, p := range h.Pots {
		_, err = tx.Exec(`
			INSERT INTO hand_pots (hand_id, pot_index, label, amount, winners, refunded)
			VALUES (?, ?, ?, ?, ?, ?)
		`, h.HandID, i, p.Label, p.Amount, joinList(p.Winners), p.Refunded)
		if err != nil {
			return fmt.Errorf("failed to insert pot %d of hand %s: %w", i, h.HandID, err)
		}
	}

	for _, p := range h.Players {
		_, err = tx.Exec(`
			INSERT INTO hand_players (hand_id, player_id, contributed, won, hole_cards, hand_name)
			VALUES (?, ?, ?, ?, ?, ?)
		`, h.HandID, p.PlayerID, p.Contributed, p.Won, joinList(p.HoleCards), p.HandName)
		if err != nil {
			return fmt.Errorf("failed to insert player %s of hand %s: %w", p.PlayerID, h.HandID, err)
		}
	}

	return tx.Commit()
}

// RecentHands returns up to limit hands of a table, newest first.
func (db *DB) RecentHands(tableID string, limit int) ([]*HandRecord, error) {
	rows, err := db.Query(`
		SELECT hand_id, table_id, hand_number, board, pot, winners,
			winning_hand, fold_win, narration, created_at
		FROM hands WHERE table_id = ?
		ORDER BY hand_number DESC LIMIT ?
	`, tableID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query hands: %w", err)
	}
	defer rows.Close()

	var hands []*HandRecord
	for rows.Next() {
		var (
			h                      HandRecord
			board, winners         string
			winningHand, narration sql.NullString
		)
		err := rows.Scan(&h.HandID, &h.TableID, &h.HandNumber, &board, &h.Pot, &winners,
			&winningHand, &h.FoldWin, &narration, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hand: %w", err)
		}
		h.Board = splitList(board)
		h.Winners = splitList(winners)
		h.WinningHand = winningHand.String
		h.Narration = narration.String
		hands = append(hands, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, h := range hands {
		if err := db.loadDetails(h); err != nil {
			return nil, err
		}
	}
	return hands, nil
}

func (db *DB) loadDetails(h *HandRecord) error {
	rows, err := db.Query(`
		SELECT label, amount, winners, refunded FROM hand_pots
		WHERE hand_id = ? ORDER BY pot_index
	`, h.HandID)
	if err != nil {
		return fmt.Errorf("failed to query pots of hand %s: %w", h.HandID, err)
	}
	for rows.Next() {
		var p PotRecord
		var winners string
		if err := rows.Scan(&p.Label, &p.Amount, &winners, &p.Refunded); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan pot: %w", err)
		}
		p.Winners = splitList(winners)
		h.Pots = append(h.Pots, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.Query(`
		SELECT player_id, contributed, won, hole_cards, hand_name FROM hand_players
		WHERE hand_id = ? ORDER BY player_id
	`, h.HandID)
	if err != nil {
		return fmt.Errorf("failed to query players of hand %s: %w", h.HandID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var p PlayerRecord
		var hole string
		var handName sql.NullString
		if err := rows.Scan(&p.PlayerID, &p.Contributed, &p.Won, &hole, &handName); err != nil {
			return fmt.Errorf("failed to scan player: %w", err)
		}
		p.HoleCards = splitList(hole)
		p.HandName = handName.String
		h.Players = append(h.Players, p)
	}
	return rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
