package server

import "github.com/pokerlite/pokerlite/pkg/poker"

// Each event carries exactly one payload implementing this interface.
type EventPayload interface {
	Kind() GameEventType
}

// NarrationPayload is a line for the table's notification feed.
type NarrationPayload struct {
	Message string
}

func (NarrationPayload) Kind() GameEventType { return GameEventTypeNarration }

// TableStatePayload holds one view of the table per connected viewer.
type TableStatePayload struct {
	States map[string]poker.TableState
}

func (TableStatePayload) Kind() GameEventType { return GameEventTypeTableState }

// ShowdownPayload is the result of a finished hand.
type ShowdownPayload struct {
	Result *poker.ShowdownResult
}

func (ShowdownPayload) Kind() GameEventType { return GameEventTypeShowdown }

type PlayerJoinedPayload struct {
	PlayerID string
	Name     string
	Role     poker.Role
}

func (PlayerJoinedPayload) Kind() GameEventType { return GameEventTypePlayerJoined }

type PlayerLeftPayload struct {
	PlayerID string
}

func (PlayerLeftPayload) Kind() GameEventType { return GameEventTypePlayerLeft }
