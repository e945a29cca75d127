package poker

import (
	"fmt"
)

// Role is a player's standing at the table.
type Role int

const (
	RoleSeated Role = iota
	RoleSpectator
	RoleWaitlist
)

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleSeated:
		return "seated"
	case RoleSpectator:
		return "spectator"
	case RoleWaitlist:
		return "waitlist"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Player is somebody present at a table: seated, watching or waiting for a
// seat. Hand-level state (cards, bets, folds) lives on the Table.
type Player struct {
	ID        string
	Name      string
	Stack     int64 // chips available to bet
	Seat      int   // 1-based; 0 when not seated
	Connected bool
	Role      Role
}

// NewPlayer creates a connected spectator with the given stack. The table
// decides whether it can be seated.
func NewPlayer(id, name string, stack int64) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Stack:     stack,
		Connected: true,
		Role:      RoleSpectator,
	}
}

// IsSeated reports whether the player holds a seat.
func (p *Player) IsSeated() bool {
	return p.Role == RoleSeated
}

// seat puts the player in the given seat.
func (p *Player) seat(n int) {
	p.Seat = n
	p.Role = RoleSeated
}

// unseat turns the player into a spectator.
func (p *Player) unseat() {
	p.Seat = 0
	p.Role = RoleSpectator
}

// pay moves up to amount chips off the stack and returns what was paid.
func (p *Player) pay(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	if amount > p.Stack {
		amount = p.Stack
	}
	p.Stack -= amount
	return amount
}

// GetStatus returns a string representation of the player's status
func (p *Player) GetStatus() string {
	status := fmt.Sprintf("Player %s:\n", p.Name)
	status += fmt.Sprintf("Chips: %d\n", p.Stack)
	status += fmt.Sprintf("Role: %s\n", p.Role)
	if p.Seat > 0 {
		status += fmt.Sprintf("Seat: %d\n", p.Seat)
	}
	if p.Connected {
		status += "Status: Connected\n"
	} else {
		status += "Status: Disconnected\n"
	}
	return status
}
