/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package battlejong

import (
	"errors"
	"fmt"
)

// Capacity is the number of seats in a session.
const Capacity = 2

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrSessionFull   = errors.New("session is full")
	ErrGameOver      = errors.New("game is over")
)

type State int

const (
	Waiting State = iota
	Ready
	Complete
)

func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Ready:
		return "ready"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Player is a seat in a session.
type Player struct {
	ID           string
	Score        int
	StillPlaying bool
}

// Session tracks one game between two players.
//
// A Session is not safe for concurrent use; the owner must apply events one
// at a time, in arrival order.
type Session struct {
	players []*Player // join order
	byID    map[string]*Player
	state   State
	winner  string

	newID   func() string
	shuffle func() Layout
}

// NewSession returns an empty session. A nil newID uses NewPlayerID.
func NewSession(newID func() string) *Session {
	if newID == nil {
		newID = NewPlayerID
	}

	return &Session{
		byID:    make(map[string]*Player, Capacity),
		newID:   newID,
		shuffle: Generate,
	}
}

func (s *Session) State() State {
	return s.state
}

// Winner returns the winning player ID once the session is complete.
func (s *Session) Winner() string {
	return s.winner
}

// Players returns a snapshot of the roster in join order.
func (s *Session) Players() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, *p)
	}
	return out
}

func (s *Session) Player(id string) (Player, bool) {
	p, ok := s.byID[id]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Join seats a new player and returns its ID. When the join fills the
// session, the freshly shuffled layout is returned as well; it is returned
// exactly once per session.
func (s *Session) Join() (string, *Layout, error) {
	if len(s.players) >= Capacity {
		return "", nil, ErrSessionFull
	}

	id := s.newID()
	if _, exists := s.byID[id]; exists {
		return "", nil, fmt.Errorf("duplicate player id %q", id)
	}

	p := &Player{ID: id, StillPlaying: true}
	s.players = append(s.players, p)
	s.byID[id] = p

	if len(s.players) < Capacity {
		return id, nil, nil
	}

	s.state = Ready
	layout := s.shuffle()

	return id, &layout, nil
}

func (s *Session) lookup(id string) (*Player, error) {
	if s.state == Complete {
		return nil, ErrGameOver
	}

	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
	}

	return p, nil
}

// Match adds points to the player's score and returns the new total.
func (s *Session) Match(id string, points int) (int, error) {
	p, err := s.lookup(id)
	if err != nil {
		return 0, err
	}

	p.Score += points

	return p.Score, nil
}

// Done marks the player finished. Once every seat has finished it reports
// the winner and over is true; that happens once per session.
func (s *Session) Done(id string) (winner string, over bool, err error) {
	p, err := s.lookup(id)
	if err != nil {
		return "", false, err
	}

	p.StillPlaying = false

	finished := 0
	for _, q := range s.players {
		if !q.StillPlaying {
			finished++
		}
	}

	if finished < Capacity {
		return "", false, nil
	}

	// Ties go to the second seat.
	s.winner = s.players[1].ID
	if s.players[0].Score > s.players[1].Score {
		s.winner = s.players[0].ID
	}
	s.state = Complete

	return s.winner, true, nil
}

// Apply dispatches a decoded client message and returns the notification
// to broadcast, or "" when there is nothing to send.
func (s *Session) Apply(msg Inbound) (string, error) {
	switch m := msg.(type) {
	case Match:
		score, err := s.Match(m.PlayerID, m.Points)
		if err != nil {
			return "", err
		}
		return Update(m.PlayerID, score), nil
	case Done:
		winner, over, err := s.Done(m.PlayerID)
		if err != nil || !over {
			return "", err
		}
		return GameOver(winner), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrMalformed, msg)
	}
}
