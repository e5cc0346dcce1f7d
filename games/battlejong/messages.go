package battlejong

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Separator splits the fields of every message on the wire.
const Separator = "_"

// Inbound message tags.
const (
	TagMatch = "match"
	TagDone  = "done"
)

// Outbound message tags.
const (
	TagConnected = "connected"
	TagStart     = "start"
	TagUpdate    = "update"
	TagGameOver  = "gameOver"
)

var ErrMalformed = errors.New("malformed message")

// Inbound is a decoded client message: either Match or Done.
type Inbound interface {
	Player() string
	inbound()
}

// Match reports that a player cleared a pair worth Points.
type Match struct {
	PlayerID string
	Points   int
}

// Done reports that a player has no moves left.
type Done struct {
	PlayerID string
}

func (m Match) Player() string { return m.PlayerID }
func (d Done) Player() string  { return d.PlayerID }

func (Match) inbound() {}
func (Done) inbound()  {}

// ParseInbound decodes a raw client message. Anything that is not a complete
// match or done message is rejected with ErrMalformed.
func ParseInbound(raw string) (Inbound, error) {
	fields := strings.Split(raw, Separator)

	switch fields[0] {
	case TagMatch:
		if len(fields) != 3 || fields[1] == "" {
			return nil, fmt.Errorf("%w: %q needs a player id and points", ErrMalformed, raw)
		}

		points, err := strconv.Atoi(fields[2])
		if err != nil || points < 0 {
			return nil, fmt.Errorf("%w: invalid points %q", ErrMalformed, fields[2])
		}

		return Match{PlayerID: fields[1], Points: points}, nil
	case TagDone:
		if len(fields) != 2 || fields[1] == "" {
			return nil, fmt.Errorf("%w: %q needs a player id", ErrMalformed, raw)
		}

		return Done{PlayerID: fields[1]}, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag %q", ErrMalformed, fields[0])
	}
}

func join(fields ...string) string {
	return strings.Join(fields, Separator)
}

// Connected is sent privately to a socket that was just given a seat.
func Connected(playerID string) string {
	return join(TagConnected, playerID)
}

// Start carries the shuffled board to every socket.
func Start(layout Layout) (string, error) {
	data, err := json.Marshal(layout)
	if err != nil {
		return "", err
	}

	return join(TagStart, string(data)), nil
}

func Update(playerID string, score int) string {
	return join(TagUpdate, playerID, strconv.Itoa(score))
}

func GameOver(winnerID string) string {
	return join(TagGameOver, winnerID)
}
