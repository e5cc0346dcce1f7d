package battlejong

import (
	"strings"

	"github.com/google/uuid"
)

const playerIDPrefix = "pid"

// NewPlayerID returns a random player token. It never contains Separator.
func NewPlayerID() string {
	return playerIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
