package battlejong

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseInbound(t *testing.T) {
	tests := []struct {
		raw  string
		want Inbound
	}{
		{"match_pid1_7", Match{PlayerID: "pid1", Points: 7}},
		{"match_pidX_0", Match{PlayerID: "pidX", Points: 0}},
		{"done_pid1", Done{PlayerID: "pid1"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseInbound(tt.raw)
			if err != nil {
				t.Fatalf("ParseInbound(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseInbound(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
			if got.Player() != tt.want.Player() {
				t.Errorf("Player() = %q, want %q", got.Player(), tt.want.Player())
			}
		})
	}
}

func TestParseInboundRejectsMalformed(t *testing.T) {
	tests := []string{
		"",
		"match",
		"match_pid1",
		"match_pid1_",
		"match__7",
		"match_pid1_seven",
		"match_pid1_-3",
		"match_pid1_7_extra",
		"done",
		"done_",
		"done_pid1_extra",
		"update_pid1_7",
		"hello",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			if _, err := ParseInbound(raw); !errors.Is(err, ErrMalformed) {
				t.Errorf("ParseInbound(%q) error = %v, want ErrMalformed", raw, err)
			}
		})
	}
}

func TestOutbound(t *testing.T) {
	if got := Connected("pid1"); got != "connected_pid1" {
		t.Errorf("Connected = %q", got)
	}
	if got := Update("pidX", 17); got != "update_pidX_17" {
		t.Errorf("Update = %q", got)
	}
	if got := GameOver("pid2"); got != "gameOver_pid2" {
		t.Errorf("GameOver = %q", got)
	}
}

func TestStartEncodesLayout(t *testing.T) {
	layout := Generate()

	msg, err := Start(layout)
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}

	payload, ok := strings.CutPrefix(msg, "start_")
	if !ok {
		t.Fatalf("Start = %.20s..., missing prefix", msg)
	}

	var decoded [][][]int
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("start payload is not a 3-D array: %v", err)
	}

	if len(decoded) != Layers || len(decoded[0]) != Rows || len(decoded[0][0]) != Columns {
		t.Fatalf("decoded shape = %dx%dx%d", len(decoded), len(decoded[0]), len(decoded[0][0]))
	}
	if decoded[4][4][7] != layout[4][4][7] {
		t.Errorf("top tile = %d, want %d", decoded[4][4][7], layout[4][4][7])
	}
}

func TestNewPlayerID(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewPlayerID()
		if !strings.HasPrefix(id, "pid") {
			t.Fatalf("id %q missing prefix", id)
		}
		if strings.Contains(id, Separator) {
			t.Fatalf("id %q contains separator", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
