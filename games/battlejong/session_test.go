package battlejong

import (
	"errors"
	"fmt"
	"testing"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("pid%d", n)
	}
}

func newTestSession(t *testing.T) (*Session, *int) {
	t.Helper()

	s := NewSession(sequentialIDs())
	shuffles := 0
	s.shuffle = func() Layout {
		shuffles++
		return GenerateFrom(func(int) int { return 5 })
	}

	return s, &shuffles
}

func readySession(t *testing.T) *Session {
	t.Helper()

	s, _ := newTestSession(t)
	for range Capacity {
		if _, _, err := s.Join(); err != nil {
			t.Fatalf("Join error: %v", err)
		}
	}
	return s
}

func TestSessionJoinTransitionsToReadyOnce(t *testing.T) {
	s, shuffles := newTestSession(t)

	id, layout, err := s.Join()
	if err != nil {
		t.Fatalf("first Join error: %v", err)
	}
	if id != "pid1" || layout != nil {
		t.Fatalf("first Join = %q, %v", id, layout)
	}
	if s.State() != Waiting {
		t.Fatalf("state = %v, want waiting", s.State())
	}

	id, layout, err = s.Join()
	if err != nil {
		t.Fatalf("second Join error: %v", err)
	}
	if id != "pid2" || layout == nil {
		t.Fatalf("second Join = %q, %v", id, layout)
	}
	if layout[4][4][7] != Wildcard+5 {
		t.Errorf("layout top tile = %d", layout[4][4][7])
	}
	if s.State() != Ready {
		t.Fatalf("state = %v, want ready", s.State())
	}

	_, layout, err = s.Join()
	if !errors.Is(err, ErrSessionFull) {
		t.Fatalf("third Join error = %v, want ErrSessionFull", err)
	}
	if layout != nil {
		t.Error("third Join returned a layout")
	}
	if *shuffles != 1 {
		t.Errorf("shuffled %d times, want 1", *shuffles)
	}
	if len(s.Players()) != Capacity {
		t.Errorf("roster size = %d", len(s.Players()))
	}
}

func TestSessionNewPlayer(t *testing.T) {
	s, _ := newTestSession(t)

	id, _, _ := s.Join()
	p, ok := s.Player(id)
	if !ok {
		t.Fatalf("player %q not found", id)
	}
	if p.Score != 0 || !p.StillPlaying {
		t.Errorf("new player = %+v", p)
	}
}

func TestSessionRejectsDuplicateID(t *testing.T) {
	s := NewSession(func() string { return "pidSame" })

	if _, _, err := s.Join(); err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if _, _, err := s.Join(); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if len(s.Players()) != 1 || s.State() != Waiting {
		t.Errorf("roster = %+v, state = %v", s.Players(), s.State())
	}
}

func TestSessionMatchIsCumulative(t *testing.T) {
	s := NewSession(func() string { return "pidX" })
	if _, _, err := s.Join(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Match("pidX", 10); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"update_pidX_17", "update_pidX_24"} {
		got, err := s.Apply(Match{PlayerID: "pidX", Points: 7})
		if err != nil {
			t.Fatalf("Apply error: %v", err)
		}
		if got != want {
			t.Errorf("Apply = %q, want %q", got, want)
		}
	}
}

func TestSessionUnknownPlayer(t *testing.T) {
	s := readySession(t)

	if _, err := s.Match("pidGhost", 5); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("Match error = %v, want ErrUnknownPlayer", err)
	}
	if _, _, err := s.Done("pidGhost"); !errors.Is(err, ErrUnknownPlayer) {
		t.Errorf("Done error = %v, want ErrUnknownPlayer", err)
	}

	for _, p := range s.Players() {
		if p.Score != 0 || !p.StillPlaying {
			t.Errorf("player %s changed: %+v", p.ID, p)
		}
	}
}

func TestSessionWinner(t *testing.T) {
	tests := []struct {
		name   string
		scores [2]int
		order  [2]string
		want   string
	}{
		{"first seat higher", [2]int{50, 30}, [2]string{"pid1", "pid2"}, "pid1"},
		{"first seat higher, reverse done order", [2]int{50, 30}, [2]string{"pid2", "pid1"}, "pid1"},
		{"second seat higher", [2]int{10, 40}, [2]string{"pid1", "pid2"}, "pid2"},
		{"tie goes to second seat", [2]int{25, 25}, [2]string{"pid1", "pid2"}, "pid2"},
		{"tie goes to second seat, reverse done order", [2]int{25, 25}, [2]string{"pid2", "pid1"}, "pid2"},
		{"scoreless tie", [2]int{0, 0}, [2]string{"pid2", "pid1"}, "pid2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readySession(t)
			s.Match("pid1", tt.scores[0])
			s.Match("pid2", tt.scores[1])

			msg, err := s.Apply(Done{PlayerID: tt.order[0]})
			if err != nil {
				t.Fatal(err)
			}
			if msg != "" {
				t.Fatalf("first done broadcast %q", msg)
			}
			if s.State() != Ready {
				t.Fatalf("state after first done = %v", s.State())
			}

			msg, err = s.Apply(Done{PlayerID: tt.order[1]})
			if err != nil {
				t.Fatal(err)
			}
			if want := "gameOver_" + tt.want; msg != want {
				t.Errorf("second done broadcast = %q, want %q", msg, want)
			}
			if s.State() != Complete || s.Winner() != tt.want {
				t.Errorf("state = %v, winner = %q", s.State(), s.Winner())
			}
		})
	}
}

func TestSessionRepeatedDoneDoesNotFinish(t *testing.T) {
	s := readySession(t)

	for range 3 {
		msg, err := s.Apply(Done{PlayerID: "pid1"})
		if err != nil || msg != "" {
			t.Fatalf("Apply = %q, %v", msg, err)
		}
	}
	if s.State() != Ready {
		t.Errorf("state = %v, want ready", s.State())
	}
}

func TestSessionDoneWhileWaiting(t *testing.T) {
	s, _ := newTestSession(t)
	s.Join()

	_, over, err := s.Done("pid1")
	if err != nil || over {
		t.Fatalf("Done = %v, %v", over, err)
	}

	// The seat stays finished after the second player joins.
	s.Join()
	winner, over, err := s.Done("pid2")
	if err != nil || !over || winner != "pid2" {
		t.Fatalf("Done = %q, %v, %v", winner, over, err)
	}
}

func TestSessionIsTerminalOnceComplete(t *testing.T) {
	s := readySession(t)
	s.Match("pid1", 50)
	s.Done("pid1")
	s.Done("pid2")

	if _, err := s.Apply(Match{PlayerID: "pid2", Points: 100}); !errors.Is(err, ErrGameOver) {
		t.Errorf("Match after game over error = %v", err)
	}
	if _, err := s.Apply(Done{PlayerID: "pid2"}); !errors.Is(err, ErrGameOver) {
		t.Errorf("Done after game over error = %v", err)
	}
	if p, _ := s.Player("pid2"); p.Score != 0 {
		t.Errorf("score changed after game over: %d", p.Score)
	}
	if s.Winner() != "pid1" {
		t.Errorf("winner = %q", s.Winner())
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{Waiting: "waiting", Ready: "ready", Complete: "complete", State(9): "State(9)"} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
	}
}
