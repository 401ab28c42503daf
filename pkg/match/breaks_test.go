package match

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestReconstructEmptyLog(t *testing.T) {
	b := Reconstruct(nil)
	if len(b.Breaks) != 0 {
		t.Errorf("Breaks = %v, want none", b.Breaks)
	}
	if b.BestBreak != [2]int{} || b.PenaltyCount != [2]int{} {
		t.Errorf("BestBreak = %v, PenaltyCount = %v, want zeros", b.BestBreak, b.PenaltyCount)
	}
}

func TestReconstructScenario(t *testing.T) {
	s := NewScoreboard(Snooker, J1, nil)
	s.RecordPoints(3)
	s.ToggleTurn()
	s.RecordPoints(2)
	s.ToggleTurn()
	s.RecordPenalty()

	wantLog := []Event{
		TurnMarker(J1), Points(J1, 3),
		TurnMarker(J2), Points(J2, 2),
		TurnMarker(J1), Penalty(J1),
		TurnMarker(J2),
	}
	if diff := cmp.Diff(wantLog, s.Log()); diff != "" {
		t.Fatalf("Log mismatch (-want +got):\n%s", diff)
	}

	date := time.Date(2024, 5, 1, 21, 30, 0, 0, time.UTC)
	rec := s.Finish([2]string{"A", "B"}, date)

	want := MatchRecord{
		Date: date,
		J1:   PlayerResult{ID: "A", Score: 3, BestBreak: intPtr(3), PenaltyCount: intPtr(1)},
		J2:   PlayerResult{ID: "B", Score: 6, BestBreak: intPtr(2), PenaltyCount: intPtr(0)},
		Breaks: []BreakRecord{
			{ID: "A", Pots: []Pot{{Value: 3}}},
			{ID: "B", Pots: []Pot{{Value: 2}}},
			{ID: "A", Pots: []Pot{PenaltyPot}},
			{ID: "B", Pots: []Pot{}},
		},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("Finish mismatch (-want +got):\n%s", diff)
	}
}

func TestReconstructBestBreak(t *testing.T) {
	log := []Event{
		TurnMarker(J1), Points(J1, 1), Points(J1, 7), Points(J1, 1), Points(J1, 5),
		TurnMarker(J2), Points(J2, 1), Points(J2, 6),
		TurnMarker(J1), Points(J1, 1),
		TurnMarker(J2), Points(J2, 1), Points(J2, 7), Points(J2, 1), Points(J2, 7),
	}
	b := Reconstruct(log)
	if b.BestBreak != [2]int{14, 16} {
		t.Errorf("BestBreak = %v, want [14 16]", b.BestBreak)
	}
	if len(b.Breaks) != 4 {
		t.Errorf("Breaks = %d, want 4", len(b.Breaks))
	}
}

func TestReconstructWithoutOpeningMarker(t *testing.T) {
	b := Reconstruct([]Event{Points(J2, 4), Penalty(J2)})
	if len(b.Breaks) != 1 || b.Breaks[0].Seat != J2 {
		t.Fatalf("Breaks = %+v, want one break for J2", b.Breaks)
	}
	if b.BestBreak[J2] != 4 || b.PenaltyCount[J2] != 1 {
		t.Errorf("BestBreak = %v, PenaltyCount = %v", b.BestBreak, b.PenaltyCount)
	}
}

// randomLog plays a random snooker match and returns its log.
func randomLog(rng *rand.Rand) []Event {
	s := NewScoreboard(Snooker, Seat(rng.Intn(2)), nil)
	for i := rng.Intn(60); i > 0; i-- {
		switch rng.Intn(5) {
		case 0, 1:
			s.RecordPoints(1 + rng.Intn(7))
		case 2:
			s.RecordPenalty()
		case 3:
			s.ToggleTurn()
		case 4:
			s.Undo()
		}
	}
	return s.Log()
}

func TestReconstructPartitionsLog(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		log := randomLog(rng)
		b := Reconstruct(log)

		var want, got []Pot
		markers := 0
		for _, ev := range log {
			switch ev.Kind {
			case EventTurn:
				markers++
			case EventPenalty:
				want = append(want, PenaltyPot)
			case EventPoints:
				want = append(want, Pot{Value: ev.Points})
			}
		}
		for _, brk := range b.Breaks {
			got = append(got, brk.Pots...)
		}

		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("trial %d: pots mismatch (-want +got):\n%s", trial, diff)
		}
		if len(b.Breaks) != markers {
			t.Fatalf("trial %d: Breaks = %d, want %d", trial, len(b.Breaks), markers)
		}
	}
}

func TestReconstructBestBreakIsMaximum(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 200; trial++ {
		b := Reconstruct(randomLog(rng))

		var maxima [2]int
		for _, brk := range b.Breaks {
			total := BreakRecord{Pots: brk.Pots}.Total()
			maxima[brk.Seat] = max(maxima[brk.Seat], total)
		}
		if maxima != b.BestBreak {
			t.Fatalf("trial %d: BestBreak = %v, want %v", trial, b.BestBreak, maxima)
		}
	}
}

func TestBreakRecordJSON(t *testing.T) {
	rec := BreakRecord{ID: "Sam", Pots: []Pot{{Value: 1}, {Value: 7}, PenaltyPot}}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `{"id":"Sam","break":[1,7,"P"]}` {
		t.Errorf("Marshal = %s", data)
	}

	var back BreakRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if diff := cmp.Diff(rec, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	var bad Pot
	if err := json.Unmarshal([]byte(`"X"`), &bad); err == nil {
		t.Error("Unmarshal(\"X\") error = nil, want error")
	}
}

func TestBallName(t *testing.T) {
	tests := []struct {
		pot  Pot
		want string
	}{
		{Pot{Value: 1}, "red"},
		{Pot{Value: 4}, "brown"},
		{Pot{Value: 7}, "black"},
		{PenaltyPot, "penalty"},
	}
	for _, tc := range tests {
		if got := tc.pot.BallName(); got != tc.want {
			t.Errorf("BallName(%+v) = %q, want %q", tc.pot, got, tc.want)
		}
	}
}
