package match

import "time"

// Scoreboard is the state of a single in-progress match. It owns the event
// log and is driven by the scoring operations below. A Scoreboard is not
// safe for concurrent use.
type Scoreboard struct {
	game       Game
	scores     [2]int
	active     Seat
	breakScore int
	log        []Event
	presenter  Presenter
}

// NewScoreboard creates a scoreboard at 0-0. Snooker logs open with a turn
// marker for the starting player.
func NewScoreboard(game Game, first Seat, p Presenter) *Scoreboard {
	if p == nil {
		p = NopPresenter{}
	}
	s := &Scoreboard{
		game:      game,
		active:    first,
		log:       make([]Event, 0, 64),
		presenter: p,
	}
	if game.IsSnooker() {
		s.log = append(s.log, TurnMarker(first))
	}
	return s
}

// Game returns the game being scored.
func (s *Scoreboard) Game() Game { return s.game }

// Score returns the total of a seat.
func (s *Scoreboard) Score(seat Seat) int { return s.scores[seat] }

// Active returns the player at the table.
func (s *Scoreboard) Active() Seat { return s.active }

// BreakScore returns the points of the current break.
func (s *Scoreboard) BreakScore() int { return s.breakScore }

// Log returns a copy of the event log.
func (s *Scoreboard) Log() []Event {
	out := make([]Event, len(s.log))
	copy(out, s.log)
	return out
}

// View returns the current snapshot.
func (s *Scoreboard) View() View {
	return View{
		Game:       s.game,
		Scores:     s.scores,
		Active:     s.active,
		BreakScore: s.breakScore,
		Events:     len(s.log),
		CanUndo:    len(s.log) > s.floor(),
	}
}

// RecordPoints credits n points to the active player and extends the
// current break.
func (s *Scoreboard) RecordPoints(n int) error {
	if !s.game.IsSnooker() {
		return ErrSnookerOnly
	}
	if n <= 0 {
		return ErrInvalidPoints
	}
	s.presenter.PlayCue(CuePoint)
	s.scores[s.active] += n
	s.breakScore += n
	s.log = append(s.log, Points(s.active, n))
	s.render()
	return nil
}

// RecordPointsFor credits n points to seat on a pool table, regardless of
// who is at the table, and resets the rack display.
func (s *Scoreboard) RecordPointsFor(seat Seat, n int) error {
	if s.game.IsSnooker() {
		return ErrPoolOnly
	}
	if n <= 0 {
		return ErrInvalidPoints
	}
	s.presenter.PlayCue(CuePoint)
	s.scores[seat] += n
	s.log = append(s.log, Points(seat, n))
	s.presenter.ResetRack()
	s.render()
	return nil
}

// RecordPenalty logs a foul by the active player. The foul closes the
// break, control passes to the opponent and the opponent receives
// PenaltyPoints.
func (s *Scoreboard) RecordPenalty() error {
	if !s.game.IsSnooker() {
		return ErrSnookerOnly
	}
	s.presenter.PlayCue(CuePenalty)
	s.log = append(s.log, Penalty(s.active))
	s.toggle()
	s.scores[s.active] += PenaltyPoints
	s.render()
	return nil
}

// ToggleTurn ends the current break without a foul.
func (s *Scoreboard) ToggleTurn() error {
	if !s.game.IsSnooker() {
		return ErrSnookerOnly
	}
	s.toggle()
	s.render()
	return nil
}

func (s *Scoreboard) toggle() {
	s.active = s.active.Other()
	s.log = append(s.log, TurnMarker(s.active))
	s.breakScore = 0
}

// Undo reverses the most recent scoring event. Turn markers on top of the
// log are unwound along the way so that every undo visibly reverts points
// or a penalty. The opening marker of a snooker log is never removed.
// Undo reports whether anything was reversed; the view is rendered in
// either case.
func (s *Scoreboard) Undo() bool {
	reversed := false
	for !reversed && len(s.log) > s.floor() {
		last := s.log[len(s.log)-1]
		s.log = s.log[:len(s.log)-1]

		switch last.Kind {
		case EventTurn:
			s.active = s.active.Other()
		case EventPenalty:
			s.scores[s.active.Other()] -= PenaltyPoints
			reversed = true
		case EventPoints:
			owner := last.Seat
			if s.game.IsSnooker() {
				owner = s.active
			}
			s.scores[owner] -= last.Points
			reversed = true
		}
	}

	if reversed {
		s.breakScore = s.tailBreak()
		s.presenter.PlayCue(CuePoint)
	}
	s.render()
	return reversed
}

// floor is the number of log entries undo must keep.
func (s *Scoreboard) floor() int {
	if s.game.IsSnooker() {
		return 1
	}
	return 0
}

// tailBreak sums the points logged since the last turn marker.
func (s *Scoreboard) tailBreak() int {
	total := 0
	for i := len(s.log) - 1; i >= 0; i-- {
		ev := s.log[i]
		if ev.IsTurn() {
			break
		}
		if ev.Kind == EventPoints {
			total += ev.Points
		}
	}
	return total
}

func (s *Scoreboard) render() {
	s.presenter.Render(s.View())
}

// Finish converts the match into its persisted record. ids are the player
// names in seat order. Snooker records carry best breaks, penalty counts
// and the break list reconstructed from the log.
func (s *Scoreboard) Finish(ids [2]string, date time.Time) MatchRecord {
	rec := MatchRecord{
		Date: date,
		J1:   PlayerResult{ID: ids[J1], Score: s.scores[J1]},
		J2:   PlayerResult{ID: ids[J2], Score: s.scores[J2]},
	}
	if s.game.IsSnooker() {
		b := Reconstruct(s.log)
		rec.J1.BestBreak = intPtr(b.BestBreak[J1])
		rec.J2.BestBreak = intPtr(b.BestBreak[J2])
		rec.J1.PenaltyCount = intPtr(b.PenaltyCount[J1])
		rec.J2.PenaltyCount = intPtr(b.PenaltyCount[J2])
		rec.Breaks = b.Records(ids)
	}
	return rec
}

func intPtr(v int) *int { return &v }
