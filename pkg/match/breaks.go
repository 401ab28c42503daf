package match

// SeatBreak is a reconstructed break owned by a seat.
type SeatBreak struct {
	Seat Seat
	Pots []Pot
}

// Breakdown is the per-turn reconstruction of a snooker event log.
type Breakdown struct {
	BestBreak    [2]int      // Highest break per seat
	PenaltyCount [2]int      // Fouls committed per seat
	Breaks       []SeatBreak // One entry per turn marker, in log order
}

// Reconstruct partitions the log into breaks. Every turn marker opens a
// break owned by the seat it names, including breaks in which nothing was
// scored. Points extend the open break and the owner's best break; a foul
// is recorded in the open break and counted against its owner.
func Reconstruct(log []Event) Breakdown {
	var b Breakdown
	current := -1
	running := 0

	for _, ev := range log {
		if ev.IsTurn() {
			b.Breaks = append(b.Breaks, SeatBreak{Seat: ev.Seat, Pots: []Pot{}})
			current = len(b.Breaks) - 1
			running = 0
			continue
		}
		if current < 0 {
			// A log without an opening marker starts with the event's owner.
			b.Breaks = append(b.Breaks, SeatBreak{Seat: ev.Seat, Pots: []Pot{}})
			current = 0
		}

		brk := &b.Breaks[current]
		switch ev.Kind {
		case EventPenalty:
			brk.Pots = append(brk.Pots, PenaltyPot)
			b.PenaltyCount[brk.Seat]++
		case EventPoints:
			brk.Pots = append(brk.Pots, Pot{Value: ev.Points})
			running += ev.Points
			b.BestBreak[brk.Seat] = max(b.BestBreak[brk.Seat], running)
		}
	}
	return b
}

// Records resolves break owners to player names given in seat order.
func (b Breakdown) Records(ids [2]string) []BreakRecord {
	out := make([]BreakRecord, len(b.Breaks))
	for i, brk := range b.Breaks {
		out[i] = BreakRecord{ID: ids[brk.Seat], Pots: brk.Pots}
	}
	return out
}
