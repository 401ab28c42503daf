package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/cuescore/internal/store"
	"github.com/yourusername/cuescore/pkg/match"
	"github.com/yourusername/cuescore/pkg/report"
)

// console renders the scoreboard on a terminal. Cues ring the bell.
type console struct {
	w    io.Writer
	ids  [2]string
	bell bool
}

func (c *console) Render(v match.View) {
	fmt.Fprintf(c.w, "%s %d - %d %s", c.ids[match.J1], v.Scores[match.J1], v.Scores[match.J2], c.ids[match.J2])
	if v.Game.IsSnooker() {
		fmt.Fprintf(c.w, "   break %d   %s to play", v.BreakScore, c.ids[v.Active])
	}
	fmt.Fprintln(c.w)
}

func (c *console) PlayCue(cue match.Cue) {
	if !c.bell {
		return
	}
	fmt.Fprint(c.w, "\a")
	if cue == match.CuePenalty {
		fmt.Fprint(c.w, "\a")
	}
}

func (c *console) ResetRack() {
	fmt.Fprintln(c.w, "new rack")
}

const snookerHelp = `1-7  pot a ball of that value
p    penalty against the player at the table
t    end the break
u    undo
s    save the match and show its report
q    quit without saving`

const poolHelp = `1    rack to the first player
2    rack to the second player
u    undo
s    save the match and show its report
q    quit without saving`

// game is one interactive match on a terminal.
type game struct {
	board   *match.Scoreboard
	screen  match.Presenter
	ids     [2]string
	history *store.History
	now     func() time.Time
	out     io.Writer
}

// play reads commands from in until the match is saved, abandoned or the
// input ends.
func (g *game) play(ctx context.Context, in io.Reader) error {
	help := poolHelp
	if g.board.Game().IsSnooker() {
		help = snookerHelp
	}
	fmt.Fprintln(g.out, help)
	g.screen.Render(g.board.View())

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		cmd := strings.TrimSpace(sc.Text())
		switch cmd {
		case "":
			continue
		case "q":
			fmt.Fprintln(g.out, "match abandoned")
			return nil
		case "s":
			return g.save(ctx)
		case "?", "h":
			fmt.Fprintln(g.out, help)
			continue
		}
		if err := g.apply(cmd); err != nil {
			fmt.Fprintf(g.out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func (g *game) apply(cmd string) error {
	switch cmd {
	case "u":
		if !g.board.Undo() {
			return fmt.Errorf("nothing to undo")
		}
		return nil
	case "p":
		return g.board.RecordPenalty()
	case "t":
		return g.board.ToggleTurn()
	}

	n, err := strconv.Atoi(cmd)
	if err != nil {
		return fmt.Errorf("unknown command %q", cmd)
	}
	if g.board.Game().IsSnooker() {
		if n > 7 {
			return fmt.Errorf("no ball is worth %d", n)
		}
		return g.board.RecordPoints(n)
	}
	switch n {
	case 1:
		return g.board.RecordPointsFor(match.J1, 1)
	case 2:
		return g.board.RecordPointsFor(match.J2, 1)
	}
	return fmt.Errorf("no player %d", n)
}

// save appends the match to history and prints the report of the two
// players.
func (g *game) save(ctx context.Context) error {
	rec := g.board.Finish(g.ids, g.now().UTC())
	if err := g.history.Append(ctx, g.board.Game(), rec); err != nil {
		return err
	}
	records, err := g.history.Load(ctx, g.board.Game())
	if err != nil {
		return err
	}
	fmt.Fprintln(g.out)
	return report.WriteText(g.out, report.Build(records, report.SaveQuery(g.board.Game(), g.ids), nil, g.now()))
}
