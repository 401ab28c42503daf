package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/cuescore/pkg/stats"
)

// DateLayout is the day/month/year form used in match rows.
const DateLayout = "2/1/2006"

// statLine is one labelled line of the statistics table.
type statLine struct {
	label   string
	snooker bool
	value   func(stats.PlayerStats) string
}

var statLines = []statLine{
	{"Number of victories", false, func(s stats.PlayerStats) string {
		return fmt.Sprintf("%d (%d%%)", s.VictoryCount, s.VictoryPercent)
	}},
	{"Longest victory streak", false, func(s stats.PlayerStats) string {
		return fmt.Sprint(s.LongestVictoryStreak)
	}},
	{"Best score", true, func(s stats.PlayerStats) string {
		return fmt.Sprint(s.Snooker.BestScore)
	}},
	{"Best break", true, func(s stats.PlayerStats) string {
		return fmt.Sprint(s.Snooker.BestBreak)
	}},
	{"Average best break", true, func(s stats.PlayerStats) string {
		return formatAverage(s.Snooker.AverageBestBreak)
	}},
	{"Average break", true, func(s stats.PlayerStats) string {
		return formatAverage(s.Snooker.AverageBreak)
	}},
	{"Average number of penalties", true, func(s stats.PlayerStats) string {
		return formatAverage(s.Snooker.AveragePenaltyCount)
	}},
}

func formatAverage(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

// subjects returns the statistics shown side by side.
func (r Report) subjects() []stats.PlayerStats {
	var out []stats.PlayerStats
	if r.PlayerStats != nil {
		out = append(out, *r.PlayerStats)
	}
	if r.OpponentStats != nil {
		out = append(out, *r.OpponentStats)
	}
	return out
}

// statsTable returns the statistics as rows of cells, header first.
func (r Report) statsTable() [][]string {
	subjects := r.subjects()
	if len(subjects) == 0 {
		return nil
	}
	header := []string{""}
	for _, s := range subjects {
		header = append(header, s.Player)
	}
	table := [][]string{header}
	for _, line := range statLines {
		if line.snooker && subjects[0].Snooker == nil {
			continue
		}
		cells := []string{line.label}
		for _, s := range subjects {
			cells = append(cells, line.value(s))
		}
		table = append(table, cells)
	}
	return table
}

// matchTable returns the match rows as cells, header first.
func (r Report) matchTable() [][]string {
	snooker := r.Query.Game.IsSnooker()
	left, right := "J1", "J2"
	if r.Query.Player != All {
		left = r.Query.Player
	}
	if r.Query.Opponent != All {
		right = r.Query.Opponent
	}
	header := []string{"Date", left + "'s score", right + "'s score"}
	if snooker {
		header = append(header, "Best break")
	}
	table := [][]string{header}

	for _, row := range r.Rows {
		cells := []string{
			row.Date.Format(DateLayout),
			sideCell(row.Left, r.Query.Player == All),
			sideCell(row.Right, r.Query.Opponent == All),
		}
		if snooker {
			best := "-"
			if row.BestBreak != nil {
				best = fmt.Sprintf("%d (%s)", row.BestBreak.Value, row.BestBreak.Owner)
			}
			cells = append(cells, best)
		}
		table = append(table, cells)
	}
	return table
}

func sideCell(s Side, named bool) string {
	cell := fmt.Sprint(s.Score)
	if named {
		cell += " (" + s.ID + ")"
	}
	if !s.Loser {
		cell += " *"
	}
	return cell
}

// WriteText renders the report as aligned plain text. Winning scores are
// starred.
func WriteText(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "%s  period %s  player %s  opponent %s", r.Query.Game, r.Query.Period, r.Query.Player, r.Query.Opponent)
	if r.Favorite {
		fmt.Fprint(tw, "  [favorite]")
	}
	fmt.Fprintln(tw)

	if r.Matches == 0 {
		fmt.Fprintln(tw, "no matches")
		return tw.Flush()
	}

	if table := r.statsTable(); table != nil {
		fmt.Fprintln(tw)
		writeRows(tw, table)
	}
	fmt.Fprintln(tw)
	writeRows(tw, r.matchTable())
	return tw.Flush()
}

func writeRows(w io.Writer, table [][]string) {
	for _, cells := range table {
		fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
	}
}

// WriteBreaks renders the break details of one row, one break per line.
func WriteBreaks(w io.Writer, row Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, b := range row.Breaks {
		fmt.Fprintf(tw, "%s\t%s\t\n", b.ID, strings.Join(b.Balls, " "))
	}
	return tw.Flush()
}

// Sheet names of the exported workbook.
const (
	SheetStats   = "Stats"
	SheetMatches = "Matches"
	SheetBreaks  = "Breaks"
)

// WriteXLSX exports the report as a workbook with a statistics sheet, a
// match sheet and, for snooker, a sheet listing every break.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), SheetMatches); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := fillSheet(f, SheetMatches, r.matchTable()); err != nil {
		return err
	}

	if table := r.statsTable(); table != nil {
		if _, err := f.NewSheet(SheetStats); err != nil {
			return fmt.Errorf("create sheet %q: %w", SheetStats, err)
		}
		if err := fillSheet(f, SheetStats, table); err != nil {
			return err
		}
	}

	if r.Query.Game.IsSnooker() {
		table := [][]string{{"Date", "Player", "Break"}}
		for _, row := range r.Rows {
			for _, b := range row.Breaks {
				table = append(table, []string{row.Date.Format(DateLayout), b.ID, strings.Join(b.Balls, " ")})
			}
		}
		if _, err := f.NewSheet(SheetBreaks); err != nil {
			return fmt.Errorf("create sheet %q: %w", SheetBreaks, err)
		}
		if err := fillSheet(f, SheetBreaks, table); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, table [][]string) error {
	for idx, row := range table {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for i, val := range row {
			cells[i] = val
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("fill sheet %q: %w", sheet, err)
		}
	}
	return nil
}
