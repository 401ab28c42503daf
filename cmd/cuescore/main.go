// Command cuescore keeps score of 8-ball, 9-ball and snooker matches on a
// terminal and reports on the stored history.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yourusername/cuescore/internal/config"
	"github.com/yourusername/cuescore/internal/store"
	"github.com/yourusername/cuescore/pkg/api"
	"github.com/yourusername/cuescore/pkg/match"
	"github.com/yourusername/cuescore/pkg/report"
)

const version = "0.1.0"

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env is what every command needs: the history and where to write.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	history *store.History
	closer  io.Closer
	in      io.Reader
	out     io.Writer
}

// open loads the configuration named by the global flags and opens the
// match database.
func open(c *cli.Context, in io.Reader, out io.Writer) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if path := c.String("db"); path != "" {
		cfg.Storage.Path = path
	}
	logger := cfg.Logger(os.Stderr)

	db, err := store.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &env{
		cfg:     cfg,
		logger:  logger,
		history: store.NewHistory(db, cfg.Legacy.IDs(), logger),
		closer:  db,
		in:      in,
		out:     out,
	}, nil
}

// withEnv wraps a command action that needs the history.
func withEnv(in io.Reader, out io.Writer, fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := open(c, in, out)
		if err != nil {
			return err
		}
		defer e.closer.Close()
		return fn(c, e)
	}
}

var queryFlags = []cli.Flag{
	&cli.StringFlag{Name: "game", Aliases: []string{"g"}, Usage: "8ball, 9ball or snooker"},
	&cli.StringFlag{Name: "period", Usage: "ALL, WEEK, MONTH or YEAR"},
	&cli.StringFlag{Name: "player", Usage: "player name or ALL"},
	&cli.StringFlag{Name: "opponent", Usage: "opponent name or ALL"},
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	return &cli.App{
		Name:    "cuescore",
		Usage:   "score cue-sports matches and report on them",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: config.DefaultFile, Usage: "path to the configuration file"},
			&cli.StringFlag{Name: "db", Usage: "path to the match database (overrides the configuration)"},
		},
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "score a match interactively",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "game", Aliases: []string{"g"}, Value: string(match.Snooker), Usage: "8ball, 9ball or snooker"},
					&cli.StringFlag{Name: "first", Value: "J1", Usage: "seat breaking off"},
					&cli.StringFlag{Name: "j1", Usage: "name of the first player"},
					&cli.StringFlag{Name: "j2", Usage: "name of the second player"},
					&cli.BoolFlag{Name: "quiet", Usage: "do not ring the bell"},
				},
				Action: withEnv(in, out, playCommand),
			},
			{
				Name:   "report",
				Usage:  "show the match history and statistics",
				Flags:  append([]cli.Flag{&cli.StringFlag{Name: "xlsx", Usage: "export the report to this workbook"}}, queryFlags...),
				Action: withEnv(in, out, reportCommand),
			},
			{
				Name:      "breaks",
				Usage:     "show the breaks of one snooker match of the report",
				ArgsUsage: "ROW",
				Flags:     queryFlags,
				Action:    withEnv(in, out, breaksCommand),
			},
			{
				Name:   "favorite",
				Usage:  "show or set the favorite report",
				Flags:  queryFlags,
				Action: withEnv(in, out, favoriteCommand),
			},
			{
				Name:      "names",
				Usage:     "show or set the player names",
				ArgsUsage: "[J1|J2 NAME]",
				Action:    withEnv(in, out, namesCommand),
			},
			{
				Name:  "random",
				Usage: "draw the game to play",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(out, api.RandomGame())
					return nil
				},
			},
		},
	}
}

func playCommand(c *cli.Context, e *env) error {
	g, err := match.ParseGame(c.String("game"))
	if err != nil {
		return err
	}
	first, err := match.ParseSeat(c.String("first"))
	if err != nil {
		return err
	}

	ctx := c.Context
	ids, err := e.history.PlayerNames(ctx)
	if err != nil {
		return err
	}
	for seat, flag := range map[match.Seat]string{match.J1: "j1", match.J2: "j2"} {
		if name := c.String(flag); name != "" {
			if err := e.history.SetPlayerName(ctx, seat, name); err != nil {
				return err
			}
			ids[seat] = name
		}
	}

	screen := &console{w: e.out, ids: ids, bell: !c.Bool("quiet")}
	session := &game{
		board:   match.NewScoreboard(g, first, screen),
		screen:  screen,
		ids:     ids,
		history: e.history,
		now:     time.Now,
		out:     e.out,
	}
	e.logger.Debug("match started", "game", g, "j1", ids[match.J1], "j2", ids[match.J2])
	return session.play(ctx, e.in)
}

// query builds the report query from the command flags. The favorite is
// used when no flag is set.
func query(ctx context.Context, c *cli.Context, e *env) (report.Query, *report.Query, error) {
	v := url.Values{}
	for _, name := range []string{"game", "period", "player", "opponent"} {
		if c.IsSet(name) {
			v.Set(name, c.String(name))
		}
	}
	q, given, err := report.ParseQuery(v)
	if err != nil {
		return q, nil, err
	}
	fav, err := e.history.Favorite(ctx)
	if err != nil {
		return q, nil, err
	}
	if !given && fav != nil {
		q = *fav
	}
	return q, fav, nil
}

func buildReport(c *cli.Context, e *env) (report.Report, error) {
	q, fav, err := query(c.Context, c, e)
	if err != nil {
		return report.Report{}, err
	}
	records, err := e.history.Load(c.Context, q.Game)
	if err != nil {
		return report.Report{}, err
	}
	return report.Build(records, q, fav, time.Now()), nil
}

func reportCommand(c *cli.Context, e *env) error {
	rep, err := buildReport(c, e)
	if err != nil {
		return err
	}
	if path := c.String("xlsx"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := report.WriteXLSX(f, rep); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(e.out, "report written to %s\n", path)
		return nil
	}
	return report.WriteText(e.out, rep)
}

func breaksCommand(c *cli.Context, e *env) error {
	rep, err := buildReport(c, e)
	if err != nil {
		return err
	}
	if !rep.Query.Game.IsSnooker() {
		return fmt.Errorf("breaks are only kept for snooker")
	}
	n, err := strconv.Atoi(c.Args().First())
	if err != nil || n < 1 || n > len(rep.Rows) {
		return fmt.Errorf("row must be between 1 and %d", len(rep.Rows))
	}
	return report.WriteBreaks(e.out, rep.Rows[n-1])
}

func favoriteCommand(c *cli.Context, e *env) error {
	if c.NumFlags() == 0 {
		fav, err := e.history.Favorite(c.Context)
		if err != nil {
			return err
		}
		if fav == nil {
			fmt.Fprintln(e.out, "no favorite report")
			return nil
		}
		fmt.Fprintln(e.out, fav.Encode())
		return nil
	}
	q, _, err := query(c.Context, c, e)
	if err != nil {
		return err
	}
	if err := e.history.SetFavorite(c.Context, q); err != nil {
		return err
	}
	fmt.Fprintln(e.out, q.Encode())
	return nil
}

func namesCommand(c *cli.Context, e *env) error {
	if c.NArg() == 2 {
		seat, err := match.ParseSeat(c.Args().Get(0))
		if err != nil {
			return err
		}
		if err := e.history.SetPlayerName(c.Context, seat, c.Args().Get(1)); err != nil {
			return err
		}
	} else if c.NArg() != 0 {
		return fmt.Errorf("usage: names [J1|J2 NAME]")
	}
	ids, err := e.history.PlayerNames(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "J1 %s\nJ2 %s\n", ids[match.J1], ids[match.J2])
	return nil
}
