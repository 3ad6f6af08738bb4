package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/aggregator"
	"github.com/pable/go-cup-rating/internal/model"
	"github.com/pable/go-cup-rating/internal/report"
	"github.com/pable/go-cup-rating/internal/standings"
	"github.com/pable/go-cup-rating/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Computed ratings are reused until the data or configuration changes. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// session keeps one service for the whole REPL so its view cache survives between commands.
type session struct {
	ctx  context.Context
	db   *storage.DB
	svc  *standings.Service
	best *int
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	s := &session{ctx: ctx, db: db, svc: newService(db)}

	cGreeting.Println("cuprating shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cuprating")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		name, args := tokens[0], tokens[1:]

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			s.list()
		case "rating":
			view := "all"
			if len(args) > 0 {
				view = args[0]
			}
			s.rating(view)
		case "bracket":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: bracket <tournament-id> [A|B]")
				continue
			}
			cup := "A"
			if len(args) > 1 {
				cup = args[1]
			}
			s.bracket(args[0], cup)
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <player-id|licensed-name>")
				continue
			}
			s.player(strings.Join(args, " "))
		case "best":
			s.setBest(args)
		case "config":
			s.config()
		case "reload":
			s.svc.Invalidate()
			cMuted.Println("cache cleared")
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q — type 'help'\n", name)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list stored tournaments"},
		{"rating [all|male|female|unknown]", "show the rating table or one gender view"},
		{"bracket <tournament-id> [A|B]", "show a cup bracket in finishing order"},
		{"player <id|licensed-name>", "show one player's results and win rate"},
		{"best <n> | best", "override the best-results count for this session, or reset it"},
		{"config", "show the stored rating configuration"},
		{"reload", "drop cached ratings"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *session) opts() standings.Options {
	return standings.Options{BestOverride: s.best}
}

func (s *session) fail(err error) {
	cError.Fprintf(os.Stderr, "error: %v\n", err)
}

func (s *session) list() {
	ts, err := s.db.ListTournaments(s.ctx)
	if err != nil {
		s.fail(err)
		return
	}
	if len(ts) == 0 {
		cMuted.Println("No tournaments stored yet.")
		return
	}
	report.PrintTournaments(os.Stdout, ts)
}

func (s *session) rating(view string) {
	g, err := viewGender(view)
	if err != nil {
		s.fail(err)
		return
	}
	res, err := s.svc.Ratings(s.ctx, s.opts())
	if err != nil {
		s.fail(err)
		return
	}
	ratings, title := res.Ratings, "Rating"
	if g != "" {
		views, err := s.svc.Views(s.ctx, s.opts())
		if err != nil {
			s.fail(err)
			return
		}
		ratings, title = views.View(g), "Rating ("+string(g)+")"
	}
	report.PrintRatingTable(os.Stdout, title, ratings, "")
	report.PrintRejected(os.Stderr, res.Rejected)
}

func (s *session) bracket(id, cupArg string) {
	cup, err := model.ParseCup(cupArg)
	if err != nil {
		s.fail(err)
		return
	}
	t, rows, err := s.svc.Bracket(s.ctx, id, cup)
	if err != nil {
		s.fail(err)
		return
	}
	report.PrintBracket(os.Stdout, *t, cup, rows)
}

func (s *session) player(ref string) {
	d, err := s.svc.Player(s.ctx, ref, s.opts())
	if err != nil {
		s.fail(err)
		return
	}
	report.PrintPlayerDetail(os.Stdout, d.Rating, d.GenderRank, d.Stats)
}

func (s *session) setBest(args []string) {
	if len(args) == 0 {
		s.best = nil
		cMuted.Println("using stored best-results count")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		s.fail(fmt.Errorf("invalid count %q", args[0]))
		return
	}
	if err := aggregator.ValidateBestCount(n); err != nil {
		s.fail(err)
		return
	}
	s.best = &n
	cMuted.Printf("counting best %d results\n", n)
}

func (s *session) config() {
	rc, err := s.db.RatingConfig(s.ctx, appCfg.Defaults.BestResultsCount)
	if err != nil {
		s.fail(err)
		return
	}
	report.PrintConfig(os.Stdout, rc)
}
