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

	"github.com/pable/go-football-metrics/internal/report"
	"github.com/pable/go-football-metrics/internal/source"
	"github.com/pable/go-football-metrics/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cOK       = color.New(color.FgGreen)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	src, closeSrc, err := openSource(ctx, db)
	if err != nil {
		return err
	}
	defer closeSrc()

	cGreeting.Println("fbmetrics shell")
	cMuted.Printf("%s, competition %d / season %d. type 'help' or 'exit'\n", cfg.Team, cfg.CompetitionID, cfg.SeasonID)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("fbmetrics")
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
		// player names contain spaces
		rest := strings.Join(args, " ")

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "matches":
			shellMatches(db, rest == "all")
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <match-id> [player]")
				continue
			}
			shellShow(ctx, db, src, args[0], strings.Join(args[1:], " "))
		case "player":
			names := cfg.Players
			if rest != "" {
				names = []string{rest}
			}
			shellPlayer(db, names)
		case "trend":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: trend <player>")
				continue
			}
			shellTrend(db, rest)
		case "runs":
			shellRuns(db)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return scanner.Err()
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"matches [all]", "list the team's (or every) stored match"},
		{"show <match-id>", "key passes, shots and tracked players of a match"},
		{"show <match-id> <player>", "same, for one player"},
		{"player [<name>]", "cross-match totals (default: tracked players)"},
		{"trend <name>", "a player's matches in date order"},
		{"runs", "recent report runs"},
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

func shellMatches(db *storage.DB, all bool) {
	matches, err := db.GetMatches(cfg.CompetitionID, cfg.SeasonID)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(matches) == 0 {
		cMuted.Println("No matches stored yet.")
		return
	}
	cHeader.Fprintf(os.Stdout, "%-8s  %-10s  %-22s  %7s  %-22s\n",
		"MATCH", "DATE", "HOME", "SCORE", "AWAY")
	cMuted.Fprintf(os.Stdout, "%-8s  %-10s  %-22s  %7s  %-22s\n",
		"────────", "──────────", "──────────────────────", "───────", "──────────────────────")
	for _, m := range matches {
		if !all && !m.Involves(cfg.Team) {
			continue
		}
		score := fmt.Sprintf("%d-%d", m.HomeScore, m.AwayScore)
		fmt.Fprintf(os.Stdout, "%-8d  %-10s  %-22s  %7s  %-22s\n",
			m.ID, m.Date, m.HomeTeam, score, m.AwayTeam)
	}
}

func shellShow(ctx context.Context, db *storage.DB, src *source.Cached, arg, player string) {
	matchID, err := strconv.Atoi(arg)
	if err != nil {
		cError.Fprintf(os.Stderr, "invalid match id %q\n", arg)
		return
	}
	if err := showMatch(ctx, os.Stdout, db, src, matchID, player); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func shellPlayer(db *storage.DB, names []string) {
	aggs, err := playerAggregates(db, names)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(aggs) == 0 {
		return
	}
	fmt.Fprintln(os.Stdout)
	report.PrintPlayerAggregateOverview(os.Stdout, aggs)
}

func shellTrend(db *storage.DB, player string) {
	reports, err := db.GetPlayerReports(player)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(reports) == 0 {
		cMuted.Printf("no reports for %q\n", player)
		return
	}
	cHeader.Fprintf(os.Stdout, "\n--- %s ---\n", player)
	report.PrintPlayerMatches(os.Stdout, reports)
}

func shellRuns(db *storage.DB) {
	runs, err := db.ListReportRuns(10)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(runs) == 0 {
		cMuted.Println("No runs recorded.")
		return
	}
	report.PrintRunsTable(os.Stdout, runs)
}
