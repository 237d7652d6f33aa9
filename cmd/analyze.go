package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-football-metrics/internal/aggregator"
	"github.com/pable/go-football-metrics/internal/model"
	"github.com/pable/go-football-metrics/internal/storage"
)

const analyzeSystemPrompt = `You are a football performance analyst. You are given structured data
from an event-data reporting tool and a question about one player or match.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise. A handful of matches is a small sample; say so when it matters.

Metrics glossary:
- Passes: completed or attempted open-play passes, throw-ins excluded.
- Key pass: a pass followed, before the next pass and within five events, by a shot.
- xG: expected goals, the provider's probability that a shot is scored (0 to 1).
- xG/shot: mean xG over shots that carry a value. Above 0.15 usually means good chances.
- G-xG: goals minus summed xG. Positive means finishing above expectation.
- Conversion: goals per shot.`

var (
	analyzeModel  string
	analyzeAPIKey string

	analyzePlayerLast int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name> <question>",
	Short: "Analyze a player's recorded reports with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeMatchCmd = &cobra.Command{
	Use:   "match <match-id> <question>",
	Short: "Analyze a single match with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeMatch,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzePlayerCmd.Flags().IntVar(&analyzePlayerLast, "last", 0, "only use the N most recent matches")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeMatchCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	player, question := args[0], args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	reports, err := db.GetPlayerReports(player)
	if err != nil {
		return fmt.Errorf("query reports: %w", err)
	}
	if analyzePlayerLast > 0 && len(reports) > analyzePlayerLast {
		reports = reports[len(reports)-analyzePlayerLast:]
	}
	if len(reports) == 0 {
		return fmt.Errorf("no reports found for %q", player)
	}

	contextJSON, err := buildPlayerContext(storage.Aggregate(player, reports), reports)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

func runAnalyzeMatch(cmd *cobra.Command, args []string) error {
	matchID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("match id %q: %w", args[0], err)
	}
	question := args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatch(matchID)
	if err != nil {
		return fmt.Errorf("find match: %w", err)
	}
	if m == nil {
		return fmt.Errorf("match %d is not stored: run 'fbmetrics fetch' first", matchID)
	}

	src, closeSrc, err := openSource(cmd.Context(), db)
	if err != nil {
		return err
	}
	defer closeSrc()
	tl, err := src.Events(cmd.Context(), matchID)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	tables, err := aggregator.BuildMatchTables(matchID, tl)
	if err != nil {
		return err
	}

	contextJSON, err := buildMatchContext(m, tables, cfg.Players)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

// buildPlayerContext serialises a player's totals and per-match rows into
// compact JSON.
func buildPlayerContext(agg model.PlayerAggregate, reports []model.PlayerMatchReport) (string, error) {
	totals := map[string]interface{}{
		"player":       agg.Player,
		"team":         agg.Team,
		"matches":      agg.Matches,
		"passes":       agg.Passes,
		"key_passes":   agg.KeyPasses,
		"key_passes_m": round2(agg.KeyPassesPerMatch()),
		"shots":        agg.Shots,
		"goals":        agg.Goals,
		"xg_total":     round2(agg.XGTotal),
		"conversion":   fmt.Sprintf("%.0f%%", agg.ConversionPct()),
	}
	if agg.XGShots > 0 {
		totals["xg_per_shot"] = round2(agg.AvgXG())
	}

	matches := make([]map[string]interface{}, 0, len(reports))
	for _, r := range reports {
		matches = append(matches, map[string]interface{}{
			"date":       r.MatchDate,
			"opponent":   r.Opponent,
			"passes":     r.Passes,
			"key_passes": r.KeyPasses,
			"shots":      r.Shots,
			"goals":      r.Goals,
			"xg":         round2(r.XGTotal),
		})
	}

	b, err := json.Marshal(map[string]interface{}{
		"totals":    totals,
		"per_match": matches,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// buildMatchContext serialises one match: score, every shot, and the key-pass
// and shot lines of the tracked players.
func buildMatchContext(m *model.Match, tables *aggregator.MatchTables, players []string) (string, error) {
	var shots []map[string]interface{}
	for _, s := range aggregator.ShotsByIndex(tables.Shots) {
		shot := map[string]interface{}{
			"player":  s.Player,
			"team":    s.TeamName,
			"x":       round2(s.Location.X),
			"y":       round2(s.Location.Y),
			"outcome": s.Outcome,
		}
		if !math.IsNaN(s.XG) {
			shot["xg"] = round2(s.XG)
		}
		shots = append(shots, shot)
	}

	tracked := make([]map[string]interface{}, 0, len(players))
	for _, p := range players {
		r := tables.Summarize(p)
		tracked = append(tracked, map[string]interface{}{
			"player":     p,
			"passes":     r.Passes,
			"key_passes": r.KeyPasses,
			"shots":      r.Shots,
			"goals":      r.Goals,
			"xg":         round2(r.XGTotal),
		})
	}

	b, err := json.Marshal(map[string]interface{}{
		"match": map[string]interface{}{
			"home":  m.HomeTeam,
			"away":  m.AwayTeam,
			"score": fmt.Sprintf("%d-%d", m.HomeScore, m.AwayScore),
			"date":  m.Date,
			"stage": m.Stage,
		},
		"key_passes": len(tables.KeyPasses),
		"shots":      shots,
		"tracked":    tracked,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	// Use integer arithmetic to avoid floating-point drift.
	return float64(int(v*100+0.5)) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
