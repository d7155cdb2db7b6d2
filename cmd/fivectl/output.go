package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"scorefive/internal/app"
	"scorefive/internal/ports"
)

// parseScores reads NAME=SCORE arguments. The last '=' splits, so names may contain one.
func parseScores(args []string) (map[string]int, error) {
	scores := make(map[string]int, len(args))
	for _, arg := range args {
		i := strings.LastIndexByte(arg, '=')
		if i <= 0 {
			return nil, fmt.Errorf("score %q is not NAME=SCORE", arg)
		}
		name := arg[:i]
		score, err := strconv.Atoi(arg[i+1:])
		if err != nil {
			return nil, fmt.Errorf("score for %s: %q is not a number", name, arg[i+1:])
		}
		if _, dup := scores[name]; dup {
			return nil, fmt.Errorf("%s is scored twice", name)
		}
		scores[name] = score
	}
	return scores, nil
}

func printGame(w io.Writer, rec ports.GameRecord) error {
	card := rec.Card
	players := card.Players()
	starters := card.StartingPlayers()

	fmt.Fprintf(w, "game %s, limit %d, updated %s\n", card.ID(), card.ScoreLimit(), rec.LastUpdated.Format("2006-01-02 15:04"))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tSTARTER\t%s\tROUND\n", strings.Join(players, "\t"))
	for i, round := range card.Rounds() {
		cells := make([]string, len(players))
		for j, p := range players {
			switch score, ok := round.Score(p); {
			case ok:
				cells[j] = strconv.Itoa(score)
			case round.HasPlayer(p):
				cells[j] = "?"
			default:
				cells[j] = "-"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, starters[i], strings.Join(cells, "\t"), round.ID())
	}
	totals := make([]string, len(players))
	for j, p := range players {
		totals[j] = strconv.Itoa(card.TotalScore(p))
		if !card.IsAlive(p) {
			totals[j] += "x"
		}
	}
	fmt.Fprintf(tw, "\tTOTAL\t%s\t\n", strings.Join(totals, "\t"))
	if err := tw.Flush(); err != nil {
		return err
	}

	if winner, ok := card.Winner(); ok {
		_, err := fmt.Fprintf(w, "winner: %s\n", winner)
		return err
	}
	if card.IsFinished() {
		_, err := fmt.Fprintln(w, "finished with no winner")
		return err
	}
	_, err := fmt.Fprintf(w, "next: %s\n", starters[len(starters)-1])
	return err
}

func printList(w io.Writer, recs []ports.GameRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLAYERS\tLIMIT\tROUNDS\tSTATUS\tUPDATED")
	for _, rec := range recs {
		status := "playing"
		if rec.Complete {
			status = "finished"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			rec.Card.ID(),
			strings.Join(rec.Card.Players(), ","),
			rec.Card.ScoreLimit(),
			rec.Card.RoundCount(),
			status,
			rec.LastUpdated.Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}

// printEvents reports eliminations and the end of the game.
func printEvents(w io.Writer, evts []app.Event) {
	for _, e := range evts {
		switch p := e.Payload.(type) {
		case app.PlayerPayload:
			if e.Kind == app.EventPlayerEliminated {
				fmt.Fprintf(w, "%s is out with %d\n", p.Player, p.Total)
			} else {
				fmt.Fprintf(w, "%s is back in with %d\n", p.Player, p.Total)
			}
		case app.GameFinishedPayload:
			if p.Winner != "" {
				fmt.Fprintf(w, "game over, %s wins\n", p.Winner)
			} else {
				fmt.Fprintln(w, "game over")
			}
		}
	}
}
