package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"scorefive/internal/codec"
	"scorefive/internal/store/postgres"
	"scorefive/internal/store/postgres/migrations"
)

func (a *cliApp) commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "new",
			Usage: "start a game",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{Name: "player", Aliases: []string{"p"}, Required: true, Usage: "player in seating order, repeat for each"},
				&cli.IntFlag{Name: "limit", Usage: "score limit (default from config)"},
			},
			Action: a.newGame,
		},
		{
			Name:      "show",
			Usage:     "print a game's score card",
			ArgsUsage: "<game-id>",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "json", Usage: "print the score card record as JSON"},
			},
			Action: a.showGame,
		},
		{
			Name:   "list",
			Usage:  "list games, unfinished first",
			Action: a.listGames,
		},
		{
			Name:      "round",
			Usage:     "record a round for the players still in",
			ArgsUsage: "<game-id> NAME=SCORE...",
			Action:    a.addRound,
		},
		{
			Name:      "remove-round",
			Usage:     "delete a round",
			ArgsUsage: "<game-id> <round-id>",
			Action:    a.removeRound,
		},
		{
			Name:      "replace-round",
			Usage:     "rescore a round",
			ArgsUsage: "<game-id> <round-id> NAME=SCORE...",
			Action:    a.replaceRound,
		},
		{
			Name:      "limit",
			Usage:     "change the score limit",
			ArgsUsage: "<game-id> <limit>",
			Action:    a.setScoreLimit,
		},
		{
			Name:      "starter",
			Usage:     "print who starts a round, the next one by default",
			ArgsUsage: "<game-id> [round-index]",
			Action:    a.startingPlayer,
		},
		{
			Name:      "export",
			Usage:     "write a score card in binary or JSON form",
			ArgsUsage: "<game-id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "format", Value: "binary", Usage: "binary or json"},
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default stdout)"},
			},
			Action: a.exportGame,
		},
		{
			Name:      "delete",
			Usage:     "delete a game",
			ArgsUsage: "<game-id>",
			Action:    a.deleteGame,
		},
		a.migrateCommand(),
	}
}

func needArgs(c *cli.Context, n int) error {
	if c.NArg() < n {
		return fmt.Errorf("usage: fivectl %s %s", c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func (a *cliApp) newGame(c *cli.Context) error {
	limit := c.Int("limit")
	if limit == 0 {
		limit = a.cfg.Game.DefaultScoreLimit
	}
	rec, _, err := a.svc.CreateGame(c.Context, c.String("owner"), c.StringSlice("player"), limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created game %s\n", rec.Card.ID())
	return printGame(a.out, rec)
}

func (a *cliApp) showGame(c *cli.Context) error {
	if err := needArgs(c, 1); err != nil {
		return err
	}
	rec, err := a.svc.GetGame(c.Context, c.String("owner"), c.Args().First())
	if err != nil {
		return err
	}
	if c.Bool("json") {
		data, err := codec.MarshalJSON(rec.Card)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(a.out, "%s\n", data)
		return err
	}
	return printGame(a.out, rec)
}

func (a *cliApp) listGames(c *cli.Context) error {
	recs, err := a.svc.ListGames(c.Context, c.String("owner"))
	if err != nil {
		return err
	}
	return printList(a.out, recs)
}

func (a *cliApp) addRound(c *cli.Context) error {
	if err := needArgs(c, 2); err != nil {
		return err
	}
	scores, err := parseScores(c.Args().Tail())
	if err != nil {
		return err
	}
	rec, evts, err := a.svc.AddRound(c.Context, c.String("owner"), c.Args().First(), scores)
	if err != nil {
		return err
	}
	printEvents(a.out, evts)
	return printGame(a.out, rec)
}

func (a *cliApp) removeRound(c *cli.Context) error {
	if err := needArgs(c, 2); err != nil {
		return err
	}
	rec, evts, err := a.svc.RemoveRound(c.Context, c.String("owner"), c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	printEvents(a.out, evts)
	return printGame(a.out, rec)
}

func (a *cliApp) replaceRound(c *cli.Context) error {
	if err := needArgs(c, 3); err != nil {
		return err
	}
	scores, err := parseScores(c.Args().Slice()[2:])
	if err != nil {
		return err
	}
	rec, evts, err := a.svc.ReplaceRound(c.Context, c.String("owner"), c.Args().Get(0), c.Args().Get(1), scores)
	if err != nil {
		return err
	}
	printEvents(a.out, evts)
	return printGame(a.out, rec)
}

func (a *cliApp) setScoreLimit(c *cli.Context) error {
	if err := needArgs(c, 2); err != nil {
		return err
	}
	limit, err := strconv.Atoi(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("limit %q is not a number", c.Args().Get(1))
	}
	rec, evts, err := a.svc.SetScoreLimit(c.Context, c.String("owner"), c.Args().First(), limit)
	if err != nil {
		return err
	}
	printEvents(a.out, evts)
	return printGame(a.out, rec)
}

func (a *cliApp) startingPlayer(c *cli.Context) error {
	if err := needArgs(c, 1); err != nil {
		return err
	}
	owner, id := c.String("owner"), c.Args().First()
	var index int
	if c.NArg() > 1 {
		n, err := strconv.Atoi(c.Args().Get(1))
		if err != nil {
			return fmt.Errorf("round index %q is not a number", c.Args().Get(1))
		}
		index = n
	} else {
		rec, err := a.svc.GetGame(c.Context, owner, id)
		if err != nil {
			return err
		}
		index = rec.Card.RoundCount()
	}
	player, err := a.svc.StartingPlayer(c.Context, owner, id, index)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, player)
	return err
}

func (a *cliApp) exportGame(c *cli.Context) error {
	if err := needArgs(c, 1); err != nil {
		return err
	}
	rec, err := a.svc.GetGame(c.Context, c.String("owner"), c.Args().First())
	if err != nil {
		return err
	}
	var data []byte
	switch c.String("format") {
	case "binary":
		data = codec.MarshalBinary(rec.Card)
	case "json":
		if data, err = codec.MarshalJSON(rec.Card); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}
	if path := c.String("out"); path != "" {
		return os.WriteFile(path, data, 0o644)
	}
	_, err = a.out.Write(data)
	return err
}

func (a *cliApp) deleteGame(c *cli.Context) error {
	if err := needArgs(c, 1); err != nil {
		return err
	}
	id := c.Args().First()
	if _, err := a.svc.DeleteGame(c.Context, c.String("owner"), id); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.out, "deleted game %s\n", id)
	return err
}

func (a *cliApp) migrator() (*migrate.Migrator, error) {
	pg, ok := a.store.(*postgres.Store)
	if !ok {
		return nil, fmt.Errorf("migrations need the postgres storage driver, configured driver is %s", a.cfg.Storage.Driver)
	}
	return migrate.NewMigrator(pg.DB, migrations.Migrations), nil
}

func (a *cliApp) migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "postgres schema migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "create migration tables and apply pending migrations",
				Action: func(c *cli.Context) error {
					m, err := a.migrator()
					if err != nil {
						return err
					}
					if err := m.Init(c.Context); err != nil {
						return err
					}
					group, err := m.Migrate(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(a.out, "no new migrations to run")
						return nil
					}
					fmt.Fprintf(a.out, "migrated to %s\n", group)
					return nil
				},
			},
			{
				Name:  "rollback",
				Usage: "roll back the last migration group",
				Action: func(c *cli.Context) error {
					m, err := a.migrator()
					if err != nil {
						return err
					}
					group, err := m.Rollback(c.Context)
					if err != nil {
						return err
					}
					if group.IsZero() {
						fmt.Fprintln(a.out, "no groups to roll back")
						return nil
					}
					fmt.Fprintf(a.out, "rolled back %s\n", group)
					return nil
				},
			},
			{
				Name:  "status",
				Usage: "print migration status",
				Action: func(c *cli.Context) error {
					m, err := a.migrator()
					if err != nil {
						return err
					}
					ms, err := m.MigrationsWithStatus(c.Context)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "applied: %s\nunapplied: %s\n", ms.Applied(), ms.Unapplied())
					return nil
				},
			},
		},
	}
}
