package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

func veinsCommand() *cli.Command {
	return &cli.Command{
		Name:  "veins",
		Usage: "Inspect and change veins directly in the database",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List veins with their current status",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "case-sensitive name substring"},
					&cli.BoolFlag{Name: "include-revoked", Usage: "include revoked veins"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, c, func(a *app) error {
						veins, err := a.query.Search(ctx, types.SearchQuery{
							Name:           c.String("name"),
							IncludeRevoked: c.Bool("include-revoked"),
						})
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(veins)
						}
						printVeins(veins)
						return nil
					})
				},
			},
			{
				Name:  "add",
				Usage: "Record a new vein",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "x", Required: true},
					&cli.StringFlag{Name: "y", Usage: "vertical level; omit if unknown"},
					&cli.StringFlag{Name: "z", Required: true},
					&cli.StringFlag{Name: "notes"},
					&cli.BoolFlag{Name: "confirmed"},
					&cli.BoolFlag{Name: "depleted"},
					&cli.BoolFlag{Name: "bedrock"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return withApp(ctx, c, func(a *app) error {
						v, err := a.mutation.CreateVein(ctx, types.CreateVeinInput{
							Name:      c.String("name"),
							X:         c.String("x"),
							Y:         c.String("y"),
							Z:         c.String("z"),
							Notes:     c.String("notes"),
							Confirmed: c.Bool("confirmed"),
							Depleted:  c.Bool("depleted"),
							IsBedrock: c.Bool("bedrock"),
						})
						if err != nil {
							return err
						}
						fmt.Println(v.ID)
						return nil
					})
				},
			},
			{
				Name:      "set",
				Usage:     "Append a status entry",
				ArgsUsage: "<vein-id> <confirmation|depletion|revocation|is_bedrock> <true|false>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.NArg() != 3 {
						return fmt.Errorf("expected 3 arguments, got %d", c.NArg())
					}
					dim, ok := types.ParseDimension(c.Args().Get(1))
					if !ok {
						return fmt.Errorf("unknown dimension %q", c.Args().Get(1))
					}
					value, err := strconv.ParseBool(c.Args().Get(2))
					if err != nil {
						return fmt.Errorf("value must be true or false: %w", err)
					}
					return withApp(ctx, c, func(a *app) error {
						entry, err := a.mutation.SetStatus(ctx, dim, c.Args().Get(0), value)
						if err != nil {
							return err
						}
						fmt.Printf("%s %s=%t at %s\n", entry.VeinID, dim.Key(), entry.Value, formatTime(entry.CreatedAt))
						return nil
					})
				},
			},
			{
				Name:      "note",
				Usage:     "Append a note",
				ArgsUsage: "<vein-id> <text>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.NArg() != 2 {
						return fmt.Errorf("expected 2 arguments, got %d", c.NArg())
					}
					return withApp(ctx, c, func(a *app) error {
						_, err := a.mutation.AddNote(ctx, c.Args().Get(0), c.Args().Get(1))
						return err
					})
				},
			},
			{
				Name:      "history",
				Usage:     "Show every log entry of a vein",
				ArgsUsage: "<vein-id>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected a vein id")
					}
					return withApp(ctx, c, func(a *app) error {
						h, err := a.query.History(ctx, c.Args().First())
						if err != nil {
							return err
						}
						if c.Bool("json") {
							return printJSON(h)
						}
						printHistory(h)
						return nil
					})
				},
			},
			{
				Name:      "purge",
				Usage:     "Delete a vein and its whole history",
				ArgsUsage: "<vein-id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected a vein id")
					}
					return withApp(ctx, c, func(a *app) error {
						if err := a.mutation.DeleteVein(ctx, c.Args().First()); err != nil {
							return err
						}
						a.logger.Printf("purged vein %s", c.Args().First())
						return nil
					})
				},
			},
		},
	}
}

func withApp(ctx context.Context, c *cli.Command, fn func(a *app) error) error {
	a, err := openApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
