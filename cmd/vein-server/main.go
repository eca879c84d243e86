package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pluslatte/gt6-vein-manager/internal/config"
	"github.com/pluslatte/gt6-vein-manager/internal/db"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/service"
	sqlitestore "github.com/pluslatte/gt6-vein-manager/internal/veins/store/sqlite"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/types"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "vein-server",
		Usage: "GT6 ore vein tracker",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML config file", Sources: cli.EnvVars("VEIN_CONFIG")},
			&cli.StringFlag{Name: "db-path", Usage: "SQLite database path (overrides config)"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			inviteCommand(),
			veinsCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

// app is the wiring shared by every subcommand: one database, one writer
// and the services on top of it.
type app struct {
	cfg    config.Config
	logger *log.Logger
	conn   *sql.DB
	writer *db.Worker

	veins *sqlitestore.VeinStore
	logs  *sqlitestore.LogStore
	auth  *sqlitestore.AuthStore

	query    *service.QueryService
	mutation *service.MutationService
	authSvc  *service.AuthService
}

func loadConfig(c *cli.Command) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if p := c.String("db-path"); p != "" {
		cfg.DBPath = p
	}
	return cfg, nil
}

func openApp(ctx context.Context, c *cli.Command) (*app, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stdout, "vein-server ", log.LstdFlags|log.LUTC)

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		return nil, err
	}
	writer := db.NewWorker(conn)

	a := &app{
		cfg:    cfg,
		logger: logger,
		conn:   conn,
		writer: writer,
		veins:  sqlitestore.NewVeinStore(conn, writer),
		logs:   sqlitestore.NewLogStore(conn, writer),
		auth:   sqlitestore.NewAuthStore(conn, writer),
	}
	a.query = service.NewQueryService(a.veins, a.logs, a.logs)
	a.mutation = service.NewMutationService(a.veins, a.logs, a.logs)
	a.authSvc = service.NewAuthService(a.auth, service.AuthConfig{
		SessionTTL:    cfg.SessionTTL(),
		InvitationTTL: cfg.InvitationTTL(),
	})
	return a, nil
}

// Close drains the writer before closing the database.
func (a *app) Close() {
	a.writer.Close()
	_ = a.conn.Close()
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database migrations and exit",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := openApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.Close()

			version, err := db.SchemaVersion(ctx, a.conn)
			if err != nil {
				return err
			}
			a.logger.Printf("database %s at schema version %d", a.cfg.DBPath, version)
			return nil
		},
	}
}

func inviteCommand() *cli.Command {
	return &cli.Command{
		Name:  "invite",
		Usage: "Create a registration invitation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "invitee email (optional)"},
			&cli.StringFlag{Name: "by", Usage: "inviting admin's username; omit for an admin-level system invitation"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := openApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.Close()

			var inv types.InvitationResponse
			if by := c.String("by"); by != "" {
				inviter, err := a.auth.GetUserByUsername(ctx, by)
				if err != nil {
					return err
				}
				inv, err = a.authSvc.IssueInvitation(ctx, inviter, c.String("email"), a.cfg.PublicBaseURL)
				if err != nil {
					return err
				}
			} else {
				inv, err = a.authSvc.IssueSystemInvitation(ctx, c.String("email"), a.cfg.PublicBaseURL)
				if err != nil {
					return err
				}
			}

			if c.Bool("json") {
				return printJSON(inv)
			}
			printInvitation(inv)
			return nil
		},
	}
}
