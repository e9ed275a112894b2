/*
main.go - Command-line maintenance for the shop ledger

PURPOSE:
  Runs the operations that do not need the HTTP server: backups, restores,
  export/import of backup documents, the notification sweep and the xlsx
  report. It opens the same store as the server, from the same
  configuration.

COMMANDS:
  export   Write the backup document to a file (or stdout with -o -)
  import   Replace the ledger with a backup document
  backup   Write a backup to the configured target and prune old ones
  backups  List backups in the configured target
  restore  Restore a backup (the newest by default)
  notify   Print the current alerts
  report   Write the xlsx report
  summary  Print the headline figures as JSON

NOTE:
  With the sqlite driver, do not run write commands while the server is
  running on the same file; the server keeps the ledger in memory and
  will not see the change until restarted.

EXAMPLES:
  ledgerctl backup
  ledgerctl restore --key backups/ledger-20250301T020000Z.json
  ledgerctl report --from 2025-01-01 --to 2025-06-30 -o h1.xlsx
*/
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/app"
	"github.com/bizmob/ledger/business"
	"github.com/bizmob/ledger/config"
	"github.com/bizmob/ledger/logger"
)

// session is what every command works on. It is opened in Before and
// closed in After.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	ledger  *business.Ledger
	backend *app.Backend
}

func (s *session) open(c *cli.Context) error {
	cfg, err := config.Load(c.String("env"))
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if !c.Bool("verbose") {
		level = "warn"
	}
	log, err := logger.NewDevelopment(level)
	if err != nil {
		return err
	}

	ledger, backend, err := app.Open(c.Context, cfg, log)
	if err != nil {
		return err
	}
	s.cfg, s.log, s.ledger, s.backend = cfg, log, ledger, backend
	return nil
}

func (s *session) close(*cli.Context) error {
	if s.log != nil {
		_ = s.log.Sync()
	}
	return s.backend.Close()
}

func main() {
	s := &session{}

	cliApp := &cli.App{
		Name:  "ledgerctl",
		Usage: "Maintain the shop ledger: backups, import/export, alerts and reports",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env",
				Usage:   "Path to a .env file",
				EnvVars: []string{"LEDGER_ENV_FILE"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log at the configured level instead of warn",
			},
		},
		Before:   s.open,
		After:    s.close,
		Commands: commands(s),
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
