package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/bizmob/ledger/app"
	"github.com/bizmob/ledger/backup"
	"github.com/bizmob/ledger/generic"
	"github.com/bizmob/ledger/report"
)

func commands(s *session) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "export",
			Usage: "Write the backup document",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file, - for stdout (default bizmob-backup-<date>.json)"},
			},
			Action: s.export,
		},
		{
			Name:      "import",
			Usage:     "Replace the ledger with a backup document",
			ArgsUsage: "FILE",
			Action:    s.importFile,
		},
		{
			Name:   "backup",
			Usage:  "Write a backup to the configured target",
			Action: s.backup,
		},
		{
			Name:   "backups",
			Usage:  "List backups in the configured target",
			Action: s.listBackups,
		},
		{
			Name:  "restore",
			Usage: "Restore a backup from the configured target",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "key", Usage: "Backup key (default: the newest)"},
			},
			Action: s.restore,
		},
		{
			Name:   "notify",
			Usage:  "Print the current alerts",
			Action: s.notify,
		},
		{
			Name:  "report",
			Usage: "Write the xlsx report",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "from", Usage: "First day, YYYY-MM-DD (default: eleven months before --to)"},
				&cli.StringFlag{Name: "to", Usage: "Last day, YYYY-MM-DD (default: today)"},
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (default bizmob-report-<to>.xlsx)"},
			},
			Action: s.report,
		},
		{
			Name:   "summary",
			Usage:  "Print the headline figures as JSON",
			Action: s.summary,
		},
	}
}

func (s *session) export(c *cli.Context) error {
	doc := s.ledger.Export()
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = fmt.Sprintf("bizmob-backup-%s.json", doc.ExportDate.UTC().Format("2006-01-02"))
	}
	if out == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func (s *session) importFile(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("import needs a FILE argument")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := s.ledger.Import(c.Context, data); err != nil {
		return err
	}
	fmt.Printf("imported %d purchases, %d sales, %d debts\n",
		len(s.ledger.Purchases()), len(s.ledger.Sales()), len(s.ledger.Debts()))
	return nil
}

func (s *session) backup(c *cli.Context) error {
	st, err := app.OpenBackup(c.Context, s.cfg, s.log)
	if err != nil {
		return err
	}
	key, err := backup.Backup(c.Context, s.ledger, st)
	if err != nil {
		return err
	}
	fmt.Println(key)

	if s.cfg.Backup.Keep > 0 {
		pruned, err := backup.Prune(c.Context, st, s.cfg.Backup.Keep)
		if err != nil {
			return err
		}
		s.log.Info("pruned backups", zap.Strings("keys", pruned))
	}
	return nil
}

func (s *session) listBackups(c *cli.Context) error {
	st, err := app.OpenBackup(c.Context, s.cfg, s.log)
	if err != nil {
		return err
	}
	keys, err := backup.List(c.Context, st)
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

func (s *session) restore(c *cli.Context) error {
	st, err := app.OpenBackup(c.Context, s.cfg, s.log)
	if err != nil {
		return err
	}
	key := c.String("key")
	if key == "" {
		if key, err = backup.Latest(c.Context, st); err != nil {
			return err
		}
	}
	if err := backup.Restore(c.Context, s.ledger, st, key); err != nil {
		return err
	}
	fmt.Println("restored", key)
	return nil
}

func (s *session) notify(c *cli.Context) error {
	for _, msg := range s.ledger.Notifications() {
		fmt.Println(msg)
	}
	return nil
}

func (s *session) report(c *cli.Context) error {
	to := generic.TimePointOf(s.ledger.Now())
	if v := c.String("to"); v != "" {
		tp, err := generic.ParseTimePoint(v)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}
		to = tp
	}
	from := generic.StartOfMonth(to.Year(), to.Month()).AddMonths(-11)
	if v := c.String("from"); v != "" {
		tp, err := generic.ParseTimePoint(v)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		from = tp
	}
	if to.Before(from) {
		return errors.New("--to must not be before --from")
	}

	out := c.String("out")
	if out == "" {
		out = fmt.Sprintf("bizmob-report-%s.xlsx", to.String())
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := report.Write(f, s.ledger, from, to); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func (s *session) summary(c *cli.Context) error {
	return writeIndented(os.Stdout, s.ledger.Summary())
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
