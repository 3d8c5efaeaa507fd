package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/logger"
	sqliteRepo "github.com/sakif/blog/internal/repository/sqlite"
)

// app carries what every command needs. Tests replace the reader and writer
// and the password prompt.
type app struct {
	in           io.Reader
	out          io.Writer
	readPassword func(prompt string) (string, error)
	logger       *slog.Logger

	cfg    *config.StoreConfig
	dbPath string
}

func newApp() *app {
	a := &app{
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logger.NewWithWriter(os.Stderr, logger.Config{Level: "warn"}),
	}
	a.readPassword = a.promptPassword
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Administer the blog database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadStore()
			if err != nil {
				return err
			}
			if a.dbPath != "" {
				cfg.DBPath = a.dbPath
			}
			a.cfg = cfg
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetIn(a.in)
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database file (default $DB_PATH or data/blog.db)")

	root.AddCommand(newMigrateCmd(a), newUserCmd(a), newPostsCmd(a))
	return root
}

// open opens the configured database, applying migrations on the way.
func (a *app) open() (*sqliteRepo.DB, error) {
	db, err := sqliteRepo.New(a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", a.cfg.DBPath, err)
	}
	return db, nil
}

// promptPassword reads a password without echo when stdin is a terminal and
// a plain line otherwise, so the command also works in scripts.
func (a *app) promptPassword(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)

	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.out)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
