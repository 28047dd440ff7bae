// A small tour of the may API: open a store, put and get typed values,
// scan by prefix, and clean up. Logging is wired the way a real
// application would do it, with colored output on a terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ashutoshgngwr/may"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type profile struct {
	Name   string
	Age    int
	Emails []string
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "quick_start: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:   slog.LevelDebug,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()),
	}))

	path := filepath.Join(os.TempDir(), "may-quickstart.db")
	store, err := may.Open(path, &may.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()
	logger.Info("opened datastore", "path", path)

	// WAL trades a little read speed for much faster writes.
	if err := store.EnableWAL(); err != nil {
		return err
	}

	if err := store.Put("user:alice", profile{Name: "Alice", Age: 34, Emails: []string{"alice@example.com"}}); err != nil {
		return err
	}
	if err := store.Put("user:bob", profile{Name: "Bob", Age: 27}); err != nil {
		return err
	}
	if err := store.Put("counter:visits", 42); err != nil {
		return err
	}

	alice, ok, err := may.GetAs[profile](store, "user:alice")
	if err != nil {
		return err
	}
	logger.Info("typed get", "found", ok, "name", alice.Name, "age", alice.Age)

	users, err := store.Keys("user:", 0, -1)
	if err != nil {
		return err
	}
	logger.Info("prefix scan", "keys", users)

	if _, err := store.RemoveAll(""); err != nil {
		return err
	}
	return store.Close()
}
