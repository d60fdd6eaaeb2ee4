// Command migrate runs the bootstrap steps outside the server:
//
//	migrate [flags] up|down|status
//
// It reads the same configuration as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/erm/internal/server"
	"github.com/dmitrijs2005/erm/internal/server/config"
	"github.com/dmitrijs2005/erm/internal/server/migrations"
)

var errUsage = errors.New("usage: migrate [flags] up|down|status")

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, in *os.File, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	command, args := args[len(args)-1], args[:len(args)-1]
	switch command {
	case migrations.DirectionUp, migrations.DirectionDown, "status":
	default:
		return errUsage
	}

	cfg, err := config.Load(args)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if command == migrations.DirectionUp {
		if err := cfg.ResolveBootstrapPassword(in, out); err != nil && !errors.Is(err, config.ErrNoBootstrapPassword) {
			return err
		}
	}

	hasher, err := server.NewHasher(cfg)
	if err != nil {
		return err
	}
	repos, err := server.OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close()

	runner, err := server.NewMigrator(cfg, repos, hasher)
	if err != nil {
		return err
	}

	switch command {
	case migrations.DirectionUp:
		results, err := runner.Up(ctx)
		for _, r := range results {
			printResult(out, r)
		}
		if err == nil && len(results) == 0 {
			fmt.Fprintln(out, "no pending steps")
		}
		return err
	case migrations.DirectionDown:
		r, err := runner.Down(ctx)
		if errors.Is(err, migrations.ErrNothingApplied) {
			fmt.Fprintln(out, "nothing to roll back")
			return nil
		}
		if err != nil {
			return err
		}
		printResult(out, *r)
		return nil
	default:
		st, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		return printStatus(out, st)
	}
}

func printResult(out io.Writer, r migrations.Result) {
	fmt.Fprintf(out, "%s %05d %s (%s)\n", r.Direction, r.Version, r.Description, r.Duration.Round(time.Millisecond))
}

func printStatus(out io.Writer, st []migrations.Status) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tSTEP\tAPPLIED AT")
	for _, s := range st {
		at := "pending"
		if s.Applied {
			at = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%05d\t%s\t%s\n", s.Version, s.Description, at)
	}
	return w.Flush()
}
