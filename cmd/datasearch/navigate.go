// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/datasearch/internal/history"
	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/savedsearch"
)

var openCmd = &cobra.Command{
	Use:   "open [address]",
	Short: "Open an address or a saved search",
	Long: `Open navigates to an address ("?q=...&session=...") or to the address
stored in a saved search file, records it in the history and runs its
search. An address without a query starts a clean session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpen,
}

var backCmd = &cobra.Command{
	Use:   "back",
	Short: "Go back to the previous search",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMove(cmd, (*history.Store).Back)
	},
}

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Go forward to the next search",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMove(cmd, (*history.Store).Forward)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the session history",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	openCmd.Flags().String("file", "", "saved search YAML file to open")
	openCmd.Flags().Bool("json", false, "output results as JSON")
	backCmd.Flags().Bool("json", false, "output results as JSON")
	forwardCmd.Flags().Bool("json", false, "output results as JSON")
	historyCmd.Flags().Bool("clear", false, "end the session and forget its history")
	historyCmd.Flags().Bool("json", false, "output history as JSON")

	rootCmd.AddCommand(openCmd, backCmd, forwardCmd, historyCmd)
}

// navigate rebuilds the session from address and prints the outcome. A
// malformed address is reported and leaves a clean session.
func navigate(ctx context.Context, a *app, w io.Writer, address string, asJSON bool) error {
	attachLocalData(a.explorer, address)
	view, err := a.explorer.Navigate(ctx, address)
	if err != nil {
		if !errors.Is(err, query.ErrMalformedQuery) {
			return err
		}
		if !asJSON {
			warn(w, "Ignoring malformed address: %v", err)
		}
	}
	return renderView(w, address, view, asJSON)
}

func runOpen(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")

	var address string
	switch {
	case file != "" && len(args) > 0:
		return fmt.Errorf("give an address or --file, not both")
	case file != "":
		f, err := savedsearch.Read(file)
		if err != nil {
			return err
		}
		address = f.Address
	case len(args) == 1:
		address = args[0]
	default:
		return fmt.Errorf("give an address or --file")
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.history.Push(ctx, address); err != nil {
			return err
		}
		return navigate(ctx, a, cmd.OutOrStdout(), address, asJSON)
	})
}

func runMove(cmd *cobra.Command, move func(*history.Store, context.Context) (history.Entry, error)) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	return withApp(cmd, func(ctx context.Context, a *app) error {
		entry, err := move(a.history, ctx)
		if err != nil {
			return err
		}
		return navigate(ctx, a, cmd.OutOrStdout(), entry.Address, asJSON)
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	clearAll, _ := cmd.Flags().GetBool("clear")
	asJSON, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		if clearAll {
			if err := a.history.Clear(ctx); err != nil {
				return err
			}
			a.status.Invalidate()
			success(out, "Session history cleared")
			return nil
		}

		entries, err := a.history.Entries(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			if entries == nil {
				entries = []history.Entry{}
			}
			return writeJSON(out, entries)
		}
		if len(entries) == 0 {
			info(out, "History is empty.")
			return nil
		}

		t := newTable("", "#", "VISITED", "QUERY")
		for i, e := range entries {
			marker := ""
			if e.Current {
				marker = "→"
			}
			t.add(marker, strconv.Itoa(i+1), e.Visited.Local().Format("2006-01-02 15:04:05"), describeAddress(e.Address))
		}
		t.render(out)
		return nil
	})
}
