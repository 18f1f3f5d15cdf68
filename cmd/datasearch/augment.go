// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/datasearch/internal/augment"
	"github.com/pdiddy/datasearch/internal/history"
	"github.com/pdiddy/datasearch/internal/lifecycle"
	"github.com/pdiddy/datasearch/pkg/types"
)

var augmentCmd = &cobra.Command{
	Use:   "augment",
	Short: "Download a join or union of the related file with a result",
	Long: `Augment re-runs the current search and augments the related file with
one of its results. Use --list to see the result's column correspondences,
then pick them with --select. For joins, --agg adds aggregated columns of
the result (column=mean,sum or column=all).`,
	Example: `  datasearch augment --hit 2 --list
  datasearch augment --hit 2 --select 1,3 --agg fare=mean,max --out joined.zip`,
	Args: cobra.NoArgs,
	RunE: runAugment,
}

func init() {
	f := augmentCmd.Flags()
	f.Int("hit", 1, "result number as printed by search")
	f.Bool("list", false, "list the result's correspondences and exit")
	f.String("select", "", "correspondence numbers to use, comma-separated")
	f.StringArray("agg", nil, "aggregated column, column=function[,function] (repeatable)")
	f.String("out", "augmentation.zip", "output file")

	rootCmd.AddCommand(augmentCmd)
}

func runAugment(cmd *cobra.Command, _ []string) error {
	hit, _ := cmd.Flags().GetInt("hit")
	list, _ := cmd.Flags().GetBool("list")
	selectFlag, _ := cmd.Flags().GetString("select")
	aggFlags, _ := cmd.Flags().GetStringArray("agg")
	outPath, _ := cmd.Flags().GetString("out")

	numbers, err := parseIndexes(selectFlag)
	if err != nil {
		return fmt.Errorf("invalid --select: %w", err)
	}
	mask, err := selectionMask(numbers)
	if err != nil {
		return fmt.Errorf("invalid --select: %w", err)
	}
	sel := augment.Selection{Mask: mask}
	for _, s := range aggFlags {
		agg, err := parseAggregation(s)
		if err != nil {
			return err
		}
		sel.Aggregations = append(sel.Aggregations, agg)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		out := cmd.OutOrStdout()
		cur, err := a.history.Current(ctx)
		if errors.Is(err, history.ErrEmpty) {
			return fmt.Errorf("no search to augment, run search first")
		}
		if err != nil {
			return err
		}

		attachLocalData(a.explorer, cur.Address)
		view, err := a.explorer.Navigate(ctx, cur.Address)
		if err != nil {
			return err
		}
		if view.State != lifecycle.Success {
			return renderView(out, cur.Address, view, false)
		}
		if hit < 1 || hit > len(view.Results) {
			return fmt.Errorf("--hit %d: the search returned %d results", hit, len(view.Results))
		}

		if list {
			listCorrespondences(out, view.Results[hit-1])
			return nil
		}
		return writeAugmentation(ctx, a, out, hit-1, sel, outPath)
	})
}

func writeAugmentation(ctx context.Context, a *app, w io.Writer, hit int, sel augment.Selection, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	n, err := a.explorer.Augment(ctx, hit, sel, f)
	if err != nil {
		if errors.Is(err, augment.ErrNoColumnsSelected) {
			return fmt.Errorf("%w: pick correspondences with --select (see --list)", err)
		}
		return err
	}
	success(w, "Wrote %s (%d bytes)", path, n)
	return nil
}

func listCorrespondences(w io.Writer, r types.SearchResult) {
	info(w, "%s: %s", r.ID, r.Metadata.Name)
	if r.AugmentationType() == types.AugmentationNone {
		warn(w, "This result cannot be augmented.")
		return
	}

	aug := r.Augmentation
	info(w, "Augmentation: %s", aug.Type)
	if aug.TemporalResolution != "" {
		info(w, "Temporal resolution: %s", aug.TemporalResolution)
	}
	t := newTable("#", "YOUR COLUMNS", "DATASET COLUMNS")
	for i := range aug.Len() {
		if !aug.Defined(i) {
			continue
		}
		t.add(strconv.Itoa(i+1),
			strings.Join(aug.LeftColumnsNames[i], ", "),
			strings.Join(aug.RightColumnsNames[i], ", "))
	}
	t.render(w)

	if aug.Type != types.AugmentationJoin || len(r.Metadata.Columns) == 0 {
		return
	}
	cols := newTable("COLUMN", "TYPE", "FUNCTIONS")
	for _, c := range r.Metadata.Columns {
		fns := augment.FunctionsFor(c)
		names := make([]string, len(fns))
		for i, f := range fns {
			names[i] = string(f)
		}
		cols.add(c.Name, c.StructuralType, strings.Join(names, ","))
	}
	fmt.Fprintln(w)
	cols.render(w)
}
