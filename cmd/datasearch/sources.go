// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the known dataset sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			out := cmd.OutOrStdout()
			sources, err := a.status.Sources(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, sources)
			}
			t := newTable("SOURCE", "DATASETS")
			for _, s := range sources {
				t.add(s.Name, strconv.Itoa(s.Count))
			}
			t.render(out)

			st, err := a.status.Statistics(ctx)
			if err != nil {
				return err
			}
			if len(st.RecentDiscoveries) > 0 {
				fmt.Fprintln(out)
				info(out, "Recently discovered:")
				for _, d := range st.RecentDiscoveries {
					info(out, "  %s  %s", d.ID, truncate(d.Name, 60))
				}
			}
			return nil
		})
	},
}

var locateCmd = &cobra.Command{
	Use:   "locate <place>",
	Short: "Resolve a place name into bounding boxes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		return withApp(cmd, func(ctx context.Context, a *app) error {
			out := cmd.OutOrStdout()
			places, err := a.client.Locate(ctx, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, places)
			}
			if len(places) == 0 {
				warn(out, "No match for %q", args[0])
				return nil
			}
			t := newTable("PLACE", "BBOX (lat1,lon1,lat2,lon2)")
			for _, p := range places {
				b := p.Box
				t.add(truncate(p.Name, 60), fmt.Sprintf("%g,%g,%g,%g", b.Latitude1, b.Longitude1, b.Latitude2, b.Longitude2))
			}
			t.render(out)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of datasearch",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "datasearch %s\n", version)
	},
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output as JSON")
	locateCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(sourcesCmd, locateCmd, versionCmd)
}
