// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/datasearch/internal/explorer"
	"github.com/pdiddy/datasearch/internal/filter"
	"github.com/pdiddy/datasearch/internal/lifecycle"
	"github.com/pdiddy/datasearch/internal/query"
	"github.com/pdiddy/datasearch/internal/savedsearch"
	"github.com/pdiddy/datasearch/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [keywords...]",
	Short: "Search for datasets",
	Long: `Search builds a query from keywords and filters, records it in the
session history and prints the ranked results. With a related file the
results include datasets that can be joined or unioned with it.`,
	Example: `  datasearch search taxi trips --from 2019-01-01 --to 2019-12-31 --granularity day
  datasearch search --place "New York" --source noaa
  datasearch search --related-file zips.csv --columns 0 --json`,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.String("from", "", "temporal range start (YYYY-MM-DD)")
	f.String("to", "", "temporal range end (YYYY-MM-DD)")
	f.String("granularity", "", "temporal resolution: year, quarter, month, week, day, hour, minute, second")
	f.String("bbox", "", "bounding box corners lat1,lon1,lat2,lon2")
	f.String("place", "", "place name resolved to a bounding box")
	f.StringSlice("source", nil, "restrict to sources (repeatable)")
	f.StringSlice("type", nil, "restrict to dataset types (repeatable)")
	f.String("related-file", "", "local file to join or union with")
	f.String("related-dataset", "", "dataset id to join or union with")
	f.String("columns", "", "related file column indexes to match, comma-separated")
	f.Bool("union", false, "look for union candidates instead of joins")
	f.String("session", "", `session JSON, e.g. {"session_id":"..."}`)
	f.String("save", "", "write the query and results to a YAML file")
	f.Bool("json", false, "output results as JSON")

	searchCmd.MarkFlagsMutuallyExclusive("related-file", "related-dataset")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	granularity, _ := cmd.Flags().GetString("granularity")
	temporal, hasTemporal, err := temporalFlag(from, to, granularity)
	if err != nil {
		return err
	}

	bboxFlag, _ := cmd.Flags().GetString("bbox")
	place, _ := cmd.Flags().GetString("place")
	sources, _ := cmd.Flags().GetStringSlice("source")
	dsTypes, _ := cmd.Flags().GetStringSlice("type")
	relatedFile, _ := cmd.Flags().GetString("related-file")
	relatedDataset, _ := cmd.Flags().GetString("related-dataset")
	columnsFlag, _ := cmd.Flags().GetString("columns")
	union, _ := cmd.Flags().GetBool("union")
	sessionFlag, _ := cmd.Flags().GetString("session")
	savePath, _ := cmd.Flags().GetString("save")
	asJSON, _ := cmd.Flags().GetBool("json")

	var tabular *filter.Tabular
	if columnsFlag != "" {
		if relatedFile == "" && relatedDataset == "" {
			return fmt.Errorf("--columns needs --related-file or --related-dataset")
		}
		cols, err := parseIndexes(columnsFlag)
		if err != nil {
			return fmt.Errorf("invalid --columns: %w", err)
		}
		tabular = &filter.Tabular{Columns: cols, Relationship: filter.RelationshipContains}
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		e := a.explorer
		out := cmd.OutOrStdout()
		e.SetKeywords(strings.Join(args, " "))

		if hasTemporal {
			if _, err := e.AddFilter(filter.Temporal, temporal); err != nil {
				return err
			}
		}
		if bboxFlag != "" {
			box, err := parseBBox(bboxFlag)
			if err != nil {
				return err
			}
			if _, err := e.AddFilter(filter.GeoSpatial, filter.GeoSpatialValue{Box: box}); err != nil {
				return err
			}
		}
		if place != "" {
			_, p, err := e.LocateFilter(ctx, place)
			if err != nil {
				return fmt.Errorf("locating %q: %w", place, err)
			}
			if !asJSON {
				info(out, "Located %s", p.Name)
			}
		}
		if len(sources) > 0 {
			if _, err := e.AddFilter(filter.Source, filter.SourceValue{Checked: sources}); err != nil {
				return err
			}
		}
		if len(dsTypes) > 0 {
			if _, err := e.AddFilter(filter.DatasetType, filter.DatasetTypeValue{Checked: dsTypes}); err != nil {
				return err
			}
		}
		if err := addRelated(e, relatedFile, relatedDataset, tabular); err != nil {
			return err
		}
		if union {
			e.SetAugmentationType(query.AugmentationUnion)
		}

		session := a.currentSession(ctx)
		if sessionFlag != "" {
			s, err := parseSession(sessionFlag)
			if err != nil {
				return err
			}
			session = s
		}
		if err := e.SetSession(session); err != nil {
			return err
		}

		view, err := e.Search(ctx)
		if err != nil {
			return err
		}
		if savePath != "" && view.State == lifecycle.Success {
			if err := saveView(savePath, e.Address(), view); err != nil {
				return err
			}
			if !asJSON {
				success(out, "Saved to %s", savePath)
			}
		}
		return renderView(out, e.Address(), view, asJSON)
	})
}

func addRelated(e *explorer.Explorer, path, datasetID string, tabular *filter.Tabular) error {
	var rf filter.RelatedFileValue
	switch {
	case path != "":
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("reading related file: %w", err)
		}
		e.AttachData(abs, data)
		rf = filter.LocalFile{Token: abs, Name: filepath.Base(abs), Size: int64(len(data))}
	case datasetID != "":
		rf = filter.SearchResultFile{DatasetID: datasetID, Name: datasetID}
	default:
		return nil
	}
	if tabular != nil {
		rf = rf.WithColumns(tabular)
	}
	_, err := e.AddFilter(filter.RelatedFile, rf)
	return err
}

func saveView(path, address string, view lifecycle.View) error {
	var spec query.Spec
	if view.Query != nil {
		spec = *view.Query
	}
	f := savedsearch.New(address, spec, types.SearchResponse{
		Results: view.Results,
		Total:   view.Total,
		Facets:  view.Facets,
	})
	return savedsearch.Write(path, f)
}
