package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadfinder/internal/board"
	"github.com/sells-group/leadfinder/internal/export"
	"github.com/sells-group/leadfinder/internal/model"
)

var (
	searchPostalCode   string
	searchCity         string
	searchName         string
	searchCategory     string
	searchFormat       string
	searchOut          string
	searchEnrichTop    int
	searchTemperatures []string
	searchNoWebsite    bool
	searchOnly         []string
	searchMinScore     int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search and rank businesses around a postal code or city",
	Example: `  leadfinder search --postal-code 28001
  leadfinder search --city Sevilla --category restaurante --format csv --out leads.csv
  leadfinder search --name "Bar Pepe" --city Madrid --enrich-top 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		format, err := export.ParseFormat(searchFormat)
		if err != nil {
			return err
		}
		if format.Binary() && searchOut == "" {
			return eris.Errorf("search: --out is required for %s output", format)
		}
		filter, err := searchFilter()
		if err != nil {
			return err
		}

		a, err := initApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.service.Search(ctx, model.SearchQuery{
			PostalCode:   searchPostalCode,
			City:         searchCity,
			BusinessName: searchName,
			Category:     searchCategory,
		})
		if err != nil {
			return eris.Wrap(err, "search")
		}

		b := board.New()
		b.Replace(res)
		if searchEnrichTop > 0 {
			n := enrichTop(ctx, b, a.gate, searchEnrichTop, cfg.Enrich.Concurrency)
			zap.L().Info("enriched top results", zap.Int("requested", searchEnrichTop), zap.Int("enriched", n))
		}

		stats := b.Stats(filter)
		fmt.Fprintf(os.Stderr, "%d businesses, %d shown, %d hot, %d without website, %d unchecked\n",
			stats.Total, stats.Filtered, stats.Hot, stats.WithoutWebsite, stats.Unknown)
		if top, ok := selectTopLead(b, filter); ok {
			fmt.Fprintf(os.Stderr, "top lead: %s (%s, score %d)\n", top.Name, top.Temperature, top.Score)
		}

		out := io.Writer(os.Stdout)
		if searchOut != "" {
			f, err := os.Create(searchOut)
			if err != nil {
				return eris.Wrap(err, "search: create output")
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		return export.Write(out, format, &model.SearchResult{
			Businesses: b.Filtered(filter),
			Center:     b.Center(),
			PostalCode: b.PostalCode(),
		})
	},
}

// searchFilter builds the display filter from the filter flags.
func searchFilter() (board.Filter, error) {
	f := board.Filter{
		OnlyWithoutWebsite: searchNoWebsite,
		Categories:         searchOnly,
		MinScore:           searchMinScore,
	}
	for _, s := range searchTemperatures {
		t, ok := model.ParseTemperature(s)
		if !ok {
			return f, eris.Errorf("search: unknown temperature %q", s)
		}
		f.Temperatures = append(f.Temperatures, t)
	}
	return f, nil
}

type recordEnricher interface {
	Enrich(ctx context.Context, b model.Business) (model.Business, error)
}

// enrichTop fetches details for the first n records still awaiting them and
// merges the confirmed records back into b. Failures leave the record
// provisional. It returns the number of records enriched.
func enrichTop(ctx context.Context, b *board.Board, e recordEnricher, n, concurrency int) int {
	ids := b.Pending()
	if len(ids) > n {
		ids = ids[:n]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	confirmed := make([]model.Business, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			rec, ok := b.Get(id)
			if !ok {
				return nil
			}
			enriched, err := e.Enrich(gctx, rec)
			if err != nil {
				zap.L().Warn("enrich failed", zap.String("place_id", id), zap.Error(err))
				return nil
			}
			confirmed[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	var merged int
	for _, rec := range confirmed {
		if rec.ID != "" && !rec.NeedsDetails && b.Merge(rec) {
			merged++
		}
	}
	if merged > 0 {
		b.Rerank()
	}
	return merged
}

// selectTopLead selects the first record left visible by f. It clears the
// selection when nothing is visible.
func selectTopLead(b *board.Board, f board.Filter) (model.Business, bool) {
	visible := b.Filtered(f)
	if len(visible) == 0 {
		b.ClearSelection()
		return model.Business{}, false
	}
	b.Select(visible[0].ID)
	return b.Selected()
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchPostalCode, "postal-code", "", "postal code to search around")
	f.StringVar(&searchCity, "city", "", "city to search around")
	f.StringVar(&searchName, "name", "", "business name (switches to a single text search)")
	f.StringVar(&searchCategory, "category", "", "category keyword to restrict the sweep")
	f.StringVar(&searchFormat, "format", "table", "output format ("+formatList()+")")
	f.StringVarP(&searchOut, "out", "o", "", "write output to a file instead of stdout")
	f.IntVar(&searchEnrichTop, "enrich-top", 0, "fetch details for the first N results")
	f.StringSliceVar(&searchTemperatures, "temperature", nil, "show only these tiers (hot, warm, cool, cold)")
	f.BoolVar(&searchNoWebsite, "no-website", false, "hide businesses confirmed to have a website")
	f.StringSliceVar(&searchOnly, "only-category", nil, "show only these category labels")
	f.IntVar(&searchMinScore, "min-score", 0, "hide businesses scoring below this")
	rootCmd.AddCommand(searchCmd)
}

func formatList() string {
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
