package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"restaurantfinder/backend"
	"restaurantfinder/config"
	"restaurantfinder/finder"
	"restaurantfinder/geolocate"
	"restaurantfinder/models"
	"restaurantfinder/view"
)

type addressLocator interface {
	For(address string) geolocate.Locator
}

// searchDeps are the collaborators of the search command. Nil fields are
// built from configuration.
type searchDeps struct {
	Fetcher  backend.Fetcher
	Geocoder addressLocator
}

type searchOptions struct {
	method    string
	k         int
	lat       float64
	lng       float64
	address   string
	minRating float64
	maxPrice  int
	asJSON    bool
	asGeoJSON bool
}

// reportedError marks an error whose message was already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func newSearchCommand(deps *searchDeps) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <postal-code>",
		Short: "Search restaurants in a postal code",
		Long: `Fetch the restaurants of a 4-digit postal code and print them.

Distance, weighted and knn modes need a position: pass --lat/--lng or
--address (requires GOOGLE_MAPS_API_KEY).`,
		Example: `  finder search 2200
  finder search 1620 --method price --max-price 1
  finder search 2100 --method knn --k 5 --lat 55.6761 --lng 12.5683
  finder search 1050 --method weighted --address "Kongens Nytorv" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := resolveDeps(deps)
			if err != nil {
				return err
			}
			hasLocation := cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng")
			if cmd.Flags().Changed("lat") != cmd.Flags().Changed("lng") {
				return &finder.ValidationError{Field: "location", Message: "--lat and --lng must be given together"}
			}
			filter := cmd.Flags().Changed("min-rating") || cmd.Flags().Changed("max-price")
			return runSearch(cmd, d, args[0], opts, hasLocation, filter)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.method, "method", "m", string(models.SortRating), "Sort method: rating, price, distance, weighted or knn")
	f.IntVar(&opts.k, "k", 5, "Number of neighbours for knn (1-50)")
	f.Float64Var(&opts.lat, "lat", 0, "Your latitude")
	f.Float64Var(&opts.lng, "lng", 0, "Your longitude")
	f.StringVar(&opts.address, "address", "", "Resolve your position from an address")
	f.Float64Var(&opts.minRating, "min-rating", finder.DefaultMinRating, "Only show restaurants rated at least this")
	f.IntVar(&opts.maxPrice, "max-price", finder.DefaultMaxPrice, "Only show restaurants at or below this price level (0-3)")
	f.BoolVar(&opts.asJSON, "json", false, "Print the view as JSON")
	f.BoolVar(&opts.asGeoJSON, "geojson", false, "Print the map markers as GeoJSON")
	cmd.MarkFlagsMutuallyExclusive("json", "geojson")
	cmd.MarkFlagsMutuallyExclusive("address", "lat")
	cmd.MarkFlagsMutuallyExclusive("address", "lng")

	return cmd
}

func resolveDeps(deps *searchDeps) (searchDeps, error) {
	var d searchDeps
	if deps != nil {
		d = *deps
	}
	if d.Fetcher != nil && d.Geocoder != nil {
		return d, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return d, err
	}
	if d.Fetcher == nil {
		d.Fetcher = backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, slog.Default())
	}
	if d.Geocoder == nil && cfg.GoogleMapsAPIKey != "" {
		d.Geocoder = geolocate.NewGeocoder(cfg.GoogleMapsAPIKey, cfg.GeocodeRegion)
	}
	return d, nil
}

func runSearch(cmd *cobra.Command, d searchDeps, postalCode string, opts *searchOptions, hasLocation, filter bool) error {
	ctx := cmd.Context()
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	c := finder.New(finder.Options{Fetcher: d.Fetcher})

	p := finder.SearchParams{
		PostalCode: postalCode,
		Method:     models.SortMethod(opts.method),
		K:          opts.k,
	}

	switch {
	case opts.address != "":
		if d.Geocoder == nil {
			return fmt.Errorf("--address needs GOOGLE_MAPS_API_KEY")
		}
		if _, err := c.Locate(ctx, d.Geocoder.For(opts.address)); err != nil {
			fmt.Fprintln(errOut, "error:", userMessage(err, postalCode))
			return reportedError{err}
		}
	case hasLocation:
		p.Location = &models.Location{Lat: opts.lat, Lng: opts.lng}
	}

	v, err := c.Search(ctx, p)
	if err != nil {
		fmt.Fprintln(errOut, "error:", userMessage(err, p.PostalCode))
		return reportedError{err}
	}
	if filter {
		v = c.ApplyFilters(opts.minRating, opts.maxPrice)
	}

	return printView(out, v, opts)
}

func printView(w io.Writer, v view.View, opts *searchOptions) error {
	switch {
	case opts.asJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case opts.asGeoJSON:
		data, err := view.FeatureCollection(v.Markers).MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		return view.WriteTable(w, v)
	}
}
