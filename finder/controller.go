// Package finder owns the restaurant result set a single user is looking at:
// the last fetch, the filtered and sorted subset on screen, and the user's
// position.
package finder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/language"

	"restaurantfinder/backend"
	"restaurantfinder/geo"
	"restaurantfinder/geolocate"
	"restaurantfinder/models"
	"restaurantfinder/sorting"
	"restaurantfinder/view"
)

const (
	ratingWeight   = 0.7
	distanceWeight = 0.3

	DefaultMinRating = 0.0
	DefaultMaxPrice  = 3
)

// ErrNoSuchRestaurant is returned by Detail for an index outside the list.
var ErrNoSuchRestaurant = errors.New("finder: no restaurant at that position")

// Renderer receives every new view. It is called with the controller locked
// and must not call back into the controller.
type Renderer interface {
	Render(v view.View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(v view.View)

func (f RendererFunc) Render(v view.View) { f(v) }

// Recorder is told about every successful search.
type Recorder interface {
	Record(ctx context.Context, postalCode string, method models.SortMethod, count int) error
}

// Options configures a Controller.
type Options struct {
	Fetcher  backend.Fetcher
	Renderer Renderer
	Recorder Recorder
	Logger   *slog.Logger
	Locale   language.Tag
}

// Controller holds one user's search state. All methods are safe for
// concurrent use; a search that finishes after a newer one started is
// discarded.
type Controller struct {
	mu sync.Mutex

	fetcher  backend.Fetcher
	renderer Renderer
	recorder Recorder
	logger   *slog.Logger
	locale   language.Tag

	all       []*models.Restaurant
	displayed []*models.Restaurant
	hasData   bool

	postalCode string
	sortMethod models.SortMethod
	minRating  float64
	maxPrice   int
	location   *models.Location

	message string
	errText string
	loading bool

	searchGen    uint64
	locateGen    uint64
	locationSeq  uint64
	cancelSearch context.CancelFunc
}

// New creates an empty Controller.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Controller{
		fetcher:   opts.Fetcher,
		renderer:  opts.Renderer,
		recorder:  opts.Recorder,
		logger:    opts.Logger,
		locale:    opts.Locale,
		minRating: DefaultMinRating,
		maxPrice:  DefaultMaxPrice,
	}
}

// Search validates p, fetches a fresh result set and replaces the current one.
// When p carries no location the last known user position is sent along.
// Validation happens before any network call. On failure the displayed set
// is left as it was.
func (c *Controller) Search(ctx context.Context, p SearchParams) (view.View, error) {
	fetchCtx, gen, v, err := c.beginSearch(ctx, &p)
	if err != nil {
		return v, err
	}

	c.logger.Debug("search started", "postal_code", p.PostalCode, "method", p.Method, "generation", gen.search)
	records, err := c.fetcher.Fetch(fetchCtx, p.Query())

	v, count, err := c.finishSearch(p, gen, records, err)
	if err != nil {
		return v, err
	}

	c.logger.Info("search completed", "postal_code", p.PostalCode, "method", p.Method, "results", count)
	if c.recorder != nil {
		if err := c.recorder.Record(ctx, p.PostalCode, p.Method, count); err != nil {
			c.logger.Warn("failed to record search", "error", err)
		}
	}
	return v, nil
}

// searchTicket identifies an in-flight search and the position it was sent with.
type searchTicket struct {
	search   uint64
	location uint64
	explicit bool
}

func (c *Controller) beginSearch(ctx context.Context, p *SearchParams) (context.Context, searchTicket, view.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := searchTicket{explicit: p.Location != nil}
	if p.Location == nil && c.location != nil {
		loc := *c.location
		p.Location = &loc
	}
	if err := p.Validate(); err != nil {
		c.failLocked(err, p.PostalCode)
		return nil, gen, c.renderLocked(), err
	}

	if c.cancelSearch != nil {
		c.cancelSearch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.searchGen++
	gen.search = c.searchGen
	gen.location = c.locationSeq
	c.cancelSearch = cancel
	c.loading = true
	c.errText = ""
	c.message = ""
	return fetchCtx, gen, c.renderLocked(), nil
}

func (c *Controller) finishSearch(p SearchParams, gen searchTicket, records []*models.Restaurant, fetchErr error) (view.View, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen.search != c.searchGen {
		c.logger.Debug("search superseded", "postal_code", p.PostalCode, "generation", gen.search)
		return c.viewLocked(), 0, ErrSuperseded
	}
	c.cancelSearch()
	c.cancelSearch = nil
	c.loading = false

	if fetchErr != nil {
		c.failLocked(fetchErr, p.PostalCode)
		c.logger.Warn("search failed", "postal_code", p.PostalCode, "method", p.Method, "error", fetchErr)
		return c.renderLocked(), 0, fetchErr
	}

	c.replaceAllLocked(records)
	c.postalCode = p.PostalCode
	c.sortMethod = p.Method
	// A position that arrived while the fetch was running wins over the one
	// the search was sent with.
	if gen.explicit && gen.location == c.locationSeq {
		c.setLocationLocked(*p.Location)
	}
	c.fillDistancesLocked()
	if len(c.all) == 0 {
		c.message = fmt.Sprintf("No restaurants found for postal code %s", p.PostalCode)
	}
	return c.renderLocked(), len(c.all), nil
}

// Locate asks l for the user's position and, on success, recomputes every
// distance. A failure leaves the previous position (if any) in place.
func (c *Controller) Locate(ctx context.Context, l geolocate.Locator) (view.View, error) {
	c.mu.Lock()
	c.locateGen++
	gen := c.locateGen
	c.mu.Unlock()

	loc, err := l.Locate(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.locateGen {
		return c.viewLocked(), ErrSuperseded
	}
	if err != nil {
		lerr := &LocationError{Err: err}
		c.failLocked(lerr, c.postalCode)
		c.logger.Warn("geolocation failed", "error", err)
		return c.renderLocked(), lerr
	}
	c.computeDistancesLocked(loc.Lat, loc.Lng)
	return c.renderLocked(), nil
}

// ReplaceAll installs a fresh result set as both the full and the displayed
// set, dropping derived fields and resetting filters.
func (c *Controller) ReplaceAll(records []*models.Restaurant) view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaceAllLocked(records)
	return c.renderLocked()
}

// ApplyFilters recomputes the displayed set from the full set and re-applies
// the current sort mode.
func (c *Controller) ApplyFilters(minRating float64, maxPrice int) view.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.minRating = minRating
	c.maxPrice = maxPrice
	c.displayed = c.displayed[:0:0]
	for _, r := range c.all {
		if r.Rating >= minRating && r.PriceLevel <= maxPrice {
			c.displayed = append(c.displayed, r)
		}
	}
	if c.sortMethod != "" {
		if err := c.sortLocked(c.sortMethod); err != nil && !errors.Is(err, ErrLocationRequired) {
			c.logger.Warn("re-sort after filtering failed", "method", c.sortMethod, "error", err)
		}
	}
	c.errText = ""
	c.message = ""
	return c.renderLocked()
}

// Sort reorders the displayed set. Distance and weighted modes return
// ErrLocationRequired until distances have been computed.
func (c *Controller) Sort(method models.SortMethod) (view.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sortLocked(method); err != nil {
		c.failLocked(err, c.postalCode)
		return c.renderLocked(), err
	}
	c.errText = ""
	return c.renderLocked(), nil
}

// ComputeDistances sets the user position, fills in the distance of every
// fetched restaurant and re-applies the current sort mode.
func (c *Controller) ComputeDistances(lat, lng float64) view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.computeDistancesLocked(lat, lng)
	return c.renderLocked()
}

// View returns the current view without notifying the renderer.
func (c *Controller) View() view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Detail returns the modal payload for the displayed restaurant at index.
func (c *Controller) Detail(index int) (view.Detail, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.displayed) {
		return view.Detail{}, ErrNoSuchRestaurant
	}
	return view.DetailOf(c.locale, index, c.displayed[index]), nil
}

// Markers returns the map pins of the displayed set.
func (c *Controller) Markers() []view.Marker {
	return c.View().Markers
}

// SetRenderer swaps the renderer, e.g. when a websocket attaches.
func (c *Controller) SetRenderer(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderer = r
}

// SortMethod is the active sort mode, empty before the first search.
func (c *Controller) SortMethod() models.SortMethod {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sortMethod
}

// Location is the last known user position.
func (c *Controller) Location() (models.Location, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.location == nil {
		return models.Location{}, false
	}
	return *c.location, true
}

// Filters returns the active minimum rating and maximum price level.
func (c *Controller) Filters() (float64, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.minRating, c.maxPrice
}

func (c *Controller) replaceAllLocked(records []*models.Restaurant) {
	records = slices.DeleteFunc(slices.Clone(records), func(r *models.Restaurant) bool { return r == nil })
	for _, r := range records {
		r.ClearDerived()
	}
	c.all = records
	c.displayed = slices.Clone(records)
	c.hasData = true
	c.minRating = DefaultMinRating
	c.maxPrice = DefaultMaxPrice
	c.errText = ""
	c.message = ""
}

func (c *Controller) sortLocked(method models.SortMethod) error {
	method, err := models.ParseSortMethod(string(method))
	if err != nil {
		return &ValidationError{Field: "method", Message: "Unknown sort method"}
	}
	if len(c.displayed) == 0 {
		c.sortMethod = method
		return nil
	}

	switch method {
	case models.SortRating:
		c.displayed = sorting.Descending(c.displayed, byRating)
	case models.SortPrice:
		c.displayed = sorting.QuickSort(c.displayed, byPrice)
	case models.SortDistance:
		if !c.hasDistancesLocked() {
			return ErrLocationRequired
		}
		c.displayed = sorting.QuickSort(c.displayed, byDistance)
	case models.SortWeighted:
		if !c.hasDistancesLocked() {
			return ErrLocationRequired
		}
		for _, r := range c.displayed {
			// A restaurant at distance 0 scores +Inf and sorts first.
			score := r.Rating*ratingWeight + (1/(*r.Distance))*distanceWeight
			r.WeightedScore = &score
		}
		c.displayed = sorting.Descending(c.displayed, byWeighted)
	case models.SortKNN:
		// Nearest-neighbour selection and order come from the backend.
	}
	c.sortMethod = method
	return nil
}

func (c *Controller) computeDistancesLocked(lat, lng float64) {
	c.setLocationLocked(models.Location{Lat: lat, Lng: lng})
	c.fillDistancesLocked()
	if c.sortMethod != "" {
		if err := c.sortLocked(c.sortMethod); err != nil {
			c.logger.Warn("re-sort after location change failed", "method", c.sortMethod, "error", err)
		}
	}
	c.errText = ""
}

func (c *Controller) setLocationLocked(loc models.Location) {
	c.location = &loc
	c.locationSeq++
}

func (c *Controller) fillDistancesLocked() {
	if c.location == nil {
		return
	}
	for _, r := range c.all {
		d := geo.Haversine(c.location.Lat, c.location.Lng, r.Lat, r.Lng)
		r.Distance = &d
	}
}

func (c *Controller) hasDistancesLocked() bool {
	for _, r := range c.displayed {
		if r.Distance == nil {
			return false
		}
	}
	return true
}

func (c *Controller) failLocked(err error, postalCode string) {
	c.errText = Message(err, postalCode)
}

func (c *Controller) viewLocked() view.View {
	var loc *models.Location
	if c.location != nil {
		l := *c.location
		loc = &l
	}
	return view.Build(view.State{
		Displayed:  c.displayed,
		Total:      len(c.all),
		HasData:    c.hasData,
		SortMethod: c.sortMethod,
		MinRating:  c.minRating,
		MaxPrice:   c.maxPrice,
		Location:   loc,
		Message:    c.message,
		Error:      c.errText,
		Generation: c.searchGen,
		Loading:    c.loading,
		Locale:     c.locale,
	})
}

func (c *Controller) renderLocked() view.View {
	v := c.viewLocked()
	if c.renderer != nil {
		c.renderer.Render(v)
	}
	return v
}

func byRating(r *models.Restaurant) float64   { return r.Rating }
func byPrice(r *models.Restaurant) int        { return r.PriceLevel }
func byDistance(r *models.Restaurant) float64 { return *r.Distance }
func byWeighted(r *models.Restaurant) float64 { return *r.WeightedScore }
