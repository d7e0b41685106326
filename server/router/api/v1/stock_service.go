package v1

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/jonathanprogram2/obel/plugin/finnhub"
	"github.com/jonathanprogram2/obel/server/metrics"
	"github.com/jonathanprogram2/obel/store"
)

// defaultWatchlist is shown when the client does not ask for specific symbols.
var defaultWatchlist = []string{"AAPL", "MSFT", "NVDA", "SPY", "QQQ"}

// dailyMarketSymbols is the fixed symbol set the market-flows card fetches.
// The first two are index proxies; the rest form the movers universe.
var dailyMarketSymbols = []string{
	"SPY", "QQQ",
	"AAPL", "MSFT", "NVDA", "TSLA", "AMZN", "META", "GOOGL", "NFLX",
}

const dailyMarketIndexCount = 2

// StockService serves watchlist quotes, per-symbol detail, the daily market
// flows card, and the user's portfolio holdings.
type StockService struct {
	Store  *store.Store
	Client *finnhub.Client
	Auth   *AuthService
}

func (s *StockService) RegisterRoutes(g *echo.Group) {
	g.GET("/stocks/watchlist", s.Watchlist)
	g.GET("/stocks/detail/:symbol", s.Detail)
	g.GET("/flows/daily-market", s.DailyMarket)
	g.GET("/flows/stock-deep-dive", s.StockDeepDive)

	portfolio := g.Group("/portfolio", s.Auth.RequireUser())
	portfolio.GET("/holdings", s.ListHoldings)
	portfolio.PUT("/holdings", s.UpsertHolding)
	portfolio.DELETE("/holdings/:symbol", s.DeleteHolding)
}

// fetchQuotes fans out one Finnhub request per symbol and keeps input order.
// Individual symbol failures leave a nil slot rather than failing the batch.
func (s *StockService) fetchQuotes(c echo.Context, symbols []string) []*finnhub.Quote {
	quotes := make([]*finnhub.Quote, len(symbols))
	g, ctx := errgroup.WithContext(c.Request().Context())
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			quote, err := s.Client.Quote(ctx, symbol)
			metrics.ObserveUpstream("finnhub", err)
			if err != nil {
				slog.Warn("quote fetch failed", "symbol", symbol, "error", err)
				return nil
			}
			quotes[i] = quote
			return nil
		})
	}
	_ = g.Wait()
	return quotes
}

func parseSymbols(raw string, fallback []string) []string {
	if raw == "" {
		return fallback
	}
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol != "" {
			symbols = append(symbols, symbol)
		}
	}
	if len(symbols) == 0 {
		return fallback
	}
	return symbols
}

// Watchlist returns normalized quotes for the requested symbols, defaulting
// to the standard dashboard watchlist. Symbols that failed upstream are
// dropped from the response rather than erroring the whole card.
func (s *StockService) Watchlist(c echo.Context) error {
	symbols := parseSymbols(c.QueryParam("symbols"), defaultWatchlist)
	fetched := s.fetchQuotes(c, symbols)

	quotes := make([]*finnhub.Quote, 0, len(fetched))
	for _, quote := range fetched {
		if quote != nil {
			quotes = append(quotes, quote)
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"quotes": quotes})
}

// Detail returns the normalized quote for one symbol. Unknown symbols come
// back from Finnhub with a zero price and map to 404 here.
func (s *StockService) Detail(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing symbol"})
	}

	quote, err := s.Client.Quote(c.Request().Context(), symbol)
	metrics.ObserveUpstream("finnhub", err)
	if err != nil {
		slog.Error("quote fetch failed", "symbol", symbol, "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "Quote provider unavailable"})
	}
	if quote == nil {
		return c.JSON(http.StatusNotFound, &errorResponse{Error: "Unknown symbol"})
	}
	return c.JSON(http.StatusOK, quote)
}

// mover is the wire shape of one ranked symbol in the daily-market card.
// Numeric fields are stringified, nil when the quote lacked them.
type mover struct {
	Ticker           string  `json:"ticker"`
	Price            *string `json:"price"`
	ChangeAmount     *string `json:"change_amount"`
	ChangePercentage *string `json:"change_percentage"`
	Volume           *string `json:"volume"`
}

type marketMovers struct {
	Gainers []*mover `json:"gainers"`
	Losers  []*mover `json:"losers"`
	Actives []*mover `json:"actives"`
}

type marketFlows struct {
	AsOf    string           `json:"asOf"`
	Indices []*finnhub.Quote `json:"indices"`
	Movers  *marketMovers    `json:"movers"`
}

func formatFloat(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	return &s
}

func quoteToMover(q *finnhub.Quote) *mover {
	return &mover{
		Ticker:           q.Symbol,
		Price:            formatFloat(q.Price),
		ChangeAmount:     formatFloat(q.Change),
		ChangePercentage: formatFloat(q.ChangePercentNumeric),
		// Finnhub /quote carries no volume, so this stays null.
		Volume: formatFloat(q.Volume),
	}
}

// buildMarketFlows splits the fetched quotes into index proxies and a movers
// universe, then ranks the universe: gainers (positive change percent,
// descending), losers (negative, most negative first), and actives by
// absolute change percent. Top five of each bucket.
func buildMarketFlows(quotes []*finnhub.Quote) *marketFlows {
	indexCount := dailyMarketIndexCount
	if indexCount > len(quotes) {
		indexCount = len(quotes)
	}
	indices := make([]*finnhub.Quote, 0, indexCount)
	for _, q := range quotes[:indexCount] {
		if q != nil {
			indices = append(indices, q)
		}
	}
	universe := quotes[indexCount:]

	var valid []*finnhub.Quote
	for _, q := range universe {
		if q != nil && q.Price != nil && q.ChangePercentNumeric != nil {
			valid = append(valid, q)
		}
	}

	var gainers, losers []*finnhub.Quote
	for _, q := range valid {
		switch {
		case *q.ChangePercentNumeric > 0:
			gainers = append(gainers, q)
		case *q.ChangePercentNumeric < 0:
			losers = append(losers, q)
		}
	}
	sort.SliceStable(gainers, func(i, j int) bool {
		return *gainers[i].ChangePercentNumeric > *gainers[j].ChangePercentNumeric
	})
	sort.SliceStable(losers, func(i, j int) bool {
		return *losers[i].ChangePercentNumeric < *losers[j].ChangePercentNumeric
	})
	actives := append([]*finnhub.Quote(nil), valid...)
	sort.SliceStable(actives, func(i, j int) bool {
		return math.Abs(*actives[i].ChangePercentNumeric) > math.Abs(*actives[j].ChangePercentNumeric)
	})

	toMovers := func(quotes []*finnhub.Quote) []*mover {
		if len(quotes) > 5 {
			quotes = quotes[:5]
		}
		movers := make([]*mover, 0, len(quotes))
		for _, q := range quotes {
			movers = append(movers, quoteToMover(q))
		}
		return movers
	}

	return &marketFlows{
		AsOf:    time.Now().UTC().Format(time.RFC3339),
		Indices: indices,
		Movers: &marketMovers{
			Gainers: toMovers(gainers),
			Losers:  toMovers(losers),
			Actives: toMovers(actives),
		},
	}
}

// DailyMarket serves the market snapshot: SPY and QQQ as index proxies plus
// ranked movers from the core universe. Slots stay aligned with the symbol
// list so a failed index fetch never promotes a universe symbol.
func (s *StockService) DailyMarket(c echo.Context) error {
	return c.JSON(http.StatusOK, buildMarketFlows(s.fetchQuotes(c, dailyMarketSymbols)))
}

type deepDiveOverview struct {
	Name          string   `json:"name"`
	Sector        *string  `json:"sector"`
	Industry      *string  `json:"industry"`
	MarketCap     *float64 `json:"marketCap"`
	PERatio       *float64 `json:"peRatio"`
	DividendYield *float64 `json:"dividendYield"`
	Description   *string  `json:"description"`
}

type deepDiveNews struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	URL         string  `json:"url"`
	Summary     string  `json:"summary"`
	PublishedAt *string `json:"publishedAt"`
}

type deepDivePayload struct {
	Symbol   string            `json:"symbol"`
	Quote    *finnhub.Quote    `json:"quote"`
	Overview *deepDiveOverview `json:"overview"`
	News     []*deepDiveNews   `json:"news"`
}

// StockDeepDive combines quote, company profile, and the last week of
// headlines for one symbol into a single card payload.
func (s *StockService) StockDeepDive(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.QueryParam("symbol")))
	if symbol == "" {
		symbol = "AAPL"
	}

	now := time.Now().UTC()
	to := now.Format("2006-01-02")
	from := now.AddDate(0, 0, -7).Format("2006-01-02")

	var (
		quote   *finnhub.Quote
		profile *finnhub.CompanyProfile
		news    []*finnhub.NewsItem
	)
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() error {
		var err error
		quote, err = s.Client.Quote(ctx, symbol)
		metrics.ObserveUpstream("finnhub", err)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.Client.Profile(ctx, symbol)
		metrics.ObserveUpstream("finnhub", err)
		return err
	})
	g.Go(func() error {
		var err error
		news, err = s.Client.CompanyNews(ctx, symbol, from, to)
		metrics.ObserveUpstream("finnhub", err)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.Error("deep dive fetch failed", "symbol", symbol, "error", err)
		return c.JSON(http.StatusBadGateway, &errorResponse{Error: "Failed to fetch stock deep dive. Try again later."})
	}
	if profile == nil {
		profile = &finnhub.CompanyProfile{}
	}

	overview := &deepDiveOverview{
		Name:          symbol,
		MarketCap:     profile.MarketCap,
		DividendYield: profile.DividendYield,
	}
	if profile.Name != "" {
		overview.Name = profile.Name
	}
	if profile.Industry != "" {
		overview.Sector = &profile.Industry
	}
	if profile.Sector != "" {
		overview.Industry = &profile.Sector
	}
	if profile.Name != "" && profile.Industry != "" {
		description := fmt.Sprintf("%s operates in the %s industry.", profile.Name, profile.Industry)
		overview.Description = &description
	}

	if len(news) > 5 {
		news = news[:5]
	}
	headlines := make([]*deepDiveNews, 0, len(news))
	for _, item := range news {
		headline := &deepDiveNews{
			ID:      item.URL,
			Title:   item.Headline,
			Source:  item.Source,
			URL:     item.URL,
			Summary: item.Summary,
		}
		if item.ID != 0 {
			headline.ID = strconv.FormatInt(item.ID, 10)
		}
		if headline.ID == "" {
			headline.ID = fmt.Sprintf("%s-%d", symbol, item.Datetime)
		}
		if item.Datetime != 0 {
			published := time.Unix(item.Datetime, 0).UTC().Format(time.RFC3339)
			headline.PublishedAt = &published
		}
		headlines = append(headlines, headline)
	}

	return c.JSON(http.StatusOK, &deepDivePayload{
		Symbol:   symbol,
		Quote:    quote,
		Overview: overview,
		News:     headlines,
	})
}

type holdingPayload struct {
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`
	CostBasis float64 `json:"costBasis"`
}

type holdingResponse struct {
	Symbol    string  `json:"symbol"`
	Shares    float64 `json:"shares"`
	CostBasis float64 `json:"costBasis"`
	UpdatedTs int64   `json:"updatedTs"`
}

func convertHolding(h *store.Holding) *holdingResponse {
	return &holdingResponse{
		Symbol:    h.Symbol,
		Shares:    h.Shares,
		CostBasis: h.CostBasis,
		UpdatedTs: h.UpdatedTs,
	}
}

// ListHoldings returns the authenticated user's portfolio.
func (s *StockService) ListHoldings(c echo.Context) error {
	userID := currentUserID(c)
	holdings, err := s.Store.ListHoldings(c.Request().Context(), &store.FindHolding{UserID: &userID})
	if err != nil {
		slog.Error("list holdings failed", "user", userID, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to load portfolio"})
	}

	resp := make([]*holdingResponse, 0, len(holdings))
	for _, h := range holdings {
		resp = append(resp, convertHolding(h))
	}
	return c.JSON(http.StatusOK, map[string]any{"holdings": resp})
}

// UpsertHolding creates or replaces one position keyed by symbol.
func (s *StockService) UpsertHolding(c echo.Context) error {
	var payload holdingPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Invalid request body"})
	}
	symbol := strings.ToUpper(strings.TrimSpace(payload.Symbol))
	if symbol == "" || payload.Shares < 0 {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing required fields: symbol, shares"})
	}

	userID := currentUserID(c)
	holding, err := s.Store.UpsertHolding(c.Request().Context(), &store.Holding{
		UserID:    userID,
		Symbol:    symbol,
		Shares:    payload.Shares,
		CostBasis: payload.CostBasis,
	})
	if err != nil {
		slog.Error("upsert holding failed", "user", userID, "symbol", symbol, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to save holding"})
	}
	return c.JSON(http.StatusOK, convertHolding(holding))
}

// DeleteHolding removes one position from the portfolio.
func (s *StockService) DeleteHolding(c echo.Context) error {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing symbol"})
	}

	userID := currentUserID(c)
	if err := s.Store.DeleteHolding(c.Request().Context(), &store.DeleteHolding{UserID: userID, Symbol: symbol}); err != nil {
		slog.Error("delete holding failed", "user", userID, "symbol", symbol, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to delete holding"})
	}
	return c.NoContent(http.StatusNoContent)
}
