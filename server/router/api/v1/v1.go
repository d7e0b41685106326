package v1

import (
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/jonathanprogram2/obel/assistant"
	"github.com/jonathanprogram2/obel/internal/profile"
	"github.com/jonathanprogram2/obel/plugin/finnhub"
	"github.com/jonathanprogram2/obel/plugin/newsdata"
	"github.com/jonathanprogram2/obel/plugin/openmeteo"
	"github.com/jonathanprogram2/obel/plugin/twelvedata"
	"github.com/jonathanprogram2/obel/plugin/zenquotes"
	"github.com/jonathanprogram2/obel/server/middleware"
	"github.com/jonathanprogram2/obel/store"
	"github.com/jonathanprogram2/obel/store/cache"
)

// APIV1Service holds every REST service the dashboard exposes.
type APIV1Service struct {
	AssistantService *AssistantService
	StockService     *StockService
	TwelveService    *TwelveService
	NewsService      *NewsService
	WeatherService   *WeatherService
	QuoteService     *QuoteService
	AuthService      *AuthService
	WorkspaceService *WorkspaceService

	Profile *profile.Profile
	Store   *store.Store

	rateLimiter        *middleware.RateLimiter
	thumbnailSemaphore *semaphore.Weighted
}

// NewAPIV1Service wires the domain services against the shared store,
// profile, and the assistant built by the caller.
func NewAPIV1Service(profile *profile.Profile, st *store.Store, bot *assistant.Assistant) *APIV1Service {
	s := &APIV1Service{
		Profile:            profile,
		Store:              st,
		rateLimiter:        middleware.NewRateLimiter(time.Second/10, 20),
		thumbnailSemaphore: semaphore.NewWeighted(3),
	}

	s.AssistantService = &AssistantService{Assistant: bot}
	s.AuthService = &AuthService{Store: st, Secret: profile.JWTSecret}
	s.StockService = &StockService{
		Store:  st,
		Client: finnhub.NewClient(profile.FinnhubAPIKey),
		Auth:   s.AuthService,
	}
	s.TwelveService = &TwelveService{
		Client: twelvedata.NewClient(profile.TwelveDataAPIKey),
	}
	s.NewsService = &NewsService{
		Client: newsdata.NewClient(profile.NewsDataAPIKey),
		cache:  cache.New[string, *newsdata.Feed](32, 5*time.Minute),
	}
	s.WeatherService = &WeatherService{Client: openmeteo.NewClient()}
	s.QuoteService = &QuoteService{Client: zenquotes.NewClient()}
	s.WorkspaceService = &WorkspaceService{
		Store:              st,
		DataDir:            profile.Data,
		thumbnailSemaphore: s.thumbnailSemaphore,
	}

	return s
}

// RegisterRoutes mounts every service under /api on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", s.rateLimiter.Middleware())

	s.AssistantService.RegisterRoutes(api)
	s.StockService.RegisterRoutes(api)
	s.TwelveService.RegisterRoutes(api)
	s.NewsService.RegisterRoutes(api)
	s.WeatherService.RegisterRoutes(api)
	s.QuoteService.RegisterRoutes(api)
	s.AuthService.RegisterRoutes(api)
	s.WorkspaceService.RegisterRoutes(api)
}
