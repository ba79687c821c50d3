package catalogclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	context_ "github.com/mkrupp/homecase-gameapp/internal/infra/context"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
)

const TraceIDHeader = "X-Request-ID"

// ErrUpstream is returned when the catalogue answers with an unexpected status.
var ErrUpstream = errors.New("catalogue request failed")

// HTTPClientConfig holds configuration for the HTTP catalogue client.
type HTTPClientConfig struct {
	// BaseURL is the root of the catalogue API
	BaseURL string `env:"BASE_URL" default:"https://api.rawg.io/api"`

	// APIKey is sent as the key query parameter, empty omits it
	APIKey string `env:"API_KEY" default:""`

	// PageSize is the number of games per page
	PageSize int `env:"PAGE_SIZE" default:"20"`

	// Ordering sorts game lists, e.g. "-rating" or "popularity"
	Ordering string `env:"ORDERING" default:"-rating"`

	// Timeout bounds a single catalogue request
	Timeout time.Duration `env:"TIMEOUT" default:"10s"`
}

// HTTPClient implements CatalogClient against a RAWG compatible HTTP API.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	cfg        HTTPClientConfig
}

var _ CatalogClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, a client with cfg.Timeout is used.
func NewHTTPClient(
	cfg HTTPClientConfig,
	httpClient *http.Client,
) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.sessionsvc.catalogclient.http_client"),
		cfg:        cfg,
	}
}

type apiNamed struct {
	Name string `json:"name"`
}

type apiGame struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Released        string     `json:"released"`
	BackgroundImage string     `json:"background_image"`
	Rating          float64    `json:"rating"`
	Genres          []apiNamed `json:"genres"`
	Developers      []apiNamed `json:"developers"`
}

type apiGameList struct {
	Count   int       `json:"count"`
	Results []apiGame `json:"results"`
}

func (g apiGame) toDomain() domain.Game {
	game := domain.Game{
		ID:              g.ID,
		Name:            g.Name,
		BackgroundImage: g.BackgroundImage,
		Released:        g.Released,
		Rating:          g.Rating,
	}

	for _, genre := range g.Genres {
		game.Genres = append(game.Genres, genre.Name)
	}

	if len(g.Developers) > 0 {
		game.Developer = g.Developers[0].Name
	}

	return game
}

// ListGames implements CatalogClient.ListGames.
func (c *HTTPClient) ListGames(ctx context.Context, page int) ([]domain.Game, error) {
	return c.listGames(ctx, "", page)
}

// SearchGames implements CatalogClient.SearchGames.
func (c *HTTPClient) SearchGames(ctx context.Context, query string, page int) ([]domain.Game, error) {
	return c.listGames(ctx, query, page)
}

func (c *HTTPClient) listGames(ctx context.Context, search string, page int) (_ []domain.Game, err error) {
	log := c.log.With(logging.Group("catalog", "page", page, "search", search))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "list games failed", "error", err)
		} else {
			log.DebugContext(ctx, "games listed")
		}
	}()

	if page < 1 {
		page = 1
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(c.cfg.PageSize))

	if c.cfg.Ordering != "" {
		query.Set("ordering", c.cfg.Ordering)
	}

	if search != "" {
		query.Set("search", search)
	}

	var list apiGameList
	if err := c.get(ctx, "games", query, &list); err != nil {
		return nil, err
	}

	games := make([]domain.Game, 0, len(list.Results))
	for _, g := range list.Results {
		games = append(games, g.toDomain())
	}

	return games, nil
}

// GameDetails implements CatalogClient.GameDetails.
func (c *HTTPClient) GameDetails(ctx context.Context, id int64) (_ *domain.Game, err error) {
	log := c.log.With(logging.Group("catalog", "gameId", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "game details failed", "error", err)
		} else {
			log.DebugContext(ctx, "game details fetched")
		}
	}()

	var g apiGame
	if err := c.get(ctx, "games/"+strconv.FormatInt(id, 10), url.Values{}, &g); err != nil {
		return nil, err
	}

	game := g.toDomain()

	return &game, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, v any) error {
	if c.cfg.APIKey != "" {
		query.Set("key", c.cfg.APIKey)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		req.Header.Set(TraceIDHeader, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrGameNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)

		return fmt.Errorf("%w: %s", ErrUpstream, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}
