package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"stock-service/internal/config"
	"stock-service/internal/middleware"
	"stock-service/internal/stock/alias"
	"stock-service/internal/stock/handler"
	"stock-service/internal/stock/ingest"
	"stock-service/internal/stock/matcher"
	"stock-service/internal/stock/store"
)

type Deps struct {
	Store    *store.Store
	Resolver *alias.Resolver
	Matcher  *matcher.Matcher
	Runner   *ingest.Runner
}

func NewRouter(cfg config.Config, logger zerolog.Logger, d Deps) *chi.Mux {
	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxBodyMB) * 1024 * 1024))

	// health-check
	r.Get("/health", handler.Health(cfg, d.Store, d.Resolver))

	// основной эндпоинт: поиск по складу
	r.Post("/search", handler.Search(cfg, logger, d.Matcher))
	r.Get("/search", handler.Search(cfg, logger, d.Matcher))

	// принудительный цикл загрузки
	r.Post("/refresh", handler.Refresh(logger, d.Runner))

	// черновые алиасы для кураторской правки brand_aliases.json
	r.Get("/aliases/suggest", handler.AliasSuggest(d.Store, d.Resolver))

	return r
}
