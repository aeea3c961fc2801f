package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stock-service/internal/config"
	"stock-service/internal/stock/alias"
	"stock-service/internal/stock/ingest"
	"stock-service/internal/stock/matcher"
	"stock-service/internal/stock/model"
	"stock-service/internal/stock/store"
)

// верхняя граница выдачи независимо от клиента
const maxLimit = 50

type searchRequest struct {
	Query string `json:"query"`
	Limit *int   `json:"limit"` // nil → дефолт из конфига
}

type resultItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
	Score    float64 `json:"score"`
}

type searchResponse struct {
	Query   string       `json:"query"`
	Count   int          `json:"count"`
	Results []resultItem `json:"results"`
}

// Search — одна операция границы запросов: строка + лимит → ранжированные
// записи. Выдаёт display-поля; канонические формы наружу не уходят.
// Работает и во время цикла загрузки — отдаёт предыдущее поколение.
func Search(cfg config.Config, logger zerolog.Logger, m *matcher.Matcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		query, limit, err := parseSearch(r, cfg.DefaultLimit)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		results, err := m.Search(query, limit)
		if err != nil {
			if errors.Is(err, model.ErrInvalidArgument) {
				writeErr(w, http.StatusBadRequest, err.Error())
				return
			}
			logger.Error().Err(err).Msg("search failed")
			writeErr(w, http.StatusInternalServerError, "internal")
			return
		}

		resp := searchResponse{Query: query, Count: len(results), Results: make([]resultItem, len(results))}
		for i, mr := range results {
			resp.Results[i] = resultItem{
				ID:       mr.Record.ID,
				Name:     mr.Record.NameDisplay,
				Brand:    mr.Record.BrandDisplay,
				Quantity: mr.Record.Qty,
				Price:    mr.Record.Price,
				Unit:     mr.Record.Unit,
				Score:    mr.Score,
			}
		}
		writeJSON(w, http.StatusOK, resp)

		logger.Info().
			Str("query", query).
			Int("count", resp.Count).
			Dur("elapsed", time.Since(start)).
			Msg("search done")
	}
}

// POST: JSON-тело; GET: ?q=&limit= — для ручной отладки curl-ом.
func parseSearch(r *http.Request, defLimit int) (string, int, error) {
	if r.Method == http.MethodGet {
		q := r.URL.Query().Get("q")
		limit := defLimit
		if ls := r.URL.Query().Get("limit"); ls != "" {
			v, err := strconv.Atoi(ls)
			if err != nil {
				return "", 0, errors.New("limit must be an integer")
			}
			limit = v
		}
		return q, limit, nil
	}

	defer r.Body.Close()
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", 0, errors.New("bad json body: " + err.Error())
	}
	limit := defLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	return req.Query, limit, nil
}

// Health — статус сервиса и текущего поколения (аналог /ping).
func Health(cfg config.Config, st *store.Store, resolver *alias.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := st.Current()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"db_path":     cfg.DBPath,
			"export_file": cfg.ExportFile,
			"aliases":     resolver.Len(),
			"generation":  snap.Gen,
			"records":     len(snap.Records),
			"loaded_at":   snap.LoadedAt.Format(time.RFC3339),
		})
	}
}

// Refresh принудительно запускает цикл загрузки. 409 — цикл уже идёт.
func Refresh(logger zerolog.Logger, runner *ingest.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := runner.TryRunOnce(r.Context())
		if err != nil {
			if errors.Is(err, ingest.ErrBusy) {
				writeErr(w, http.StatusConflict, "ingest cycle already running")
				return
			}
			logger.Error().Err(err).Msg("manual ingest failed")
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}

		rowErrs := make([]string, 0, len(rep.RowErrors))
		for _, re := range rep.RowErrors {
			rowErrs = append(rowErrs, re.Error())
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"rows":       rep.Rows,
			"skipped":    rep.Skipped,
			"row_errors": rowErrs,
			"elapsed":    rep.Elapsed.String(),
		})
	}
}

// AliasSuggest — сервисный отчёт для куратора таблицы алиасов: по латинским
// брендам текущего поколения генерируется черновая фонетическая
// транслитерация. Уже покрытые резолвером варианты отфильтровываются.
func AliasSuggest(st *store.Store, resolver *alias.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := st.Current()

		seen := map[string]bool{}
		var brands []string
		for _, rec := range snap.Records {
			if rec.BrandCanon == "" || seen[rec.BrandCanon] {
				continue
			}
			seen[rec.BrandCanon] = true
			brands = append(brands, rec.BrandCanon)
		}

		suggestions := map[string][]string{}
		for canonical, aliases := range alias.Generate(brands) {
			kept := aliases[:0]
			for _, a := range aliases {
				if resolver.Resolve(a) == a {
					kept = append(kept, a)
				}
			}
			if len(kept) > 0 {
				suggestions[canonical] = kept
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"generation":  snap.Gen,
			"brands":      len(brands),
			"suggestions": suggestions,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
