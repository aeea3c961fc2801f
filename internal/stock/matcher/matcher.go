package matcher

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"stock-service/internal/stock/alias"
	"stock-service/internal/stock/model"
	"stock-service/internal/stock/normalize"
	"stock-service/internal/stock/store"
)

// Слои ранжирования. Старший слой всегда бьёт младший, очки между слоями
// не смешиваются.
const (
	layerExact    = 1000.0 // точное равенство (+ бонус за длину)
	layerSub      = 500.0  // подстрока / бренд+остаток
	layerTokenMax = 100.0  // доля общих токенов, (0..100]
)

// DefaultFuzzyThreshold — порог похожести для фолбэка по опечаткам.
const DefaultFuzzyThreshold = 0.72

type Matcher struct {
	store    *store.Store
	resolver *alias.Resolver

	fuzzyThreshold float64

	idx atomic.Pointer[genIndex]
}

func New(st *store.Store, resolver *alias.Resolver, fuzzyThreshold float64) *Matcher {
	if fuzzyThreshold <= 0 || fuzzyThreshold > 1 {
		fuzzyThreshold = DefaultFuzzyThreshold
	}
	return &Matcher{store: st, resolver: resolver, fuzzyThreshold: fuzzyThreshold}
}

type scored struct {
	pos   int
	score float64
}

// Search канонизирует запрос и ранжирует записи текущего поколения.
// Пустой запрос и limit <= 0 — ошибка вызывающего; «ничего не нашлось» —
// нормальный результат: пустой срез без ошибки.
func (m *Matcher) Search(query string, limit int) ([]model.MatchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", model.ErrInvalidArgument)
	}
	q := normalize.Query(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty query", model.ErrInvalidArgument)
	}

	// снимок берём один раз: поиск доработает со своим поколением,
	// даже если загрузка подменит склад посреди запроса
	snap := m.store.Current()
	qBrand := m.resolver.Resolve(q)
	qTokens := normalize.Tokens(q)

	var hits []scored
	for pos, rec := range snap.Records {
		if s, ok := m.score(q, qBrand, qTokens, rec); ok {
			hits = append(hits, scored{pos: pos, score: s})
		}
	}

	// фолбэк на опечатки — только когда слои A–C не дали ничего
	if len(hits) == 0 {
		hits = m.fuzzy(snap, q)
	}

	sortHits(snap, hits)

	if len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]model.MatchResult, len(hits))
	for i, h := range hits {
		out[i] = model.MatchResult{Record: snap.Records[h.pos], Score: h.score}
	}
	return out, nil
}

// score — слоистая схема: побеждает старший сработавший слой.
func (m *Matcher) score(q, qBrand string, qTokens []string, rec model.Record) (float64, bool) {
	name := rec.NameCanon

	brandRest, brandOK := m.splitBrand(qTokens, rec.BrandCanon)

	// Layer A: точное совпадение имени, либо бренд + остаток == имя
	if q == name || qBrand == name || (brandOK && brandRest == name && brandRest != "") {
		return layerExact + float64(len([]rune(q))), true
	}

	// Layer B: подстрока в любую сторону; либо запрос «разрешился» в бренд
	// записи и остаток пуст или входит в имя. Сюда попадает и случай, когда
	// весь запрос — алиас бренда (sony → SONY-CANON).
	if name != "" && (strings.Contains(name, q) || strings.Contains(q, name)) {
		return layerSub, true
	}
	if qBrand != "" && qBrand == rec.BrandCanon {
		return layerSub, true
	}
	if brandOK && (brandRest == "" || strings.Contains(name, brandRest)) {
		return layerSub, true
	}

	// Layer C: перекрытие токенов; ноль общих — запись исключается,
	// а не возвращается с нулевым счётом
	shared := 0
	nameTokens := map[string]bool{}
	for _, t := range normalize.Tokens(name) {
		nameTokens[t] = true
	}
	for _, t := range qTokens {
		if nameTokens[t] {
			shared++
		}
	}
	if shared == 0 {
		return 0, false
	}
	return layerTokenMax * float64(shared) / float64(len(qTokens)), true
}

// splitBrand пытается прочитать запрос как «бренд + остаток»: префиксы из
// 1..N токенов прогоняются через резолвер и сверяются с брендом записи.
func (m *Matcher) splitBrand(qTokens []string, brandCanon string) (rest string, ok bool) {
	if brandCanon == "" {
		return "", false
	}
	for i := 1; i <= len(qTokens); i++ {
		prefix := strings.Join(qTokens[:i], " ")
		if m.resolver.Resolve(prefix) == brandCanon {
			return strings.Join(qTokens[i:], " "), true
		}
	}
	return "", false
}

func (m *Matcher) fuzzy(snap *store.Snapshot, q string) []scored {
	idx := m.indexFor(snap)
	var hits []scored
	for _, pos := range idx.candidates(q) {
		s := bestSimilarity(q, snap.Records[pos].NameCanon)
		if s >= m.fuzzyThreshold {
			hits = append(hits, scored{pos: pos, score: s * layerTokenMax})
		}
	}
	return hits
}

// Порядок выдачи: счёт по убыванию, затем больший остаток на складе, затем
// более короткое (точное) имя, затем порядок загрузки. Stable — повторный
// одинаковый запрос обязан давать байт-в-байт тот же порядок.
func sortHits(snap *store.Snapshot, hits []scored) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.score != b.score {
			return a.score > b.score
		}
		ra, rb := snap.Records[a.pos], snap.Records[b.pos]
		if ra.Qty != rb.Qty {
			return ra.Qty > rb.Qty
		}
		if la, lb := len(ra.NameCanon), len(rb.NameCanon); la != lb {
			return la < lb
		}
		return a.pos < b.pos
	})
}
