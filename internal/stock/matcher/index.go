package matcher

import (
	"sort"
	"strings"

	"stock-service/internal/stock/store"
)

// Триграммный индекс по каноническим именам одного поколения — источник
// кандидатов для fuzzy-фолбэка, чтобы не гонять Дамерау по всему складу.
type genIndex struct {
	gen uint64
	inv map[string][]int // trigram → позиции записей
}

func buildIndex(snap *store.Snapshot) *genIndex {
	idx := &genIndex{gen: snap.Gen, inv: make(map[string][]int)}
	for pos, r := range snap.Records {
		if r.NameCanon == "" {
			continue
		}
		for g := range trigramSet(r.NameCanon) {
			idx.inv[g] = append(idx.inv[g], pos)
		}
	}
	return idx
}

func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	p := " " + s + " "
	r := []rune(p)
	if len(r) < 3 {
		m[p] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}

// candidates — позиции записей, делящих хотя бы одну триграмму с запросом,
// в возрастающем порядке (для детерминированного обхода).
func (idx *genIndex) candidates(norm string) []int {
	if norm == "" {
		return nil
	}
	seen := make(map[int]struct{})
	for g := range trigramSet(norm) {
		for _, pos := range idx.inv[g] {
			seen[pos] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for pos := range seen {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// indexFor — ленивый кэш индекса: пересобираем только при смене поколения.
func (m *Matcher) indexFor(snap *store.Snapshot) *genIndex {
	if idx := m.idx.Load(); idx != nil && idx.gen == snap.Gen {
		return idx
	}
	idx := buildIndex(snap)
	m.idx.Store(idx)
	return idx
}

// tokenSort: сортировка токенов, устойчивость к порядку слов
// («نوک مداد» == «مداد نوک»)
func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

func bestSimilarity(a, b string) float64 {
	x := similarity(a, b)
	if y := similarity(tokenSort(a), tokenSort(b)); y > x {
		return y
	}
	return x
}
