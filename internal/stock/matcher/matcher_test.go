package matcher

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"stock-service/internal/stock/alias"
	"stock-service/internal/stock/model"
	"stock-service/internal/stock/store"
)

func fixtures() []model.Record {
	return []model.Record{
		{ID: "100", NameCanon: "مداد رنگی", NameDisplay: "مداد رنگی", BrandCanon: "faber castell", BrandDisplay: "Faber", Qty: 3},
		{ID: "101", NameCanon: "خودکار", NameDisplay: "خودكار", Qty: 10},
		{ID: "102", NameCanon: "مداد", NameDisplay: "مداد", Qty: 1},
		{ID: "103", NameCanon: "tv 55 inch", NameDisplay: "TV 55 inch", BrandCanon: "sony canon", BrandDisplay: "SONY", Qty: 2},
		{ID: "104", NameCanon: "خودکار آبی", NameDisplay: "خودکار آبی", Qty: 4},
	}
}

func newTestMatcher(t *testing.T) *Matcher {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "stock.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.ReplaceAll(context.Background(), fixtures()); err != nil {
		t.Fatal(err)
	}
	resolver, err := alias.New(map[string][]string{
		"faber castell": {"فابر", "faber"},
		"sony canon":    {"sony", "سونی"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(st, resolver, 0.72)
}

func ids(results []model.MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Record.ID
	}
	return out
}

func TestSearchArguments(t *testing.T) {
	m := newTestMatcher(t)

	for _, limit := range []int{0, -5} {
		_, err := m.Search("مداد", limit)
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("limit %d: err = %v, want ErrInvalidArgument", limit, err)
		}
	}

	for _, q := range []string{"", "   ", "؟؟"} {
		_, err := m.Search(q, 5)
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Errorf("query %q: err = %v, want ErrInvalidArgument", q, err)
		}
	}
}

func TestSearchLayers(t *testing.T) {
	m := newTestMatcher(t)

	t.Run("exact beats substring", func(t *testing.T) {
		res, err := m.Search("مداد", 10)
		if err != nil {
			t.Fatal(err)
		}
		got := ids(res)
		if len(got) < 2 || got[0] != "102" || got[1] != "100" {
			t.Errorf("ids = %v, want [102 100 ...]", got)
		}
		if res[0].Score <= res[1].Score || res[0].Score < layerExact {
			t.Errorf("scores = %v/%v", res[0].Score, res[1].Score)
		}
	})

	t.Run("whole query as brand alias reaches the record", func(t *testing.T) {
		// «سونی» буквально не равен «sony canon», но через резолвер обязан
		// дотянуться до записи с этим брендом
		res, err := m.Search("سونی", 10)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(res); len(got) != 1 || got[0] != "103" {
			t.Errorf("ids = %v, want [103]", got)
		}
		if res[0].Score != layerSub {
			t.Errorf("score = %v, want layer B", res[0].Score)
		}
	})

	t.Run("brand plus remainder", func(t *testing.T) {
		res, err := m.Search("sony tv", 10)
		if err != nil {
			t.Fatal(err)
		}
		if got := ids(res); len(got) == 0 || got[0] != "103" {
			t.Errorf("ids = %v, want 103 first", got)
		}
	})

	t.Run("token overlap scores fraction", func(t *testing.T) {
		res, err := m.Search("خودکار قرمز", 10)
		if err != nil {
			t.Fatal(err)
		}
		// 101 — подстрока (слой B), 104 — перекрытие 1 из 2 токенов (слой C)
		got := ids(res)
		if len(got) != 2 || got[0] != "101" || got[1] != "104" {
			t.Fatalf("ids = %v, want [101 104]", got)
		}
		if res[1].Score != layerTokenMax/2 {
			t.Errorf("layer C score = %v, want %v", res[1].Score, layerTokenMax/2)
		}
	})

	t.Run("no overlap is empty result not error", func(t *testing.T) {
		res, err := m.Search("کیف چرمی بزرگ", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 0 {
			t.Errorf("results = %v, want empty", ids(res))
		}
	})
}

func TestSearchTieBreakAndLimit(t *testing.T) {
	m := newTestMatcher(t)

	t.Run("higher quantity first within a layer", func(t *testing.T) {
		// «مد» — подстрока обоих имён: 100 (qty 3) раньше 102 (qty 1)
		res, err := m.Search("مد", 10)
		if err != nil {
			t.Fatal(err)
		}
		got := ids(res)
		if len(got) < 2 || got[0] != "100" || got[1] != "102" {
			t.Errorf("ids = %v, want [100 102]", got)
		}
	})

	t.Run("limit truncates", func(t *testing.T) {
		res, err := m.Search("مداد", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 1 {
			t.Errorf("len = %d, want 1", len(res))
		}
	})

	t.Run("limit above match count returns all matches", func(t *testing.T) {
		res, err := m.Search("مداد", 5)
		if err != nil {
			t.Fatal(err)
		}
		if len(res) != 2 {
			t.Errorf("len = %d, want exactly 2", len(res))
		}
	})
}

func TestSearchDeterministic(t *testing.T) {
	m := newTestMatcher(t)
	first, err := m.Search("خودکار قرمز", 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := m.Search("خودکار قرمز", 10)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, ids(first), ids(again))
		}
	}
}

func TestFuzzyFallback(t *testing.T) {
	m := newTestMatcher(t)

	t.Run("typo reaches the record", func(t *testing.T) {
		res, err := m.Search("خودقار", 10)
		if err != nil {
			t.Fatal(err)
		}
		got := ids(res)
		if len(got) == 0 || got[0] != "101" {
			t.Fatalf("ids = %v, want 101 first", got)
		}
		if res[0].Score > layerTokenMax {
			t.Errorf("fuzzy score = %v, must stay below exact layers", res[0].Score)
		}
	})

	t.Run("fallback does not fire when layers matched", func(t *testing.T) {
		res, err := m.Search("خودکار", 10)
		if err != nil {
			t.Fatal(err)
		}
		// точное совпадение — только слои, без fuzzy-примесей
		if res[0].Score < layerExact {
			t.Errorf("score = %v, want exact layer", res[0].Score)
		}
	})
}
