package alias

import (
	"sort"
	"strings"

	"stock-service/internal/stock/normalize"
)

// Лёгкая фонетическая транслитерация латиницы в персидский — достаточно
// для генерации черновых алиасов. Диграфы идут первыми, иначе "sh"
// никогда не сработает после замены "s".
var letterPairs = []struct{ en, fa string }{
	{"ph", "ف"}, {"sh", "ش"}, {"ch", "چ"},
	{"f", "ف"}, {"b", "ب"}, {"p", "پ"}, {"t", "ت"}, {"d", "د"},
	{"k", "ک"}, {"g", "گ"}, {"s", "س"}, {"j", "ج"}, {"l", "ل"},
	{"m", "م"}, {"n", "ن"}, {"r", "ر"}, {"v", "و"}, {"w", "و"},
	{"y", "ی"}, {"i", "ی"}, {"a", "ا"}, {"o", "و"}, {"u", "و"},
}

func phoneticFA(word string) string {
	out := word
	for _, p := range letterPairs {
		out = strings.ReplaceAll(out, p.en, p.fa)
	}
	return out
}

func hasPersian(s string) bool {
	for _, r := range s {
		if r >= '؀' && r <= 'ۿ' {
			return true
		}
	}
	return false
}

// Generate строит черновую таблицу алиасов по наблюдаемым латинским брендам:
// целиком транслитерированный вариант плюс по-словные варианты для слов
// длиннее двух букв. Чисто персидские бренды пропускаются. Результат —
// заготовка для кураторской правки, не финальная таблица.
func Generate(brands []string) map[string][]string {
	out := make(map[string][]string)
	for _, brand := range brands {
		b := normalize.Text(brand)
		if b == "" || hasPersian(b) {
			continue
		}

		seen := map[string]bool{phoneticFA(b): true}
		for _, part := range strings.Fields(b) {
			if len(part) > 2 {
				seen[phoneticFA(part)] = true
			}
		}

		aliases := make([]string, 0, len(seen))
		for a := range seen {
			aliases = append(aliases, a)
		}
		sort.Strings(aliases)
		out[b] = aliases
	}
	return out
}
