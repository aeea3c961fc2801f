// Подбор реальных имён колонок: экспорты приходят с вариациями регистра,
// пробелов, ZWNJ и арабских/персидских начертаний в заголовках.
package builder

import (
	"strings"

	"stock-service/internal/stock/normalize"
)

// normHeaderKey — тот же нормализатор, что и для данных: ك→ک, ZWNJ→пробел,
// цифры→ASCII, нижний регистр.
func normHeaderKey(s string) string {
	return normalize.Text(s)
}

// resolveKey ищет настоящий заголовок по желаемому имени.
// Поддерживает альтернативы через "|" (например: "نام كتاب|نام کالا|name").
func resolveKey(keys []string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	// 1) точное совпадение (как есть)
	for _, a := range alts {
		for _, k := range keys {
			if k == a {
				return k
			}
		}
	}

	// 2) нормализованное равенство
	var nWantAll []string
	for _, a := range alts {
		nWantAll = append(nWantAll, normHeaderKey(a))
	}
	for _, k := range keys {
		nk := normHeaderKey(k)
		for _, n := range nWantAll {
			if n != "" && nk == n {
				return k
			}
		}
	}

	// 3) частичное: want ⊂ key или key ⊂ want (составные заголовки
	//    вида "موجودی تعداد" содержат "تعداد")
	bestKey := ""
	bestScore := 0
	for _, k := range keys {
		nk := normHeaderKey(k)
		if nk == "" {
			continue
		}
		score := 0
		for _, n := range nWantAll {
			if n == "" {
				continue
			}
			if strings.Contains(nk, n) || strings.Contains(n, nk) {
				if len(n) > score {
					score = len(n)
				}
			}
		}
		if score > bestScore {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}

// Повтор строки-шапки посреди листа: две и более ячейки с ключевыми
// словами заголовков.
func looksLikeHeaderMap(m map[string]string) bool {
	cnt := 0
	for _, v := range m {
		s := normHeaderKey(v)
		if strings.Contains(s, "نام") || strings.Contains(s, "تعداد") ||
			strings.Contains(s, "قیمت") || strings.Contains(s, "کد") {
			cnt++
		}
	}
	return cnt >= 2
}
