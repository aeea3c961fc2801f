package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Арабские варианты → персидские канонические буквы.
var persianFold = map[rune]rune{
	'ي': 'ی', // ي → ی
	'ى': 'ی', // ى → ی
	'ك': 'ک', // ك → ک
	'ة': 'ه', // ة → ه
	'أ': 'ا', // أ → ا
	'إ': 'ا', // إ → ا
	'ٱ': 'ا', // ٱ → ا
	'ؤ': 'و', // ؤ → و
}

// Разделители, схлопываемые в пробел: дефисы, слэши, подчёркивание,
// персидская запятая и т.п. Прочая пунктуация остаётся как есть.
var separators = map[rune]bool{
	'-': true, '‐': true, '–': true, '—': true,
	'_': true, '/': true, '\\': true,
	',': true, '،': true, // ، персидская запятая
	'؛': true, // ؛
	'×': true, '*': true, '·': true,
}

// Digit folding policy: все локальные цифровые глифы (персидские ۰–۹ и
// арабско-индийские ٠–٩) приводятся к ASCII. Один вид цифр — одно сравнение.
func foldDigit(r rune) (rune, bool) {
	switch {
	case r >= '۰' && r <= '۹': // ۰–۹
		return '0' + (r - '۰'), true
	case r >= '٠' && r <= '٩': // ٠–٩
		return '0' + (r - '٠'), true
	}
	return r, false
}

// Харакаты и прочие огласовки лексического смысла для поиска не несут.
func isDiacritic(r rune) bool {
	return (r >= 'ً' && r <= 'ٟ') || r == 'ٰ'
}

// ZWNJ/ZWJ/ZWSP/BOM и неразрывные пробелы → обычный пробел.
func isInvisibleSpace(r rune) bool {
	switch r {
	case '​', '‌', '‍', '\uFEFF', ' ', ' ', ' ':
		return true
	}
	return false
}

const kashida = 'ـ' // ـ (tatweel), удаляется целиком

// Text — главный конвейер канонизации. Детерминированный, тотальный, чистый.
// Порядок правил существенен: сначала NFKC (presentation forms → базовые
// буквы), потом посимвольная унификация, в конце схлопывание пробелов.
// Гарантия: Text(Text(x)) == Text(x).
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == kashida || isDiacritic(r):
			// drop
		case isInvisibleSpace(r) || separators[r]:
			b.WriteRune(' ')
		default:
			if rr, ok := persianFold[r]; ok {
				r = rr
			}
			if d, ok := foldDigit(r); ok {
				r = d
			}
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return collapseSpaces(b.String())
}

// Query — нормализация пользовательского запроса: как Text, плюс
// срезаем вопросительные знаки («چی داریم؟»).
func Query(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '؟' || r == '?' { // ؟
			return -1
		}
		return r
	}, s)
	return Text(s)
}

// Tokens — токены канонического текста (по пробелам).
func Tokens(s string) []string {
	return strings.Fields(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
