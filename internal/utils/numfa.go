package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)

// ParseFloatFA парсит числа из персидских экспортов: "۱۲۳", "12٬500",
// "45,000", "۳٫۵", "1 200" (NBSP/NNBSP) и т.п.
// Цифровые глифы приводятся к ASCII, "٬" и "," считаются разделителями
// тысяч, "٫" — десятичной точкой.
func ParseFloatFA(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.Map(foldDigitRune, s)
	// убрать пробелы всех видов и разделители тысяч, десятичную → точка
	repl := strings.NewReplacer(
		" ", "", " ", "", " ", "", " ", "", "\t", "",
		"٬", "", ",", "", // ٬ и , — группировка разрядов
		"٫", ".", // ٫ — десятичный разделитель
	)
	s = repl.Replace(s)
	// оставить только цифры, точку и минус (на случай мусора)
	s = rxKeepNums.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func foldDigitRune(r rune) rune {
	switch {
	case r >= '۰' && r <= '۹': // ۰–۹
		return '0' + (r - '۰')
	case r >= '٠' && r <= '٩': // ٠–٩
		return '0' + (r - '٠')
	}
	return r
}
