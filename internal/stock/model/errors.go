package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument — ошибка вызывающей стороны на границе запроса.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAliasConfig — невалидная таблица алиасов; фатально на старте.
	ErrAliasConfig = errors.New("invalid alias config")

	// ErrStoreClosed возвращается после Close().
	ErrStoreClosed = errors.New("store is closed")
)

// SchemaError — в экспорте целиком отсутствует обязательная колонка.
// Фатально для цикла: предыдущее поколение остаётся рабочим.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "export schema: missing required columns: " + strings.Join(e.Missing, ", ")
}

type RowErrorKind string

const (
	MissingKey     RowErrorKind = "missing_key"     // нет ни кода, ни названия
	InvalidNumeric RowErrorKind = "invalid_numeric" // количество/цена не парсится
)

// RowError — проблема одной строки. Строка пропускается, цикл продолжается.
type RowError struct {
	Row   int
	Field string
	Kind  RowErrorKind
	Value string
}

func (e *RowError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Kind)
	}
	return fmt.Sprintf("row %d: %s %q: %s", e.Row, e.Field, e.Value, e.Kind)
}
