package builder

import (
	"strings"

	"stock-service/internal/stock/alias"
	"stock-service/internal/stock/model"
	"stock-service/internal/stock/normalize"
	"stock-service/internal/utils"
)

// Builder превращает сырые строки экспорта в канонизированные записи.
type Builder struct {
	resolver *alias.Resolver
}

func New(resolver *alias.Resolver) *Builder {
	return &Builder{resolver: resolver}
}

// Build — одна строка. Ошибка строки не фатальна для партии: строка
// пропускается, ошибка копится в отчёте цикла.
func (b *Builder) Build(raw model.RawRow) (model.Record, *model.RowError) {
	nameCanon := normalize.Text(raw.Name)
	code := normalize.Text(raw.Code)

	// не на что ключевать запись
	if code == "" && nameCanon == "" {
		return model.Record{}, &model.RowError{Row: raw.Index, Kind: model.MissingKey}
	}

	qty, rerr := parseField(raw.Index, "quantity", raw.Qty)
	if rerr != nil {
		return model.Record{}, rerr
	}
	price, rerr := parseField(raw.Index, "price", raw.Price)
	if rerr != nil {
		return model.Record{}, rerr
	}

	brandNorm := normalize.Text(raw.Brand)
	id := code
	if id == "" {
		id = nameCanon
	}

	return model.Record{
		ID:           id,
		NameCanon:    nameCanon,
		NameDisplay:  strings.TrimSpace(raw.Name),
		BrandCanon:   b.resolver.Resolve(brandNorm),
		BrandDisplay: strings.TrimSpace(raw.Brand),
		Qty:          qty,
		Price:        price,
		Unit:         strings.TrimSpace(raw.Unit),
	}, nil
}

// пустая ячейка — это ноль; непарсибельный мусор — ошибка строки
func parseField(row int, field, s string) (float64, *model.RowError) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	v, ok := utils.ParseFloatFA(s)
	if !ok {
		return 0, &model.RowError{Row: row, Field: field, Kind: model.InvalidNumeric, Value: s}
	}
	return v, nil
}

// FromMaps строит записи из вывода fileio (срез map[заголовок]значение).
// Отсутствие обязательной колонки во всём экспорте — SchemaError;
// построчные проблемы копятся и не прерывают партию.
func (b *Builder) FromMaps(maps []map[string]string, m model.Mapping) ([]model.Record, []*model.RowError, error) {
	keys := headerKeys(maps)

	nameKey := resolveKey(keys, m.NameKey)
	qtyKey := resolveKey(keys, m.QtyKey)

	var missing []string
	if nameKey == "" {
		missing = append(missing, m.NameKey)
	}
	if qtyKey == "" {
		missing = append(missing, m.QtyKey)
	}
	if len(missing) > 0 {
		return nil, nil, &model.SchemaError{Missing: missing}
	}

	brandKey := resolveKey(keys, m.BrandKey)
	codeKey := resolveKey(keys, m.CodeKey)
	priceKey := resolveKey(keys, m.PriceKey)
	unitKey := resolveKey(keys, m.UnitKey)

	records := make([]model.Record, 0, len(maps))
	var rowErrs []*model.RowError

	for i, rec := range maps {
		// повтор шапки посреди листа — пропускаем
		if looksLikeHeaderMap(rec) {
			continue
		}
		raw := model.RawRow{
			Index: i,
			Name:  rec[nameKey],
			Brand: rec[brandKey],
			Code:  rec[codeKey],
			Qty:   rec[qtyKey],
			Price: rec[priceKey],
			Unit:  rec[unitKey],
		}
		r, rerr := b.Build(raw)
		if rerr != nil {
			rowErrs = append(rowErrs, rerr)
			continue
		}
		records = append(records, r)
	}
	return records, rowErrs, nil
}

func headerKeys(maps []map[string]string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, rec := range maps {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
		break // у fileio все записи несут полный набор заголовков
	}
	return keys
}
