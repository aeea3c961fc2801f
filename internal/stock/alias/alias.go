package alias

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"stock-service/internal/stock/model"
	"stock-service/internal/stock/normalize"
)

// Resolver — read-only таблица «алиас → канонический бренд».
// Строится один раз на старте; на пути запроса только чтение.
type Resolver struct {
	byAlias map[string]string
}

// New валидирует и собирает таблицу вида {canonical: [aliases...]}
// (формат brand_aliases.json):
//   - каноническая сторона обязана быть неподвижной точкой нормализатора;
//   - один алиас на два разных канона — ошибка конфигурации, а не
//     last-write-wins.
func New(table map[string][]string) (*Resolver, error) {
	r := &Resolver{byAlias: make(map[string]string, len(table)*2)}

	// детерминированный порядок обхода, чтобы ошибка была воспроизводимой
	canons := make([]string, 0, len(table))
	for c := range table {
		canons = append(canons, c)
	}
	sort.Strings(canons)

	for _, canon := range canons {
		if normalize.Text(canon) != canon {
			return nil, fmt.Errorf("%w: canonical %q is not a normalizer fixed point",
				model.ErrAliasConfig, canon)
		}
		if err := r.add(canon, canon); err != nil {
			return nil, err
		}
		for _, a := range table[canon] {
			an := normalize.Text(a)
			if an == "" {
				continue
			}
			if err := r.add(an, canon); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Resolver) add(aliasNorm, canon string) error {
	if prev, ok := r.byAlias[aliasNorm]; ok && prev != canon {
		return fmt.Errorf("%w: alias %q maps to both %q and %q",
			model.ErrAliasConfig, aliasNorm, prev, canon)
	}
	r.byAlias[aliasNorm] = canon
	return nil
}

// Load читает JSON-таблицу алиасов. Отсутствующий файл — не ошибка:
// сервис остаётся рабочим для ещё не каталогизированных брендов.
func Load(path string) (*Resolver, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Resolver{byAlias: map[string]string{}}, nil
		}
		return nil, err
	}
	var table map[string][]string
	if err := json.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrAliasConfig, path, err)
	}
	return New(table)
}

// Resolve — нормализованный текст → канонический бренд.
// Неизвестные бренды проходят насквозь без изменений.
func (r *Resolver) Resolve(normalized string) string {
	if c, ok := r.byAlias[normalized]; ok {
		return c
	}
	return normalized
}

func (r *Resolver) Len() int { return len(r.byAlias) }
