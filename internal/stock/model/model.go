package model

type Mapping struct {
	NameKey  string // имя колонки с наименованием (поддерживает альтернативы через "|")
	BrandKey string // имя колонки с брендом/издателем (опционально)
	CodeKey  string // имя колонки с кодом/артикулом (опционально)
	QtyKey   string // имя колонки с количеством
	PriceKey string // имя колонки с ценой (опционально)
	UnitKey  string // имя колонки с единицей (опционально)

	HeaderRow int // строка заголовков (1-based)
}

// DefaultMapping — заголовки экспорта Kowsar с запасными вариантами.
func DefaultMapping(headerRow int) Mapping {
	return Mapping{
		NameKey:   "نام كتاب|نام کالا|نام|name",
		BrandKey:  "ناشر|برند|brand",
		CodeKey:   "كدسيستم|كد كتاب|کد|code",
		QtyKey:    "تعداد|موجودی|qty",
		PriceKey:  "پشت جلد|قيمت|price",
		UnitKey:   "واحد|unit",
		HeaderRow: headerRow,
	}
}

// RawRow — одна строка экспорта до канонизации. Живёт только внутри цикла.
type RawRow struct {
	Index int // позиция строки в файле (после заголовков, 0-based)

	Name  string
	Brand string
	Code  string
	Qty   string
	Price string
	Unit  string
}

// Record — канонизированная строка склада. NameCanon/BrandCanon — неподвижные
// точки нормализатора; NameDisplay/BrandDisplay хранят исходный текст для выдачи.
type Record struct {
	ID           string  `json:"id"`
	NameCanon    string  `json:"-"`
	NameDisplay  string  `json:"name"`
	BrandCanon   string  `json:"-"`
	BrandDisplay string  `json:"brand"`
	Qty          float64 `json:"quantity"`
	Price        float64 `json:"price"`
	Unit         string  `json:"unit"`
}

type MatchResult struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}
