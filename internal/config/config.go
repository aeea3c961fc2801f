package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFile      string
	MaxBodyMB    int

	ExportFile     string        // куда автоматика кладёт выгрузку Kowsar
	DBPath         string        // файл SQLite со складом
	AliasesPath    string        // brand_aliases.json
	HeaderRow      int           // строка заголовков в экспорте (1-based)
	IngestInterval time.Duration // период цикла загрузки
	DefaultLimit   int           // лимит выдачи, если клиент не задал
	FuzzyThreshold float64       // порог похожести для fuzzy-фолбэка
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8082"))
	mb, _ := strconv.Atoi(getenv("MAX_BODY_MB", "4"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	headerRow, _ := strconv.Atoi(getenv("HEADER_ROW", "1"))
	intervalMin, _ := strconv.Atoi(getenv("INGEST_INTERVAL_MIN", "15"))
	defLimit, _ := strconv.Atoi(getenv("DEFAULT_LIMIT", "10"))
	fuzzy, _ := strconv.ParseFloat(getenv("FUZZY_THRESHOLD", "0.72"), 64)
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFile:      getenv("LOG_FILE", "logs/stock-service.log"),
		MaxBodyMB:    mb,

		ExportFile:     getenv("EXPORT_FILE", "exports/KowsarExport.xlsx"),
		DBPath:         getenv("DB_PATH", "data/stock.db"),
		AliasesPath:    getenv("ALIASES_PATH", "data/brand_aliases.json"),
		HeaderRow:      headerRow,
		IngestInterval: time.Duration(intervalMin) * time.Minute,
		DefaultLimit:   defLimit,
		FuzzyThreshold: fuzzy,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
