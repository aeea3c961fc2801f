package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stock-service/internal/stock/model"
)

// Snapshot — одно целиком установленное поколение склада.
// Записи в порядке загрузки; после установки поколение не мутирует.
type Snapshot struct {
	Records  []model.Record
	Gen      uint64
	LoadedAt time.Time
}

// Store — таблица products в SQLite + in-memory снимок текущего поколения.
// Каждый цикл загрузки переписывает таблицу целиком (как и исходный
// экспортер); читатели видят либо старое поколение, либо новое, смеси
// не бывает: подмена — один atomic-свап указателя.
type Store struct {
	db *sql.DB

	mu     sync.Mutex // сериализует писателей; читатели не блокируются
	genSeq uint64
	cur    atomic.Pointer[Snapshot]
	closed atomic.Bool
}

const columns = `(
	pos           INTEGER NOT NULL,
	id            TEXT    NOT NULL,
	name_canon    TEXT    NOT NULL,
	name_display  TEXT    NOT NULL,
	brand_canon   TEXT    NOT NULL,
	brand_display TEXT    NOT NULL,
	qty           REAL    NOT NULL,
	price         REAL    NOT NULL,
	unit          TEXT    NOT NULL
)`

const schema = `CREATE TABLE IF NOT EXISTS products ` + columns

// Open открывает (создавая при необходимости) файл БД и поднимает последнее
// сохранённое поколение в память — после рестарта поиск работает сразу,
// не дожидаясь свежего экспорта.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &Store{db: db}
	records, err := s.loadAll(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	s.genSeq = 1
	s.cur.Store(&Snapshot{Records: records, Gen: 1, LoadedAt: time.Now()})
	return s, nil
}

func (s *Store) loadAll(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name_canon, name_display, brand_canon, brand_display, qty, price, unit
		FROM products ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var r model.Record
		if err := rows.Scan(&r.ID, &r.NameCanon, &r.NameDisplay,
			&r.BrandCanon, &r.BrandDisplay, &r.Qty, &r.Price, &r.Unit); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReplaceAll атомарно заменяет всё содержимое склада новым поколением.
// Пишем во временную таблицу и переименовываем в одной транзакции; снимок
// в памяти подменяется только после коммита. Любая ошибка до коммита
// оставляет предыдущее поколение рабочим.
func (s *Store) ReplaceAll(ctx context.Context, records []model.Record) error {
	if s.closed.Load() {
		return model.ErrStoreClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS products_new`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE products_new `+columns); err != nil {
		return err
	}

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO products_new
		(pos, id, name_canon, name_display, brand_canon, brand_display, qty, price, unit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ins.Close()

	for i, r := range records {
		if _, err := ins.ExecContext(ctx, i, r.ID, r.NameCanon, r.NameDisplay,
			r.BrandCanon, r.BrandDisplay, r.Qty, r.Price, r.Unit); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DROP TABLE products`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `ALTER TABLE products_new RENAME TO products`); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	// коммит прошёл — теперь можно показать новое поколение читателям
	snap := &Snapshot{
		Records:  append([]model.Record(nil), records...),
		LoadedAt: time.Now(),
	}
	s.genSeq++
	snap.Gen = s.genSeq
	s.cur.Store(snap)
	return nil
}

// Current — wait-free снимок текущего поколения. Поиск, начатый до подмены,
// спокойно дорабатывает со своим снимком.
func (s *Store) Current() *Snapshot {
	return s.cur.Load()
}

func (s *Store) Close() error {
	s.closed.Store(true)
	return s.db.Close()
}
