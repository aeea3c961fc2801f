package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"stock-service/internal/config"
	"stock-service/internal/fileio"
	"stock-service/internal/stock/builder"
	"stock-service/internal/stock/model"
	"stock-service/internal/stock/store"
)

// ErrBusy — цикл уже идёт. Два цикла одновременно не запускаются никогда:
// пришедший позже пропускается, не ставится в очередь.
var ErrBusy = errors.New("ingest cycle already running")

// Report — итог одного цикла. Построчные ошибки копятся здесь и не
// прерывают партию.
type Report struct {
	File      string
	Rows      int
	Skipped   int
	RowErrors []*model.RowError
	Elapsed   time.Duration
}

// Runner гоняет цикл «экспорт → записи → ReplaceAll» по таймеру и по
// событию записи файла. Любой сбой до коммита оставляет предыдущее
// поколение склада рабочим.
type Runner struct {
	cfg     config.Config
	logger  zerolog.Logger
	store   *store.Store
	builder *builder.Builder
	mapping model.Mapping

	running atomic.Bool
}

func New(cfg config.Config, logger zerolog.Logger, st *store.Store, b *builder.Builder) *Runner {
	return &Runner{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		builder: b,
		mapping: model.DefaultMapping(cfg.HeaderRow),
	}
}

// TryRunOnce выполняет один цикл, если никакой другой сейчас не идёт.
func (r *Runner) TryRunOnce(ctx context.Context) (Report, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Report{}, ErrBusy
	}
	defer r.running.Store(false)
	return r.runOnce(ctx)
}

func (r *Runner) Running() bool { return r.running.Load() }

func (r *Runner) runOnce(ctx context.Context) (Report, error) {
	start := time.Now()
	rep := Report{File: r.cfg.ExportFile}

	f, err := os.Open(r.cfg.ExportFile)
	if err != nil {
		return rep, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	maps, err := fileio.ReadAnyMaps(f, r.cfg.ExportFile, r.cfg.HeaderRow)
	if err != nil {
		return rep, fmt.Errorf("read export: %w", err)
	}

	records, rowErrs, err := r.builder.FromMaps(maps, r.mapping)
	if err != nil {
		// SchemaError: цикл фатален, склад не трогаем
		return rep, err
	}
	rep.Rows = len(records)
	rep.Skipped = len(rowErrs)
	rep.RowErrors = rowErrs

	if len(records) == 0 {
		// пустой экспорт подозрителен, но сам по себе не ошибка
		r.logger.Warn().Str("file", r.cfg.ExportFile).Msg("export produced zero records")
	}

	if err := r.store.ReplaceAll(ctx, records); err != nil {
		return rep, fmt.Errorf("replace store: %w", err)
	}

	rep.Elapsed = time.Since(start)
	ev := r.logger.Info().
		Int("rows", rep.Rows).
		Int("skipped", rep.Skipped).
		Dur("elapsed", rep.Elapsed)
	for _, re := range rowErrs {
		r.logger.Debug().Int("row", re.Row).Str("field", re.Field).
			Str("kind", string(re.Kind)).Str("value", re.Value).Msg("row skipped")
	}
	ev.Msg("ingest done")
	return rep, nil
}

// Start крутит циклы до отмены контекста: тикер раз в IngestInterval плюс
// fsnotify-триггер на запись файла экспорта (с дебаунсом — выгрузка пишется
// не мгновенно). Блокирует вызывающего; запускать в горутине.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.IngestInterval)
	defer ticker.Stop()

	fileEvents := r.watchExport(ctx)

	// дебаунс-таймер: взводится событием, срабатывает после паузы записи
	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cycle(ctx)
		case <-fileEvents:
			debounce.Reset(2 * time.Second)
		case <-debounce.C:
			r.cycle(ctx)
		}
	}
}

func (r *Runner) cycle(ctx context.Context) {
	if _, err := r.TryRunOnce(ctx); err != nil {
		if errors.Is(err, ErrBusy) {
			r.logger.Debug().Msg("ingest tick skipped: cycle in progress")
			return
		}
		r.logger.Error().Err(err).Msg("ingest cycle failed, previous generation kept")
	}
}

// watchExport подписывается на каталог экспорта; если подписка не удалась,
// остаёмся на одном тикере.
func (r *Runner) watchExport(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Warn().Err(err).Msg("fsnotify unavailable, ticker only")
		return out
	}
	dir := filepath.Dir(r.cfg.ExportFile)
	if err := w.Add(dir); err != nil {
		r.logger.Warn().Err(err).Str("dir", dir).Msg("watch export dir failed, ticker only")
		w.Close()
		return out
	}

	target := filepath.Clean(r.cfg.ExportFile)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Warn().Err(err).Msg("export watcher error")
			}
		}
	}()
	return out
}
