package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-service/internal/stock/model"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stock.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func genRecords(marker string, n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{
			ID:          fmt.Sprintf("%s-%d", marker, i),
			NameCanon:   fmt.Sprintf("کالا %d", i),
			NameDisplay: fmt.Sprintf("کالا %d", i),
			BrandCanon:  marker,
			Qty:         float64(i),
		}
	}
	return out
}

func TestReplaceAllAndCurrent(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, genRecords("a", 3)))
	snap := s.Current()
	require.Len(t, snap.Records, 3)
	// порядок загрузки сохраняется
	assert.Equal(t, "a-0", snap.Records[0].ID)
	assert.Equal(t, "a-2", snap.Records[2].ID)

	require.NoError(t, s.ReplaceAll(ctx, genRecords("b", 2)))
	snap2 := s.Current()
	require.Len(t, snap2.Records, 2)
	assert.Greater(t, snap2.Gen, snap.Gen)

	// старый снимок не мутирует после подмены
	assert.Equal(t, "a-0", snap.Records[0].ID)
}

func TestEmptyGenerationAccepted(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.ReplaceAll(context.Background(), nil))
	assert.Empty(t, s.Current().Records)
}

func TestDurabilityAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.ReplaceAll(context.Background(), genRecords("a", 4)))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	snap := s2.Current()
	require.Len(t, snap.Records, 4)
	assert.Equal(t, "a-1", snap.Records[1].ID)
	assert.Equal(t, "کالا 1", snap.Records[1].NameCanon)
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.Close())
	err := s.ReplaceAll(context.Background(), genRecords("a", 1))
	assert.ErrorIs(t, err, model.ErrStoreClosed)
}

// Читатель никогда не видит смесь двух поколений: у всех записей снимка
// один и тот же маркер поколения.
func TestAtomicVisibility(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, genRecords("g0", 20)))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Current()
				if len(snap.Records) == 0 {
					continue
				}
				marker := snap.Records[0].BrandCanon
				for _, r := range snap.Records {
					if r.BrandCanon != marker {
						t.Errorf("mixed generations in one snapshot: %s vs %s", marker, r.BrandCanon)
						return
					}
				}
			}
		}()
	}

	for i := 1; i <= 10; i++ {
		require.NoError(t, s.ReplaceAll(ctx, genRecords(fmt.Sprintf("g%d", i), 20)))
	}
	close(stop)
	wg.Wait()
}
