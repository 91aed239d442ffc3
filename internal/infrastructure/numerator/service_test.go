package numerator

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabriq/internal/infrastructure/storage/postgres"
)

// counterQuerier emulates the UPSERT..RETURNING counter with a mutex playing
// the role of the row lock.
type counterQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newCounterQuerier() *counterQuerier {
	return &counterQuerier{counters: make(map[string]int64)}
}

func (q *counterQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := args[0].(string) + ":" + args[1].(string)
	q.counters[key]++
	return counterRow{value: q.counters[key]}
}

func (q *counterQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q *counterQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

type counterRow struct {
	value int64
}

func (r counterRow) Scan(dest ...any) error {
	*(dest[0].(*int64)) = r.value
	return nil
}

type staticTxSource struct {
	querier postgres.Querier
	inTx    bool
}

func (s *staticTxSource) GetQuerier(ctx context.Context) postgres.Querier {
	return s.querier
}

func (s *staticTxSource) InTransaction(ctx context.Context) bool {
	return s.inTx
}

// txnCounterStore emulates the committed state of the counter table. The
// mutex plays the row lock: a transaction that allocated holds it until
// commit or rollback.
type txnCounterStore struct {
	mu        sync.Mutex
	committed map[string]int64
	values    []int64
}

func newTxnCounterStore() *txnCounterStore {
	return &txnCounterStore{committed: make(map[string]int64)}
}

// txnQuerier is one transaction's view of the store. The allocated value
// becomes visible only on Commit; Rollback returns it to the counter.
type txnQuerier struct {
	store   *txnCounterStore
	key     string
	pending int64
	locked  bool
}

func (q *txnQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.store.mu.Lock()
	q.locked = true
	q.key = args[0].(string) + ":" + args[1].(string)
	q.pending = q.store.committed[q.key] + 1
	return counterRow{value: q.pending}
}

func (q *txnQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (q *txnQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (q *txnQuerier) Commit() {
	if !q.locked {
		return
	}
	q.store.committed[q.key] = q.pending
	q.store.values = append(q.store.values, q.pending)
	q.locked = false
	q.store.mu.Unlock()
}

func (q *txnQuerier) Rollback() {
	if !q.locked {
		return
	}
	q.locked = false
	q.store.mu.Unlock()
}

func TestNext_RequiresTransaction(t *testing.T) {
	svc := New(&staticTxSource{querier: newCounterQuerier(), inTx: false})

	_, err := svc.Next(context.Background(), "t1", "quotation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires an active transaction")
}

func TestNext_SequentialPerTenantAndType(t *testing.T) {
	svc := New(&staticTxSource{querier: newCounterQuerier(), inTx: true})
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := svc.Next(ctx, "t1", "quotation")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Other tenants and types run their own counters.
	got, err := svc.Next(ctx, "t2", "quotation")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = svc.Next(ctx, "t1", "sale_invoice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestNext_ConcurrentAllocationsAreUnique(t *testing.T) {
	svc := New(&staticTxSource{querier: newCounterQuerier(), inTx: true})
	ctx := context.Background()

	const workers = 50

	values := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.Next(ctx, "t1", "quotation")
			assert.NoError(t, err)
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	var got []int64
	for v := range values {
		got = append(got, v)
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	require.Len(t, got, workers)
	for i, v := range got {
		assert.Equal(t, int64(i+1), v, "values must be dense with no gaps or duplicates")
	}
}

func TestNext_RolledBackAllocationLeavesNoGap(t *testing.T) {
	store := newTxnCounterStore()
	ctx := context.Background()

	const workers = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			tx := &txnQuerier{store: store}
			svc := New(&staticTxSource{querier: tx, inTx: true})

			_, err := svc.Next(ctx, "t1", "quotation")
			assert.NoError(t, err)

			// Every third transaction fails after allocating and rolls back.
			if n%3 == 0 {
				tx.Rollback()
				return
			}
			tx.Commit()
		}(i)
	}
	wg.Wait()

	// Rolled-back allocations returned their values to the counter, so the
	// committed set is dense: exactly 1..K for K commits, no holes.
	got := append([]int64(nil), store.values...)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	const commits = workers - 7 // n in {0, 3, ..., 18} rolled back
	require.Len(t, got, commits)
	for i, v := range got {
		assert.Equal(t, int64(i+1), v, "committed numbers must have no gaps")
	}
	assert.Equal(t, int64(commits), store.committed["t1:quotation"])
}
