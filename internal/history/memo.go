package history

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"coinjar/internal/cache"
	"coinjar/internal/core"
)

const (
	modeAccount  byte = 'a'
	modeNetWorth byte = 'n'
)

// Memo caches series by a digest of their full input tuple. Identical
// concurrent requests share one computation.
type Memo struct {
	cache *cache.LRUCache[uint64, []Point]
	group singleflight.Group
}

func NewMemo(size int, ttl time.Duration) *Memo {
	return &Memo{cache: cache.NewLRUCache[uint64, []Point](size, ttl)}
}

func (m *Memo) AccountSeries(account core.Account, txns []core.Transaction, w Window) []Point {
	key := digest(modeAccount, w, []core.Account{account}, txns)
	return m.load(key, func() []Point {
		return AccountSeries(account, txns, w.Start, w.End)
	})
}

func (m *Memo) NetWorthSeries(accounts []core.Account, txns []core.Transaction, w Window) []Point {
	key := digest(modeNetWorth, w, accounts, txns)
	return m.load(key, func() []Point {
		return NetWorthSeries(accounts, txns, w.Start, w.End)
	})
}

// Cache exposes the backing cache for expiry sweeps and stats.
func (m *Memo) Cache() *cache.LRUCache[uint64, []Point] {
	return m.cache
}

func (m *Memo) load(key uint64, compute func() []Point) []Point {
	if points, ok := m.cache.Get(key); ok {
		return clonePoints(points)
	}
	v, _, _ := m.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		points := compute()
		m.cache.Set(key, points)
		return points, nil
	})
	return clonePoints(v.([]Point))
}

func clonePoints(points []Point) []Point {
	return append(make([]Point, 0, len(points)), points...)
}

func digest(mode byte, w Window, accounts []core.Account, txns []core.Transaction) uint64 {
	h := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	}
	putString := func(s string) {
		putInt(int64(len(s)))
		_, _ = h.WriteString(s)
	}

	_, _ = h.Write([]byte{mode})
	putString(w.String())

	putInt(int64(len(accounts)))
	for _, a := range accounts {
		_, _ = h.Write(a.ID[:])
		putInt(int64(a.Category))
		putString(string(a.Type()))
		putInt(a.CreatedAt.UnixNano())
		if b, ok := a.Balance(); ok {
			putString(b.String())
		}
	}

	putInt(int64(len(txns)))
	for _, t := range txns {
		_, _ = h.Write(t.ID[:])
		_, _ = h.Write(t.AccountID[:])
		putInt(t.Date.UnixNano())
		putString(t.Amount.String())
	}
	return h.Sum64()
}
