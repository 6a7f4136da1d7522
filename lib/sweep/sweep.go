package sweep

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/sKV/lib/codec"
	"github.com/ValentinKolb/sKV/lib/common"
	"github.com/ValentinKolb/sKV/lib/db"
	"github.com/ValentinKolb/sKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("sweep")

// Handler performs one sweep and returns the number of removed rows
type Handler func(s store.IStore, now time.Time) (removed int, err error)

// ExpiredResidue removes the rows of the reserved table whose value is an object
// with an "expiresAt" field (unix milliseconds) that lies before now.
// Rows without such a field are never touched.
func ExpiredResidue(s store.IStore, now time.Time) (int, error) {
	nowMs := now.UnixMilli()
	decoder := codec.Default()

	return s.DeleteMany(common.ReservedTable, store.PredicateQuery(func(row db.Row) bool {
		v, err := decoder.Decode(row.Value)
		if err != nil {
			return false
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return false
		}
		switch expiresAt := obj["expiresAt"].(type) {
		case int64:
			return expiresAt < nowMs
		case float64:
			return expiresAt < float64(nowMs)
		default:
			return false
		}
	}))
}

// --------------------------------------------------------------------------
// Scheduler
// --------------------------------------------------------------------------

// Scheduler runs a Handler once the store is ready and then periodically.
type Scheduler struct {
	store    store.IStore
	handler  Handler
	interval time.Duration

	// now is replaced in tests
	now func() time.Time

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	runs    atomic.Uint64
	removed atomic.Uint64
}

// NewScheduler creates a scheduler. A nil handler means ExpiredResidue,
// an interval <= 0 means common.DefaultSweepInterval.
func NewScheduler(s store.IStore, handler Handler, interval time.Duration) *Scheduler {
	if handler == nil {
		handler = ExpiredResidue
	}
	if interval <= 0 {
		interval = common.DefaultSweepInterval
	}
	return &Scheduler{
		store:    s,
		handler:  handler,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// StartOn starts the sweep loop. The loop waits until ready is closed (or receives a value),
// sweeps once right away and then every interval until Stop is called.
// A nil ready channel starts immediately. Calling StartOn more than once does nothing.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (sc *Scheduler) StartOn(ready <-chan struct{}) {
	if !sc.started.CompareAndSwap(false, true) {
		return
	}
	go sc.loop(ready)
}

// Stop stops the loop and waits until a running sweep has finished.
// The scheduler can't be started again after it has been stopped!
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (sc *Scheduler) Stop() {
	sc.stopOnce.Do(func() {
		close(sc.stop)
	})
	if sc.started.Load() {
		<-sc.done
	}
}

// RunOnce performs a single sweep synchronously
func (sc *Scheduler) RunOnce() (int, error) {
	removed, err := sc.handler(sc.store, sc.now())
	sc.runs.Add(1)
	if err != nil {
		Logger.Errorf("sweep failed: %v", err)
		return removed, err
	}
	sc.removed.Add(uint64(removed))
	if removed > 0 {
		Logger.Infof("sweep removed %d rows", removed)
	} else {
		Logger.Debugf("sweep removed nothing")
	}
	return removed, nil
}

// Runs returns the number of sweeps performed so far
func (sc *Scheduler) Runs() uint64 {
	return sc.runs.Load()
}

// Removed returns the number of rows removed by all sweeps so far
func (sc *Scheduler) Removed() uint64 {
	return sc.removed.Load()
}

// loop is the main sweep loop
// WARNING: this method should never be called! use StartOn() and Stop()
func (sc *Scheduler) loop(ready <-chan struct{}) {
	defer close(sc.done)

	select {
	case <-sc.stop:
		return
	default:
	}

	if ready != nil {
		select {
		case <-ready:
		case <-sc.stop:
			return
		}
	}
	Logger.Infof("store ready, sweeping every %s", sc.interval)

	// errors are logged by RunOnce, the loop keeps going
	_, _ = sc.RunOnce()

	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = sc.RunOnce()
		case <-sc.stop:
			return
		}
	}
}
