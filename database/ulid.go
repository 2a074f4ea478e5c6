package database

import (
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MonotonicULIDsource hands out strictly increasing ULIDs, including for
// several calls within the same millisecond.
type MonotonicULIDsource struct {
	lock    sync.Mutex
	entropy *ulid.MonotonicEntropy
	last    ulid.ULID
}

func NewMonotonicULIDsource(entropy io.Reader) *MonotonicULIDsource {
	return &MonotonicULIDsource{entropy: ulid.Monotonic(entropy, 0)}
}

func (u *MonotonicULIDsource) New(t time.Time) (ulid.ULID, error) {
	u.lock.Lock()
	defer u.lock.Unlock()

	ms := ulid.Timestamp(t)
	// a clock step backwards would otherwise break ordering
	if ms < u.last.Time() {
		ms = u.last.Time()
	}
	id, err := ulid.New(ms, u.entropy)
	if err != nil {
		return ulid.ULID{}, err
	}
	u.last = id
	return id, nil
}
