package service_test

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/service"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/store/memory"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

var epoch = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := next
		next = next.Add(step)
		return t
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fixture struct {
	store    *memory.Store
	query    *service.QueryService
	mutation *service.MutationService
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ms := memory.New()
	return fixture{
		store:    ms,
		query:    service.NewQueryService(ms, ms, ms),
		mutation: service.NewMutationService(ms, ms, ms).WithClock(stepClock(epoch, time.Second)),
	}
}
