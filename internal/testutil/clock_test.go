package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestDeterministicClock_StartsAtStart(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Minute)
	assert.Equal(t, epoch, clock.Current())
	assert.Equal(t, epoch, clock.Next())
}

func TestDeterministicClock_NextSteps(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Minute)

	assert.Equal(t, epoch, clock.Next())
	assert.Equal(t, epoch.Add(time.Minute), clock.Next())
	assert.Equal(t, epoch.Add(2*time.Minute), clock.Next())
	assert.Equal(t, epoch.Add(2*time.Minute), clock.Current())
}

func TestDeterministicClock_DefaultStep(t *testing.T) {
	clock := NewDeterministicClock(epoch, 0)
	clock.Next()
	assert.Equal(t, epoch.Add(time.Second), clock.Next())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Hour)
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, epoch, clock.Next())
}

func TestDeterministicClock_NormalizesToUTC(t *testing.T) {
	local := time.Date(2024, 1, 1, 2, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	clock := NewDeterministicClock(local, time.Second)
	assert.Equal(t, epoch, clock.Next())
}

func TestDeterministicClock_ConcurrentAccess(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Second)

	const goroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	seen := make(chan time.Time, goroutines*callsPerGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				seen <- clock.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		unique[ts] = true
	}
	require.Len(t, unique, goroutines*callsPerGoroutine)
}

func TestDeterministicClock_DefaultFunc(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Second)
	fn := clock.DefaultFunc()
	assert.Equal(t, epoch, fn())
	assert.Equal(t, epoch.Add(time.Second), fn())
}

func TestSequentialUUIDs(t *testing.T) {
	g := NewSequentialUUIDs()
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", g.Next())
	assert.Equal(t, "00000000-0000-0000-0000-000000000002", g.DefaultFunc()())
	for i := 0; i < 13; i++ {
		g.Next()
	}
	assert.Equal(t, "00000000-0000-0000-0000-000000000010", g.Next())
}

func TestOpenStore(t *testing.T) {
	s := OpenStore(t)
	assert.Equal(t, "sqlite3", s.Driver())
}
