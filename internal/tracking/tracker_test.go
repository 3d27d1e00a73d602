package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"couponly/internal/domain/clicks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEvents struct {
	mu     sync.Mutex
	events []clicks.Event
	err    error
}

func (f *fakeEvents) Insert(ctx context.Context, e *clicks.Event) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeEvents) Summary(ctx context.Context, since time.Time) (clicks.Summary, error) {
	return clicks.EmptySummary(since), nil
}

type staticGeo struct {
	geo   Geo
	calls int
}

func (s *staticGeo) Locate(ctx context.Context, ip string) Geo {
	s.calls++
	if IsLocalIP(ip) {
		return LocalGeo
	}
	return s.geo
}

func TestTrackStoresClassifiedEvent(t *testing.T) {
	events := &fakeEvents{}
	geo := &staticGeo{geo: Geo{Country: "France", CountryCode: "FR", Region: "IDF", City: "Paris", Timezone: "Europe/Paris"}}
	tr := NewTracker(events, geo, zap.NewNop().Sugar())

	tr.Track(context.Background(), Click{
		CouponID:  "C-1",
		StoreName: "Acme",
		PageURL:   "https://couponly.example/stores/acme",
		IP:        "92.184.10.10",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) Version/17.4 Mobile/15E148 Safari/604.1",
	})

	require.Len(t, events.events, 1)
	e := events.events[0]
	assert.Equal(t, "C-1", e.CouponID)
	assert.Equal(t, DeviceMobile, e.DeviceType)
	assert.Equal(t, "Safari", e.Browser)
	assert.Equal(t, "iOS", e.OS)
	assert.Equal(t, "FR", e.CountryCode)
	assert.Equal(t, "Paris", e.City)
	assert.False(t, e.ClickedAt.IsZero())
}

func TestTrackSwallowsInsertFailure(t *testing.T) {
	events := &fakeEvents{err: errors.New("relation click_events does not exist")}
	tr := NewTracker(events, &staticGeo{geo: UnknownGeo}, zap.NewNop().Sugar())

	assert.NotPanics(t, func() {
		tr.Track(context.Background(), Click{CouponID: "C-1", IP: "127.0.0.1"})
	})
}

func TestTrackLocalIP(t *testing.T) {
	events := &fakeEvents{}
	tr := NewTracker(events, &staticGeo{}, zap.NewNop().Sugar())

	tr.Track(context.Background(), Click{IP: "10.0.0.7"})

	require.Len(t, events.events, 1)
	assert.Equal(t, "Local", events.events[0].Country)
	assert.Equal(t, DeviceDesktop, events.events[0].DeviceType)
}

func TestClipKeepsRuneBoundary(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 10))
	assert.Equal(t, "ab", clip("abcdef", 2))
	assert.Equal(t, "é", clip("éé", 3))
}
