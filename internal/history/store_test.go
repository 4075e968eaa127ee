package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Suveerkh/CareerMate/internal/candidate"
	"github.com/Suveerkh/CareerMate/internal/connectivity"
	"github.com/Suveerkh/CareerMate/internal/probe"
)

func openTestStore(t *testing.T, dir string, opts Options) *Store {
	t.Helper()
	s, err := Open(dir, zaptest.NewLogger(t), opts)
	require.NoError(t, err)
	return s
}

func TestRecordAndListTransitions(t *testing.T) {
	s := openTestStore(t, t.TempDir(), Options{SessionID: "session-1"})
	defer s.Close()

	base := time.Now()
	require.NoError(t, s.RecordTransition(connectivity.Transition{
		From: connectivity.StateSplash, To: connectivity.StateServing,
		Event: connectivity.EventProbeSucceeded, Endpoint: "https://example.com", Timestamp: base,
	}))
	require.NoError(t, s.RecordTransition(connectivity.Transition{
		From: connectivity.StateServing, To: connectivity.StateOffline,
		Event: connectivity.EventAllFailed, Timestamp: base.Add(time.Second),
	}))

	records, err := s.List(KindTransition, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// newest first
	assert.Equal(t, "offline", records[0].To)
	assert.Equal(t, "serving", records[1].To)
	assert.Equal(t, "https://example.com", records[1].URL)
	assert.Equal(t, "session-1", records[0].SessionID)
	assert.NotEmpty(t, records[0].ID)

	n, err := s.Count(KindTransition)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordProbe(t *testing.T) {
	s := openTestStore(t, t.TempDir(), Options{})
	defer s.Close()

	require.NoError(t, s.RecordProbe(connectivity.ProbeRecord{
		Endpoint: candidate.Endpoint{Name: "local", URL: "http://localhost:5001", Tier: candidate.TierLocal},
		Outcome:  probe.Outcome{Kind: probe.KindUnreachable, Cause: probe.CauseRefused, Latency: 3 * time.Millisecond},
	}))

	records, err := s.List(KindProbe, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, KindProbe, r.Kind)
	assert.Equal(t, "local", r.Tier)
	assert.Equal(t, "unreachable", r.Outcome)
	assert.Equal(t, "refused", r.Cause)
	assert.Equal(t, int64(3), r.LatencyMs)
	assert.False(t, r.Timestamp.IsZero())
}

func TestPruneKeepsNewest(t *testing.T) {
	s := openTestStore(t, t.TempDir(), Options{MaxRecords: 3})
	defer s.Close()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.RecordProbe(connectivity.ProbeRecord{
			Endpoint:  candidate.Endpoint{Name: "primary", URL: "https://example.com", Tier: candidate.TierRemote},
			Outcome:   probe.FromStatus(200 + i),
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}))
	}

	records, err := s.List(KindProbe, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 204, records[0].StatusCode)
	assert.Equal(t, 202, records[2].StatusCode)

	n, err := s.Count(KindProbe)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestListLimitAndUnknownKind(t *testing.T) {
	s := openTestStore(t, t.TempDir(), Options{})
	defer s.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, s.RecordTransition(connectivity.Transition{To: connectivity.StateServing}))
	}
	records, err := s.List(KindTransition, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = s.List(Kind("bogus"), 1)
	assert.Error(t, err)
}

func TestSecondWriterReportsInUse(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir, Options{})
	defer s.Close()

	_, err := Open(dir, zaptest.NewLogger(t), Options{Timeout: 50 * time.Millisecond})
	assert.ErrorIs(t, err, ErrInUse)
}

func TestReopenPreservesRecords(t *testing.T) {
	dir := t.TempDir()
	s := openTestStore(t, dir, Options{})
	require.NoError(t, s.RecordTransition(connectivity.Transition{To: connectivity.StateNoConnection}))
	require.NoError(t, s.Close())

	ro := openTestStore(t, dir, Options{ReadOnly: true})
	defer ro.Close()
	records, err := ro.List(KindTransition, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "no_connection", records[0].To)
}
