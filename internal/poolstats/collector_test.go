package poolstats

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStater struct {
	s Stat
}

func (m *mockStater) Stat() Stat { return m.s }

var _ Stat = (*statMock)(nil)

type statMock struct {
	pooledConns  int
	openedConns  int64
	cacheEntries int
	cacheHits    int64
	cacheMisses  int64
}

func (m *statMock) PooledConnections() int { return m.pooledConns }
func (m *statMock) OpenedConnections() int64 { return m.openedConns }
func (m *statMock) CacheEntries() int        { return m.cacheEntries }
func (m *statMock) CacheHits() int64         { return m.cacheHits }
func (m *statMock) CacheMisses() int64       { return m.cacheMisses }

func TestDescribe(t *testing.T) {
	const expectedDescriptorCount = 5
	stater := &mockStater{&statMock{}}
	statFn := func() Stat { return stater.Stat() }
	testObject := newCollector(statFn, t.Name())

	ch := make(chan *prometheus.Desc, expectedDescriptorCount+1)
	testObject.Describe(ch)
	close(ch)

	uniqueDescriptors := make(map[string]struct{})
	for desc := range ch {
		uniqueDescriptors[desc.String()] = struct{}{}
	}
	if len(uniqueDescriptors) != expectedDescriptorCount {
		t.Errorf("expected %d descriptors to be registered but there were %d", expectedDescriptorCount, len(uniqueDescriptors))
	}
}

func TestCollect(t *testing.T) {
	mockStats := &statMock{
		pooledConns:  1,
		openedConns:  2,
		cacheEntries: 3,
		cacheHits:    4,
		cacheMisses:  5,
	}
	stater := &mockStater{mockStats}
	statFn := func() Stat { return stater.Stat() }
	testObject := newCollector(statFn, t.Name())
	want := strings.NewReader(`# HELP gorushi_fetch_cache_entries Number of entries currently held in the response cache, including expired ones not yet evicted.
# TYPE gorushi_fetch_cache_entries gauge
gorushi_fetch_cache_entries{fetcher="TestCollect"} 3
# HELP gorushi_fetch_cache_hits_total Cumulative count of fetches served from the response cache.
# TYPE gorushi_fetch_cache_hits_total counter
gorushi_fetch_cache_hits_total{fetcher="TestCollect"} 4
# HELP gorushi_fetch_cache_misses_total Cumulative count of fetches that required network activity.
# TYPE gorushi_fetch_cache_misses_total counter
gorushi_fetch_cache_misses_total{fetcher="TestCollect"} 5
# HELP gorushi_fetch_opened_connections_total Cumulative count of connections opened by the fetcher.
# TYPE gorushi_fetch_opened_connections_total counter
gorushi_fetch_opened_connections_total{fetcher="TestCollect"} 2
# HELP gorushi_fetch_pooled_connections Number of TCP/TLS connections currently held open in the pool.
# TYPE gorushi_fetch_pooled_connections gauge
gorushi_fetch_pooled_connections{fetcher="TestCollect"} 1
`)

	ls, err := testutil.CollectAndLint(testObject)
	if err != nil {
		t.Error(err)
	}
	for _, l := range ls {
		t.Log(l)
	}
	if err := testutil.CollectAndCompare(testObject, want); err != nil {
		t.Error(err)
	}
}
