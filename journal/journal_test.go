package journal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	consul "github.com/hashicorp/consul/api"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

var ctx = context.Background()

func entry(point string, created time.Time) Entry {
	return Entry{Point: servicedef.EntityRef(point), RunID: "run1", Created: created}
}

func checkJournalBehavior(t *testing.T, j Journal) {
	t0 := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, j.Record(ctx, entry("b", t0.Add(time.Second))))
	require.NoError(t, j.Record(ctx, entry("a", t0)))
	require.NoError(t, j.Record(ctx, entry("c", t0.Add(2*time.Second))))

	entries, err := j.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []servicedef.EntityRef{"a", "b", "c"},
		[]servicedef.EntityRef{entries[0].Point, entries[1].Point, entries[2].Point})
	assert.Equal(t, "run1", entries[0].RunID)
	assert.True(t, t0.Equal(entries[0].Created))

	require.NoError(t, j.Forget(ctx, "b"))
	require.NoError(t, j.Forget(ctx, "never-recorded"))
	entries, err = j.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMemoryJournal(t *testing.T) {
	checkJournalBehavior(t, NewMemory())
}

// fakeConsulKV serves the subset of the Consul KV API that the journal uses.
func fakeConsulKV() http.Handler {
	var lock sync.Mutex
	data := make(map[string][]byte)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/v1/kv/")
		w.Header().Set("X-Consul-Index", "1")
		w.Header().Set("X-Consul-LastContact", "0")
		w.Header().Set("X-Consul-KnownLeader", "true")
		lock.Lock()
		defer lock.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			data[key] = body
			_, _ = w.Write([]byte("true"))
		case http.MethodDelete:
			delete(data, key)
			_, _ = w.Write([]byte("true"))
		case http.MethodGet:
			var pairs []*consul.KVPair
			for k, v := range data {
				if strings.HasPrefix(k, key) {
					pairs = append(pairs, &consul.KVPair{Key: k, Value: v})
				}
			}
			if len(pairs) == 0 {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(pairs)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func TestConsulJournal(t *testing.T) {
	httphelpers.WithServer(fakeConsulKV(), func(server *httptest.Server) {
		j, err := Open("consul://" + strings.TrimPrefix(server.URL, "http://") + "/parsemap/points")
		require.NoError(t, err)
		defer j.Close()
		assert.Equal(t, "consul://"+strings.TrimPrefix(server.URL, "http://")+"/parsemap/points", j.DSN())

		checkJournalBehavior(t, j)
	})
}

func TestConsulJournalEmpty(t *testing.T) {
	httphelpers.WithServer(fakeConsulKV(), func(server *httptest.Server) {
		j, err := Open("consul://" + strings.TrimPrefix(server.URL, "http://"))
		require.NoError(t, err)
		entries, err := j.Entries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 0)
	})
}

func TestOpen(t *testing.T) {
	for _, dsn := range []string{"", "memory", "memory:"} {
		j, err := Open(dsn)
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, j)
	}

	j, err := Open("redis://localhost:6380/2?key=my-points")
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6380/2?key=my-points", j.DSN())
	assert.NoError(t, j.Close())

	j, err = Open("redis://localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0?key="+DefaultPrefix+":points", j.DSN())

	j, err = Open("dynamodb://points-table?region=eu-west-1&endpoint=http://localhost:8000&namespace=ci")
	require.NoError(t, err)
	assert.Equal(t, "dynamodb://points-table?namespace=ci", j.DSN())

	_, err = Open("dynamodb://?region=eu-west-1")
	assert.Error(t, err)

	_, err = Open("postgres://localhost")
	assert.Error(t, err)

	_, err = Open("redis://localhost:6379/not-a-db")
	assert.Error(t, err)
}

func TestDecodeEntryUsesKeyWhenPointIsMissing(t *testing.T) {
	e, err := decodeEntry("p1", []byte(`{"run":"r"}`))
	require.NoError(t, err)
	assert.Equal(t, servicedef.EntityRef("p1"), e.Point)

	_, err = decodeEntry("p1", []byte(`nope`))
	assert.Error(t, err)
}
