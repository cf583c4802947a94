package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Entry is one recorded point.
type Entry struct {
	Point   servicedef.EntityRef `json:"point"`
	RunID   string               `json:"run"`
	Created time.Time            `json:"created"`
}

// Journal is a persistent set of points, keyed by point identifier. Implementations are safe
// for concurrent use.
type Journal interface {
	// Record adds a point. Recording the same point twice keeps the later entry.
	Record(ctx context.Context, entry Entry) error
	// Entries returns every recorded point, oldest first.
	Entries(ctx context.Context) ([]Entry, error)
	// Forget removes a point. It is not an error if the point was not recorded.
	Forget(ctx context.Context, point servicedef.EntityRef) error
	// DSN describes where the journal lives, without credentials.
	DSN() string
	Close() error
}

// DefaultPrefix is the key prefix, Consul path or DynamoDB namespace used when the DSN does
// not give one.
const DefaultPrefix = "parsemap-test-harness"

// Open creates a journal from a DSN. An empty DSN opens a memory journal.
func Open(dsn string) (Journal, error) {
	if dsn == "" || dsn == "memory:" || dsn == "memory" {
		return NewMemory(), nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid journal DSN: %w", err)
	}
	switch u.Scheme {
	case "redis", "rediss":
		return openRedis(u)
	case "consul":
		return openConsul(u)
	case "dynamodb":
		return openDynamoDB(u)
	default:
		return nil, fmt.Errorf("unsupported journal type %q", u.Scheme)
	}
}

// Prepare creates whatever storage the journal needs before first use, such as a DynamoDB
// table. Journals that need nothing are left alone.
func Prepare(ctx context.Context, j Journal) error {
	if p, ok := j.(interface{ EnsureTable(context.Context) error }); ok {
		return p.EnsureTable(ctx)
	}
	return nil
}

func encodeEntry(e Entry) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEntry(key string, data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("malformed journal entry for %q: %w", key, err)
	}
	if !e.Point.IsDefined() {
		e.Point = servicedef.EntityRef(key)
	}
	return e, nil
}

func sortEntries(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Created.Equal(entries[j].Created) {
			return entries[i].Point < entries[j].Point
		}
		return entries[i].Created.Before(entries[j].Created)
	})
	return entries
}
