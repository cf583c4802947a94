package journal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dynamoAttribute struct {
	S *string `json:"S,omitempty"`
}

type dynamoItem map[string]dynamoAttribute

func stringAttribute(s string) dynamoAttribute { return dynamoAttribute{S: &s} }

// fakeDynamoDB serves the subset of the DynamoDB JSON API that the journal uses, for one table.
type fakeDynamoDB struct {
	lock    sync.Mutex
	exists  bool
	items   map[string]dynamoItem
	targets []string
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{items: make(map[string]dynamoItem)}
}

func (f *fakeDynamoDB) calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.targets...)
}

func (f *fakeDynamoDB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableName string
		Item      dynamoItem
		Key       dynamoItem
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	target := strings.TrimPrefix(r.Header.Get("X-Amz-Target"), "DynamoDB_20120810.")

	f.lock.Lock()
	defer f.lock.Unlock()
	f.targets = append(f.targets, target)

	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	reply := func(status int, body interface{}) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	failWith := func(code, message string) {
		reply(http.StatusBadRequest, map[string]string{
			"__type":  "com.amazonaws.dynamodb.v20120810#" + code,
			"message": message,
		})
	}
	switch target {
	case "DescribeTable":
		if !f.exists {
			failWith("ResourceNotFoundException", "Requested resource not found")
			return
		}
		reply(http.StatusOK, map[string]interface{}{
			"Table": map[string]string{"TableName": req.TableName, "TableStatus": "ACTIVE"},
		})
	case "CreateTable":
		f.exists = true
		reply(http.StatusOK, map[string]interface{}{
			"TableDescription": map[string]string{"TableName": req.TableName, "TableStatus": "CREATING"},
		})
	case "PutItem":
		f.items[*req.Item[tableSortKey].S] = req.Item
		reply(http.StatusOK, struct{}{})
	case "DeleteItem":
		delete(f.items, *req.Key[tableSortKey].S)
		reply(http.StatusOK, struct{}{})
	case "Query":
		items := make([]dynamoItem, 0, len(f.items))
		for _, item := range f.items {
			items = append(items, item)
		}
		reply(http.StatusOK, map[string]interface{}{"Items": items, "Count": len(items)})
	default:
		failWith("ValidationException", "unsupported operation "+target)
	}
}

// withFakeAWS keeps the AWS SDK away from the developer's own credentials and config files.
func withFakeAWS(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_SESSION_TOKEN", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))
}

func openFakeDynamoDB(t *testing.T, server *httptest.Server) Journal {
	t.Helper()
	j, err := Open("dynamodb://points?region=us-east-1&namespace=ci&endpoint=" + url.QueryEscape(server.URL))
	require.NoError(t, err)
	return j
}

func TestDynamoDBJournal(t *testing.T) {
	withFakeAWS(t)
	fake := newFakeDynamoDB()
	httphelpers.WithServer(fake, func(server *httptest.Server) {
		j := openFakeDynamoDB(t, server)
		defer j.Close()
		assert.Equal(t, "dynamodb://points?namespace=ci", j.DSN())

		require.NoError(t, Prepare(ctx, j))
		assert.Equal(t, []string{"DescribeTable", "CreateTable", "DescribeTable"}, fake.calls())

		checkJournalBehavior(t, j)

		fake.lock.Lock()
		defer fake.lock.Unlock()
		require.Len(t, fake.items, 2)
		for _, item := range fake.items {
			assert.Equal(t, "ci", *item[tablePartitionKey].S)
		}
	})
}

func TestDynamoDBJournalUsesExistingTable(t *testing.T) {
	withFakeAWS(t)
	fake := newFakeDynamoDB()
	fake.exists = true
	httphelpers.WithServer(fake, func(server *httptest.Server) {
		j := openFakeDynamoDB(t, server)
		require.NoError(t, Prepare(ctx, j))
		assert.Equal(t, []string{"DescribeTable"}, fake.calls())
	})
}

func TestDynamoDBJournalRejectsMalformedEntry(t *testing.T) {
	withFakeAWS(t)
	fake := newFakeDynamoDB()
	fake.items["broken"] = dynamoItem{
		tablePartitionKey: stringAttribute("ci"),
		tableSortKey:      stringAttribute("broken"),
		itemJSONAttribute: stringAttribute("nope"),
	}
	httphelpers.WithServer(fake, func(server *httptest.Server) {
		j := openFakeDynamoDB(t, server)
		_, err := j.Entries(ctx)
		assert.ErrorContains(t, err, `malformed journal entry for "broken"`)
	})
}
