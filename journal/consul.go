package journal

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	consul "github.com/hashicorp/consul/api"

	"github.com/OpenZilia/parsemap-test-harness/servicedef"
)

// Consul is a Journal stored under a Consul KV prefix, with a key per point.
type Consul struct {
	consul  *consul.Client
	prefix  string
	address string
}

func openConsul(u *url.URL) (*Consul, error) {
	config := consul.DefaultConfig()
	if u.Host != "" {
		config.Address = u.Host
	}
	if token := u.Query().Get("token"); token != "" {
		config.Token = token
	}
	client, err := consul.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("invalid Consul journal DSN: %w", err)
	}
	c := NewConsul(client, strings.Trim(u.Path, "/"))
	c.address = config.Address
	return c, nil
}

// NewConsul creates a Consul journal. An empty prefix means DefaultPrefix.
func NewConsul(client *consul.Client, prefix string) *Consul {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Consul{consul: client, prefix: prefix, address: consul.DefaultConfig().Address}
}

func (c *Consul) key(point servicedef.EntityRef) string {
	return c.prefix + "/" + point.String()
}

func (c *Consul) Record(ctx context.Context, entry Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	_, err = c.consul.KV().Put(&consul.KVPair{Key: c.key(entry.Point), Value: []byte(data)},
		(&consul.WriteOptions{}).WithContext(ctx))
	return err
}

func (c *Consul) Entries(ctx context.Context) ([]Entry, error) {
	pairs, _, err := c.consul.KV().List(c.prefix+"/", (&consul.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list failed for %s: %w", c.prefix, err)
	}
	ret := make([]Entry, 0, len(pairs))
	for _, pair := range pairs {
		e, err := decodeEntry(strings.TrimPrefix(pair.Key, c.prefix+"/"), pair.Value)
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return sortEntries(ret), nil
}

func (c *Consul) Forget(ctx context.Context, point servicedef.EntityRef) error {
	_, err := c.consul.KV().Delete(c.key(point), (&consul.WriteOptions{}).WithContext(ctx))
	return err
}

func (c *Consul) DSN() string {
	return "consul://" + c.address + "/" + c.prefix
}

func (c *Consul) Close() error { return nil }
