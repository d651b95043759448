package cache

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey shares cached payloads between instances.
type Valkey struct {
	client valkey.Client
	prefix string
}

func NewValkey(client valkey.Client, prefix string) *Valkey {
	if prefix == "" {
		prefix = "runsafe"
	}
	return &Valkey{client: client, prefix: prefix}
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := v.client.Do(ctx, v.client.B().Get().Key(v.key(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(payload), true, nil
}

func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	builder := v.client.B().Set().Key(v.key(key)).Value(string(value))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return v.client.Do(ctx, cmd).Error()
}

func (v *Valkey) Ping(ctx context.Context) error {
	return v.client.Do(ctx, v.client.B().Ping().Build()).Error()
}

func (v *Valkey) Name() string { return "valkey" }

func (v *Valkey) Close() {
	v.client.Close()
}

func (v *Valkey) key(k string) string {
	return v.prefix + ":" + k
}

var _ Cache = (*Valkey)(nil)
