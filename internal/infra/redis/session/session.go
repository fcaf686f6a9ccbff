package infra_redis_session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/goccy/go-json"
	"github.com/humanbelnik/watchparty/internal/model"
	usecase_session "github.com/humanbelnik/watchparty/internal/usecase/session"
)

// Optimistic transaction attempts before Update gives up.
const maxUpdateRetries = 5

var ErrTooManyRetries = errors.New("session update contended")

type Driver struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
		now:    time.Now,
	}
}

func (d *Driver) Create(ctx context.Context, s model.Session) error {
	ttl := d.ttl(s)
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.Code)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	ok, err := d.client.WithContext(ctx).SetNX(d.getFullKey(s.Code), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return usecase_session.ErrCodeConflict
	}
	return nil
}

func (d *Driver) Get(ctx context.Context, code model.RoomCode) (model.Session, error) {
	raw, err := d.client.WithContext(ctx).Get(d.getFullKey(code)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.Session{}, usecase_session.ErrResourceNotFound
		}
		return model.Session{}, err
	}
	return decode(raw)
}

// Update runs fn inside WATCH/MULTI so concurrent writers never lose each
// other's changes. The remaining TTL is kept.
func (d *Driver) Update(ctx context.Context, code model.RoomCode, fn func(s *model.Session) error) (model.Session, error) {
	fullKey := d.getFullKey(code)
	client := d.client.WithContext(ctx)

	var updated model.Session
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(fullKey).Bytes()
		if err != nil {
			if err == redis.Nil {
				return usecase_session.ErrResourceNotFound
			}
			return err
		}

		s, err := decode(raw)
		if err != nil {
			return err
		}
		if err := fn(&s); err != nil {
			return err
		}

		ttl := d.ttl(s)
		if ttl <= 0 {
			return usecase_session.ErrResourceNotFound
		}
		out, err := json.Marshal(s)
		if err != nil {
			return err
		}

		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(fullKey, out, ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = s
		return nil
	}

	for range maxUpdateRetries {
		err := client.Watch(txf, fullKey)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return model.Session{}, err
		}
		return updated, nil
	}
	return model.Session{}, ErrTooManyRetries
}

func (d *Driver) ttl(s model.Session) time.Duration {
	return s.ExpiresAt.Sub(d.now())
}

func decode(raw []byte) (model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

func (d *Driver) getFullKey(key string) string {
	if d.key != "" {
		return d.key + ":" + key
	}
	return key
}
