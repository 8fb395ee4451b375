package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	pkgRedis "github.com/vogiaan1904/ticketbottle-reservation/pkg/redis"
)

const maxTxRetries = 5

var errTxContended = errors.New("transaction retries exhausted")

// watchTx runs fn under WATCH on keys and retries when another client
// touched a watched key before EXEC.
func watchTx(ctx context.Context, cli *pkgRedis.Client, fn func(*redis.Tx) error, keys ...string) error {
	for range maxTxRetries {
		err := cli.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: %v", errTxContended, keys)
}

// getJSON reads key inside a transaction. found is false for a missing key.
func getJSON(ctx context.Context, tx *redis.Tx, key string, v any) (bool, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// listJSON loads every record referenced by an index set.
func listJSON[T any](ctx context.Context, cli *pkgRedis.Client, indexKey string, keyFn func(string) string) ([]*T, error) {
	ids, err := cli.SMembers(ctx, indexKey)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*T{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyFn(id)
	}

	vals, err := cli.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", keys[i], err)
		}
		out = append(out, &item)
	}

	return out, nil
}
