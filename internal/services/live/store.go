// services/live/store.go — кэш последних позиций устройств в Redis.
package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flyMoon99/fysl/internal/models"
)

const snapshotTTL = 24 * time.Hour

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) SaveSnapshot(ctx context.Context, snap models.LocationSnapshot) error {
	data, _ := json.Marshal(snap)
	return r.client.Set(ctx, "device:last:"+snap.DeviceNumber, data, snapshotTTL).Err()
}

func (r *RedisStore) GetAllSnapshots(ctx context.Context) ([]models.LocationSnapshot, error) {
	keys, err := r.client.Keys(ctx, "device:last:*").Result()
	if err != nil {
		return nil, err
	}

	var snapshots []models.LocationSnapshot
	for _, key := range keys {
		data, err := r.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var snap models.LocationSnapshot
		if json.Unmarshal(data, &snap) == nil {
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}
