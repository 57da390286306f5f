package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/oarkflow/guard"
)

// RedisRoleSource keeps every role as a JSON document inside one hash
// (field = role key), so a single HGETALL is the whole-collection fetch the
// cache layer expects.
type RedisRoleSource struct {
	client *redis.Client
	key    string
}

func NewRedisRoleSource(client *redis.Client) *RedisRoleSource {
	return &RedisRoleSource{client: client, key: "guard:roles"}
}

func (r *RedisRoleSource) FetchRoles(ctx context.Context) ([]*guard.Role, error) {
	docs, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch roles: %w", err)
	}
	roles := make([]*guard.Role, 0, len(docs))
	for field, raw := range docs {
		role := &guard.Role{}
		if err := json.Unmarshal([]byte(raw), role); err != nil {
			return nil, fmt.Errorf("decode role %s: %w", field, err)
		}
		if role.Key == "" {
			role.Key = field
		}
		if role.Permissions == nil {
			role.Permissions = map[string]bool{}
		}
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool {
		if roles[i].DisplayOrder != roles[j].DisplayOrder {
			return roles[i].DisplayOrder < roles[j].DisplayOrder
		}
		return roles[i].Key < roles[j].Key
	})
	return roles, nil
}

// SaveRole writes the role document under its key field.
func (r *RedisRoleSource) SaveRole(ctx context.Context, role *guard.Role) error {
	data, err := json.Marshal(role)
	if err != nil {
		return fmt.Errorf("encode role %s: %w", role.Key, err)
	}
	return r.client.HSet(ctx, r.key, role.Key, string(data)).Err()
}

func (r *RedisRoleSource) DeleteRole(ctx context.Context, key string) error {
	return r.client.HDel(ctx, r.key, key).Err()
}
