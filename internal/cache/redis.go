package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emrgen/recall/internal/model"
	redis "github.com/redis/go-redis/v9"
)

const nodeTTL = 15 * time.Minute

var _ NodeCache = (*Redis)(nil)

type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
	})

	return &Redis{client: client}
}

func nodeKey(creator, uuid string) string {
	return fmt.Sprintf("node:%s:%s", creator, uuid)
}

func (r *Redis) GetNode(ctx context.Context, creator, uuid string) (*model.Node, error) {
	data, err := r.client.Get(ctx, nodeKey(creator, uuid)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var node model.Node
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, err
	}

	return &node, nil
}

func (r *Redis) SetNode(ctx context.Context, node *model.Node) error {
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, nodeKey(node.Creator, node.UUID), data, nodeTTL).Err()
}

func (r *Redis) DeleteNode(ctx context.Context, creator, uuid string) error {
	return r.client.Del(ctx, nodeKey(creator, uuid)).Err()
}
