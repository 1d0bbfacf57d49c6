// Package redis keeps instance to deployment ownership in Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jboss-openshift/openshift-kieserver/internal/lookup"
)

// Store implements lookup.Backend with plain string keys.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) DeploymentIDByCorrelationKey(ctx context.Context, key string) (string, error) {
	return s.get(ctx, CorrelationKey(key))
}

func (s *Store) DeploymentIDByProcessInstanceID(ctx context.Context, id int64) (string, error) {
	return s.get(ctx, ProcessInstanceKey(id))
}

func (s *Store) DeploymentIDByTaskInstanceID(ctx context.Context, id int64) (string, error) {
	return s.get(ctx, TaskInstanceKey(id))
}

func (s *Store) DeploymentIDByWorkItemID(ctx context.Context, id int64) (string, error) {
	return s.get(ctx, WorkItemKey(id))
}

func (s *Store) DeploymentIDByJobID(ctx context.Context, id int64) (string, error) {
	return s.get(ctx, JobKey(id))
}

// SaveOwners records ownership entries in one round trip.
// A zero ttl keeps the keys forever.
func (s *Store) SaveOwners(ctx context.Context, owners []lookup.Owner, ttl time.Duration) error {
	if len(owners) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for _, o := range owners {
		pipe.Set(ctx, DeploymentKey(o.Kind, o.ID), o.DeploymentID, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save ownership: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	dep, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", lookup.ErrNotFound
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	if dep == "" {
		return "", lookup.ErrNotFound
	}
	return dep, nil
}
