package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-arena-service/internal/domain"
)

// ResultStore appends session results to Redis:
//
//	LPUSH   results:{domain}     {result json}
//	ZINCRBY leaderboard:{domain} {score} {username}
//
// The sorted set gives profile/leaderboard readers a cumulative per-domain
// score without scanning the result log.
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) Save(ctx context.Context, result domain.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.resultsKey(result.Domain), data)
	pipe.ZIncrBy(ctx, s.leaderboardKey(result.Domain), float64(result.Score), result.Username)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}

func (s *ResultStore) resultsKey(questionDomain string) string {
	return "results:" + questionDomain
}

func (s *ResultStore) leaderboardKey(questionDomain string) string {
	return "leaderboard:" + questionDomain
}
