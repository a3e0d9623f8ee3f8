package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-arena-service/internal/domain"
	"quiz-arena-service/internal/infra/memory"
)

// QuestionCache caches per-domain question sets in Redis (JSON per domain)
// and falls back to the wrapped source on cache miss:
//
//	SET questions:{domain} {json array} EX ttl
//	SET questions:domains  {json array} EX ttl
type QuestionCache struct {
	client *redis.Client
	source memory.QuestionSource
	ttl    time.Duration
	sf     singleflight.Group
}

func NewQuestionCache(client *redis.Client, source memory.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		source: source,
		ttl:    ttl,
	}
}

func (c *QuestionCache) LoadDomain(ctx context.Context, questionDomain string) ([]domain.Question, error) {
	key := c.domainKey(questionDomain)

	if questions, ok := c.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.cached(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.source.LoadDomain(ctx, questionDomain)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal question set: %w", err)
		}
		if err := c.client.Set(ctx, key, data, c.ttlWithJitter()).Err(); err != nil {
			// Cache write failures degrade to source reads only.
			return questions, nil
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionCache) Domains(ctx context.Context) ([]string, error) {
	key := "questions:domains"

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var names []string
		if jsonErr := json.Unmarshal(raw, &names); jsonErr == nil && len(names) > 0 {
			return names, nil
		}
	}

	names, err := c.source.Domains(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(names); err == nil {
		_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
	}
	return names, nil
}

func (c *QuestionCache) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) domainKey(questionDomain string) string {
	return "questions:" + questionDomain
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
