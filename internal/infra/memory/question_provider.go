package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-arena-service/internal/domain"
)

// QuestionSource loads a domain's question set from a backing store
// (static bank, document DB, etc).
type QuestionSource interface {
	LoadDomain(ctx context.Context, questionDomain string) ([]domain.Question, error)
	Domains(ctx context.Context) ([]string, error)
}

// QuestionProvider serves room-sized question sets: it resolves the requested
// domain (case-insensitive, synonyms, Mixed), caches raw per-domain sets with
// TTL to avoid repeated store hits, and samples down to the requested count.
// A ttl of zero disables caching.
type QuestionProvider struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionProvider(source QuestionSource, ttl time.Duration) *QuestionProvider {
	return &QuestionProvider{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		cache:  make(map[string]cachedSet),
	}
}

func (p *QuestionProvider) Fetch(ctx context.Context, requested string, count int) ([]domain.Question, error) {
	known, err := p.source.Domains(ctx)
	if err != nil {
		return nil, err
	}

	canonical, ok := domain.ResolveDomain(requested, known)
	if !ok {
		return nil, domain.ErrDomainNotFound
	}

	if canonical == domain.DomainMixed {
		return p.fetchMixed(ctx, known, count)
	}

	questions, err := p.loadDomain(ctx, canonical)
	if err != nil {
		return nil, err
	}
	return sample(questions, count), nil
}

func (p *QuestionProvider) Domains(ctx context.Context) ([]string, error) {
	return p.source.Domains(ctx)
}

// fetchMixed interleaves questions from every domain so short sessions still
// see variety.
func (p *QuestionProvider) fetchMixed(ctx context.Context, known []string, count int) ([]domain.Question, error) {
	sets := make([][]domain.Question, 0, len(known))
	for _, name := range known {
		questions, err := p.loadDomain(ctx, name)
		if err != nil {
			return nil, err
		}
		sets = append(sets, sample(questions, count))
	}

	mixed := make([]domain.Question, 0, count)
	for i := 0; len(mixed) < count; i++ {
		added := false
		for _, set := range sets {
			if i < len(set) {
				mixed = append(mixed, set[i])
				added = true
				if len(mixed) == count {
					break
				}
			}
		}
		if !added {
			break
		}
	}
	return mixed, nil
}

func (p *QuestionProvider) loadDomain(ctx context.Context, name string) ([]domain.Question, error) {
	now := p.clock()

	p.mu.RLock()
	if entry, ok := p.cache[name]; ok && entry.expiresAt.After(now) {
		p.mu.RUnlock()
		return entry.questions, nil
	}
	p.mu.RUnlock()

	result, err, _ := p.sf.Do(name, func() (interface{}, error) {
		now := p.clock()
		p.mu.RLock()
		if entry, ok := p.cache[name]; ok && entry.expiresAt.After(now) {
			p.mu.RUnlock()
			return entry.questions, nil
		}
		p.mu.RUnlock()

		questions, err := p.source.LoadDomain(ctx, name)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.cache[name] = cachedSet{
			questions: questions,
			expiresAt: now.Add(p.ttlWithJitter()),
		}
		p.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (p *QuestionProvider) ttlWithJitter() time.Duration {
	if p.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(p.ttl) / 10
	return p.ttl + time.Duration(rand.Int63n(jitterMax+1))
}

// sample returns up to count questions, in a shuffled order so repeated
// rooms on the same domain see different sequences.
func sample(questions []domain.Question, count int) []domain.Question {
	if count < 0 {
		count = 0
	}
	shuffled := make([]domain.Question, len(questions))
	copy(shuffled, questions)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled
}

// StaticQuestionBank is a QuestionSource backed by an in-memory map
// (useful for tests/demos and DB-less runs).
type StaticQuestionBank struct {
	banks map[string][]domain.Question
}

func NewStaticQuestionBank(banks map[string][]domain.Question) *StaticQuestionBank {
	return &StaticQuestionBank{banks: banks}
}

func (b *StaticQuestionBank) LoadDomain(_ context.Context, questionDomain string) ([]domain.Question, error) {
	if questions, ok := b.banks[questionDomain]; ok {
		return questions, nil
	}
	return nil, domain.ErrDomainNotFound
}

func (b *StaticQuestionBank) Domains(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(b.banks))
	for name := range b.banks {
		names = append(names, name)
	}
	return names, nil
}
