package memory

import (
	"context"
	"testing"
	"time"

	"quiz-arena-service/internal/domain"
)

func TestQuestionProviderCaches(t *testing.T) {
	loader := &countingSource{QuestionSource: NewStaticQuestionBank(sampleBanks())}
	provider := NewQuestionProvider(loader, time.Minute)

	if _, err := provider.Fetch(context.Background(), "Quantitative", 2); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := provider.Fetch(context.Background(), "Quantitative", 2); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuestionProviderZeroTTLDisablesCache(t *testing.T) {
	loader := &countingSource{QuestionSource: NewStaticQuestionBank(sampleBanks())}
	provider := NewQuestionProvider(loader, 0)

	_, _ = provider.Fetch(context.Background(), "Quantitative", 2)
	_, _ = provider.Fetch(context.Background(), "Quantitative", 2)
	if loader.calls != 2 {
		t.Fatalf("expected loader on every fetch, got %d calls", loader.calls)
	}
}

func TestQuestionProviderDomainResolution(t *testing.T) {
	provider := NewQuestionProvider(NewStaticQuestionBank(sampleBanks()), time.Minute)
	ctx := context.Background()

	if _, err := provider.Fetch(ctx, "quantitative", 1); err != nil {
		t.Fatalf("case-insensitive match failed: %v", err)
	}
	if _, err := provider.Fetch(ctx, "Quant", 1); err != nil {
		t.Fatalf("synonym match failed: %v", err)
	}
	if _, err := provider.Fetch(ctx, "Astrology", 1); err != domain.ErrDomainNotFound {
		t.Fatalf("expected domain not found, got %v", err)
	}
}

func TestQuestionProviderRespectsCount(t *testing.T) {
	provider := NewQuestionProvider(NewStaticQuestionBank(sampleBanks()), time.Minute)

	questions, err := provider.Fetch(context.Background(), "Quantitative", 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	// Asking for more than the bank holds returns what exists.
	questions, err = provider.Fetch(context.Background(), "Verbal", 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected the whole bank, got %d", len(questions))
	}
}

func TestQuestionProviderMixedSamplesAcrossDomains(t *testing.T) {
	provider := NewQuestionProvider(NewStaticQuestionBank(sampleBanks()), time.Minute)

	questions, err := provider.Fetch(context.Background(), "Mixed", 4)
	if err != nil {
		t.Fatalf("fetch mixed: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 mixed questions, got %d", len(questions))
	}

	seen := make(map[string]bool)
	bank := NewStaticQuestionBank(sampleBanks())
	for _, q := range questions {
		seen[domainOf(t, bank, q)] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected questions from multiple domains, got %v", seen)
	}
}

func domainOf(t *testing.T, bank *StaticQuestionBank, q domain.Question) string {
	t.Helper()
	for name, questions := range bank.banks {
		for _, candidate := range questions {
			if candidate.Text == q.Text {
				return name
			}
		}
	}
	t.Fatalf("question %q not found in any bank", q.Text)
	return ""
}

type countingSource struct {
	QuestionSource
	calls int
}

func (s *countingSource) LoadDomain(ctx context.Context, questionDomain string) ([]domain.Question, error) {
	s.calls++
	return s.QuestionSource.LoadDomain(ctx, questionDomain)
}

func sampleBanks() map[string][]domain.Question {
	return map[string][]domain.Question{
		"Quantitative": {
			{Text: "What is 2 + 2?", Options: []string{"3", "4"}, Correct: 1},
			{Text: "What is 5 - 2?", Options: []string{"3", "4"}, Correct: 0},
			{Text: "What is 3 * 3?", Options: []string{"9", "12"}, Correct: 0},
		},
		"Verbal": {
			{Text: "Synonym of big?", Options: []string{"large", "tiny"}, Correct: 0},
		},
	}
}
