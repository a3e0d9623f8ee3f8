package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-arena-service/internal/domain"
)

// QuestionBank loads per-domain question sets stored as JSONB in Postgres.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) LoadDomain(ctx context.Context, questionDomain string) ([]domain.Question, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT data FROM questions WHERE domain=$1`, questionDomain).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load question domain: %w", err)
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	return questions, nil
}

func (b *QuestionBank) Domains(ctx context.Context) ([]string, error) {
	rows, err := b.pool.Query(ctx, `SELECT domain FROM questions ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("list question domains: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan question domain: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
