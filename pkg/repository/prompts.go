package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dskvich/chatgpt-line-bot/pkg/domain"
)

type promptsRepository struct {
	db *sql.DB
}

func NewPromptsRepository(db *sql.DB) *promptsRepository {
	return &promptsRepository{db: db}
}

func (p *promptsRepository) Save(ctx context.Context, prompt domain.ImagePrompt) (int64, error) {
	const query = `
		INSERT INTO image_prompts (source_id, prompt, size)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := p.db.QueryRowContext(ctx, query, prompt.SourceID, prompt.Prompt, prompt.Size).Scan(&id); err != nil {
		return 0, fmt.Errorf("saving image prompt: %w", err)
	}

	return id, nil
}
