package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/gobblet-backend/internal/apperror"
	"github.com/rocketscienceinc/gobblet-backend/internal/entity"
)

// memoryGame keeps records as JSON so callers never share state with the store.
type memoryGame struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		records: make(map[string][]byte),
	}
}

func (that *memoryGame) Create(_ context.Context, record *entity.GameRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.records[record.Game.ID]; ok {
		return apperror.ErrGameAlreadyExists
	}

	that.records[record.Game.ID] = recordJSON

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.GameRecord, error) {
	that.mu.RLock()
	recordJSON, ok := that.records[id]
	that.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrGameNotFound
	}

	var record entity.GameRecord
	if err := json.Unmarshal(recordJSON, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &record, nil
}

func (that *memoryGame) Update(_ context.Context, record *entity.GameRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.records[record.Game.ID]; !ok {
		return apperror.ErrGameNotFound
	}

	that.records[record.Game.ID] = recordJSON

	return nil
}

func (that *memoryGame) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.records[id]; !ok {
		return apperror.ErrGameNotFound
	}

	delete(that.records, id)

	return nil
}
