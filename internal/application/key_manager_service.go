package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-reservation/internal/persistence"
)

// KeyManagerStore captures the persistence operations needed by KeyManagerService.
type KeyManagerStore interface {
	persistence.CampusRepository
	persistence.KeyManagerRepository
}

// KeyManagerService manages the people holding each campus key.
type KeyManagerService struct {
	store       KeyManagerStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewKeyManagerService wires dependencies for key manager administration.
func NewKeyManagerService(store KeyManagerStore, idGenerator func() string, now func() time.Time) *KeyManagerService {
	return NewKeyManagerServiceWithLogger(store, idGenerator, now, nil)
}

// NewKeyManagerServiceWithLogger wires dependencies with a specified logger.
func NewKeyManagerServiceWithLogger(store KeyManagerStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *KeyManagerService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &KeyManagerService{store: store, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *KeyManagerService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "KeyManagerService", operation, attrs...)
}

// CreateKeyManager registers an active key manager for a campus.
func (s *KeyManagerService) CreateKeyManager(ctx context.Context, input KeyManagerInput) (manager KeyManager, err error) {
	if s == nil || s.store == nil {
		err = fmt.Errorf("key manager store not configured")
		return
	}
	logger := s.loggerWith(ctx, "CreateKeyManager", "campus_id", input.CampusID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create key manager", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("key_manager_id", manager.ID).InfoContext(ctx, "key manager created")
	}()

	if vErr := validateKeyManagerInput(&input); vErr.HasErrors() {
		err = vErr
		return
	}
	campus, lookupErr := s.store.GetCampus(ctx, input.CampusID)
	if lookupErr != nil {
		if errors.Is(lookupErr, persistence.ErrNotFound) {
			err = &ValidationError{FieldErrors: map[string]string{"campus_id": "campus_id does not exist"}}
			return
		}
		err = mapRepoError(lookupErr)
		return
	}

	now := s.now()
	manager = KeyManager{
		ID:         s.idGenerator(),
		CampusID:   input.CampusID,
		CampusName: campus.Name,
		Name:       input.Name,
		Contact:    input.Contact,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = s.store.CreateKeyManager(ctx, toPersistenceKeyManager(manager)); err != nil {
		err = mapRepoError(err)
		manager = KeyManager{}
	}
	return
}

// UpdateKeyManager changes the name, contact or duty status of a key manager.
func (s *KeyManagerService) UpdateKeyManager(ctx context.Context, id string, update KeyManagerUpdate) (manager KeyManager, err error) {
	if s == nil || s.store == nil {
		err = fmt.Errorf("key manager store not configured")
		return
	}
	logger := s.loggerWith(ctx, "UpdateKeyManager", "key_manager_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update key manager", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "key manager updated", "active", manager.Active)
	}()

	if strings.TrimSpace(id) == "" {
		err = ErrNotFound
		return
	}
	if vErr := validateKeyManagerUpdate(&update); vErr.HasErrors() {
		err = vErr
		return
	}
	model, getErr := s.store.GetKeyManager(ctx, id)
	if getErr != nil {
		err = mapRepoError(getErr)
		return
	}

	manager = toKeyManager(model)
	if update.Name != nil {
		manager.Name = *update.Name
	}
	if update.Contact != nil {
		manager.Contact = *update.Contact
	}
	if update.Active != nil {
		manager.Active = *update.Active
	}
	manager.UpdatedAt = s.now()
	if err = s.store.UpdateKeyManager(ctx, toPersistenceKeyManager(manager)); err != nil {
		err = mapRepoError(err)
		manager = KeyManager{}
	}
	return
}

// DeleteKeyManager removes a key manager. Unknown identifiers return ErrNotFound.
func (s *KeyManagerService) DeleteKeyManager(ctx context.Context, id string) (err error) {
	if s == nil || s.store == nil {
		return fmt.Errorf("key manager store not configured")
	}
	logger := s.loggerWith(ctx, "DeleteKeyManager", "key_manager_id", id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete key manager", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "key manager deleted")
	}()

	if strings.TrimSpace(id) == "" {
		return ErrNotFound
	}
	return mapRepoError(s.store.DeleteKeyManager(ctx, id))
}

// ListKeyManagers returns the key managers selected by query. Inactive
// managers are left out unless requested.
func (s *KeyManagerService) ListKeyManagers(ctx context.Context, query KeyManagerQuery) ([]KeyManager, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("key manager store not configured")
	}
	if query.CampusID < 0 {
		return nil, &ValidationError{FieldErrors: map[string]string{"campus_id": "campus_id must be greater than 0"}}
	}
	models, err := s.store.ListKeyManagers(ctx, persistence.KeyManagerFilter{
		CampusID:        query.CampusID,
		IncludeInactive: query.IncludeInactive,
	})
	if err != nil {
		err = mapRepoError(err)
		s.loggerWith(ctx, "ListKeyManagers", "campus_id", query.CampusID).
			ErrorContext(ctx, "failed to list key managers", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	managers := make([]KeyManager, 0, len(models))
	for _, model := range models {
		managers = append(managers, toKeyManager(model))
	}
	return managers, nil
}
