package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "jan-server/services/image-api/internal/domain/session"
	"jan-server/services/image-api/internal/infrastructure/database/entities"
	"jan-server/services/image-api/internal/utils/platformerrors"
	"jan-server/services/image-api/utils/idgen"
)

// Store is the durable session store. Session, app and user scoped state live in separate tables.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) CreateSession(ctx context.Context, appName, userID string, state map[string]any) (*domain.Session, error) {
	now := s.now()
	row := entities.Session{
		ID:        idgen.NewSessionID(),
		AppName:   appName,
		UserID:    userID,
		State:     datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, user, own := domain.SplitState(state)
		domain.ApplyDelta(row.State, own)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return mergeScopedState(tx, appName, userID, app, user, now)
	})
	if err != nil {
		return nil, dbError(ctx, "failed to create session", err, "0b1f5a7c-2d3e-4f80-9a1b-c2d3e4f5a6b7")
	}
	return s.GetSession(ctx, appName, userID, row.ID)
}

func (s *Store) GetSession(ctx context.Context, appName, userID, sessionID string) (*domain.Session, error) {
	var row entities.Session
	err := s.db.WithContext(ctx).
		Where("id = ? AND app_name = ? AND user_id = ?", sessionID, appName, userID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound(ctx, sessionID)
		}
		return nil, dbError(ctx, "failed to get session", err, "1c2a6b8d-3e4f-4a91-8b2c-d3e4f5a6b7c8")
	}

	sessions, err := s.hydrate(ctx, appName, userID, []entities.Session{row})
	if err != nil {
		return nil, err
	}
	return sessions[0], nil
}

func (s *Store) ListSessions(ctx context.Context, appName, userID string) ([]*domain.Session, error) {
	var rows []entities.Session
	err := s.db.WithContext(ctx).
		Where("app_name = ? AND user_id = ?", appName, userID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, dbError(ctx, "failed to list sessions", err, "2d3b7c9e-4f5a-4ba2-9c3d-e4f5a6b7c8d9")
	}
	return s.hydrate(ctx, appName, userID, rows)
}

func (s *Store) DeleteSession(ctx context.Context, appName, userID, sessionID string) error {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND app_name = ? AND user_id = ?", sessionID, appName, userID).Delete(&entities.Session{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		if deleted == 0 {
			return nil
		}
		return tx.Where("session_id = ?", sessionID).Delete(&entities.Event{}).Error
	})
	if err != nil {
		return dbError(ctx, "failed to delete session", err, "3e4c8daf-5a6b-4cb3-8d4e-f5a6b7c8d9e0")
	}
	if deleted == 0 {
		return domain.NotFound(ctx, sessionID)
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = idgen.NewEventID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}

	var missing bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entities.Session{}).
			Where("id = ? AND app_name = ? AND user_id = ?", event.SessionID, event.AppName, event.UserID).
			Update("updated_at", event.CreatedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			missing = true
			return nil
		}
		row := eventToEntity(*event)
		return tx.Create(&row).Error
	})
	if err != nil {
		return dbError(ctx, "failed to append session event", err, "4f5d9eb0-6b7c-4dc4-9e5f-a6b7c8d9e0f1")
	}
	if missing {
		return domain.NotFound(ctx, event.SessionID)
	}
	return nil
}

func (s *Store) UpdateState(ctx context.Context, appName, userID, sessionID string, delta map[string]any) error {
	var missing bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row entities.Session
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND app_name = ? AND user_id = ?", sessionID, appName, userID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			missing = true
			return nil
		}
		if err != nil {
			return err
		}

		now := s.now()
		app, user, own := domain.SplitState(delta)
		if row.State == nil {
			row.State = datatypes.JSONMap{}
		}
		domain.ApplyDelta(row.State, own)
		if err := tx.Model(&entities.Session{}).Where("id = ?", sessionID).
			Updates(map[string]any{"state": row.State, "updated_at": now}).Error; err != nil {
			return err
		}
		return mergeScopedState(tx, appName, userID, app, user, now)
	})
	if err != nil {
		return dbError(ctx, "failed to update session state", err, "5a6eafc1-7c8d-4ed5-8f6a-b7c8d9e0f1a2")
	}
	if missing {
		return domain.NotFound(ctx, sessionID)
	}
	return nil
}

// hydrate attaches events and the merged app/user state to session rows.
func (s *Store) hydrate(ctx context.Context, appName, userID string, rows []entities.Session) ([]*domain.Session, error) {
	out := make([]*domain.Session, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	var events []entities.Event
	if err := s.db.WithContext(ctx).
		Where("session_id IN ?", ids).
		Order("created_at ASC").
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, dbError(ctx, "failed to load session events", err, "6b7fb0d2-8d9e-4fe6-9a7b-c8d9e0f1a2b3")
	}
	bySession := make(map[string][]domain.Event, len(rows))
	for _, e := range events {
		bySession[e.SessionID] = append(bySession[e.SessionID], eventToDomain(e))
	}

	appState, err := s.loadAppState(ctx, appName)
	if err != nil {
		return nil, err
	}
	userState, err := s.loadUserState(ctx, appName, userID)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		events := bySession[row.ID]
		if events == nil {
			events = []domain.Event{}
		}
		out = append(out, &domain.Session{
			ID:        row.ID,
			AppName:   row.AppName,
			UserID:    row.UserID,
			State:     domain.MergeState(appState, userState, row.State),
			Events:    events,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) loadAppState(ctx context.Context, appName string) (map[string]any, error) {
	var row entities.AppState
	err := s.db.WithContext(ctx).Where("app_name = ?", appName).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(ctx, "failed to load app state", err, "7c80c1e3-9eaf-4a07-8b8c-d9e0f1a2b3c4")
	}
	return row.State, nil
}

func (s *Store) loadUserState(ctx context.Context, appName, userID string) (map[string]any, error) {
	var row entities.UserState
	err := s.db.WithContext(ctx).Where("app_name = ? AND user_id = ?", appName, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError(ctx, "failed to load user state", err, "8d91d2f4-aab0-4b18-9c9d-e0f1a2b3c4d5")
	}
	return row.State, nil
}

// mergeScopedState applies app and user deltas inside tx.
func mergeScopedState(tx *gorm.DB, appName, userID string, app, user map[string]any, now time.Time) error {
	if len(app) > 0 {
		row := entities.AppState{AppName: appName}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Attrs(entities.AppState{State: datatypes.JSONMap{}, UpdatedAt: now}).
			FirstOrCreate(&row, entities.AppState{AppName: appName}).Error; err != nil {
			return err
		}
		state := mergeMaps(row.State, app)
		if err := tx.Model(&entities.AppState{}).Where("app_name = ?", appName).
			Updates(map[string]any{"state": state, "updated_at": now}).Error; err != nil {
			return err
		}
	}
	if len(user) > 0 {
		row := entities.UserState{AppName: appName, UserID: userID}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Attrs(entities.UserState{State: datatypes.JSONMap{}, UpdatedAt: now}).
			FirstOrCreate(&row, entities.UserState{AppName: appName, UserID: userID}).Error; err != nil {
			return err
		}
		state := mergeMaps(row.State, user)
		if err := tx.Model(&entities.UserState{}).Where("app_name = ? AND user_id = ?", appName, userID).
			Updates(map[string]any{"state": state, "updated_at": now}).Error; err != nil {
			return err
		}
	}
	return nil
}

func mergeMaps(base datatypes.JSONMap, delta map[string]any) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(base)+len(delta))
	for k, v := range base {
		out[k] = v
	}
	domain.ApplyDelta(out, delta)
	return out
}

func eventToEntity(e domain.Event) entities.Event {
	var payload datatypes.JSONMap
	if e.Payload != nil {
		payload = datatypes.JSONMap(e.Payload)
	}
	return entities.Event{
		ID:           e.ID,
		SessionID:    e.SessionID,
		AppName:      e.AppName,
		UserID:       e.UserID,
		Author:       e.Author,
		Type:         string(e.Type),
		Status:       string(e.Status),
		ErrorType:    e.ErrorType,
		ErrorMessage: e.ErrorMessage,
		Payload:      payload,
		CreatedAt:    e.CreatedAt,
	}
}

func eventToDomain(e entities.Event) domain.Event {
	return domain.Event{
		ID:           e.ID,
		SessionID:    e.SessionID,
		AppName:      e.AppName,
		UserID:       e.UserID,
		Author:       e.Author,
		Type:         domain.EventType(e.Type),
		Status:       domain.Status(e.Status),
		ErrorType:    e.ErrorType,
		ErrorMessage: e.ErrorMessage,
		Payload:      e.Payload,
		CreatedAt:    e.CreatedAt,
	}
}

func dbError(ctx context.Context, message string, err error, code string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, message, err, code)
}
