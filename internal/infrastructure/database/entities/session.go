package entities

import (
	"time"

	"gorm.io/datatypes"
)

// Session is a conversation scoped to (app_name, user_id). State holds session scoped keys only.
type Session struct {
	ID        string            `gorm:"type:varchar(40);primaryKey"`
	AppName   string            `gorm:"type:varchar(128);index:idx_sessions_app_user;not null"`
	UserID    string            `gorm:"type:varchar(64);index:idx_sessions_app_user;not null"`
	State     datatypes.JSONMap `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Session) TableName() string {
	return "sessions"
}

// Event is one append-only lifecycle record of a session.
type Event struct {
	ID           string            `gorm:"type:varchar(40);primaryKey"`
	SessionID    string            `gorm:"type:varchar(40);index;not null"`
	AppName      string            `gorm:"type:varchar(128);not null"`
	UserID       string            `gorm:"type:varchar(64);not null"`
	Author       string            `gorm:"type:varchar(128)"`
	Type         string            `gorm:"type:varchar(32);not null"`
	Status       string            `gorm:"type:varchar(16)"`
	ErrorType    string            `gorm:"type:varchar(64)"`
	ErrorMessage string            `gorm:"type:text"`
	Payload      datatypes.JSONMap
	CreatedAt    time.Time `gorm:"index"`
}

func (Event) TableName() string {
	return "events"
}

// AppState holds app: prefixed keys shared by every session of an app.
type AppState struct {
	AppName   string            `gorm:"type:varchar(128);primaryKey"`
	State     datatypes.JSONMap `gorm:"not null"`
	UpdatedAt time.Time
}

func (AppState) TableName() string {
	return "app_states"
}

// UserState holds user: prefixed keys shared by every session of a user.
type UserState struct {
	AppName   string            `gorm:"type:varchar(128);primaryKey"`
	UserID    string            `gorm:"type:varchar(64);primaryKey"`
	State     datatypes.JSONMap `gorm:"not null"`
	UpdatedAt time.Time
}

func (UserState) TableName() string {
	return "user_states"
}

// All lists every entity managed by the service, in dependency order.
func All() []any {
	return []any{&Asset{}, &Session{}, &Event{}, &AppState{}, &UserState{}}
}
