package api

import (
	"context"
	"time"

	"github.com/iscander13/back/pkg/store"
)

// UserStore is the slice of the store the user-facing handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, user *store.User) error
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
	ListUsers(ctx context.Context) ([]*store.User, error)
	UpdateUserEmail(ctx context.Context, id int64, email string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
	UpdateUserRole(ctx context.Context, id int64, role string) error
	DeleteUser(ctx context.Context, id int64) error
}

// PolygonStore is the slice of the store the polygon handlers need.
type PolygonStore interface {
	CreatePolygon(ctx context.Context, polygon *store.Polygon) error
	GetPolygon(ctx context.Context, id string) (*store.Polygon, error)
	ListPolygonsByUser(ctx context.Context, userID int64) ([]*store.Polygon, error)
	UpdatePolygon(ctx context.Context, polygon *store.Polygon) error
	DeletePolygon(ctx context.Context, id string) error
	DeletePolygonsByUser(ctx context.Context, userID int64) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

// ChatStore is the slice of the store the chat handlers need.
type ChatStore interface {
	GetPolygon(ctx context.Context, id string) (*store.Polygon, error)
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
	ListChatByPolygon(ctx context.Context, polygonID string) ([]*store.ChatMessage, error)
	CreateChatMessage(ctx context.Context, message *store.ChatMessage) error
}

// RecoveryStore is the slice of the store the password recovery
// handlers need.
type RecoveryStore interface {
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
	SetResetCode(ctx context.Context, email, code string, expiry time.Time) error
	ClearResetCode(ctx context.Context, email string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

// Assistant produces chat replies about a polygon. Implementations call
// an external model service; the server only depends on this interface.
type Assistant interface {
	Reply(ctx context.Context, polygon *store.Polygon, history []*store.ChatMessage, message string) (string, error)
}

// Mailer delivers password recovery codes. Implementations speak SMTP
// or an email API; the server only depends on this interface.
type Mailer interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// ContactMailer relays contact-form submissions to the operators'
// mailbox.
type ContactMailer interface {
	SendContactMessage(ctx context.Context, contactInfo string) error
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token string   `json:"token"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// UserResponse is the administrator view of an account.
type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// MessageResponse is a generic informational response.
type MessageResponse struct {
	Message string `json:"message"`
}
