package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/iscander13/back/pkg/observability"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a unique email constraint fires.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is a stored account.
type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Role            string     `json:"role"`
	ResetCode       *string    `json:"-"`
	ResetCodeExpiry *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Polygon is a stored field boundary with its farming metadata.
type Polygon struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	Crop      string    `json:"crop,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	Color     string    `json:"color,omitempty"`
	GeoJSON   string    `json:"geoJson"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatMessage is one entry of a polygon's chat history.
type ChatMessage struct {
	ID        string    `json:"id"`
	PolygonID string    `json:"polygonId"`
	UserID    int64     `json:"userId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Config holds database connection settings.
type Config struct {
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// Store provides PostgreSQL-backed persistence.
type Store struct {
	db      *sql.DB
	metrics *observability.Metrics
}

// Open connects to PostgreSQL and configures the connection pool.
// metrics may be nil.
func Open(config Config, metrics *observability.Metrics) (*Store, error) {
	db, err := sql.Open("postgres", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConns)
	db.SetMaxIdleConns(config.MinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Store{db: db, metrics: metrics}, nil
}

// NewWithDB wraps an existing database handle. Used by tests.
func NewWithDB(db *sql.DB, metrics *observability.Metrics) *Store {
	return &Store{db: db, metrics: metrics}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	s.metrics.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	s.metrics.StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// isUniqueViolation reports whether err is a postgres unique constraint
// failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
