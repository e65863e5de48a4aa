package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/contextkeys"
	"github.com/iscander13/back/pkg/observability"
	"github.com/iscander13/back/pkg/store"
)

// fakeStore is an in-memory implementation of the handler store
// interfaces.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*store.User
	polygons map[string]*store.Polygon
	messages []*store.ChatMessage
	nextUser int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*store.User),
		polygons: make(map[string]*store.Polygon),
	}
}

func (f *fakeStore) addUser(t *testing.T, email, password, role string) *store.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &store.User{Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, f.CreateUser(context.Background(), user))
	return user
}

func (f *fakeStore) CreateUser(ctx context.Context, user *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}
	f.nextUser++
	user.ID = f.nextUser
	user.CreatedAt = time.Now()
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*store.User, 0, len(f.users))
	for _, user := range f.users {
		copied := *user
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) UpdateUserEmail(ctx context.Context, id int64, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == email && existing.ID != id {
			return store.ErrDuplicateEmail
		}
	}
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Email = email
	return nil
}

func (f *fakeStore) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	return nil
}

func (f *fakeStore) UpdateUserRole(ctx context.Context, id int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.Role = role
	return nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) SetResetCode(ctx context.Context, email, code string, expiry time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			user.ResetCode = &code
			user.ResetCodeExpiry = &expiry
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ClearResetCode(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Email == email {
			user.ResetCode = nil
			user.ResetCodeExpiry = nil
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) CreatePolygon(ctx context.Context, polygon *store.Polygon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if polygon.ID == "" {
		polygon.ID = uuid.NewString()
	}
	polygon.CreatedAt = time.Now()
	copied := *polygon
	f.polygons[polygon.ID] = &copied
	return nil
}

func (f *fakeStore) GetPolygon(ctx context.Context, id string) (*store.Polygon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	polygon, ok := f.polygons[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *polygon
	return &copied, nil
}

func (f *fakeStore) ListPolygonsByUser(ctx context.Context, userID int64) ([]*store.Polygon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Polygon
	for _, polygon := range f.polygons {
		if polygon.UserID == userID {
			copied := *polygon
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdatePolygon(ctx context.Context, polygon *store.Polygon) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.polygons[polygon.ID]; !ok {
		return store.ErrNotFound
	}
	copied := *polygon
	f.polygons[polygon.ID] = &copied
	return nil
}

func (f *fakeStore) DeletePolygon(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.polygons[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.polygons, id)
	return nil
}

func (f *fakeStore) DeletePolygonsByUser(ctx context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, polygon := range f.polygons {
		if polygon.UserID == userID {
			delete(f.polygons, id)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeStore) ListChatByPolygon(ctx context.Context, polygonID string) ([]*store.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.ChatMessage
	for _, message := range f.messages {
		if message.PolygonID == polygonID {
			copied := *message
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateChatMessage(ctx context.Context, message *store.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now()
	copied := *message
	f.messages = append(f.messages, &copied)
	return nil
}

// principalFor builds a principal backed by the stored account.
func principalFor(t *testing.T, user *store.User) *auth.Principal {
	t.Helper()
	role, err := auth.ParseRole(user.Role)
	require.NoError(t, err)
	id := user.ID
	return &auth.Principal{UserID: &id, Email: user.Email, Role: role}
}

// doRequest serves a request against the router, optionally as the
// given principal, and returns the recorder.
func doRequest(t *testing.T, router *mux.Router, method, path string, body interface{}, principal *auth.Principal) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if principal != nil {
		req = req.WithContext(contextkeys.WithPrincipal(req.Context(), principal))
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), out))
}

var testSigningKey = bytes.Repeat([]byte("k"), auth.MinSecretLength)

func testCodec(t *testing.T) *auth.Codec {
	t.Helper()
	return auth.NewCodec(testSigningKey, time.Hour)
}

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}
