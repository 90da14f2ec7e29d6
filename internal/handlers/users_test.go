package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m1moraru/Taskify/internal/config"
	"github.com/m1moraru/Taskify/internal/database"
	"github.com/m1moraru/Taskify/internal/handlers"
	"github.com/m1moraru/Taskify/internal/middleware"
	"github.com/m1moraru/Taskify/internal/services"
	"github.com/m1moraru/Taskify/internal/sessions"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testCookieName = "taskify_session"

type memoryStore struct {
	sessions map[string]*sessions.Session
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string]*sessions.Session)}
}

func (m *memoryStore) Create(ctx context.Context, userID uuid.UUID) (*sessions.Session, error) {
	session := &sessions.Session{
		ID:        uuid.Must(uuid.NewV4()).String(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(time.Hour),
		CreatedAt: time.Now(),
	}
	m.sessions[session.ID] = session
	return session, nil
}

func (m *memoryStore) Get(ctx context.Context, sessionID string) (*sessions.Session, error) {
	session, ok := m.sessions[sessionID]
	if !ok || session.Expired() {
		return nil, sessions.ErrSessionNotFound
	}
	return session, nil
}

func (m *memoryStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

func (m *memoryStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	for id, session := range m.sessions {
		if session.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

type userTestEnv struct {
	router *gin.Engine
	store  *memoryStore
	db     *gorm.DB
}

func setupUserEnv(t *testing.T) *userTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	store := newMemoryStore()
	userService := services.NewUserService()
	sessionCfg := config.SessionConfig{CookieName: testCookieName, TTL: time.Hour}

	registerHandler := handlers.NewRegisterHandler(db, userService)
	authHandler := handlers.NewAuthHandler(db, userService, store, sessionCfg)
	userHandler := handlers.NewUserHandler(db, userService, store)
	authRequired := middleware.SessionAuth(store, testCookieName)

	router := gin.New()
	router.POST("/api/users/register", registerHandler.Register)
	router.POST("/api/users/login", authHandler.Login)
	router.POST("/api/users/logout", authRequired, authHandler.Logout)
	router.GET("/api/users/me", authRequired, userHandler.GetMe)
	router.GET("/api/users/:id", authRequired, userHandler.GetUser)
	router.PUT("/api/users/:id", authRequired, userHandler.UpdateUser)
	router.DELETE("/api/users/:id", authRequired, userHandler.DeleteUser)

	return &userTestEnv{router: router, store: store, db: db}
}

func (e *userTestEnv) doJSON(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *userTestEnv) registerAndLogin(t *testing.T, email string) (*http.Cookie, string) {
	t.Helper()

	w := e.doJSON("POST", "/api/users/register", map[string]string{
		"first_name": "Maria",
		"email":      email,
		"password":   "secret-password",
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Registration failed with status %d: %s", w.Code, w.Body.String())
	}

	var created struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	json.Unmarshal(w.Body.Bytes(), &created)

	w = e.doJSON("POST", "/api/users/login", map[string]string{
		"email":    email,
		"password": "secret-password",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Login failed with status %d: %s", w.Code, w.Body.String())
	}

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == testCookieName && cookie.Value != "" {
			return cookie, created.User.ID
		}
	}
	t.Fatal("Expected a session cookie after login")
	return nil, ""
}

func TestRegisterThenLoginSucceeds(t *testing.T) {
	env := setupUserEnv(t)
	cookie, _ := env.registerAndLogin(t, "maria@example.com")

	if cookie.Value == "" {
		t.Error("Expected a non-empty session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("Expected the session cookie to be HTTP-only")
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := setupUserEnv(t)
	env.registerAndLogin(t, "maria@example.com")

	w := env.doJSON("POST", "/api/users/register", map[string]string{
		"first_name": "Other",
		"email":      "maria@example.com",
		"password":   "another-secret",
	}, nil)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
}

func TestRegisterMissingFieldsRejected(t *testing.T) {
	env := setupUserEnv(t)

	w := env.doJSON("POST", "/api/users/register", map[string]string{
		"email": "maria@example.com",
	}, nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestLoginWrongPasswordSetsNoCookie(t *testing.T) {
	env := setupUserEnv(t)
	env.registerAndLogin(t, "maria@example.com")

	w := env.doJSON("POST", "/api/users/login", map[string]string{
		"email":    "maria@example.com",
		"password": "wrong-password",
	}, nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == testCookieName && cookie.Value != "" {
			t.Error("Expected no session cookie on failed login")
		}
	}
}

func TestLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	env := setupUserEnv(t)
	env.registerAndLogin(t, "maria@example.com")

	wrongPassword := env.doJSON("POST", "/api/users/login", map[string]string{
		"email":    "maria@example.com",
		"password": "wrong-password",
	}, nil)
	unknownEmail := env.doJSON("POST", "/api/users/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret-password",
	}, nil)

	if wrongPassword.Code != unknownEmail.Code {
		t.Errorf("Expected identical status codes, got %d and %d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Error("Expected identical bodies for wrong password and unknown email")
	}
}

func TestGetMeReturnsProfileWithoutPassword(t *testing.T) {
	env := setupUserEnv(t)
	cookie, userID := env.registerAndLogin(t, "maria@example.com")

	w := env.doJSON("GET", "/api/users/me", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var profile map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &profile)

	if profile["id"] != userID {
		t.Errorf("Expected id %s, got %v", userID, profile["id"])
	}
	if _, leaked := profile["password"]; leaked {
		t.Error("Password must never appear in a profile response")
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := setupUserEnv(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/users/me"},
		{"GET", "/api/users/" + uuid.Must(uuid.NewV4()).String()},
		{"PUT", "/api/users/" + uuid.Must(uuid.NewV4()).String()},
		{"DELETE", "/api/users/" + uuid.Must(uuid.NewV4()).String()},
	}

	for _, tt := range paths {
		w := env.doJSON(tt.method, tt.path, map[string]string{}, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, http.StatusUnauthorized, w.Code)
		}
	}
}

func TestForeignUserIDReadsAsNotFound(t *testing.T) {
	env := setupUserEnv(t)
	cookie, _ := env.registerAndLogin(t, "maria@example.com")
	_, otherID := env.registerAndLogin(t, "ana@example.com")

	w := env.doJSON("GET", "/api/users/"+otherID, nil, cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	name := map[string]string{"first_name": "Hijacked"}
	w = env.doJSON("PUT", "/api/users/"+otherID, name, cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	w = env.doJSON("DELETE", "/api/users/"+otherID, nil, cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestUpdateOwnProfile(t *testing.T) {
	env := setupUserEnv(t)
	cookie, userID := env.registerAndLogin(t, "maria@example.com")

	w := env.doJSON("PUT", "/api/users/"+userID, map[string]string{"first_name": "Ana"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var profile map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &profile)
	if profile["first_name"] != "Ana" {
		t.Errorf("Expected first_name Ana, got %v", profile["first_name"])
	}
	if profile["email"] != "maria@example.com" {
		t.Errorf("Expected email unchanged, got %v", profile["email"])
	}
}

func TestDeleteOwnAccountInvalidatesSessions(t *testing.T) {
	env := setupUserEnv(t)
	cookie, userID := env.registerAndLogin(t, "maria@example.com")

	w := env.doJSON("DELETE", "/api/users/"+userID, nil, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}

	w = env.doJSON("GET", "/api/users/me", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d after account deletion, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := setupUserEnv(t)
	cookie, _ := env.registerAndLogin(t, "maria@example.com")

	w := env.doJSON("POST", "/api/users/logout", nil, cookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status %d, got %d", http.StatusNoContent, w.Code)
	}

	w = env.doJSON("GET", "/api/users/me", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d after logout, got %d", http.StatusUnauthorized, w.Code)
	}
}
