package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/playmaker/backend/internal/middleware"
	"github.com/anonto42/playmaker/backend/internal/models"
	"github.com/anonto42/playmaker/backend/validators"
	sqlite "github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

type testServer struct {
	e      *echo.Echo
	auth   *middleware.Authenticator
	public *echo.Group
	api    *echo.Group
}

func newTestServer() *testServer {
	e := echo.New()
	e.Validator = validators.NewValidator()
	auth := middleware.NewAuthenticator(testSecret, nil)
	return &testServer{
		e:      e,
		auth:   auth,
		public: e.Group("/api/v1"),
		api:    e.Group("/api/v1", auth.Middleware()),
	}
}

// do sends a JSON request; userID 0 sends it without a token
func (s *testServer) do(t *testing.T, method, path, body string, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != 0 {
		token, err := s.auth.IssueToken(&models.User{ID: userID}, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Player{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
