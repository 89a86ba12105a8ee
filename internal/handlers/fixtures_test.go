package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/case-billing-api/internal/constants"
	"github.com/yukikurage/case-billing-api/internal/database"
	"github.com/yukikurage/case-billing-api/internal/idempotency"
	"github.com/yukikurage/case-billing-api/internal/repository"
	"github.com/yukikurage/case-billing-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.AddIndexes(db))

	return db
}

func newTestServices(db *gorm.DB) Services {
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	clientRepo := repository.NewClientRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db, repository.NewSequenceRepository(db))
	paymentRepo := repository.NewPaymentRepository(db)

	return Services{
		Auth:           services.NewAuthService(userRepo, orgRepo),
		Organization:   services.NewOrganizationService(orgRepo),
		Client:         services.NewClientService(clientRepo),
		Case:           services.NewCaseService(caseRepo, clientRepo),
		Invoice:        services.NewInvoiceService(invoiceRepo, clientRepo, caseRepo),
		Payment:        services.NewPaymentService(invoiceRepo, paymentRepo),
		Idempotency:    idempotency.NewMemoryStore(),
		IdempotencyTTL: time.Hour,
	}
}

// apiTestEnv serves the full router over an in-memory database
type apiTestEnv struct {
	t      *testing.T
	db     *gorm.DB
	svc    Services
	router *gin.Engine
}

func setupAPITestEnv(t *testing.T) *apiTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	svc := newTestServices(db)

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	RegisterRoutes(r, svc)

	return &apiTestEnv{t: t, db: db, svc: svc, router: r}
}

// apiClient is a logged-in user; it carries the session cookie between requests
type apiClient struct {
	env     *apiTestEnv
	userID  uint64
	cookies map[string]*http.Cookie
}

func (e *apiTestEnv) anonymous() *apiClient {
	return &apiClient{env: e, cookies: map[string]*http.Cookie{}}
}

// signup registers the user through the service and logs in over HTTP
func (e *apiTestEnv) signup(username string) *apiClient {
	e.t.Helper()

	user, err := e.svc.Auth.Signup(services.SignupInput{Username: username, Password: "supersecret"})
	require.NoError(e.t, err)

	client := e.anonymous()
	w := client.do(http.MethodPost, "/api/auth/login", map[string]string{
		"username": username,
		"password": "supersecret",
	})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
	client.userID = user.ID
	return client
}

func (a *apiClient) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	a.env.t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		payload, err := json.Marshal(body)
		require.NoError(a.env.t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.env.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		a.cookies[c.Name] = c
	}
	return w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeJSON[map[string]string](t, w)["error"]
}
