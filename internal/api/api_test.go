package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sushihost/backend/config"
	"github.com/sushihost/backend/internal/api"
	"github.com/sushihost/backend/internal/database"
	"github.com/sushihost/backend/internal/middleware"
	"github.com/sushihost/backend/internal/models"
	"github.com/sushihost/backend/internal/router"
	"github.com/sushihost/backend/internal/service"
	"github.com/sushihost/backend/internal/testutil"
)

// testServer assembles the full HTTP stack over a throwaway store with
// in-process session and counter stores.
type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	menus  *service.EventMenuService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	caps := database.Capabilities{HasEventMenuOwner: true}

	email := service.NewEmailService(&config.Config{}) // no SMTP: sends degrade
	auth := service.NewAuthService(db, service.NewMemorySessionStore(), email, "test-secret")
	content := service.NewContentService(db)
	menus := service.NewEventMenuService(db, caps)

	r := router.Setup(
		api.NewAuthHandler(auth, false),
		api.NewContentHandler(content),
		api.NewEventMenuHandler(menus),
		api.NewHealthHandler(db),
		middleware.NewMemoryCounterStore(),
	)
	return &testServer{router: r, db: db, menus: menus}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// register creates an account and returns the verification token the API
// surfaces when email delivery is unavailable.
func (ts *testServer) register(t *testing.T, email, username string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/register", gin.H{
		"email": email, "username": username, "password": "longenough",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token, _ := decode(t, w)["verification_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (ts *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/login", gin.H{"email": email, "password": "longenough"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

func TestRegisterLoginLogoutFlow(t *testing.T) {
	ts := newTestServer(t)

	ts.register(t, "bob@example.com", "bob")
	cookie := ts.login(t, "bob@example.com")

	w := ts.do(t, http.MethodGet, "/api/me", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "bob", user["username"])
	assert.Equal(t, false, user["email_verified"])

	w = ts.do(t, http.MethodPost, "/api/logout", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	// The revoked session no longer resolves.
	w = ts.do(t, http.MethodGet, "/api/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterShortPassword(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/register", gin.H{
		"email": "bob@example.com", "username": "bob", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "8 characters")
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "bob@example.com", "bob")

	unknown := ts.do(t, http.MethodPost, "/api/login", gin.H{"email": "nobody@example.com", "password": "whatever1"})
	wrongPw := ts.do(t, http.MethodPost, "/api/login", gin.H{"email": "bob@example.com", "password": "wrongpass"})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPw.Code)
	assert.Equal(t, unknown.Body.String(), wrongPw.Body.String())
}

func TestEventMenuLifecycle(t *testing.T) {
	ts := newTestServer(t)

	verifyToken := ts.register(t, "bob@example.com", "bob")
	cookie := ts.login(t, "bob@example.com")

	payload := gin.H{"name": "Bob's Party", "menu_data": gin.H{"rolls": []string{"Spicy Tuna"}}}

	// Creation is gated on a verified email.
	w := ts.do(t, http.MethodPost, "/api/event-menus", payload, cookie)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "email verification required")

	w = ts.do(t, http.MethodGet, "/api/verify-email/"+verifyToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/event-menus", payload, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	uniqueID := created["unique_id"].(string)
	assert.Len(t, uniqueID, 8)

	// Anyone holding the link can read it, no session needed.
	w = ts.do(t, http.MethodGet, "/api/event-menus/"+uniqueID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	assert.Equal(t, created["menu_data"], got["menu_data"])
	assert.Equal(t, "Bob's Party", got["name"])

	// The token is also the write capability.
	w = ts.do(t, http.MethodPut, "/api/event-menus/"+uniqueID, gin.H{"host_name": "Bob"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bob", decode(t, w)["host_name"])

	// The owner sees it in their listing.
	w = ts.do(t, http.MethodGet, "/api/event-menus", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	// Anonymous listing is empty, not an error.
	w = ts.do(t, http.MethodGet, "/api/event-menus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = ts.do(t, http.MethodDelete, "/api/event-menus/"+uniqueID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/event-menus/"+uniqueID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventMenuExpiryIsInvisible(t *testing.T) {
	ts := newTestServer(t)

	verifyToken := ts.register(t, "bob@example.com", "bob")
	ts.do(t, http.MethodGet, "/api/verify-email/"+verifyToken, nil)
	cookie := ts.login(t, "bob@example.com")

	w := ts.do(t, http.MethodPost, "/api/event-menus", gin.H{
		"name": "Bob's Party", "menu_data": gin.H{"rolls": []string{"Spicy Tuna"}},
	}, cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	uniqueID := decode(t, w)["unique_id"].(string)

	ts.menus.SetClock(func() time.Time { return time.Now().Add(31 * 24 * time.Hour) })

	w = ts.do(t, http.MethodGet, "/api/event-menus/"+uniqueID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	// Same response as for a token that never existed.
	other := ts.do(t, http.MethodGet, "/api/event-menus/zzzzzzzz", nil)
	assert.Equal(t, other.Body.String(), w.Body.String())
}

func TestSearchEmptyQuery(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/search?q=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestRecipeCategoryRouting(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.db.Create(&models.Recipe{ID: 1, Name: "Sushi Rice", Category: "Basics"}).Error)

	w := ts.do(t, http.MethodGet, "/api/recipes/category/Basics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var recipes []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recipes))
	assert.Len(t, recipes, 1)

	w = ts.do(t, http.MethodGet, "/api/recipes/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Two segments that are not the category form resolve to nothing.
	w = ts.do(t, http.MethodGet, "/api/recipes/1/extra", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminGuards(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.db.Create(&models.Category{ID: 1, Name: "Rolls", SortOrder: 1}).Error)

	ts.register(t, "bob@example.com", "bob")
	cookie := ts.login(t, "bob@example.com")

	item := gin.H{"category_id": 1, "name": "Dragon Roll"}

	w := ts.do(t, http.MethodPost, "/api/admin/menu-items", item)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/api/admin/menu-items", item, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Role is read per request, so promoting the row is enough.
	require.NoError(t, ts.db.Model(&models.User{}).
		Where("username = ?", "bob").
		Update("role", models.RoleAdmin).Error)

	w = ts.do(t, http.MethodPost, "/api/admin/menu-items", item, cookie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Admin endpoints themselves work the same way.
	w = ts.do(t, http.MethodPost, "/api/admin/verify-email", gin.H{"username": "bob"}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, true, user["email_verified"])
}

func TestRegisterRateLimit(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 5; i++ {
		w := ts.do(t, http.MethodPost, "/api/register", gin.H{
			"email":    fmt.Sprintf("u%d@example.com", i),
			"username": fmt.Sprintf("user%d", i),
			"password": "longenough",
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := ts.do(t, http.MethodPost, "/api/register", gin.H{
		"email": "late@example.com", "username": "latecomer", "password": "longenough",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
}
