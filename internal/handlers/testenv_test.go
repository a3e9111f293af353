package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/akozhevin/storefront/internal/models"
	"github.com/akozhevin/storefront/internal/service/token"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB

	JWTSecret     []byte
	RefreshSecret []byte
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return &testEnv{
		T:             t,
		E:             echo.New(),
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func (env *testEnv) tokens() *token.TokenService {
	return &token.TokenService{
		DB:            env.DB,
		JWTSecret:     env.JWTSecret,
		RefreshSecret: env.RefreshSecret,
	}
}

// doJSONRequest builds an echo context around a JSON body; handlers are
// invoked directly, middleware is exercised separately.
func (env *testEnv) doJSONRequest(method, target string, payload any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var body bytes.Buffer
	if payload != nil {
		require.NoError(env.T, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser stamps the context the way RequireLogin does after validating a
// bearer token.
func asUser(c echo.Context, userID uint, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

func (env *testEnv) createUser(t *testing.T, email, role string) *models.User {
	user := models.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(t, env.DB.Create(&user).Error)
	return &user
}

func (env *testEnv) createProduct(t *testing.T, name string, price float64, stock int) *models.Product {
	p := models.Product{Name: name, Description: "d", Price: price, Stock: stock}
	require.NoError(t, env.DB.Create(&p).Error)
	return &p
}

func (env *testEnv) createActiveCart(t *testing.T, userID uint) *models.Cart {
	cart := models.Cart{UserID: userID, Status: models.CartStatusActive}
	require.NoError(t, env.DB.Create(&cart).Error)
	return &cart
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}
