package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zercsiz/recipe-app-api/internal/model"
	"github.com/zercsiz/recipe-app-api/pkg/config"
	"github.com/zercsiz/recipe-app-api/pkg/database"
	"github.com/zercsiz/recipe-app-api/pkg/jwtutil"
)

func setupTestServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Recipe{},
		&model.Tag{},
		&model.Ingredient{},
	))

	database.DB = db
	jwtutil.Initialize(&config.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
	SetMediaRoot(t.TempDir())

	e := echo.New()
	RegisterRoutes(e)
	return e, db
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string) *model.User {
	t.Helper()
	user, err := model.CreateUser(db, email, password, "Test User")
	require.NoError(t, err)
	return user
}

func authToken(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := jwtutil.GenerateToken(user.Email, user.ID)
	require.NoError(t, err)
	return "Bearer " + token
}

// doJSON performs a JSON request against the test server. An empty token
// leaves the request unauthenticated.
func doJSON(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func createTestRecipe(t *testing.T, db *gorm.DB, user *model.User, title string) *model.Recipe {
	t.Helper()
	recipe := &model.Recipe{
		UserID:      user.ID,
		Title:       title,
		Description: "Sample description",
		TimeMinutes: 22,
		Price:       "5.25",
		Link:        "http://example.com/recipe.pdf",
	}
	require.NoError(t, db.Create(recipe).Error)
	return recipe
}

func createTestTag(t *testing.T, db *gorm.DB, user *model.User, name string) *model.Tag {
	t.Helper()
	tag := &model.Tag{UserID: user.ID, Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func createTestIngredient(t *testing.T, db *gorm.DB, user *model.User, name string) *model.Ingredient {
	t.Helper()
	ingredient := &model.Ingredient{UserID: user.ID, Name: name}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func attachTag(t *testing.T, db *gorm.DB, recipe *model.Recipe, tag *model.Tag) {
	t.Helper()
	require.NoError(t, db.Model(recipe).Association("Tags").Append(tag))
}

func attachIngredient(t *testing.T, db *gorm.DB, recipe *model.Recipe, ingredient *model.Ingredient) {
	t.Helper()
	require.NoError(t, db.Model(recipe).Association("Ingredients").Append(ingredient))
}
