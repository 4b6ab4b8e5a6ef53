package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zercsiz/recipe-app-api/internal/model"
)

func TestCreateUser(t *testing.T) {
	e, db := setupTestServer(t)

	t.Run("success", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/create", "", map[string]string{
			"email":    "user@example.com",
			"password": "testpass244",
			"name":     "testname",
		})

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.NotContains(t, rec.Body.String(), "testpass244")
		assert.NotContains(t, rec.Body.String(), "password")

		var user model.User
		require.NoError(t, db.Where("email = ?", "user@example.com").First(&user).Error)
		assert.True(t, user.CheckPassword("testpass244"))
		assert.Equal(t, "testname", user.Name)
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/create", "", map[string]string{
			"email":    "user@example.com",
			"password": "otherpass123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("password too short", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/create", "", map[string]string{
			"email":    "short@example.com",
			"password": "te12",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var count int64
		db.Model(&model.User{}).Where("email = ?", "short@example.com").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/create", "", map[string]string{
			"email": "nopass@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateToken(t *testing.T) {
	e, db := setupTestServer(t)
	createTestUser(t, db, "user@example.com", "testpass123")

	t.Run("success", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/token", "", map[string]string{
			"email":    "user@example.com",
			"password": "testpass123",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		decodeBody(t, rec, &resp)
		assert.NotEmpty(t, resp["token"])
	})

	t.Run("bad credentials", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/token", "", map[string]string{
			"email":    "user@example.com",
			"password": "wrongpass",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotContains(t, rec.Body.String(), "token\":")
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/token", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "testpass123",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/token", "", map[string]string{
			"email": "user@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMe(t *testing.T) {
	e, db := setupTestServer(t)
	user := createTestUser(t, db, "user@example.com", "testpass123")
	token := authToken(t, user)

	t.Run("requires auth", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/user/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/user/me", "Bearer not-a-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("retrieve profile", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/user/me", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		decodeBody(t, rec, &resp)
		assert.Equal(t, "user@example.com", resp["email"])
		assert.Equal(t, "Test User", resp["name"])
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("post not allowed", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/api/user/me", token, map[string]string{})
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("patch updates name and password", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, "/api/user/me", token, map[string]string{
			"name":     "Updated Name",
			"password": "newpass123",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored model.User
		require.NoError(t, db.First(&stored, user.ID).Error)
		assert.Equal(t, "Updated Name", stored.Name)
		assert.True(t, stored.CheckPassword("newpass123"))
	})

	t.Run("patch rejects short password", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, "/api/user/me", token, map[string]string{
			"password": "pw",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("put replaces profile", func(t *testing.T) {
		rec := doJSON(e, http.MethodPut, "/api/user/me", token, map[string]string{
			"email": "renamed@example.com",
			"name":  "Renamed",
		})
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored model.User
		require.NoError(t, db.First(&stored, user.ID).Error)
		assert.Equal(t, "renamed@example.com", stored.Email)
		assert.Equal(t, "Renamed", stored.Name)
	})

	t.Run("put requires email", func(t *testing.T) {
		rec := doJSON(e, http.MethodPut, "/api/user/me", token, map[string]string{
			"name": "No Email",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cannot take another user's email", func(t *testing.T) {
		createTestUser(t, db, "taken@example.com", "testpass123")
		rec := doJSON(e, http.MethodPatch, "/api/user/me", token, map[string]string{
			"email": "taken@example.com",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), "email"))
	})
}
