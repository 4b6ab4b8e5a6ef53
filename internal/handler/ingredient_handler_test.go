package handler

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zercsiz/recipe-app-api/internal/model"
)

func TestListIngredients(t *testing.T) {
	e, db := setupTestServer(t)
	user := createTestUser(t, db, "user@example.com", "testpass123")
	other := createTestUser(t, db, "other@example.com", "testpass123")
	token := authToken(t, user)

	createTestIngredient(t, db, user, "kale")
	createTestIngredient(t, db, user, "salt")
	createTestIngredient(t, db, other, "vinegar")

	t.Run("limited to user and ordered by descending name", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/recipe/ingredients", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []map[string]interface{}
		decodeBody(t, rec, &resp)
		require.Len(t, resp, 2)
		assert.Equal(t, "salt", resp[0]["name"])
		assert.Equal(t, "kale", resp[1]["name"])
	})

	t.Run("assigned only", func(t *testing.T) {
		recipe := createTestRecipe(t, db, user, "Soup")
		assigned := createTestIngredient(t, db, user, "turmeric")
		attachIngredient(t, db, recipe, assigned)

		rec := doJSON(e, http.MethodGet, "/api/recipe/ingredients?assigned_only=1", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp []map[string]interface{}
		decodeBody(t, rec, &resp)
		require.Len(t, resp, 1)
		assert.Equal(t, "turmeric", resp[0]["name"])
	})
}

func TestUpdateIngredient(t *testing.T) {
	e, db := setupTestServer(t)
	user := createTestUser(t, db, "user@example.com", "testpass123")
	other := createTestUser(t, db, "other@example.com", "testpass123")
	token := authToken(t, user)

	t.Run("renames own ingredient", func(t *testing.T) {
		ingredient := createTestIngredient(t, db, user, "corriander")

		rec := doJSON(e, http.MethodPatch, "/api/recipe/ingredients/"+strconv.Itoa(int(ingredient.ID)), token,
			map[string]string{"name": "coriander"})
		assert.Equal(t, http.StatusOK, rec.Code)

		var stored model.Ingredient
		require.NoError(t, db.First(&stored, ingredient.ID).Error)
		assert.Equal(t, "coriander", stored.Name)
	})

	t.Run("name taken by another own ingredient rejected", func(t *testing.T) {
		createTestIngredient(t, db, user, "pepper")
		ingredient := createTestIngredient(t, db, user, "peppercorn")

		rec := doJSON(e, http.MethodPatch, "/api/recipe/ingredients/"+strconv.Itoa(int(ingredient.ID)), token,
			map[string]string{"name": "pepper"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var stored model.Ingredient
		require.NoError(t, db.First(&stored, ingredient.ID).Error)
		assert.Equal(t, "peppercorn", stored.Name)
	})

	t.Run("another user's ingredient reports not found", func(t *testing.T) {
		foreign := createTestIngredient(t, db, other, "saffron")

		rec := doJSON(e, http.MethodPatch, "/api/recipe/ingredients/"+strconv.Itoa(int(foreign.ID)), token,
			map[string]string{"name": "stolen"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDeleteIngredient(t *testing.T) {
	e, db := setupTestServer(t)
	user := createTestUser(t, db, "user@example.com", "testpass123")
	other := createTestUser(t, db, "other@example.com", "testpass123")
	token := authToken(t, user)

	t.Run("own ingredient", func(t *testing.T) {
		ingredient := createTestIngredient(t, db, user, "doomed")

		rec := doJSON(e, http.MethodDelete, "/api/recipe/ingredients/"+strconv.Itoa(int(ingredient.ID)), token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		var count int64
		db.Model(&model.Ingredient{}).Where("id = ?", ingredient.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("removes recipe associations", func(t *testing.T) {
		recipe := createTestRecipe(t, db, user, "Stew")
		ingredient := createTestIngredient(t, db, user, "attached")
		attachIngredient(t, db, recipe, ingredient)

		rec := doJSON(e, http.MethodDelete, "/api/recipe/ingredients/"+strconv.Itoa(int(ingredient.ID)), token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		var count int64
		db.Table("recipe_ingredients").Where("ingredient_id = ?", ingredient.ID).Count(&count)
		assert.Zero(t, count)
	})

	t.Run("another user's ingredient reports not found", func(t *testing.T) {
		foreign := createTestIngredient(t, db, other, "protected")

		rec := doJSON(e, http.MethodDelete, "/api/recipe/ingredients/"+strconv.Itoa(int(foreign.ID)), token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		var count int64
		db.Model(&model.Ingredient{}).Where("id = ?", foreign.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}
