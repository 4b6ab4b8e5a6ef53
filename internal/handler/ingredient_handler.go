package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zercsiz/recipe-app-api/internal/model"
	"github.com/zercsiz/recipe-app-api/pkg/database"
	"github.com/zercsiz/recipe-app-api/pkg/logger"
	"github.com/zercsiz/recipe-app-api/prometheus"
)

// ListIngredients handles retrieving the authenticated user's ingredients
// @Summary List ingredients
// @Tags ingredient
// @Produce json
// @Security BearerAuth
// @Param assigned_only query int false "Filter by ingredients assigned to a recipe" Enums(0, 1)
// @Success 200 {array} model.Ingredient
// @Failure 400 {object} map[string]string
// @Router /api/recipe/ingredients [get]
func ListIngredients(c echo.Context) error {
	prometheus.RecordAttrOperation("ingredient", "list")
	ingredients := []model.Ingredient{}
	return listOwnedAttrs(c, &ingredients, "ingredients", "recipe_ingredients", "ingredient_id")
}

// UpdateIngredient handles renaming an owned ingredient
// @Summary Update an ingredient
// @Tags ingredient
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Ingredient
// @Failure 404 {object} map[string]string
// @Router /api/recipe/ingredients/{id} [patch]
func UpdateIngredient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAttrOperation("ingredient", "update")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Warn("Invalid ingredient ID", zap.String("value", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ingredient ID"})
	}

	var req AttrRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var ingredient model.Ingredient
	result := database.GetDB().Where("id = ? AND user_id = ?", id, userID).First(&ingredient)
	if result.Error != nil {
		log.Warn("Ingredient not found", zap.Uint64("ingredient_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
	}

	if req.Name != ingredient.Name {
		var count int64
		database.GetDB().Model(&model.Ingredient{}).
			Where("user_id = ? AND name = ? AND id != ?", userID, req.Name, ingredient.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Ingredient name already in use", zap.String("name", req.Name))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredient name already in use"})
		}
	}

	ingredient.Name = req.Name
	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&ingredient); result.Error != nil {
		log.Error("Failed to update ingredient", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update ingredient"})
	}

	log.Info("Ingredient updated",
		zap.Uint("ingredient_id", ingredient.ID),
		zap.String("name", ingredient.Name))
	return c.JSON(http.StatusOK, ingredient)
}

// DeleteIngredient handles deleting an owned ingredient
// @Summary Delete an ingredient
// @Tags ingredient
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /api/recipe/ingredients/{id} [delete]
func DeleteIngredient(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAttrOperation("ingredient", "delete")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Warn("Invalid ingredient ID", zap.String("value", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ingredient ID"})
	}

	// The association rows do not cascade from the ingredient side, so the
	// row and its join entries go in one transaction
	defer prometheus.TrackDBOperation("delete")(time.Now())
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Ingredient{})
	if result.Error != nil {
		tx.Rollback()
		log.Error("Failed to delete ingredient", zap.Uint64("ingredient_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete ingredient"})
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		log.Warn("Ingredient not found for deletion", zap.Uint64("ingredient_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ingredient not found"})
	}

	if err := tx.Exec("DELETE FROM recipe_ingredients WHERE ingredient_id = ?", id).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to clean ingredient associations", zap.Uint64("ingredient_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete ingredient"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	log.Info("Ingredient deleted", zap.Uint64("ingredient_id", id))
	return c.NoContent(http.StatusNoContent)
}
