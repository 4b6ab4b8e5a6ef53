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

// ListTags handles retrieving the authenticated user's tags
// @Summary List tags
// @Tags tag
// @Produce json
// @Security BearerAuth
// @Param assigned_only query int false "Filter by tags assigned to a recipe" Enums(0, 1)
// @Success 200 {array} model.Tag
// @Failure 400 {object} map[string]string
// @Router /api/recipe/tags [get]
func ListTags(c echo.Context) error {
	prometheus.RecordAttrOperation("tag", "list")
	tags := []model.Tag{}
	return listOwnedAttrs(c, &tags, "tags", "recipe_tags", "tag_id")
}

// UpdateTag handles renaming an owned tag
// @Summary Update a tag
// @Tags tag
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Tag
// @Failure 404 {object} map[string]string
// @Router /api/recipe/tags/{id} [patch]
func UpdateTag(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAttrOperation("tag", "update")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Warn("Invalid tag ID", zap.String("value", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tag ID"})
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
	var tag model.Tag
	result := database.GetDB().Where("id = ? AND user_id = ?", id, userID).First(&tag)
	if result.Error != nil {
		log.Warn("Tag not found", zap.Uint64("tag_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}

	if req.Name != tag.Name {
		var count int64
		database.GetDB().Model(&model.Tag{}).
			Where("user_id = ? AND name = ? AND id != ?", userID, req.Name, tag.ID).
			Count(&count)
		if count > 0 {
			log.Warn("Tag name already in use", zap.String("name", req.Name))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag name already in use"})
		}
	}

	tag.Name = req.Name
	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&tag); result.Error != nil {
		log.Error("Failed to update tag", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update tag"})
	}

	log.Info("Tag updated", zap.Uint("tag_id", tag.ID), zap.String("name", tag.Name))
	return c.JSON(http.StatusOK, tag)
}

// DeleteTag handles deleting an owned tag
// @Summary Delete a tag
// @Tags tag
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /api/recipe/tags/{id} [delete]
func DeleteTag(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAttrOperation("tag", "delete")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Warn("Invalid tag ID", zap.String("value", c.Param("id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tag ID"})
	}

	// The association rows do not cascade from the tag side, so the row and
	// its join entries go in one transaction
	defer prometheus.TrackDBOperation("delete")(time.Now())
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&model.Tag{})
	if result.Error != nil {
		tx.Rollback()
		log.Error("Failed to delete tag", zap.Uint64("tag_id", id), zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete tag"})
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		log.Warn("Tag not found for deletion", zap.Uint64("tag_id", id))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tag not found"})
	}

	if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", id).Error; err != nil {
		tx.Rollback()
		log.Error("Failed to clean tag associations", zap.Uint64("tag_id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete tag"})
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	log.Info("Tag deleted", zap.Uint64("tag_id", id))
	return c.NoContent(http.StatusNoContent)
}
