package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zercsiz/recipe-app-api/internal/model"
	"github.com/zercsiz/recipe-app-api/pkg/database"
	"github.com/zercsiz/recipe-app-api/pkg/logger"
	"github.com/zercsiz/recipe-app-api/prometheus"
)

// AttrRequest is the embedded descriptor for a tag or ingredient inside a
// recipe payload
type AttrRequest struct {
	Name string `json:"name"`
}

// validateAttrs rejects descriptors with an empty name before any
// reconciliation runs
func validateAttrs(attrs []AttrRequest) error {
	for _, attr := range attrs {
		if attr.Name == "" {
			return fmt.Errorf("name must not be empty")
		}
	}
	return nil
}

// getOrCreateTags resolves each descriptor to an existing or new tag owned
// by the given user and appends it to the recipe's tag set. Matching is by
// exact name equality; the (user_id, name) unique index keeps concurrent
// creation from inserting duplicates.
func getOrCreateTags(db *gorm.DB, userID uint, attrs []AttrRequest, recipe *model.Recipe) error {
	for _, attr := range attrs {
		var tag model.Tag
		if err := db.Where(model.Tag{UserID: userID, Name: attr.Name}).FirstOrCreate(&tag).Error; err != nil {
			return err
		}
		if err := db.Model(recipe).Association("Tags").Append(&tag); err != nil {
			return err
		}
	}
	return nil
}

// getOrCreateIngredients mirrors getOrCreateTags for the ingredient set
func getOrCreateIngredients(db *gorm.DB, userID uint, attrs []AttrRequest, recipe *model.Recipe) error {
	for _, attr := range attrs {
		var ingredient model.Ingredient
		if err := db.Where(model.Ingredient{UserID: userID, Name: attr.Name}).FirstOrCreate(&ingredient).Error; err != nil {
			return err
		}
		if err := db.Model(recipe).Association("Ingredients").Append(&ingredient); err != nil {
			return err
		}
	}
	return nil
}

// listOwnedAttrs serves the tag and ingredient listing endpoints. Both share
// the same shape: rows scoped to the authenticated user, optionally
// restricted to rows assigned to at least one recipe, de-duplicated and
// ordered by descending name. The entity is parameterized by its table and
// association join column instead of sharing a base handler type.
func listOwnedAttrs(c echo.Context, dest interface{}, table, joinTable, fkColumn string) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	assignedOnly := false
	if v := c.QueryParam("assigned_only"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Warn("Invalid assigned_only parameter", zap.String("value", v))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "assigned_only must be 0 or 1"})
		}
		assignedOnly = n != 0
	}

	query := database.GetDB().Where(table+".user_id = ?", userID)
	if assignedOnly {
		query = query.Joins(fmt.Sprintf("JOIN %s ON %s.%s = %s.id", joinTable, joinTable, fkColumn, table))
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	if err := query.Distinct(table + ".*").Order(table + ".name DESC").Find(dest).Error; err != nil {
		log.Error("Failed to list "+table, zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve " + table})
	}

	return c.JSON(http.StatusOK, dest)
}

// parseIDList converts a comma separated id string into a list of ints. A
// non-integer token is a client error, reported before any query runs.
func parseIDList(param string) ([]int, error) {
	parts := strings.Split(param, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
