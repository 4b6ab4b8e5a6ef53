package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"github.com/zercsiz/recipe-app-api/internal/model"
	"github.com/zercsiz/recipe-app-api/pkg/database"
	"github.com/zercsiz/recipe-app-api/pkg/logger"
	"github.com/zercsiz/recipe-app-api/prometheus"
)

// mediaRoot is the base directory for uploaded files, set from config at startup
var mediaRoot = "media"

// SetMediaRoot configures the base directory for uploaded recipe images
func SetMediaRoot(root string) {
	mediaRoot = root
}

// RecipeRequest defines the structure for recipe creation and full-update
// requests. Tags and ingredients are nested descriptors; a nil slice means
// the key was absent from the payload.
type RecipeRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TimeMinutes int            `json:"time_minutes"`
	Price       string         `json:"price"`
	Link        string         `json:"link"`
	Tags        *[]AttrRequest `json:"tags"`
	Ingredients *[]AttrRequest `json:"ingredients"`
}

// RecipePatchRequest defines the structure for partial updates. Nil fields
// were absent from the payload and keep their stored value.
type RecipePatchRequest struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	TimeMinutes *int           `json:"time_minutes"`
	Price       *string        `json:"price"`
	Link        *string        `json:"link"`
	Tags        *[]AttrRequest `json:"tags"`
	Ingredients *[]AttrRequest `json:"ingredients"`
}

// priceFormat restricts prices to plain decimal notation. ParseFloat alone
// would also admit exponent and hex forms that the decimal(5,2) column
// cannot hold.
var priceFormat = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// validatePrice checks the fixed-point price format: at most 5 digits with
// 2 decimal places
func validatePrice(price string) error {
	if !priceFormat.MatchString(price) {
		return fmt.Errorf("price must be a decimal number with at most 2 decimal places")
	}
	f, err := strconv.ParseFloat(price, 64)
	if err != nil || f >= 1000 {
		return fmt.Errorf("price must be between 0 and 999.99")
	}
	return nil
}

// ListRecipes handles retrieving the authenticated user's recipes with
// optional tag and ingredient id filters
// @Summary List recipes
// @Tags recipe
// @Produce json
// @Security BearerAuth
// @Param tags query string false "Comma separated list of tag IDs to filter"
// @Param ingredients query string false "Comma separated list of ingredient IDs to filter"
// @Success 200 {array} model.Recipe
// @Failure 400 {object} map[string]string
// @Router /api/recipe/recipes [get]
func ListRecipes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRecipeOperation("list")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	query := database.GetDB().Model(&model.Recipe{}).Where("recipes.user_id = ?", userID)

	if tagsParam := c.QueryParam("tags"); tagsParam != "" {
		tagIDs, err := parseIDList(tagsParam)
		if err != nil {
			log.Warn("Invalid tags filter", zap.String("value", tagsParam), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tags must be a comma separated list of ids"})
		}
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Where("recipe_tags.tag_id IN ?", tagIDs)
	}

	if ingredientsParam := c.QueryParam("ingredients"); ingredientsParam != "" {
		ingredientIDs, err := parseIDList(ingredientsParam)
		if err != nil {
			log.Warn("Invalid ingredients filter", zap.String("value", ingredientsParam), zap.Error(err))
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredients must be a comma separated list of ids"})
		}
		query = query.
			Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = recipes.id").
			Where("recipe_ingredients.ingredient_id IN ?", ingredientIDs)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	recipes := []model.Recipe{}
	err := query.
		Distinct("recipes.*").
		Order("recipes.id DESC").
		Preload("Tags").
		Preload("Ingredients").
		Find(&recipes).Error
	if err != nil {
		log.Error("Failed to list recipes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve recipes"})
	}

	log.Info("Recipes retrieved", zap.Int("count", len(recipes)))
	return c.JSON(http.StatusOK, recipes)
}

// GetRecipe handles retrieving a single owned recipe by ID
// @Summary Retrieve a recipe
// @Tags recipe
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Recipe
// @Failure 404 {object} map[string]string
// @Router /api/recipe/recipes/{id} [get]
func GetRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRecipeOperation("retrieve")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	recipe, done := fetchOwnedRecipe(c, userID, true)
	if done != nil {
		return done(c)
	}

	log.Info("Recipe retrieved",
		zap.Uint("recipe_id", recipe.ID),
		zap.String("title", recipe.Title))
	return c.JSON(http.StatusOK, recipe)
}

// CreateRecipe handles creating a new recipe with nested tag and
// ingredient descriptors
// @Summary Create a recipe
// @Tags recipe
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} model.Recipe
// @Failure 400 {object} map[string]string
// @Router /api/recipe/recipes [post]
func CreateRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRecipeOperation("create")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.TimeMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_minutes must be a positive integer"})
	}
	if err := validatePrice(req.Price); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if req.Tags != nil {
		if err := validateAttrs(*req.Tags); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag " + err.Error()})
		}
	}
	if req.Ingredients != nil {
		if err := validateAttrs(*req.Ingredients); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredient " + err.Error()})
		}
	}

	log.Info("Recipe creation request",
		zap.String("title", req.Title),
		zap.Int("time_minutes", req.TimeMinutes),
		zap.String("price", req.Price))

	recipe := model.Recipe{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        req.Link,
	}

	// The recipe row and every reconciled tag and ingredient commit as one
	// unit of work
	defer prometheus.TrackDBOperation("insert")(time.Now())
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if result := tx.Create(&recipe); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to create recipe", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create recipe"})
	}

	if req.Tags != nil {
		if err := getOrCreateTags(tx, userID, *req.Tags, &recipe); err != nil {
			tx.Rollback()
			log.Error("Failed to reconcile tags", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create recipe"})
		}
	}

	if req.Ingredients != nil {
		if err := getOrCreateIngredients(tx, userID, *req.Ingredients, &recipe); err != nil {
			tx.Rollback()
			log.Error("Failed to reconcile ingredients", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create recipe"})
		}
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	created, err := loadRecipe(recipe.ID)
	if err != nil {
		log.Error("Failed to reload recipe", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create recipe"})
	}

	log.Info("Recipe created",
		zap.Uint("recipe_id", created.ID),
		zap.String("title", created.Title),
		zap.Int("tags", len(created.Tags)),
		zap.Int("ingredients", len(created.Ingredients)))
	return c.JSON(http.StatusCreated, created)
}

// UpdateRecipe handles full recipe replacement
// @Summary Replace a recipe
// @Tags recipe
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Recipe
// @Failure 404 {object} map[string]string
// @Router /api/recipe/recipes/{id} [put]
func UpdateRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRecipeOperation("update")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req RecipeRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if req.TimeMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_minutes must be a positive integer"})
	}
	if err := validatePrice(req.Price); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	patch := RecipePatchRequest{
		Title:       &req.Title,
		Description: &req.Description,
		TimeMinutes: &req.TimeMinutes,
		Price:       &req.Price,
		Link:        &req.Link,
		Tags:        req.Tags,
		Ingredients: req.Ingredients,
	}
	return applyRecipeUpdate(c, userID, &patch)
}

// PatchRecipe handles partial recipe updates
// @Summary Partially update a recipe
// @Tags recipe
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Recipe
// @Failure 404 {object} map[string]string
// @Router /api/recipe/recipes/{id} [patch]
func PatchRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRecipeOperation("update")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req RecipePatchRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
	}
	if req.TimeMinutes != nil && *req.TimeMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_minutes must be a positive integer"})
	}
	if req.Title != nil && *req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title must not be empty"})
	}

	return applyRecipeUpdate(c, userID, &req)
}

// applyRecipeUpdate merges the patch into the stored recipe. A present
// tags or ingredients key, including an empty list, clears the association
// set and rebuilds it from the supplied descriptors; an absent key leaves
// it untouched.
func applyRecipeUpdate(c echo.Context, userID uint, req *RecipePatchRequest) error {
	log := logger.FromContext(c)

	recipe, done := fetchOwnedRecipe(c, userID, false)
	if done != nil {
		return done(c)
	}

	if req.Tags != nil {
		if err := validateAttrs(*req.Tags); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tag " + err.Error()})
		}
	}
	if req.Ingredients != nil {
		if err := validateAttrs(*req.Ingredients); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "ingredient " + err.Error()})
		}
	}

	if req.Title != nil {
		recipe.Title = *req.Title
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.TimeMinutes != nil {
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		recipe.Price = *req.Price
	}
	if req.Link != nil {
		recipe.Link = *req.Link
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	tx := database.GetDB().Begin()
	if tx.Error != nil {
		log.Error("Failed to begin transaction", zap.Error(tx.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if result := tx.Save(recipe); result.Error != nil {
		tx.Rollback()
		log.Error("Failed to update recipe", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
	}

	if req.Tags != nil {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			tx.Rollback()
			log.Error("Failed to clear tags", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
		}
		if err := getOrCreateTags(tx, userID, *req.Tags, recipe); err != nil {
			tx.Rollback()
			log.Error("Failed to reconcile tags", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
		}
	}

	if req.Ingredients != nil {
		if err := tx.Model(recipe).Association("Ingredients").Clear(); err != nil {
			tx.Rollback()
			log.Error("Failed to clear ingredients", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
		}
		if err := getOrCreateIngredients(tx, userID, *req.Ingredients, recipe); err != nil {
			tx.Rollback()
			log.Error("Failed to reconcile ingredients", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
		}
	}

	if err := tx.Commit().Error; err != nil {
		log.Error("Failed to commit transaction", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction commit failed"})
	}

	updated, err := loadRecipe(recipe.ID)
	if err != nil {
		log.Error("Failed to reload recipe", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update recipe"})
	}

	log.Info("Recipe updated",
		zap.Uint("recipe_id", updated.ID),
		zap.String("title", updated.Title))
	return c.JSON(http.StatusOK, updated)
}

// DeleteRecipe handles deleting an owned recipe
// @Summary Delete a recipe
// @Tags recipe
// @Security BearerAuth
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Router /api/recipe/recipes/{id} [delete]
func DeleteRecipe(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRecipeOperation("delete")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	recipe, done := fetchOwnedRecipe(c, userID, false)
	if done != nil {
		return done(c)
	}

	// Selecting associations removes the join table rows along with the recipe
	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().Select(clause.Associations).Delete(recipe); result.Error != nil {
		log.Error("Failed to delete recipe",
			zap.Uint("recipe_id", recipe.ID),
			zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete recipe"})
	}

	log.Info("Recipe deleted", zap.Uint("recipe_id", recipe.ID))
	return c.NoContent(http.StatusNoContent)
}

// UploadRecipeImage handles the image-upload sub-action. The file is stored
// under the media root with a generated name so uploads never collide.
// @Summary Upload a recipe image
// @Tags recipe
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/recipe/recipes/{id}/upload-image [post]
func UploadRecipeImage(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordRecipeOperation("upload_image")

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	recipe, done := fetchOwnedRecipe(c, userID, false)
	if done != nil {
		return done(c)
	}

	file, err := c.FormFile("image")
	if err != nil {
		log.Warn("Missing image file in upload request", zap.Uint("recipe_id", recipe.ID))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "image file is required"})
	}

	relPath := filepath.Join("uploads", "recipe", uuid.New().String()+filepath.Ext(file.Filename))
	dstPath := filepath.Join(mediaRoot, relPath)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		log.Error("Failed to create upload directory", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}

	src, err := file.Open()
	if err != nil {
		log.Error("Failed to open uploaded file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		log.Error("Failed to create image file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		log.Error("Failed to write image file", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Model(recipe).Update("image", relPath); result.Error != nil {
		log.Error("Failed to update recipe image", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store image"})
	}

	log.Info("Recipe image uploaded",
		zap.Uint("recipe_id", recipe.ID),
		zap.String("image", relPath))
	return c.JSON(http.StatusOK, echo.Map{
		"id":    recipe.ID,
		"image": relPath,
	})
}

// fetchOwnedRecipe resolves the :id path parameter to a recipe owned by the
// requesting user. A recipe owned by someone else reports not-found rather
// than forbidden so existence does not leak. The second return value, when
// non-nil, writes the error response.
func fetchOwnedRecipe(c echo.Context, userID uint, preload bool) (*model.Recipe, func(echo.Context) error) {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		log.Warn("Invalid recipe ID", zap.String("value", c.Param("id")))
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid recipe ID"})
		}
	}

	query := database.GetDB()
	if preload {
		query = query.Preload("Tags").Preload("Ingredients")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var recipe model.Recipe
	result := query.Where("id = ? AND user_id = ?", id, userID).First(&recipe)
	if result.Error != nil {
		log.Warn("Recipe not found", zap.Uint64("recipe_id", id))
		return nil, func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "recipe not found"})
		}
	}

	return &recipe, nil
}

// loadRecipe reloads a recipe with its associations for serialization
func loadRecipe(id uint) (*model.Recipe, error) {
	var recipe model.Recipe
	err := database.GetDB().
		Preload("Tags").
		Preload("Ingredients").
		First(&recipe, id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}
