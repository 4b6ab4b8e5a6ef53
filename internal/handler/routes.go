package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/zercsiz/recipe-app-api/internal/middleware"
)

func methodNotAllowed(c echo.Context) error {
	return echo.ErrMethodNotAllowed
}

// RegisterRoutes wires every API route onto the Echo instance
func RegisterRoutes(e *echo.Echo) {
	// Public routes - no authentication required
	e.GET("/health", HealthCheck)
	e.GET("/metrics", MetricsHandler)

	// User routes - registration and token issuance are public
	user := e.Group("/api/user")
	user.POST("/create", CreateUser)
	user.POST("/token", CreateToken)

	me := user.Group("/me")
	me.Use(middleware.AuthMiddleware)
	me.GET("", GetMe)
	me.PUT("", UpdateMe)
	me.PATCH("", PatchMe)
	// The group's catch-all route answers unmatched methods with 404, so
	// the profile endpoint declares the unsupported method itself
	me.POST("", methodNotAllowed)

	// Recipe routes - all require authentication
	recipe := e.Group("/api/recipe")
	recipe.Use(middleware.AuthMiddleware)

	recipes := recipe.Group("/recipes")
	recipes.GET("", ListRecipes)
	recipes.POST("", CreateRecipe)
	recipes.GET("/:id", GetRecipe)
	recipes.PUT("/:id", UpdateRecipe)
	recipes.PATCH("/:id", PatchRecipe)
	recipes.DELETE("/:id", DeleteRecipe)
	recipes.POST("/:id/upload-image", UploadRecipeImage)

	tags := recipe.Group("/tags")
	tags.GET("", ListTags)
	tags.PUT("/:id", UpdateTag)
	tags.PATCH("/:id", UpdateTag)
	tags.DELETE("/:id", DeleteTag)

	ingredients := recipe.Group("/ingredients")
	ingredients.GET("", ListIngredients)
	ingredients.PUT("/:id", UpdateIngredient)
	ingredients.PATCH("/:id", UpdateIngredient)
	ingredients.DELETE("/:id", DeleteIngredient)
}
