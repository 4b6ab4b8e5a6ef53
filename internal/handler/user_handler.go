package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/zercsiz/recipe-app-api/internal/model"
	"github.com/zercsiz/recipe-app-api/pkg/database"
	"github.com/zercsiz/recipe-app-api/pkg/jwtutil"
	"github.com/zercsiz/recipe-app-api/pkg/logger"
	"github.com/zercsiz/recipe-app-api/prometheus"
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 5

// CreateUser handles user registration
// @Summary Create a new user
// @Tags user
// @Accept json
// @Produce json
// @Success 201 {object} model.User
// @Failure 400 {object} map[string]string
// @Router /api/user/create [post]
func CreateUser(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Error("Invalid registration data",
			zap.String("email", req.Email),
			zap.Bool("password_provided", req.Password != ""))
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	if len(req.Password) < MinPasswordLength {
		log.Error("Password too short", zap.String("email", req.Email))
		prometheus.RecordAuthError("password_too_short")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 5 characters"})
	}

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", model.NormalizeEmail(req.Email)).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
	}

	// Create new user - track DB insert operation
	defer prometheus.TrackDBOperation("insert")(time.Now())
	user, err := model.CreateUser(database.GetDB(), req.Email, req.Password, req.Name)
	if err != nil {
		log.Error("Failed to create user", zap.Error(err))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("User registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, user)
}

// CreateToken handles authentication token issuance
// @Summary Issue an authentication token
// @Tags user
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /api/user/token [post]
func CreateToken(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.TokenCounter.Inc()

	// Parse request
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse token request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_credentials")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", model.NormalizeEmail(req.Email)).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unable to authenticate with provided credentials"})
	}

	// Verify password
	if !user.CheckPassword(req.Password) {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unable to authenticate with provided credentials"})
	}

	// Generate JWT token
	token, err := jwtutil.GenerateToken(user.Email, user.ID)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	// Increment active tokens gauge
	prometheus.IncreaseActiveTokens()

	log.Info("Token issued", zap.String("email", user.Email))
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

// GetMe returns the authenticated user's profile
// @Summary Retrieve the authenticated user
// @Tags user
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} map[string]string
// @Router /api/user/me [get]
func GetMe(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		prometheus.RecordAuthError("unauthorized_profile_access")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("User not found", zap.Uint("user_id", userID))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateMe handles full profile replacement
// @Summary Replace the authenticated user's profile
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 400 {object} map[string]string
// @Router /api/user/me [put]
func UpdateMe(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse profile update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	return applyUserUpdate(c, userID, &req.Email, &req.Name, passwordPtr(req.Password))
}

// PatchMe handles partial profile updates
// @Summary Partially update the authenticated user's profile
// @Tags user
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 400 {object} map[string]string
// @Router /api/user/me [patch]
func PatchMe(c echo.Context) error {
	log := logger.FromContext(c)

	userID, ok := c.Get("user_id").(uint)
	if !ok {
		log.Error("Failed to get user ID from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Email    *string `json:"email"`
		Name     *string `json:"name"`
		Password *string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse profile update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	return applyUserUpdate(c, userID, req.Email, req.Name, req.Password)
}

// applyUserUpdate merges the provided fields into the stored user. Nil
// fields are left untouched; a provided password is validated and re-hashed.
func applyUserUpdate(c echo.Context, userID uint, email, name, password *string) error {
	log := logger.FromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	if result := database.GetDB().First(&user, userID); result.Error != nil {
		log.Error("User not found for update", zap.Uint("user_id", userID))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	if email != nil && *email != "" {
		normalized := model.NormalizeEmail(*email)
		if normalized != user.Email {
			var count int64
			database.GetDB().Model(&model.User{}).
				Where("email = ? AND id != ?", normalized, userID).
				Count(&count)
			if count > 0 {
				log.Warn("Email already in use", zap.String("email", normalized))
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already registered"})
			}
			user.Email = normalized
		}
	}

	if name != nil {
		user.Name = *name
	}

	if password != nil && *password != "" {
		if len(*password) < MinPasswordLength {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 5 characters"})
		}
		if err := user.SetPassword(*password); err != nil {
			log.Error("Failed to hash password", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile update failed"})
		}
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	if result := database.GetDB().Save(&user); result.Error != nil {
		log.Error("Failed to update user", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile update failed"})
	}

	log.Info("Profile updated", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, user)
}

func passwordPtr(password string) *string {
	if password == "" {
		return nil
	}
	return &password
}
