package model

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &Recipe{}, &Tag{}, &Ingredient{}))
	return db
}

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)

	user, err := CreateUser(db, "user@example.com", "testpass123", "Test User")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "user@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsStaff)
	assert.False(t, user.IsSuperuser)

	// Password is stored hashed, never as plaintext
	assert.NotEqual(t, "testpass123", user.Password)
	assert.True(t, user.CheckPassword("testpass123"))
	assert.False(t, user.CheckPassword("wrongpass"))
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	db := setupTestDB(t)

	samples := map[string]string{
		"test1@EXAMPLE.com": "test1@example.com",
		"Test2@Example.com": "Test2@example.com",
		"TEST3@EXAMPLE.COM": "TEST3@example.com",
		"test4@example.COM": "test4@example.com",
	}

	for input, expected := range samples {
		user, err := CreateUser(db, input, "testpass123", "")
		require.NoError(t, err)
		assert.Equal(t, expected, user.Email)
	}
}

func TestCreateUserRequiresEmail(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateUser(db, "", "testpass123", "")
	assert.ErrorIs(t, err, ErrEmailRequired)
}

func TestCreateSuperuser(t *testing.T) {
	db := setupTestDB(t)

	user, err := CreateSuperuser(db, "admin@example.com", "testpass123")
	require.NoError(t, err)

	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsStaff)

	var stored User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.True(t, stored.IsSuperuser)
	assert.True(t, stored.IsStaff)
}

func TestDuplicateEmailRejected(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateUser(db, "user@example.com", "testpass123", "")
	require.NoError(t, err)

	_, err = CreateUser(db, "user@example.com", "otherpass123", "")
	assert.Error(t, err)
}
