package model

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrEmailRequired is returned when a user is created without an email address
var ErrEmailRequired = errors.New("user must have an email address")

// User represents the user model stored in the database
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Name        string    `json:"name" gorm:"type:varchar(255)"`
	Password    string    `json:"-" gorm:"type:varchar(255)"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	IsStaff     bool      `json:"is_staff" gorm:"default:false"`
	IsSuperuser bool      `json:"is_superuser" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeEmail lower-cases the domain part of an email address. The
// local part is left untouched since it is case sensitive per RFC 5321.
func NormalizeEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

// CreateUser creates, saves and returns a new user with a hashed password
func CreateUser(db *gorm.DB, email, password, name string) (*User, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}

	user := &User{
		Email:    NormalizeEmail(email),
		Name:     name,
		IsActive: true,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	if result := db.Create(user); result.Error != nil {
		return nil, result.Error
	}

	return user, nil
}

// CreateSuperuser creates a user with staff and superuser flags set
func CreateSuperuser(db *gorm.DB, email, password string) (*User, error) {
	user, err := CreateUser(db, email, password, "")
	if err != nil {
		return nil, err
	}

	user.IsStaff = true
	user.IsSuperuser = true
	if result := db.Save(user); result.Error != nil {
		return nil, result.Error
	}

	return user, nil
}

// SetPassword hashes the plaintext password and stores the hash on the user
func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
