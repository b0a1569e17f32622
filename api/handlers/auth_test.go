package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/morphsync/med-station-api/databases/mocks"
	"github.com/morphsync/med-station-api/models"
)

func loginBody(email, password string) *bytes.Buffer {
	b, _ := json.Marshal(map[string]string{"email": email, "password": password})
	return bytes.NewBuffer(b)
}

func hashedUser(role, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Email:    "doc@example.com",
			Password: string(hash),
			Name:     "Dana",
			Role:     role,
		},
	}
}

func TestLoginHandler(t *testing.T) {
	const secret = "test-secret"

	t.Run("doctor logs in and gets a role-bearing token", func(t *testing.T) {
		user := hashedUser(models.RoleDoctor, "hunter2")

		mockDB := mocks.NewUserDatabase(t)
		mockDB.On("FindOne", mock.Anything, mock.Anything).Return(user, nil)

		handler := Auth{DB: mockDB, JWTSecret: secret}
		req := httptest.NewRequest("POST", "/auth/login", loginBody("doc@example.com", "hunter2"))
		w := httptest.NewRecorder()

		handler.LoginHandler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Token string `json:"token"`
			User  struct {
				Role string `json:"role"`
			} `json:"user"`
		}
		err := json.NewDecoder(w.Body).Decode(&resp)
		assert.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, models.RoleDoctor, resp.User.Role)

		parsed, err := jwt.Parse(resp.Token, func(tok *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		assert.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		assert.Equal(t, models.RoleDoctor, claims["role"])
		assert.Equal(t, user.ID.Hex(), claims["sub"])
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		mockDB := mocks.NewUserDatabase(t)
		mockDB.On("FindOne", mock.Anything, mock.Anything).Return(hashedUser(models.RoleDoctor, "hunter2"), nil)

		handler := Auth{DB: mockDB, JWTSecret: secret}
		req := httptest.NewRequest("POST", "/auth/login", loginBody("doc@example.com", "wrong"))
		w := httptest.NewRecorder()

		handler.LoginHandler(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unknown email is unauthorized", func(t *testing.T) {
		mockDB := mocks.NewUserDatabase(t)
		mockDB.On("FindOne", mock.Anything, mock.Anything).Return(nil, assert.AnError)

		handler := Auth{DB: mockDB, JWTSecret: secret}
		req := httptest.NewRequest("POST", "/auth/login", loginBody("nobody@example.com", "hunter2"))
		w := httptest.NewRecorder()

		handler.LoginHandler(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("ranger role is forbidden", func(t *testing.T) {
		mockDB := mocks.NewUserDatabase(t)
		mockDB.On("FindOne", mock.Anything, mock.Anything).Return(hashedUser(models.RoleRanger, "hunter2"), nil)

		handler := Auth{DB: mockDB, JWTSecret: secret}
		req := httptest.NewRequest("POST", "/auth/login", loginBody("doc@example.com", "hunter2"))
		w := httptest.NewRecorder()

		handler.LoginHandler(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		mockDB := mocks.NewUserDatabase(t)

		handler := Auth{DB: mockDB, JWTSecret: secret}
		req := httptest.NewRequest("POST", "/auth/login", loginBody("", ""))
		w := httptest.NewRecorder()

		handler.LoginHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
