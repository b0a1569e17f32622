package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/morphsync/med-station-api/config"
	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

// User exported for testing purposes
type User struct {
	DB databases.UserDatabase
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Timezone string `json:"timezone"`
}

// UserCreateHandler registers a new subject account. Doctors and admins are
// provisioned out of band; the role defaults to ranger.
func (u User) UserCreateHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode user body", http.StatusBadRequest, w, err)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		config.ErrorStatus("invalid user", http.StatusBadRequest, w, errRequired("email"))
		return
	}
	if req.Password == "" {
		config.ErrorStatus("invalid user", http.StatusBadRequest, w, errRequired("password"))
		return
	}
	if req.Name == "" {
		config.ErrorStatus("invalid user", http.StatusBadRequest, w, errRequired("name"))
		return
	}
	if req.Role == "" {
		req.Role = models.RoleRanger
	}
	if req.Role != models.RoleRanger && req.Role != models.RoleDoctor && req.Role != models.RoleAdmin {
		config.ErrorStatus("invalid user", http.StatusBadRequest, w, errRequired("valid role"))
		return
	}
	if _, err := dosing.LoadLocation(req.Timezone); err != nil {
		config.ErrorStatus("invalid timezone", http.StatusBadRequest, w, err)
		return
	}

	count, err := u.DB.CountDocuments(context.TODO(), bson.M{"user.email": req.Email})
	if err != nil {
		config.ErrorStatus("failed to check existing email", http.StatusInternalServerError, w, err)
		return
	}
	if count > 0 {
		config.ErrorStatus("email already registered", http.StatusConflict, w, errRequired("unused email"))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		config.ErrorStatus("failed to hash password", http.StatusInternalServerError, w, err)
		return
	}

	_, err = u.DB.InsertOne(context.TODO(), models.UserDetails{
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
		Role:     req.Role,
		Timezone: req.Timezone,
	})
	if err != nil {
		config.ErrorStatus("failed to create user", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(`{"message": "user created"}`))
}
