package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rogerio-castellano/restock-analytics/internal/auth"
	"github.com/rogerio-castellano/restock-analytics/internal/logging"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// RegisterHandler godoc
// @Summary Register a new cashier and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "username and password"
// @Success 201 {object} RegisterResult
// @Failure 400 {array} ValidationError
// @Failure 409 {string} string "User exists"
// @Router /register [post]
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var creds CredentialsRequest
	if err := readJSON(w, r, &creds); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	creds.Username = strings.TrimSpace(creds.Username)

	if errs := validateRequest(creds); len(errs) > 0 {
		respond(w, r, http.StatusBadRequest, errs)
		return
	}

	user, ok := createUser(w, r, creds.Username, creds.Password, models.RoleCashier)
	if !ok {
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to generate token")
		http.Error(w, "failed to generate token", http.StatusInternalServerError)
		return
	}

	respond(w, r, http.StatusCreated, RegisterResult{Message: "user registered", Token: token})
}

// RegisterAsAdminHandler godoc
// @Summary Create user with custom role
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param user body RegisterAsAdminRequest true "User to create with role"
// @Success 201 {object} MessageResult
// @Failure 400 {array} ValidationError
// @Failure 403 {string} string "Forbidden"
// @Failure 409 {string} string "User exists"
// @Failure 500 {string} string "Server error"
// @Router /admin/users [post]
func RegisterAsAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterAsAdminRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if errs := validateRequest(req); len(errs) > 0 {
		respond(w, r, http.StatusBadRequest, errs)
		return
	}

	if _, ok := createUser(w, r, req.Username, req.Password, req.Role); !ok {
		return
	}
	respond(w, r, http.StatusCreated, MessageResult{Message: "user created"})
}

func createUser(w http.ResponseWriter, r *http.Request, username, password, role string) (models.User, bool) {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return models.User{}, false
	}

	user, err := userRepo.CreateUser(r.Context(), models.User{
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "username already exists", http.StatusConflict)
			return models.User{}, false
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to create user")
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return models.User{}, false
	}
	return user, true
}

// LoginHandler godoc
// @Summary Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body UserLogin true "username and password"
// @Success 200 {object} LoginResult
// @Failure 400 {string} string "Invalid input"
// @Failure 401 {string} string "Unauthorized"
// @Router /login [post]
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials UserLogin
	if err := readJSON(w, r, &credentials); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}

	user, err := userRepo.GetByUsername(r.Context(), credentials.Username)
	if err != nil {
		if !errors.Is(err, repo.ErrUserNotFound) {
			logging.Ctx(r.Context()).Error().Err(err).Msg("failed to load user")
		}
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, credentials.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user)
	if err != nil {
		http.Error(w, "could not generate token", http.StatusInternalServerError)
		return
	}

	respond(w, r, http.StatusOK, LoginResult{Token: token})
}
