package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"goldtrader/internal/auth"
	"goldtrader/internal/db"
	"goldtrader/internal/middleware"
	"goldtrader/internal/models"
	"goldtrader/internal/validator"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username        string `json:"username" validate:"required,username"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	taken := validator.Errors{}
	if _, err := h.users.GetByUsername(r.Context(), req.Username); err == nil {
		taken["username"] = "a user with that username already exists"
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.respondServiceError(w, r, err, "registration")
		return
	}
	if _, err := h.users.GetByEmail(r.Context(), req.Email); err == nil {
		taken["email"] = "a user with that email already exists"
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.respondServiceError(w, r, err, "registration")
		return
	}
	if len(taken) > 0 {
		respondValidation(w, taken)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to secure password")
		return
	}
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = h.txRunner.WithTx(r.Context(), func(ctx context.Context, tx *sqlx.Tx) error {
		if err := h.users.Create(ctx, tx, user); err != nil {
			return err
		}
		return h.audit.Log(ctx, tx, user.ID, "register", "user", user.ID, map[string]string{
			"ip":         r.RemoteAddr,
			"user_agent": r.UserAgent(),
		})
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			respondValidation(w, validator.Errors{"username": "username or email already exists"})
			return
		}
		h.respondServiceError(w, r, err, "registration")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	h.logger.Info("user registered", zap.String("user_id", user.ID))
	respondJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  newUserView(user),
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.respondServiceError(w, r, err, "login")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	token, err := auth.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  newUserView(user),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.respondServiceError(w, r, err, "load user")
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}

const dateLayout = "2006-01-02"

type updateProfileRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=150"`
	LastName    *string `json:"last_name" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=20"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// apply copies the fields present in the request. An empty date_of_birth
// clears it.
func (req updateProfileRequest) apply(user *models.User) {
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = *req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		user.DateOfBirth = nil
		if *req.DateOfBirth != "" {
			dob, _ := time.Parse(dateLayout, *req.DateOfBirth)
			user.DateOfBirth = &dob
		}
	}
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		h.respondServiceError(w, r, err, "load user")
		return
	}
	req.apply(&user)
	err = h.txRunner.WithTx(r.Context(), func(ctx context.Context, tx *sqlx.Tx) error {
		if err := h.users.UpdateProfile(ctx, tx, user); err != nil {
			return err
		}
		return h.audit.Log(ctx, tx, user.ID, "profile.update", "user", user.ID, map[string]string{
			"first_name":   user.FirstName,
			"last_name":    user.LastName,
			"phone_number": user.PhoneNumber,
		})
	})
	if err != nil {
		h.respondServiceError(w, r, err, "update profile")
		return
	}
	respondJSON(w, http.StatusOK, newUserView(user))
}
