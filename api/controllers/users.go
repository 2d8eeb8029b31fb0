package controllers

import (
	"net/http"
	"strings"

	"github.com/autopartsvn/backend/api/middleware"
	"github.com/autopartsvn/backend/api/responses"
	"github.com/autopartsvn/backend/api/validators"
	usersvc "github.com/autopartsvn/backend/internal/users"
	pkgerrors "github.com/autopartsvn/backend/pkg/errors"
	"github.com/autopartsvn/backend/pkg/logger"
)

type updateProfileRequest struct {
	UserName string  `json:"userName"`
	FullName *string `json:"fullName"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
}

type updateAvatarRequest struct {
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatarUrl" validate:"required,url"`
}

// resolveUserName prefers an explicit value and falls back to the
// authenticated caller.
func resolveUserName(r *http.Request, explicit string) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	return middleware.UserNameFromContext(r.Context())
}

func UserProfile(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userName := resolveUserName(r, r.URL.Query().Get("userName"))
		profile, err := svc.GetByUsername(r.Context(), userName)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func UserUpdate(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), usersvc.UpdateProfileInput{
			UserName: resolveUserName(r, body.UserName),
			FullName: body.FullName,
			Email:    body.Email,
			Address:  body.Address,
			Phone:    body.Phone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func UserAvatar(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		var body updateAvatarRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateAvatar(r.Context(), resolveUserName(r, body.UserName), body.AvatarURL)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
