package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

type fakeAuthSrv struct {
	login      models.LoginRequest
	logoutUser string
	logoutMeta models.RequestMeta
	loginErr   error
}

func (f *fakeAuthSrv) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.login = req
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 86400}, nil
}

func (f *fakeAuthSrv) RefreshToken(_ context.Context, req models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (f *fakeAuthSrv) Logout(_ context.Context, token, userID string, meta models.RequestMeta) error {
	f.logoutUser = userID
	f.logoutMeta = meta
	return nil
}

func (f *fakeAuthSrv) Me(_ context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID, Username: "jdoe"}, nil
}

func newAuthRouter(srv *fakeAuthSrv, claims *models.JWTClaims) http.Handler {
	h := NewAuthHandler(srv)
	r := newTestEngine(claims)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/refresh", h.Refresh)
	r.POST("/auth/logout", h.Logout)
	r.GET("/auth/me", h.Me)
	return r
}

func TestAuthHandlerLogin(t *testing.T) {
	srv := &fakeAuthSrv{}
	rec := perform(newAuthRouter(srv, nil), http.MethodPost, "/auth/login", map[string]interface{}{
		"username":    "jdoe@example.com",
		"password":    "password",
		"remember_me": true,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jdoe@example.com", srv.login.Identifier)
	assert.True(t, srv.login.RememberMe)
	assert.Equal(t, "handler-test", srv.login.UserAgent)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "access", envelope.Data["access_token"])
}

func TestAuthHandlerLoginFailure(t *testing.T) {
	srv := &fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials}
	rec := perform(newAuthRouter(srv, nil), http.MethodPost, "/auth/login", map[string]string{"username": "x", "password": "y"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, decodeError(rec))
}

func TestAuthHandlerLogoutRequiresAuth(t *testing.T) {
	rec := perform(newAuthRouter(&fakeAuthSrv{}, nil), http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "r"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	srv := &fakeAuthSrv{}
	router := newAuthRouter(srv, &models.JWTClaims{UserID: "u1"})

	rec := perform(router, http.MethodPost, "/auth/logout", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(router, http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "r"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", srv.logoutUser)
	assert.Equal(t, "handler-test", srv.logoutMeta.UserAgent)
}

func TestAuthHandlerMe(t *testing.T) {
	rec := perform(newAuthRouter(&fakeAuthSrv{}, &models.JWTClaims{UserID: "u9"}), http.MethodGet, "/auth/me", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "u9", envelope.Data["id"])
	assert.Nil(t, envelope.Data["profile"])
}
