package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

// roleTokens treats the bearer token as the caller's role.
type roleTokens struct{}

func (roleTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if token == "expired" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token expired")
	}
	return &models.JWTClaims{UserID: "user-" + token, Role: models.UserRole(token)}, nil
}

type recordingAudit struct {
	logs []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func buildRouter(audit *recordingAudit) *gin.Engine {
	r := newTestEngine(nil)
	Routes{
		Auth:          NewAuthHandler(&fakeAuthSrv{}),
		Dashboard:     NewDashboardHandler(&fakeDashboardSrv{resp: &dto.DashboardSummary{}}),
		Agreements:    NewAgreementHandler(&fakeAgreementSrv{}, &fakeReconciler{}),
		Reports:       NewReportHandler(&fakeReportSrv{}),
		Activities:    NewActivityHandler(&fakeActivitySrv{}),
		Supervisors:   NewSupervisorHandler(&fakeSupervisorSrv{assigned: map[string]bool{}}, &fakeEvaluationSrv{}),
		Users:         NewUserHandler(&fakeUserSrv{}),
		Notifications: NewNotificationHandler(&fakeNotificationSrv{}),
		Metrics:       NewMetricsHandler(nil, nil),
		Tokens:        roleTokens{},
		Audit:         audit,
	}.Register(r, "/api/v1")
	return r
}

func call(r http.Handler, method, target, token string) int {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouterAccessMatrix(t *testing.T) {
	router := buildRouter(&recordingAudit{})

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"health is public", http.MethodGet, "/health", "", http.StatusOK},
		{"dashboard requires token", http.MethodGet, "/api/v1/dashboard", "", http.StatusUnauthorized},
		{"expired token", http.MethodGet, "/api/v1/dashboard", "expired", http.StatusUnauthorized},
		{"student sees dashboard", http.MethodGet, "/api/v1/dashboard", "student", http.StatusOK},
		{"student lists agreements", http.MethodGet, "/api/v1/agreements", "student", http.StatusOK},
		{"student cannot delete agreement", http.MethodDelete, "/api/v1/agreements/a1", "student", http.StatusForbidden},
		{"supervisor cannot delete agreement", http.MethodDelete, "/api/v1/agreements/a1", "supervisor", http.StatusForbidden},
		{"admin deletes agreement", http.MethodDelete, "/api/v1/agreements/a1", "admin", http.StatusNoContent},
		{"student cannot list reports", http.MethodGet, "/api/v1/agreements/a1/reports", "student", http.StatusForbidden},
		{"supervisor lists reports", http.MethodGet, "/api/v1/agreements/a1/reports", "supervisor", http.StatusOK},
		{"supervisor cannot review", http.MethodPatch, "/api/v1/reports/r1", "supervisor", http.StatusForbidden},
		{"student cannot list supervisors", http.MethodGet, "/api/v1/supervisors", "student", http.StatusForbidden},
		{"supervisor cannot alert", http.MethodPost, "/api/v1/supervisors/s1/alerts", "supervisor", http.StatusForbidden},
		{"supervisor cannot list users", http.MethodGet, "/api/v1/users", "supervisor", http.StatusForbidden},
		{"admin lists users", http.MethodGet, "/api/v1/users", "admin", http.StatusOK},
		{"me requires token", http.MethodGet, "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"unknown role denied", http.MethodGet, "/api/v1/dashboard", "guest", http.StatusForbidden},
		{"unknown role reaches me", http.MethodGet, "/api/v1/auth/me", "guest", http.StatusOK},
		{"student reads notifications", http.MethodGet, "/api/v1/notifications", "student", http.StatusOK},
		{"system metrics admin only", http.MethodGet, "/api/v1/system/metrics", "supervisor", http.StatusForbidden},
		{"download needs no bearer", http.MethodGet, "/api/v1/agreements/a1/file/download", "", http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, call(router, tc.method, tc.path, tc.token))
		})
	}
}

func TestRouterAuditsAgreementMutations(t *testing.T) {
	audit := &recordingAudit{}
	router := buildRouter(audit)

	require.Equal(t, http.StatusNoContent, call(router, http.MethodDelete, "/api/v1/agreements/a1", "admin"))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAgreementDelete, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].ResourceID)
	assert.Equal(t, "a1", *audit.logs[0].ResourceID)

	require.Equal(t, http.StatusForbidden, call(router, http.MethodDelete, "/api/v1/agreements/a1", "student"))
	assert.Len(t, audit.logs, 1)
}
