package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/agreements-api/internal/dto"
	"github.com/noah-isme/agreements-api/internal/models"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
)

type fakeActivitySrv struct {
	created   *dto.ActivityRequest
	update    *dto.ActivityUpdateRequest
	completed string
}

func (f *fakeActivitySrv) ListByAgreement(_ context.Context, agreementID string) ([]models.Activity, error) {
	return []models.Activity{{ID: "act-1", AgreementID: agreementID}}, nil
}

func (f *fakeActivitySrv) Create(_ context.Context, agreementID string, req dto.ActivityRequest) (*models.Activity, error) {
	f.created = &req
	return &models.Activity{ID: "act-2", AgreementID: agreementID, Title: req.Title}, nil
}

func (f *fakeActivitySrv) Update(_ context.Context, id string, req dto.ActivityUpdateRequest) (*models.Activity, error) {
	f.update = &req
	return &models.Activity{ID: id}, nil
}

func (f *fakeActivitySrv) Complete(_ context.Context, id string) (*models.Activity, error) {
	f.completed = id
	return &models.Activity{ID: id, Completed: true}, nil
}

func (f *fakeActivitySrv) Delete(_ context.Context, id string) error {
	if id == "missing" {
		return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
	}
	return nil
}

func newActivityRouter(srv *fakeActivitySrv) http.Handler {
	h := NewActivityHandler(srv)
	r := newTestEngine(nil)
	r.GET("/agreements/:id/activities", h.ListByAgreement)
	r.POST("/agreements/:id/activities", h.Create)
	r.PATCH("/activities/:id", h.Update)
	r.POST("/activities/:id/complete", h.Complete)
	r.DELETE("/activities/:id", h.Delete)
	return r
}

func TestActivityHandlerCreateAndList(t *testing.T) {
	srv := &fakeActivitySrv{}
	router := newActivityRouter(srv)

	rec := perform(router, http.MethodPost, "/agreements/a1/activities", dto.ActivityRequest{Title: "Kick-off", StartDate: "2026-05-01", EndDate: "2026-05-02"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.created)
	assert.Equal(t, "Kick-off", srv.created.Title)

	rec = perform(router, http.MethodGet, "/agreements/a1/activities", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "act-1")
}

func TestActivityHandlerPatchKeepsOmittedFieldsNil(t *testing.T) {
	srv := &fakeActivitySrv{}
	rec := perform(newActivityRouter(srv), http.MethodPatch, "/activities/act-1", map[string]interface{}{"completed": true})

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.update)
	require.NotNil(t, srv.update.Completed)
	assert.True(t, *srv.update.Completed)
	assert.Nil(t, srv.update.Title)
}

func TestActivityHandlerCompleteAndDelete(t *testing.T) {
	srv := &fakeActivitySrv{}
	router := newActivityRouter(srv)

	rec := perform(router, http.MethodPost, "/activities/act-1/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "act-1", srv.completed)

	rec = perform(router, http.MethodDelete, "/activities/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(router, http.MethodDelete, "/activities/act-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
