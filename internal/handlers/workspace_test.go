package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avrusin/storefront/internal/models"
	"github.com/avrusin/storefront/internal/mykafka"
)

func newWorkspaceHandler(env *testEnv) *WorkspaceHandler {
	return &WorkspaceHandler{DB: env.DB, Producer: &mykafka.Producer{}}
}

func TestCreateWorkspaceRecordsOwner(t *testing.T) {
	env := newTestEnv(t)
	h := newWorkspaceHandler(env)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/staff/workspaces", map[string]any{
		"name":        "Desk A",
		"location":    "2nd floor",
		"price":       1500,
		"description": "window seat",
	})
	asSubject(c, 3, "staff")
	require.NoError(t, h.CreateWorkspace(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var ws models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ws))
	require.NotZero(t, ws.ID)
	require.Equal(t, uint(3), ws.StaffID)
	require.Equal(t, int64(1500), ws.Price)
}

func TestCreateWorkspaceRequiresName(t *testing.T) {
	env := newTestEnv(t)
	h := newWorkspaceHandler(env)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/staff/workspaces", map[string]any{
		"location": "2nd floor",
	})
	asSubject(c, 3, "staff")
	requireHTTPError(t, h.CreateWorkspace(c), http.StatusBadRequest)
}

func TestPatchWorkspacePartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	h := newWorkspaceHandler(env)

	ws := models.Workspace{StaffID: 3, Name: "Desk A", Location: "2nd floor", Price: 1500}
	require.NoError(t, env.DB.Create(&ws).Error)

	rec, c := env.doJSONRequest(http.MethodPatch, fmt.Sprintf("/api/v1/staff/workspaces/%d", ws.ID), map[string]any{
		"price": 1800,
	})
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(ws.ID))
	asSubject(c, 3, "staff")
	require.NoError(t, h.PatchWorkspace(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, int64(1800), updated.Price)
	require.Equal(t, "Desk A", updated.Name)
	require.Equal(t, "2nd floor", updated.Location)
}

func TestDeleteWorkspace(t *testing.T) {
	env := newTestEnv(t)
	h := newWorkspaceHandler(env)

	ws := models.Workspace{StaffID: 3, Name: "Desk A"}
	require.NoError(t, env.DB.Create(&ws).Error)

	rec, c := env.doJSONRequest(http.MethodDelete, fmt.Sprintf("/api/v1/staff/workspaces/%d", ws.ID), nil)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(ws.ID))
	asSubject(c, 3, "staff")
	require.NoError(t, h.DeleteWorkspace(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Workspace{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestDeleteAllWorkspaces(t *testing.T) {
	env := newTestEnv(t)
	h := newWorkspaceHandler(env)

	for i := 0; i < 3; i++ {
		require.NoError(t, env.DB.Create(&models.Workspace{StaffID: 3, Name: fmt.Sprintf("Desk %d", i)}).Error)
	}

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/staff/workspaces", nil)
	asSubject(c, 3, "staff")
	require.NoError(t, h.DeleteAllWorkspaces(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Workspace{}).Count(&count).Error)
	require.Equal(t, int64(0), count)
}

func TestGetUnknownWorkspace(t *testing.T) {
	env := newTestEnv(t)
	h := newWorkspaceHandler(env)

	_, c := env.doJSONRequest(http.MethodGet, "/api/v1/staff/workspaces/99", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	asSubject(c, 3, "staff")
	requireHTTPError(t, h.GetWorkspace(c), http.StatusNotFound)
}
