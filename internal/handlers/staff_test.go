package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avrusin/storefront/internal/models"
)

func staffSignin(env *testEnv, email string) (int, map[string]any) {
	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/staff/signin", map[string]string{
		"email":    email,
		"password": "password123",
	})
	if err := env.Staff.Signin(c); err != nil {
		panic(err)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		panic(err)
	}
	return rec.Code, body
}

func TestStaffApprovalGate(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/staff/signup", signupPayload("staff@example.com", "9876543210"))
	require.NoError(t, env.Staff.Signup(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Status string       `json:"status"`
		Staff  models.Staff `json:"staff"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "pending", created.Status)
	require.False(t, created.Staff.Approved)

	// Signup issues no cookies; sign-in stays gated.
	require.Empty(t, rec.Result().Cookies())

	code, body := staffSignin(env, "staff@example.com")
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "pending", body["status"])

	recApprove, cApprove := env.doJSONRequest(http.MethodPost, fmt.Sprintf("/api/v1/admin/staff/%d/approve", created.Staff.ID), nil)
	cApprove.SetParamNames("id")
	cApprove.SetParamValues(fmt.Sprint(created.Staff.ID))
	asSubject(cApprove, 1, "admin")
	require.NoError(t, env.Admin.ApproveStaff(cApprove))
	require.Equal(t, http.StatusOK, recApprove.Code)

	code, body = staffSignin(env, "staff@example.com")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["status"])
	require.NotEmpty(t, body["access_token"])
}

func TestStaffRejection(t *testing.T) {
	env := newTestEnv(t)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/staff/signup", signupPayload("staff@example.com", "9876543210"))
	require.NoError(t, env.Staff.Signup(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var created struct {
		Staff models.Staff `json:"staff"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	recReject, cReject := env.doJSONRequest(http.MethodPost, fmt.Sprintf("/api/v1/admin/staff/%d/reject", created.Staff.ID), nil)
	cReject.SetParamNames("id")
	cReject.SetParamValues(fmt.Sprint(created.Staff.ID))
	asSubject(cReject, 1, "admin")
	require.NoError(t, env.Admin.RejectStaff(cReject))
	require.Equal(t, http.StatusOK, recReject.Code)

	code, body := staffSignin(env, "staff@example.com")
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, "rejected", body["status"])

	// Rejection wins even if the approved flag was set before.
	var row models.Staff
	require.NoError(t, env.DB.First(&row, created.Staff.ID).Error)
	require.False(t, row.Approved)
	require.True(t, row.Rejected)
}

func TestApproveUnknownStaff(t *testing.T) {
	env := newTestEnv(t)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/staff/99/approve", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	asSubject(c, 1, "admin")
	requireHTTPError(t, env.Admin.ApproveStaff(c), http.StatusNotFound)
}
