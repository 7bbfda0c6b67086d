package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/admin-console/internal/middleware"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/go-chi/chi/v5"
)

var (
	userCols = []string{"id", "name", "email", "last_login", "created_at", "updated_at"}
	roleCols = []string{"id", "name", "permissions", "created_at", "updated_at"}
	refCols  = []string{"user_id", "id", "name"}
)

var superadmin = middleware.Identity{UserID: 1, Email: "root@example.com", Roles: []string{models.RoleSuperAdmin}}

// requestWithChiURLParams builds a request with chi URL params set so handlers can read them via chi.URLParam.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

// asCaller attaches the authenticated identity the gate would set.
func asCaller(r *http.Request, id middleware.Identity) *http.Request {
	return r.WithContext(middleware.WithIdentity(r.Context(), id))
}

func jsonBody(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

// expectUserByID queues GetByID for a user holding the given roles.
func expectUserByID(mock sqlmock.Sqlmock, id int, name, email string, roles ...models.RoleRef) {
	now := time.Now()
	mock.ExpectQuery(`FROM users u WHERE u.id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(id, name, email, nil, now, now))
	rows := sqlmock.NewRows(refCols)
	for _, r := range roles {
		rows.AddRow(id, r.ID, r.Name)
	}
	mock.ExpectQuery(`FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = ANY`).
		WillReturnRows(rows)
}

func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

var errTest = errors.New("connection reset by peer")
