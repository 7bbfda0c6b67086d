package handlers

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/admin-console/internal/models"
	"github.com/crucial707/admin-console/internal/repo"
)

func newUserHandler(t *testing.T) (*UserHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return &UserHandler{Store: repo.NewStore(db)}, mock, func() { db.Close() }
}

func TestUserHandler_ListUsers(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users u$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`FROM users u ORDER BY u.created_at DESC, u.id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(2, "Bob", "bob@example.com", nil, now, now).
			AddRow(1, "Root", "root@example.com", now, now, now))
	mock.ExpectQuery(`FROM user_roles ur`).
		WillReturnRows(sqlmock.NewRows(refCols).AddRow(1, 1, "superadmin"))

	rr := httptest.NewRecorder()
	h.ListUsers(rr, httptest.NewRequest("GET", "/api/v1/superadmin/users", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("ListUsers status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeBody(t, rr)
	users, _ := out["users"].([]interface{})
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", out["users"])
	}
	bob := users[0].(map[string]interface{})
	if roles, _ := bob["roles"].([]interface{}); roles == nil || len(roles) != 0 {
		t.Errorf("expected empty roles array for bob, got %v", bob["roles"])
	}
	p := out["pagination"].(map[string]interface{})
	if p["total"] != float64(2) || p["page"] != float64(1) || p["limit"] != float64(10) || p["totalPages"] != float64(1) {
		t.Errorf("unexpected pagination: %v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_ListUsers_Filters(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users u WHERE \(u.name ILIKE \$1 OR u.email ILIKE \$1\) AND EXISTS`).
		WithArgs("%ali%", "superadmin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`LIMIT \$3 OFFSET \$4`).
		WithArgs("%ali%", "superadmin", 5, 5).
		WillReturnRows(sqlmock.NewRows(userCols))

	rr := httptest.NewRecorder()
	h.ListUsers(rr, httptest.NewRequest("GET", "/api/v1/superadmin/users?page=2&limit=5&search=ali&role=superadmin", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("ListUsers status: got %d, want 200", rr.Code)
	}
	out := decodeBody(t, rr)
	if users, _ := out["users"].([]interface{}); users == nil || len(users) != 0 {
		t.Errorf("expected empty users array, got %v", out["users"])
	}
	p := out["pagination"].(map[string]interface{})
	if p["total"] != float64(7) || p["page"] != float64(2) || p["totalPages"] != float64(2) {
		t.Errorf("unexpected pagination: %v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_ListUsers_PageBeyondRange(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users u$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`LIMIT \$1 OFFSET \$2`).
		WithArgs(100, (math.MaxInt/100-1)*100).
		WillReturnRows(sqlmock.NewRows(userCols))

	rr := httptest.NewRecorder()
	h.ListUsers(rr, httptest.NewRequest("GET", "/api/v1/superadmin/users?limit=100&page=922337203685477580", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("ListUsers status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if users, _ := out["users"].([]interface{}); users == nil || len(users) != 0 {
		t.Errorf("expected empty users array, got %v", out["users"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUser(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	expectUserByID(mock, 1, "Root", "root@example.com", models.RoleRef{ID: 1, Name: "superadmin"})
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs a WHERE a.actor_user_id = \$1 AND a.action = \$2`).
		WithArgs(1, "LOGIN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	req := requestWithChiURLParams("GET", "/api/v1/superadmin/users/1", nil, map[string]string{"id": "1"})
	rr := httptest.NewRecorder()
	h.GetUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("GetUser status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeBody(t, rr)
	if out["email"] != "root@example.com" {
		t.Errorf("unexpected user: %v", out)
	}
	activity := out["activitySummary"].(map[string]interface{})
	if activity["loginCount"] != float64(3) {
		t.Errorf("loginCount: got %v, want 3", activity["loginCount"])
	}
	if _, leaked := out["hashedPassword"]; leaked {
		t.Error("credential must not be serialized")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectQuery(`FROM users u WHERE u.id = \$1`).
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows(userCols))

	req := requestWithChiURLParams("GET", "/api/v1/superadmin/users/999", nil, map[string]string{"id": "999"})
	rr := httptest.NewRecorder()
	h.GetUser(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("GetUser status: got %d, want 404", rr.Code)
	}
	if out := decodeBody(t, rr); out["error"] != "User not found" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUser_InvalidID(t *testing.T) {
	h, _, done := newUserHandler(t)
	defer done()

	req := requestWithChiURLParams("GET", "/api/v1/superadmin/users/abc", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.GetUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("GetUser status: got %d, want 400", rr.Code)
	}
}

func TestUserHandler_CreateUser(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("carol@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users AS u \(name, email, hashed_password\)`).
		WithArgs("Carol", "carol@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "Carol", "carol@example.com", nil, now, now))
	mock.ExpectExec(`INSERT INTO user_roles`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(1, "CREATE_USER", "User", 5, `{"assignedRoles":[2],"email":"carol@example.com","name":"Carol"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectUserByID(mock, 5, "Carol", "carol@example.com", models.RoleRef{ID: 2, Name: "user"})
	mock.ExpectCommit()

	body := jsonBody(t, map[string]interface{}{
		"name": "Carol", "email": "carol@example.com", "password": "password123", "roleIds": []int{2},
	})
	req := asCaller(httptest.NewRequest("POST", "/api/v1/superadmin/users", bytesReader(body)), superadmin)
	rr := httptest.NewRecorder()
	h.CreateUser(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateUser status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	out := decodeBody(t, rr)
	user := out["user"].(map[string]interface{})
	roles := user["roles"].([]interface{})
	if user["id"] != float64(5) || len(roles) != 1 || roles[0].(map[string]interface{})["name"] != "user" {
		t.Errorf("unexpected user: %v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_CreateUser_MissingFields(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	body := jsonBody(t, map[string]string{"name": "Carol"})
	req := asCaller(httptest.NewRequest("POST", "/api/v1/superadmin/users", bytesReader(body)), superadmin)
	rr := httptest.NewRecorder()
	h.CreateUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("CreateUser status: got %d, want 400", rr.Code)
	}
	out := decodeBody(t, rr)
	if out["error"] != "Name, email, and password are required" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	fields := out["fields"].(map[string]interface{})
	if fields["email"] != "required" || fields["password"] != "required" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_CreateUser_DuplicateEmail(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	body := jsonBody(t, map[string]string{"name": "Dup", "email": "root@example.com", "password": "x"})
	req := asCaller(httptest.NewRequest("POST", "/api/v1/superadmin/users", bytesReader(body)), superadmin)
	rr := httptest.NewRecorder()
	h.CreateUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("CreateUser status: got %d, want 400", rr.Code)
	}
	if out := decodeBody(t, rr); out["error"] != "Email already exists" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_CreateUser_RollsBackWhenAuditFails(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(5, "Carol", "carol@example.com", nil, now, now))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WillReturnError(errTest)
	mock.ExpectRollback()

	body := jsonBody(t, map[string]string{"name": "Carol", "email": "carol@example.com", "password": "x"})
	req := asCaller(httptest.NewRequest("POST", "/api/v1/superadmin/users", bytesReader(body)), superadmin)
	rr := httptest.NewRecorder()
	h.CreateUser(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("CreateUser status: got %d, want 500", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser_ReplacesRoles(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users AS u SET name = COALESCE\(NULLIF\(\$1, ''\), u.name\)`).
		WithArgs("Bobby", "", 2).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(2, "Bobby", "bob@example.com", nil, now, now))
	mock.ExpectExec(`DELETE FROM user_roles WHERE user_id = \$1`).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(1, "UPDATE_USER", "User", 2, `{"email":"","name":"Bobby","roleIds":[]}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectUserByID(mock, 2, "Bobby", "bob@example.com")
	mock.ExpectCommit()

	body := []byte(`{"name":"Bobby","roleIds":[]}`)
	req := asCaller(requestWithChiURLParams("PUT", "/api/v1/superadmin/users/2", body, map[string]string{"id": "2"}), superadmin)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateUser status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	user := decodeBody(t, rr)["user"].(map[string]interface{})
	if roles, _ := user["roles"].([]interface{}); user["name"] != "Bobby" || roles == nil || len(roles) != 0 {
		t.Errorf("unexpected user: %v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser_KeepsRolesWhenOmitted(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users AS u`).
		WithArgs("", "bob2@example.com", 2).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(2, "Bob", "bob2@example.com", nil, now, now))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(1, "UPDATE_USER", "User", 2, `{"email":"bob2@example.com","name":"","roleIds":null}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectUserByID(mock, 2, "Bob", "bob2@example.com", models.RoleRef{ID: 2, Name: "user"})
	mock.ExpectCommit()

	body := []byte(`{"email":"bob2@example.com"}`)
	req := asCaller(requestWithChiURLParams("PUT", "/api/v1/superadmin/users/2", body, map[string]string{"id": "2"}), superadmin)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateUser status: got %d, want 200", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser_NotFound(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE users AS u`).
		WithArgs("Ghost", "", 404).
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	body := []byte(`{"name":"Ghost"}`)
	req := asCaller(requestWithChiURLParams("PUT", "/api/v1/superadmin/users/404", body, map[string]string{"id": "404"}), superadmin)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("UpdateUser status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser_InvalidEmail(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	body := []byte(`{"email":"not-an-email"}`)
	req := asCaller(requestWithChiURLParams("PUT", "/api/v1/superadmin/users/2", body, map[string]string{"id": "2"}), superadmin)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("UpdateUser status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectBegin()
	expectUserByID(mock, 2, "Bob", "bob@example.com")
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(1, "DELETE_USER", "User", 2, `{"deletedUserEmail":"bob@example.com"}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	req := asCaller(requestWithChiURLParams("DELETE", "/api/v1/superadmin/users/2", nil, map[string]string{"id": "2"}), superadmin)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("DeleteUser status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if out := decodeBody(t, rr); out["message"] != "User deleted successfully" {
		t.Errorf("unexpected message: %v", out["message"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser_Self(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	req := asCaller(requestWithChiURLParams("DELETE", "/api/v1/superadmin/users/1", nil, map[string]string{"id": "1"}), superadmin)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("DeleteUser status: got %d, want 400", rr.Code)
	}
	if out := decodeBody(t, rr); out["error"] != "Cannot delete your own account" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser_NotFound(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM users u WHERE u.id = \$1`).
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	req := asCaller(requestWithChiURLParams("DELETE", "/api/v1/superadmin/users/999", nil, map[string]string{"id": "999"}), superadmin)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("DeleteUser status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser_NoIdentity(t *testing.T) {
	h, _, done := newUserHandler(t)
	defer done()

	req := requestWithChiURLParams("DELETE", "/api/v1/superadmin/users/2", nil, map[string]string{"id": "2"})
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("DeleteUser status: got %d, want 401", rr.Code)
	}
}

func TestUserHandler_AssignRole(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectBegin()
	expectUserByID(mock, 2, "Bob", "bob@example.com")
	mock.ExpectQuery(`FROM roles WHERE id = \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(roleCols).AddRow(3, "user", "{read}", now, now))
	mock.ExpectExec(`INSERT INTO user_roles`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(1, "ASSIGN_ROLE", "User", 2, `{"assignedRole":"user","roleId":3}`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	body := jsonBody(t, map[string]int{"userId": 2, "roleId": 3})
	req := asCaller(httptest.NewRequest("POST", "/api/v1/superadmin/assign-role", bytesReader(body)), superadmin)
	rr := httptest.NewRecorder()
	h.AssignRole(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("AssignRole status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if out := decodeBody(t, rr); out["message"] != "Role assigned successfully" {
		t.Errorf("unexpected message: %v", out["message"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_AssignRole_MissingIDs(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	body := jsonBody(t, map[string]int{"userId": 2})
	req := asCaller(httptest.NewRequest("POST", "/api/v1/superadmin/assign-role", bytesReader(body)), superadmin)
	rr := httptest.NewRecorder()
	h.AssignRole(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("AssignRole status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_AssignRole_RoleNotFound(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectBegin()
	expectUserByID(mock, 2, "Bob", "bob@example.com")
	mock.ExpectQuery(`FROM roles WHERE id = \$1`).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(roleCols))
	mock.ExpectRollback()

	body := jsonBody(t, map[string]int{"userId": 2, "roleId": 99})
	req := asCaller(httptest.NewRequest("POST", "/api/v1/superadmin/assign-role", bytesReader(body)), superadmin)
	rr := httptest.NewRecorder()
	h.AssignRole(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("AssignRole status: got %d, want 404", rr.Code)
	}
	if out := decodeBody(t, rr); out["error"] != "User or role not found" {
		t.Errorf("unexpected error: %v", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
