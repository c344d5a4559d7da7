package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

type fakePerms struct {
	grants map[uint64][]string
	err    error
}

func (f *fakePerms) Permissions(_ context.Context, userID uint64) ([]model.Permission, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.Permission
	for i, code := range f.grants[userID] {
		out = append(out, model.Permission{ID: uint64(i + 1), Codename: code})
	}
	return out, nil
}

func permRequest(t *testing.T, mw echo.MiddlewareFunc, userID uint64, role string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/v1/staff/companies/1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user_id", userID)
		c.Set("role", role)
	}
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec
}

func TestRequirePermission(t *testing.T) {
	perms := &fakePerms{grants: map[uint64][]string{
		7: {model.PermManageCompanies, model.PermManagePosts},
		8: {model.PermManagePosts},
	}}
	mw := RequirePermission(perms, model.PermManageCompanies)

	if rec := permRequest(t, mw, 7, model.RoleStaff); rec.Code != http.StatusOK {
		t.Fatalf("granted staff: %d", rec.Code)
	}
	if rec := permRequest(t, mw, 8, model.RoleStaff); rec.Code != http.StatusForbidden {
		t.Fatalf("ungranted staff: %d, want 403", rec.Code)
	}
	if rec := permRequest(t, mw, 0, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous: %d, want 403", rec.Code)
	}
}

func TestRequirePermissionSuperuserBypass(t *testing.T) {
	perms := &fakePerms{grants: map[uint64][]string{}}
	mw := RequirePermission(perms, model.PermManageUsers)
	if rec := permRequest(t, mw, 9, model.RoleSuperuser); rec.Code != http.StatusOK {
		t.Fatalf("superuser: %d, want 200", rec.Code)
	}
}

func TestRequirePermissionLookupFailure(t *testing.T) {
	perms := &fakePerms{err: errors.New("db down")}
	mw := RequirePermission(perms, model.PermManageUsers)
	if rec := permRequest(t, mw, 7, model.RoleStaff); rec.Code != http.StatusInternalServerError {
		t.Fatalf("lookup failure: %d, want 500", rec.Code)
	}
}
