package stores

import (
	"context"
	"database/sql"
	"testing"

	"github.com/oarkflow/guard"
	"github.com/oarkflow/squealx"
	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *squealx.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	db := squealx.NewDb(sqlDB, "sqlite", "testdb")
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSQLRoleSourceRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewSQLRoleSource(newTestDB(t))

	admin := &guard.Role{
		Key: "ADMIN", Name: "Administrator", Description: "full access",
		IsSystem: true, DisplayOrder: 1,
		Permissions: map[string]bool{guard.PermCMSEdit: true, guard.PermUsersManage: true},
	}
	user := &guard.Role{
		Key: "REGISTERED_USER", Name: "Registered User", DisplayOrder: 2,
		Permissions: map[string]bool{guard.PermResourcesDownload: true},
	}
	if err := src.SaveRole(ctx, admin); err != nil {
		t.Fatalf("save admin: %v", err)
	}
	if err := src.SaveRole(ctx, user); err != nil {
		t.Fatalf("save user: %v", err)
	}

	roles, err := src.FetchRoles(ctx)
	if err != nil {
		t.Fatalf("fetch roles: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
	if roles[0].Key != "ADMIN" || roles[1].Key != "REGISTERED_USER" {
		t.Fatalf("expected display_order ordering, got %s, %s", roles[0].Key, roles[1].Key)
	}
	if !roles[0].IsSystem || roles[1].IsSystem {
		t.Fatalf("is_system flags lost in round trip")
	}
	if !roles[0].Permissions[guard.PermUsersManage] {
		t.Fatalf("permission map lost in round trip: %v", roles[0].Permissions)
	}
	if roles[0].UpdatedAt.IsZero() {
		t.Fatalf("updated_at not populated")
	}
}

func TestSQLRoleSourceUpsert(t *testing.T) {
	ctx := context.Background()
	src := NewSQLRoleSource(newTestDB(t))

	role := &guard.Role{Key: "EDITOR", Name: "Editor", Permissions: map[string]bool{guard.PermCMSEdit: true}}
	if err := src.SaveRole(ctx, role); err != nil {
		t.Fatalf("save: %v", err)
	}
	role.Name = "Senior Editor"
	role.Permissions[guard.PermCMSPublish] = true
	if err := src.SaveRole(ctx, role); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	roles, err := src.FetchRoles(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(roles) != 1 {
		t.Fatalf("upsert must not duplicate the document, got %d rows", len(roles))
	}
	if roles[0].Name != "Senior Editor" || !roles[0].Permissions[guard.PermCMSPublish] {
		t.Fatalf("update lost: %+v", roles[0])
	}
}

func TestSQLRoleSourceDelete(t *testing.T) {
	ctx := context.Background()
	src := NewSQLRoleSource(newTestDB(t))

	if err := src.SaveRole(ctx, &guard.Role{Key: "TEMP", Name: "Temp", Permissions: map[string]bool{}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := src.DeleteRole(ctx, "TEMP"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	roles, err := src.FetchRoles(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(roles) != 0 {
		t.Fatalf("expected empty collection after delete, got %d", len(roles))
	}
}

func TestMemoryRoleSource(t *testing.T) {
	ctx := context.Background()
	role := &guard.Role{Key: "R", Permissions: map[string]bool{guard.PermReportsView: true}}
	src := NewMemoryRoleSource(role)

	roles, err := src.FetchRoles(ctx)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(roles) != 1 || src.Fetches() != 1 {
		t.Fatalf("expected one role and one recorded fetch")
	}

	// fetched roles are clones
	roles[0].Permissions[guard.PermReportsView] = false
	again, _ := src.FetchRoles(ctx)
	if !again[0].Permissions[guard.PermReportsView] {
		t.Fatalf("fetch results must not alias stored roles")
	}

	src.Fail(context.DeadlineExceeded)
	if _, err := src.FetchRoles(ctx); err == nil {
		t.Fatalf("expected injected failure")
	}
	src.Fail(nil)
	if _, err := src.FetchRoles(ctx); err != nil {
		t.Fatalf("expected healed source, got %v", err)
	}
}
