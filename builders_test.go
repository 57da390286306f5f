package guard

import (
	"context"
	"testing"
	"time"
)

func TestRoleBuilder(t *testing.T) {
	r := NewRoleBuilder("EDITOR").
		Name("Editor").
		Description("edits content").
		System().
		Order(5).
		Grant(PermCMSEdit, PermResourcesDownload).
		Deny(PermUsersManage).
		Build()

	if r.Key != "EDITOR" || !r.IsSystem || r.DisplayOrder != 5 {
		t.Fatalf("role fields lost: %+v", r)
	}
	if !r.HasPermission(PermCMSEdit) || r.HasPermission(PermUsersManage) {
		t.Fatalf("permission grants wrong: %v", r.Permissions)
	}
}

func TestConfigBuilderProducesWorkingEngine(t *testing.T) {
	ctx := context.Background()
	cfg := NewConfigBuilder().
		RoleCacheTTL(time.Minute).
		OverridePermission(PermSettingsManage).
		MapAction("export_everything", PermReportsView).
		AddFallbackRole(NewRoleBuilder("ANALYST").Grant(PermReportsView).Build()).
		Build()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	src := stubEmptySource{}
	eng, cache, err := NewFromConfig(src, cfg, nil)
	if err != nil {
		t.Fatalf("new from config: %v", err)
	}
	cache.GetAllRoles(ctx)
	if !cache.UsingFallback() {
		t.Fatalf("empty source must activate the configured fallback table")
	}

	analyst := &Principal{UserID: "1", Role: "ANALYST", Authenticated: true}
	if !eng.Can(ctx, analyst, "export_everything", nil) {
		t.Fatalf("built config must map the action onto reports_view")
	}
}

// stubEmptySource always returns zero roles so the fallback table applies.
type stubEmptySource struct{}

func (stubEmptySource) FetchRoles(ctx context.Context) ([]*Role, error) {
	return nil, nil
}
