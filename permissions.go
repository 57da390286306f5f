package guard

// Canonical permission keys recognized by the surrounding platform. The list
// is shared with the external tool that edits role documents; keeping it here
// lets config validation flag typos. The engine itself never rejects a key
// outside this list - unknown keys simply resolve to false when queried.
const (
	PermCMSEdit           = "cms_edit"
	PermCMSPublish        = "cms_publish"
	PermResourcesDownload = "resources_download"
	PermResourcesUpload   = "resources_upload"
	PermActivitiesView    = "activities_view"
	PermActivitiesManage  = "activities_manage"
	PermUsersManage       = "users_manage"
	PermRolesManage       = "roles_manage"
	PermReportsView       = "reports_view"
	PermSettingsManage    = "settings_manage"
)

// KnownPermissionKeys returns the canonical permission-key enumeration in a
// stable order.
func KnownPermissionKeys() []string {
	return []string{
		PermCMSEdit,
		PermCMSPublish,
		PermResourcesDownload,
		PermResourcesUpload,
		PermActivitiesView,
		PermActivitiesManage,
		PermUsersManage,
		PermRolesManage,
		PermReportsView,
		PermSettingsManage,
	}
}

// IsKnownPermission reports whether key belongs to the canonical enumeration.
func IsKnownPermission(key string) bool {
	for _, k := range KnownPermissionKeys() {
		if k == key {
			return true
		}
	}
	return false
}
