package auth_test

import (
	"testing"

	"github.com/lumen-media/lumen-server/apikeys"
	"github.com/lumen-media/lumen-server/auth"
	"github.com/stretchr/testify/require"
)

func TestIsGranted(t *testing.T) {
	tests := []struct {
		name      string
		requested []apikeys.Permission
		current   []apikeys.Permission
		want      bool
	}{
		{
			name:      "empty requested set is trivially granted",
			requested: nil,
			current:   nil,
			want:      true,
		},
		{
			name:      "wildcard grants everything",
			requested: []apikeys.Permission{apikeys.PermissionAdminUserDelete},
			current:   []apikeys.Permission{apikeys.PermissionAll},
			want:      true,
		},
		{
			name:      "wildcard grants even unknown requests",
			requested: []apikeys.Permission{"something.else"},
			current:   []apikeys.Permission{apikeys.PermissionAll},
			want:      true,
		},
		{
			name:      "exact match",
			requested: []apikeys.Permission{apikeys.PermissionAdminUserRead},
			current:   []apikeys.Permission{apikeys.PermissionAdminUserRead},
			want:      true,
		},
		{
			name:      "subset of a larger grant",
			requested: []apikeys.Permission{apikeys.PermissionAdminUserRead},
			current: []apikeys.Permission{
				apikeys.PermissionAdminUserCreate,
				apikeys.PermissionAdminUserRead,
				apikeys.PermissionAdminUserUpdate,
			},
			want: true,
		},
		{
			name:      "different single permission is denied",
			requested: []apikeys.Permission{apikeys.PermissionAdminUserCreate},
			current:   []apikeys.Permission{apikeys.PermissionAdminUserRead},
			want:      false,
		},
		{
			name: "one missing permission denies the whole request",
			requested: []apikeys.Permission{
				apikeys.PermissionAdminUserRead,
				apikeys.PermissionAdminUserDelete,
			},
			current: []apikeys.Permission{apikeys.PermissionAdminUserRead},
			want:    false,
		},
		{
			name:      "empty current set denies any request",
			requested: []apikeys.Permission{apikeys.PermissionAdminUserRead},
			current:   nil,
			want:      false,
		},
		{
			name: "duplicates and order are irrelevant",
			requested: []apikeys.Permission{
				apikeys.PermissionAdminUserRead,
				apikeys.PermissionAdminUserRead,
			},
			current: []apikeys.Permission{
				apikeys.PermissionAdminUserUpdate,
				apikeys.PermissionAdminUserRead,
				apikeys.PermissionAdminUserUpdate,
			},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, auth.IsGranted(tc.requested, tc.current))
		})
	}
}
