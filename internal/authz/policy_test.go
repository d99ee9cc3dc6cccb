package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnrollments map[string]bool

func (f fakeEnrollments) IsEnrolled(_ context.Context, userID, courseID string) (bool, error) {
	return f[userID+"/"+courseID], nil
}

type failingEnrollments struct{}

func (failingEnrollments) IsEnrolled(context.Context, string, string) (bool, error) {
	return false, errors.New("backend unavailable")
}

func TestAuthorize(t *testing.T) {
	policy := NewPolicy(fakeEnrollments{
		"alice/cs101": true,
	})
	alice := Principal{UID: "alice"}
	bob := Principal{UID: "bob"}
	anon := Principal{}

	tests := []struct {
		name      string
		principal Principal
		path      string
		op        Operation
		allowed   bool
	}{
		{"owner reads own profile", alice, "users/alice", OpGet, true},
		{"owner updates own profile", alice, "users/alice", OpUpdate, true},
		{"owner cannot create profile", alice, "users/alice", OpCreate, false},
		{"owner cannot delete profile", alice, "users/alice", OpDelete, false},
		{"other principal cannot read profile", bob, "users/alice", OpGet, false},
		{"unauthenticated cannot read profile", anon, "users/alice", OpGet, false},

		{"owner reads own documents", alice, "users/alice/documents/x", OpGet, true},
		{"owner lists own documents", alice, "users/alice/documents", OpList, true},
		{"other principal cannot read documents", bob, "users/alice/documents/x", OpGet, false},
		{"owner cannot write documents", alice, "users/alice/documents/x", OpUpdate, false},
		{"owner cannot create documents", alice, "users/alice/documents/x", OpCreate, false},
		{"owner cannot delete documents", alice, "users/alice/documents/x", OpDelete, false},
		{"other principal cannot write documents", bob, "users/alice/documents/x", OpUpdate, false},

		{"owner reads formatted data", alice, "users/alice/formatted_data/syllabus", OpGet, true},
		{"owner reads combined data", alice, "users/alice/data/d1", OpGet, true},
		{"owner reads predictions", alice, "users/alice/predictions/p1", OpGet, true},
		{"owner cannot write predictions", alice, "users/alice/predictions/p1", OpUpdate, false},
		{"owner reads enrollment markers", alice, "users/alice/courses/cs101", OpGet, true},

		{"enrolled principal reads course", alice, "courses/cs101", OpGet, true},
		{"unenrolled principal cannot read course", bob, "courses/cs101", OpGet, false},
		{"unauthenticated cannot read course", anon, "courses/cs101", OpGet, false},
		{"enrolled principal cannot write course", alice, "courses/cs101", OpUpdate, false},

		{"unknown top-level path denied", alice, "admin/settings", OpGet, false},
		{"course collection list denied", alice, "courses", OpList, false},
		{"empty path denied", alice, "", OpGet, false},
		{"deep nested write denied", alice, "users/alice/documents/x/pages/1", OpUpdate, false},
		{"deep nested read allowed for owner", alice, "users/alice/documents/x/pages/1", OpGet, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Authorize(context.Background(), tt.principal, tt.path, tt.op)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrPermissionDenied)
			}
		})
	}
}

func TestAuthorizeEnrollmentCheckFailure(t *testing.T) {
	policy := NewPolicy(failingEnrollments{})

	err := policy.Authorize(context.Background(), Principal{UID: "alice"}, "courses/cs101", OpGet)
	require.Error(t, err)
	// A failed lookup denies access but is not reported as a plain denial.
	assert.NotErrorIs(t, err, ErrPermissionDenied)
}
