// Package authz is the fail-closed, path-based authorization ruleset enforced
// in front of the document store. It mirrors the storage layer's declarative
// security rules as a stateless predicate: every read or write the service
// performs on behalf of a principal passes through Policy.Authorize first.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Operation is the kind of storage access being requested.
type Operation string

const (
	OpGet    Operation = "get"
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// IsRead reports whether the operation only observes state.
func (op Operation) IsRead() bool {
	return op == OpGet || op == OpList
}

// Principal is an authenticated identity. The zero value is the
// unauthenticated principal.
type Principal struct {
	UID string
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UID != ""
}

// EnrollmentChecker answers whether an enrollment marker exists at
// users/{userID}/courses/{courseID}. The shared course-catalog rule depends
// on it.
type EnrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

// ErrPermissionDenied is returned for every denied request. Denials are
// opaque and all-or-nothing per path; callers must not retry them.
var ErrPermissionDenied = errors.New("permission denied")

// Policy evaluates the access rules. It holds no per-request state; the only
// stored lookup it performs is the course enrollment existence check.
type Policy struct {
	enrollments EnrollmentChecker
}

func NewPolicy(enrollments EnrollmentChecker) *Policy {
	return &Policy{enrollments: enrollments}
}

// Authorize decides whether principal may perform op on the record at path.
// Paths are slash-separated storage paths such as "users/u1/documents/d1".
// Rules are checked most-specific first; anything unmatched is denied.
func (p *Policy) Authorize(ctx context.Context, principal Principal, path string, op Operation) error {
	segs := split(path)

	switch {
	// users/{userId}: the principal's own profile record. Read and update
	// only; create and delete are reserved for the backend functions.
	case len(segs) == 2 && segs[0] == "users":
		if isOwner(principal, segs[1]) && (op.IsRead() || op == OpUpdate) {
			return nil
		}

	// Any subcollection under users/{userId} (documents, formatted_data,
	// data, predictions, courses): owner may read, nobody may write through
	// this layer. Mutations are the exclusive privilege of the backend
	// functions, which operate with elevated trust outside this policy.
	case len(segs) >= 3 && segs[0] == "users":
		if isOwner(principal, segs[1]) && op.IsRead() {
			return nil
		}

	// courses/{courseId}: shared catalog entry, readable by any
	// authenticated principal holding an enrollment marker for it.
	case len(segs) == 2 && segs[0] == "courses":
		if principal.Authenticated() && op.IsRead() {
			enrolled, err := p.enrollments.IsEnrolled(ctx, principal.UID, segs[1])
			if err != nil {
				return fmt.Errorf("enrollment check for %s: %w", path, err)
			}
			if enrolled {
				return nil
			}
		}
	}

	// Fail-closed default: no rule matched, or the matching rule did not
	// grant access.
	return fmt.Errorf("%s %s: %w", op, path, ErrPermissionDenied)
}

func isOwner(p Principal, userID string) bool {
	return p.Authenticated() && p.UID == userID
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
