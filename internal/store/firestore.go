// Package store is the policy-gated persistence layer. Every operation a
// principal triggers is authorized before it touches Firestore, at the same
// layer as persistence; a client-side check alone is never trusted. The
// store exposes no way to create, mutate, or delete document records: those
// writes belong exclusively to the backend processing functions.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pcubed/gradeboard/internal/authz"
	"github.com/pcubed/gradeboard/internal/models"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// Store wraps a Firestore client with the access-control policy.
type Store struct {
	client *firestore.Client
	policy *authz.Policy
	log    logger.Logger
}

// New builds a Store and wires its enrollment check into the policy the
// courses rule consults.
func New(client *firestore.Client, log logger.Logger) *Store {
	s := &Store{client: client, log: log}
	s.policy = authz.NewPolicy(s)
	return s
}

// Policy exposes the policy for callers that authorize paths directly.
func (s *Store) Policy() *authz.Policy {
	return s.policy
}

func profilePath(userID string) string {
	return fmt.Sprintf("users/%s", userID)
}

func documentsPath(userID string) string {
	return fmt.Sprintf("users/%s/documents", userID)
}

func coursePath(courseID string) string {
	return fmt.Sprintf("courses/%s", courseID)
}

// GetProfile reads the principal-scoped profile record.
func (s *Store) GetProfile(ctx context.Context, principal authz.Principal, userID string) (*models.Profile, error) {
	path := profilePath(userID)
	if err := s.policy.Authorize(ctx, principal, path, authz.OpGet); err != nil {
		return nil, err
	}

	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", path, err)
	}
	var profile models.Profile
	if err := snap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return &profile, nil
}

// UpdateProfile updates the mutable profile fields. This is the only
// client-side write the policy permits anywhere in the tree.
func (s *Store) UpdateProfile(ctx context.Context, principal authz.Principal, userID string, profile models.Profile) error {
	path := profilePath(userID)
	if err := s.policy.Authorize(ctx, principal, path, authz.OpUpdate); err != nil {
		return err
	}

	_, err := s.client.Doc(path).Update(ctx, []firestore.Update{
		{Path: "displayName", Value: profile.DisplayName},
		{Path: "email", Value: profile.Email},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("update profile %s: %w", path, err)
	}
	return nil
}

// GetCourse reads a shared course-catalog entry; the policy requires an
// enrollment marker for the requesting principal.
func (s *Store) GetCourse(ctx context.Context, principal authz.Principal, courseID string) (*models.Course, error) {
	path := coursePath(courseID)
	if err := s.policy.Authorize(ctx, principal, path, authz.OpGet); err != nil {
		return nil, err
	}

	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get course %s: %w", path, err)
	}
	var course models.Course
	if err := snap.DataTo(&course); err != nil {
		return nil, fmt.Errorf("decode course %s: %w", path, err)
	}
	course.ID = snap.Ref.ID
	return &course, nil
}

// IsEnrolled reports whether an enrollment marker exists at
// users/{userID}/courses/{courseID}. It backs the policy's course rule and
// is deliberately not policy-gated itself; gating it would recurse.
func (s *Store) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	snap, err := s.client.Doc(fmt.Sprintf("users/%s/courses/%s", userID, courseID)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("enrollment lookup: %w", err)
	}
	return snap.Exists(), nil
}

// ListDocuments reads the principal's document set once.
func (s *Store) ListDocuments(ctx context.Context, principal authz.Principal, userID string) (models.Snapshot, error) {
	path := documentsPath(userID)
	if err := s.policy.Authorize(ctx, principal, path, authz.OpList); err != nil {
		return nil, err
	}

	docs, err := s.client.Collection(path).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list documents %s: %w", path, err)
	}
	return snapshotFromDocs(docs), nil
}

// WatchDocuments opens a live snapshot stream over the principal's document
// subcollection. Each listener emission is a total view; the channel is
// latest-wins, so a slow consumer only ever sees the most recent state. The
// channel closes when ctx is cancelled or the listener fails.
func (s *Store) WatchDocuments(ctx context.Context, principal authz.Principal, userID string) (<-chan models.Snapshot, error) {
	path := documentsPath(userID)
	if err := s.policy.Authorize(ctx, principal, path, authz.OpList); err != nil {
		return nil, err
	}

	snapshots := make(chan models.Snapshot, 1)
	go s.watch(ctx, path, querySource{it: s.client.Collection(path).Snapshots(ctx)}, snapshots)
	return snapshots, nil
}

// errSnapshotRead marks a per-emission read failure. The emission is skipped
// and the stream stays open; only a listener failure ends it.
var errSnapshotRead = errors.New("snapshot read failed")

// snapshotSource yields one total snapshot per listener emission.
type snapshotSource interface {
	Next() (models.Snapshot, error)
	Stop()
}

type querySource struct {
	it *firestore.QuerySnapshotIterator
}

func (q querySource) Next() (models.Snapshot, error) {
	qs, err := q.it.Next()
	if err != nil {
		return nil, err
	}
	docs, err := qs.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errSnapshotRead, err)
	}
	return snapshotFromDocs(docs), nil
}

func (q querySource) Stop() { q.it.Stop() }

// watch pumps src into out until the listener ends. A read failure on a
// single emission is logged and skipped; the subscription itself survives.
func (s *Store) watch(ctx context.Context, path string, src snapshotSource, out chan models.Snapshot) {
	defer close(out)
	defer src.Stop()
	for {
		snap, err := src.Next()
		if errors.Is(err, errSnapshotRead) {
			s.log.Error("document snapshot read failed",
				logger.String("path", path),
				logger.Error(err),
			)
			continue
		}
		if err != nil {
			if status.Code(err) != codes.Canceled && ctx.Err() == nil {
				s.log.Error("document listener failed",
					logger.String("path", path),
					logger.Error(err),
				)
			}
			return
		}

		// Latest-wins: drop an undelivered older snapshot rather than block
		// the listener.
		select {
		case out <- snap:
		default:
			select {
			case <-out:
			default:
			}
			out <- snap
		}
	}
}

func snapshotFromDocs(docs []*firestore.DocumentSnapshot) models.Snapshot {
	snap := make(models.Snapshot, 0, len(docs))
	for _, d := range docs {
		snap = append(snap, documentFromData(d.Ref.ID, d.Data()))
	}
	return snap
}
