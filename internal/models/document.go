package models

import (
	"time"
)

// DocumentType classifies an uploaded artifact.
type DocumentType string

const (
	TypeSyllabus   DocumentType = "syllabus"
	TypeTranscript DocumentType = "transcript"
	TypeGrades     DocumentType = "grades"
	TypeOther      DocumentType = "other"
)

// Status is the processing state of a document record. Processing moves
// forward only: uploaded -> extracted -> processed. Any non-terminal status
// may drop into the error side-state; a retry is the only way back
// (error -> uploaded).
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusExtracted Status = "extracted"
	StatusProcessed Status = "processed"
	StatusError     Status = "error"
)

// statusOrder positions each forward status on the pipeline. The error
// side-state has no position.
var statusOrder = map[Status]int{
	StatusUploaded:  0,
	StatusExtracted: 1,
	StatusProcessed: 2,
}

// Known reports whether s is one of the four defined statuses. Records with
// an unknown status are kept out of every aggregation bucket.
func (s Status) Known() bool {
	if s == StatusError {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// ValidTransition reports whether moving from -> to is permitted:
// forward along the pipeline, any non-terminal status into error, or
// error back to uploaded (retry).
func ValidTransition(from, to Status) bool {
	if from == StatusError {
		return to == StatusUploaded
	}
	if to == StatusError {
		_, ok := statusOrder[from]
		return ok && from != StatusProcessed
	}
	fo, fok := statusOrder[from]
	no, nok := statusOrder[to]
	return fok && nok && no > fo
}

// Document is the processing metadata for one user-submitted artifact.
// The owning principal is encoded in the record's storage path, never in
// the payload, so ownership cannot be rewritten after creation.
type Document struct {
	ID           string       `firestore:"-" json:"id"`
	DocumentType DocumentType `firestore:"documentType" json:"documentType"`
	Status       Status       `firestore:"status" json:"status"`
	Name         string       `firestore:"name" json:"name"`
	Error        string       `firestore:"error,omitempty" json:"error,omitempty"`
}

// Snapshot is a total, authoritative view of one principal's document set at
// a single instant. Every emission supersedes the previous one entirely.
type Snapshot []Document

// Profile is the principal-scoped record at users/{userId}. The client may
// read and update it; creation and deletion belong to the backend functions.
type Profile struct {
	DisplayName string    `firestore:"displayName" json:"displayName"`
	Email       string    `firestore:"email" json:"email"`
	CreatedAt   time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt   time.Time `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Course is a shared catalog entry at courses/{courseId}, readable only by
// enrolled principals.
type Course struct {
	ID    string `firestore:"-" json:"id"`
	Code  string `firestore:"code" json:"code"`
	Title string `firestore:"title" json:"title"`
	Term  string `firestore:"term,omitempty" json:"term,omitempty"`
}
