// Package notes keeps a local view of the authenticated user's note
// collection consistent with the backend.
//
// Consistency policy: the store is never the source of truth after a
// mutation. Every successful create, update, or delete is followed by a full
// re-list, so the held collection always reflects a state the backend
// actually confirmed. There is no optimistic merge.
package notes

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/apiclient"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/models"
)

// Store holds the cached note collection.
type Store struct {
	api   *apiclient.Client
	notes []models.Note
}

// NewStore creates an empty notes store.
func NewStore(api *apiclient.Client) *Store {
	return &Store{api: api}
}

// validateNote rejects empty required fields before any request is issued,
// avoiding a round trip for obviously invalid input.
func validateNote(title, content string) error {
	err := validation.Errors{
		"title":   validation.Validate(title, validation.Required),
		"content": validation.Validate(content, validation.Required),
	}.Filter()
	if err != nil {
		return apperr.New(apperr.ErrValidation, err.Error())
	}
	return nil
}

// List fetches all notes in the tenant scope and replaces the entire held
// collection. Ordering is whatever the backend returns.
func (s *Store) List(ctx context.Context) ([]models.Note, error) {
	notes, err := s.api.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	s.notes = notes
	return notes, nil
}

// Create submits a new note and resynchronizes on success. The store never
// fabricates the new note's identity or timestamp locally.
func (s *Store) Create(ctx context.Context, title, content string) error {
	if err := validateNote(title, content); err != nil {
		return err
	}
	if _, err := s.api.CreateNote(ctx, title, content); err != nil {
		return err
	}
	_, err := s.List(ctx)
	return err
}

// Update replaces a note's title and content and resynchronizes on success.
// A vanished id surfaces the backend's not-found failure verbatim.
func (s *Store) Update(ctx context.Context, id, title, content string) error {
	if err := validateNote(title, content); err != nil {
		return err
	}
	if _, err := s.api.UpdateNote(ctx, id, title, content); err != nil {
		return err
	}
	_, err := s.List(ctx)
	return err
}

// Delete removes a note and resynchronizes on success. Confirmation is the
// caller boundary's responsibility. On failure the local collection is left
// unchanged.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteNote(ctx, id); err != nil {
		return err
	}
	_, err := s.List(ctx)
	return err
}

// Snapshot returns a copy of the held collection. Callers cannot mutate the
// cached backend-confirmed state through it.
func (s *Store) Snapshot() []models.Note {
	out := make([]models.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Count returns the number of held notes.
func (s *Store) Count() int { return len(s.notes) }

// Reset drops the collection. Called on logout.
func (s *Store) Reset() { s.notes = nil }
