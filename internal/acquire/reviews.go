// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchReviews returns the note history of forumID and saves it as a JSON
// array with two-space indentation to reviews/<id>.json. When that file
// already exists its notes are loaded instead and no request is made. An
// unreadable file is fetched again.
func (f *Fetcher) FetchReviews(ctx context.Context, forumID string) ([]json.RawMessage, Result, error) {
	dest := f.Layout.ReviewPath(forumID)
	log := f.logger().WithField("forum", forumID)

	if f.Layout.NonEmpty(dest) {
		notes, err := f.loadNotes(dest)
		if err == nil {
			log.Debug("review history already present")
			return notes, Result{Path: dest, Existing: true}, nil
		}
		log.Warnf("existing review file unreadable, fetching again: %v", err)
	}

	notes, err := f.Notes.GetAllNotes(ctx, forumID)
	if err != nil {
		return nil, Result{}, fmt.Errorf("fetching notes: %w", err)
	}
	if len(notes) == 0 {
		return nil, Result{}, ErrNoNotes
	}

	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return notes, Result{}, fmt.Errorf("encoding notes: %w", err)
	}
	if err := f.Layout.WriteFile(dest, append(data, '\n')); err != nil {
		return notes, Result{}, fmt.Errorf("saving %s: %w", dest, err)
	}
	log.Debugf("saved %d notes", len(notes))
	return notes, Result{Path: dest}, nil
}

func (f *Fetcher) loadNotes(path string) ([]json.RawMessage, error) {
	data, err := f.Layout.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var notes []json.RawMessage
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return notes, nil
}
