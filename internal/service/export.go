package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mattwrdg/snoozydozy/internal"
	"github.com/mattwrdg/snoozydozy/internal/storage"
)

const exportAppVersion = "1.0.0"

// ExportDocument is the full application state as a portable JSON document.
// Timestamps serialize as RFC 3339, so a document written on one device
// imports cleanly on another.
type ExportDocument struct {
	Metadata     ExportMetadata           `json:"metadata"`
	BabyProfile  internal.BabyProfile     `json:"babyProfile"`
	AppSettings  internal.AppSettings     `json:"appSettings"`
	SleepEntries []internal.SleepInterval `json:"sleepEntries"`
}

type ExportMetadata struct {
	ExportDate time.Time `json:"exportDate"`
	AppVersion string    `json:"appVersion"`
}

// Export snapshots the store into an ExportDocument.
func Export(ctx context.Context, store storage.Store, now time.Time) (*ExportDocument, error) {
	ivs, err := store.ListIntervals(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	profile, err := store.GetProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	settings, err := store.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	return &ExportDocument{
		Metadata:     ExportMetadata{ExportDate: now, AppVersion: exportAppVersion},
		BabyProfile:  profile,
		AppSettings:  settings,
		SleepEntries: ivs,
	}, nil
}

// Import replaces the entire store content with the decoded document. A
// document that does not parse leaves the store untouched and surfaces the
// decode error to the caller.
func Import(ctx context.Context, store storage.Store, raw []byte) (*ExportDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var doc ExportDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("import: invalid document: %w", err)
	}

	if doc.SleepEntries == nil {
		doc.SleepEntries = []internal.SleepInterval{}
	}
	if err := store.ReplaceIntervals(ctx, doc.SleepEntries); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	if err := store.SetProfile(ctx, doc.BabyProfile); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	if err := store.SetSettings(ctx, doc.AppSettings); err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	return &doc, nil
}
