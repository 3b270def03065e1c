// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package snapshot validates and (de)serializes the portable JSON document
// carrying one page's editable content. Snapshots move content out-of-band
// — download, clipboard, manual re-import — and are the recovery path when
// the primary save pipeline is degraded.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"fibersite/internal/pagepath"
)

// FormatVersion is the current snapshot document version.
const FormatVersion = 1

// Snapshot is the portable export/import document. It is a transient
// serialization of a content record's map plus provenance metadata, never
// persisted server-side as its own entity.
type Snapshot struct {
	Version   int               `json:"version"`
	Timestamp string            `json:"timestamp"` // RFC 3339
	PageURL   string            `json:"pageUrl"`
	Content   map[string]string `json:"content"`
}

// Reason names why a snapshot failed validation.
type Reason string

const (
	ReasonInvalidFormat    Reason = "InvalidFormat"
	ReasonMissingVersion   Reason = "MissingVersion"
	ReasonMissingTimestamp Reason = "MissingTimestamp"
	ReasonMissingPageURL   Reason = "MissingPageUrl"
	ReasonInvalidContent   Reason = "InvalidContent"
)

// Result is the outcome of validating raw snapshot text. Validate never
// panics or returns an error — a bad document is a Result with Valid
// false and the Reason set.
type Result struct {
	Valid  bool
	Reason Reason
	Data   *Snapshot
}

// Validate parses raw text as a snapshot document and checks every
// required field. Field checks run in a fixed order so a document with
// several problems reports a deterministic reason.
func Validate(raw []byte) Result {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Result{Reason: ReasonInvalidFormat}
	}

	snap := &Snapshot{}

	if !decodeField(fields, "version", &snap.Version) {
		return Result{Reason: ReasonMissingVersion}
	}
	if !decodeField(fields, "timestamp", &snap.Timestamp) {
		return Result{Reason: ReasonMissingTimestamp}
	}
	if !decodeField(fields, "pageUrl", &snap.PageURL) {
		return Result{Reason: ReasonMissingPageURL}
	}

	// Content must be a JSON object with string values — not a string,
	// not an array, not null.
	rawContent, ok := fields["content"]
	if !ok || string(rawContent) == "null" {
		return Result{Reason: ReasonInvalidContent}
	}
	if err := json.Unmarshal(rawContent, &snap.Content); err != nil {
		return Result{Reason: ReasonInvalidContent}
	}

	return Result{Valid: true, Data: snap}
}

// decodeField unmarshals a single field into dst, reporting false when the
// field is absent, null, or of the wrong type.
func decodeField(fields map[string]json.RawMessage, name string, dst any) bool {
	raw, ok := fields[name]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// Export produces a snapshot of the given content map for a page.
// Deterministic given its inputs except for the timestamp.
func Export(content map[string]string, pagePath string) *Snapshot {
	out := make(map[string]string, len(content))
	for k, v := range content {
		out[k] = v
	}
	return &Snapshot{
		Version:   FormatVersion,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		PageURL:   pagePath,
		Content:   out,
	}
}

// Encode renders a snapshot as indented JSON, the on-disk file format.
func (s *Snapshot) Encode() ([]byte, error) {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return raw, nil
}

// PagePath returns the snapshot's target page in canonical storage form.
func (s *Snapshot) PagePath() string {
	return pagepath.Normalize(s.PageURL)
}

// Filename builds the download name for a page's snapshot:
// site-content[-<page>]-<timestamp>.json. The index page omits the page
// segment.
func Filename(page string, now time.Time) string {
	stamp := now.UTC().Format("20060102-150405")
	if page == "" || page == pagepath.Index {
		return fmt.Sprintf("site-content-%s.json", stamp)
	}
	return fmt.Sprintf("site-content-%s-%s.json", page, stamp)
}
