// Package snapshot encodes and decodes snapshot images: the at-rest form of
// every store and counter captured at a restart boundary.
//
// An image is a magic prefix followed by framed records:
//
//	[magic "SWIMG1"]
//	[length:4 LE][crc32:4 LE][header JSON]
//	[length:4 LE][crc32:4 LE][section payload]   (one per participant)
//	[length:4 LE][crc32:4 LE][trailer JSON]
//
// Section payloads are JSON, snappy-compressed when the header says so. The
// trailer carries a murmur3 digest over every section payload as written, so
// a truncated or reordered image is rejected even when each record's CRC
// is intact.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FormatVersion is the image layout version written by Encode.
const FormatVersion = 1

// Header is the first record of an image.
type Header struct {
	ImageID       string   `json:"image_id"`
	FormatVersion int      `json:"format_version"`
	TakenAt       int64    `json:"taken_at"`
	Compressed    bool     `json:"compressed"`
	Sections      []string `json:"sections"`
}

// Section is the exported content of one participant.
type Section struct {
	Name  string          `json:"name"`
	Count int             `json:"count"`
	Data  json.RawMessage `json:"data"`
}

// Image is a decoded snapshot.
type Image struct {
	Header   Header
	Sections []Section
}

// NewImage creates an image header stamped with a fresh id and the given time.
func NewImage(takenAt time.Time, sections []Section) *Image {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return &Image{
		Header: Header{
			ImageID:       uuid.New().String(),
			FormatVersion: FormatVersion,
			TakenAt:       takenAt.UnixNano(),
			Sections:      names,
		},
		Sections: sections,
	}
}

// Section returns the section with the given name.
func (img *Image) Section(name string) (Section, bool) {
	for _, s := range img.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// EntryCount returns the total number of entries across all sections.
func (img *Image) EntryCount() int {
	total := 0
	for _, s := range img.Sections {
		total += s.Count
	}
	return total
}

// trailer is the final record of an image.
type trailer struct {
	Sections int    `json:"sections"`
	Digest   string `json:"digest"`
}
