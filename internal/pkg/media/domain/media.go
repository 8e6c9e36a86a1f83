package domain

import "time"

type MediaKind string

const (
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
)

const UntitledTitle = "Untitled"

// MediaRecord is a catalog entry. FileRef always points at the channel copy.
type MediaRecord struct {
	ID           int64     `json:"-"`
	Key          string    `json:"custom_key"`
	FileRef      string    `json:"file_id"`
	Title        string    `json:"title"`
	Kind         MediaKind `json:"type"`
	ThumbnailRef string    `json:"thumbnail_ref,omitempty"`
	PreviewRef   string    `json:"-"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type VerificationRecord struct {
	UserID         int64
	LastVerifiedAt time.Time
}

// Filter narrows ListAll. Zero value lists everything.
type Filter struct {
	Category string
	Limit    int
}

// Preview is an embedded preview image handle attached to a media object.
type Preview struct {
	FileRef string
	Width   int
	Height  int
}

// Media is an inbound media object resolved once from the transport message.
// Kind selects between the video and document variants.
type Media struct {
	Kind     MediaKind
	FileRef  string
	UniqueID string
	FileName string
	MimeType string
	Size     int
	Preview  *Preview
}

func (m *Media) IsVideo() bool {
	return m.Kind == KindVideo
}

// Decodable reports whether a frame can be extracted from the full body.
func (m *Media) Decodable() bool {
	if m.Kind == KindVideo {
		return true
	}
	return len(m.MimeType) > 6 && m.MimeType[:6] == "video/"
}

// Title picks the caption, then the file name, then UntitledTitle.
func Title(caption string, m *Media) string {
	if caption != "" {
		return caption
	}
	if m != nil && m.FileName != "" {
		return m.FileName
	}
	return UntitledTitle
}
