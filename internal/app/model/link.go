package model

import "time"

// Link is one entry of a user's public profile list as held by the remote backend.
type Link struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description *string   `json:"description"`
	Icon        *string   `json:"icon"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Upload carries a file selected for an icon, avatar or background image.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size reports the upload payload length in bytes.
func (u *Upload) Size() int64 {
	if u == nil {
		return 0
	}
	return int64(len(u.Data))
}

// LinkDraft is the payload sent to the backend to create a link.
type LinkDraft struct {
	Title       string
	URL         string
	Description *string
	Order       int
	Icon        *Upload
	IsActive    bool
}

// LinkPatch carries the subset of mutable link fields to change. Nil means unchanged.
type LinkPatch struct {
	Title       *string `json:"title,omitempty"`
	URL         *string `json:"url,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	Order       *int    `json:"order,omitempty"`
	Icon        *Upload `json:"-"`
}

// Empty reports whether the patch changes nothing.
func (p LinkPatch) Empty() bool {
	return p.Title == nil && p.URL == nil && p.Description == nil &&
		p.IsActive == nil && p.Order == nil && p.Icon == nil
}
