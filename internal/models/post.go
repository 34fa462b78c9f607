package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Post is a blog entry. Author is populated with the author's public
// fields when the post is read back from the store.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	TagsJSON  string    `json:"-"` // Stored as a JSON array string
	Tags      Tags      `json:"tags"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	ViewCount int64     `json:"viewCount"`
	AuthorID  string    `json:"-"`
	Author    *User     `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PrepareForSave marshals the tags into their JSON string form for DB storage.
func (p *Post) PrepareForSave() {
	if p.Tags == nil {
		p.Tags = Tags{}
	}
	tagsBytes, _ := json.Marshal([]string(p.Tags))
	p.TagsJSON = string(tagsBytes)
}

// PrepareForAPI unmarshals the stored JSON tags for API responses.
func (p *Post) PrepareForAPI() {
	if p.TagsJSON != "" {
		json.Unmarshal([]byte(p.TagsJSON), &p.Tags)
	}
	if p.Tags == nil {
		p.Tags = Tags{}
	}
}

// Tags is an ordered list of post tags. On input it accepts either a JSON
// array or a single comma-separated string ("go,web"), which is what the
// web client sends from its tag field.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*t = Tags{}
		return nil
	}

	var list []string
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
	} else {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return errors.New("tags must be an array of strings or a comma-separated string")
		}
		list = strings.Split(joined, ",")
	}

	out := make(Tags, 0, len(list))
	for _, tag := range list {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	*t = out
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}
