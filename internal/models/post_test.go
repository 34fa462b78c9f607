package models

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestTagsUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Tags
	}{
		{name: "array", input: `["go", "web"]`, want: Tags{"go", "web"}},
		{name: "comma string", input: `"go, web,,react "`, want: Tags{"go", "web", "react"}},
		{name: "empty string", input: `""`, want: Tags{}},
		{name: "null", input: `null`, want: Tags{}},
		{name: "array keeps duplicates", input: `["x","x"]`, want: Tags{"x", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Tags
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestTagsUnmarshalRejectsNumbers(t *testing.T) {
	var got Tags
	if err := json.Unmarshal([]byte(`42`), &got); err == nil {
		t.Fatalf("expected error for numeric tags")
	}
}

func TestPostPrepareRoundTrip(t *testing.T) {
	p := Post{Title: "Hi"}
	p.PrepareForSave()
	if p.TagsJSON != "[]" {
		t.Fatalf("expected empty JSON array, got %q", p.TagsJSON)
	}

	p = Post{Tags: Tags{"x", "y"}}
	p.PrepareForSave()

	loaded := Post{TagsJSON: p.TagsJSON}
	loaded.PrepareForAPI()
	if !reflect.DeepEqual(loaded.Tags, Tags{"x", "y"}) {
		t.Fatalf("unexpected tags %#v", loaded.Tags)
	}
}

func TestPostJSONHidesInternalFields(t *testing.T) {
	p := Post{ID: "1", AuthorID: "u1", TagsJSON: `["a"]`, Author: &User{ID: "u1", PasswordHash: "hash"}}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"AuthorID", "TagsJSON"} {
		if _, ok := raw[key]; ok {
			t.Fatalf("unexpected key %s in %s", key, data)
		}
	}
	if raw["tags"] == nil {
		t.Fatalf("expected tags to serialize as an array, got %s", data)
	}
	author := raw["author"].(map[string]any)
	if _, ok := author["passwordHash"]; ok {
		t.Fatalf("password hash leaked: %s", data)
	}
}
