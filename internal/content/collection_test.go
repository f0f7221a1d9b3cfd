package content

import (
	"errors"
	"testing"
)

func TestByName(t *testing.T) {
	c, ok := ByName("news")
	if !ok {
		t.Fatal("ByName(news) not found")
	}
	if c.Path != "news/" {
		t.Errorf("Path = %q, want %q", c.Path, "news/")
	}

	if _, ok := ByName("nonsense"); ok {
		t.Error("ByName(nonsense) = true, want false")
	}
}

func TestCollections_PathsEndWithSlash(t *testing.T) {
	for _, c := range Collections {
		if c.Path == "" || c.Path[len(c.Path)-1] != '/' {
			t.Errorf("collection %q path %q missing trailing slash", c.Name, c.Path)
		}
	}
}

func TestCollection_FileFields(t *testing.T) {
	vc, _ := ByName("home-vc-message")
	files := vc.FileFields()
	if len(files) != 2 {
		t.Fatalf("home-vc-message file fields = %d, want 2", len(files))
	}
	if files[0].Name != "image" || files[1].Name != "video" {
		t.Errorf("file fields = %q, %q; want image, video", files[0].Name, files[1].Name)
	}

	projects, _ := ByName("projects")
	if projects.HasFile() {
		t.Error("projects reports HasFile() = true")
	}
}

func TestCollection_Validate(t *testing.T) {
	news, _ := ByName("news")

	tests := []struct {
		name      string
		fields    map[string]any
		partial   bool
		wantField string // empty means valid
	}{
		{
			name:   "valid full draft",
			fields: map[string]any{"title": "Reef survey", "summary": "s", "status": "Draft"},
		},
		{
			name:      "missing required title",
			fields:    map[string]any{"summary": "s"},
			wantField: "title",
		},
		{
			name:    "partial update may omit title",
			fields:  map[string]any{"status": "Published"},
			partial: true,
		},
		{
			name:      "select outside options",
			fields:    map[string]any{"title": "t", "status": "Archived"},
			wantField: "status",
		},
		{
			name:      "unknown field rejected",
			fields:    map[string]any{"title": "t", "colour": "blue"},
			wantField: "colour",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := news.Validate(tt.fields, tt.partial)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("rejected field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestCollection_Validate_Number(t *testing.T) {
	services, _ := ByName("services")

	// Multipart form values arrive as strings; JSON numbers as float64.
	for _, price := range []any{float64(120), "120.50"} {
		fields := map[string]any{"title": "Dive survey", "price": price}
		if err := services.Validate(fields, false); err != nil {
			t.Errorf("Validate(price=%v) error = %v, want nil", price, err)
		}
	}

	fields := map[string]any{"title": "Dive survey", "price": "not-a-number"}
	if err := services.Validate(fields, false); err == nil {
		t.Error("Validate() accepted non-numeric price")
	}
}

func TestCollection_Validate_Bool(t *testing.T) {
	slides, _ := ByName("home-slides")

	for _, active := range []any{true, "true", "0"} {
		fields := map[string]any{"text": "Welcome", "is_active": active}
		if err := slides.Validate(fields, false); err != nil {
			t.Errorf("Validate(is_active=%v) error = %v, want nil", active, err)
		}
	}

	fields := map[string]any{"text": "Welcome", "is_active": "maybe"}
	if err := slides.Validate(fields, false); err == nil {
		t.Error("Validate() accepted non-boolean is_active")
	}
}
