package content

import "time"

// Record is one entry in a collection. Fields holds the schema-defined
// values; Attachments maps file field names to served URLs (e.g.
// "/media/news/abc.png").
type Record struct {
	ID          string            `json:"id"`
	Collection  string            `json:"-"`
	Fields      map[string]any    `json:"-"`
	Attachments map[string]string `json:"-"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Flatten renders the record as the flat JSON object the API serves:
// id, every schema field, file fields as URLs, and timestamps.
func (r *Record) Flatten(c Collection) map[string]any {
	out := make(map[string]any, len(r.Fields)+4)
	for k, v := range r.Fields {
		out[k] = v
	}
	for _, f := range c.FileFields() {
		if url, ok := r.Attachments[f.Name]; ok && url != "" {
			out[f.Name] = url
		} else if _, present := out[f.Name]; !present {
			out[f.Name] = nil
		}
	}
	out["id"] = r.ID
	out["created_at"] = r.CreatedAt.UTC().Format(time.RFC3339)
	out["updated_at"] = r.UpdatedAt.UTC().Format(time.RFC3339)
	return out
}

// Merge applies a partial update: incoming fields overwrite, everything
// else is retained. Used for PATCH.
func (r *Record) Merge(fields map[string]any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		r.Fields[k] = v
	}
}
