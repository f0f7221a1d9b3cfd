package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"sort"
)

// Body is a pre-encoded request body. Bodies are built as byte slices so
// the 401-refresh-retry path can rewind and re-send them.
type Body interface {
	ContentType() string
	Bytes() []byte
}

type rawBody struct {
	contentType string
	data        []byte
}

func (b *rawBody) ContentType() string { return b.contentType }
func (b *rawBody) Bytes() []byte       { return b.data }

// JSONBody encodes a value as a JSON request body.
func JSONBody(v any) (Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON body: %w", err)
	}
	return &rawBody{contentType: "application/json", data: data}, nil
}

// File is a staged upload for a multipart body.
type File struct {
	Field    string // form field name, e.g. "image"
	Filename string
	Data     []byte
}

// MultipartBody encodes form fields plus staged files as a multipart
// request body. Fields are written in sorted order for deterministic
// output.
func MultipartBody(fields map[string]string, files []File) (Body, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := mw.WriteField(name, fields[name]); err != nil {
			return nil, fmt.Errorf("encoding form field %q: %w", name, err)
		}
	}

	for _, f := range files {
		fw, err := mw.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("encoding file field %q: %w", f.Field, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return nil, fmt.Errorf("encoding file %q: %w", f.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart body: %w", err)
	}

	return &rawBody{contentType: mw.FormDataContentType(), data: buf.Bytes()}, nil
}
