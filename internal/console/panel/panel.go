// Package panel implements the generic resource panel behind every
// admin console view. One Panel instance manages one content collection:
// it lists records, stages form drafts, routes submits to create or
// update, and guards deletes behind an explicit confirmation.
//
// All panels share this one implementation, parameterized by the
// collection descriptor. The descriptor decides the endpoint path, the
// editable fields, and whether submissions are multipart.
package panel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/zafiri/cms-core/internal/console/transport"
	"github.com/zafiri/cms-core/internal/content"
	"github.com/zafiri/cms-core/internal/infrastructure/logging"
)

// Record is one listed item in the flattened wire shape: id, field
// values, attachment URLs, and timestamps in a single level.
type Record map[string]any

// ID returns the record's server-assigned id, or "" when absent.
func (r Record) ID() string {
	id, _ := r["id"].(string) //nolint:errcheck // absent id reads as ""
	return id
}

// Confirmer approves destructive actions before they dispatch. The
// console wires a terminal prompt; tests inject a canned answer.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(message string) bool

func (f ConfirmFunc) Confirm(message string) bool { return f(message) }

// Draft stages one record's editable fields plus pending file uploads.
// A draft bound to an id submits as an update; unbound, as a create.
type Draft struct {
	ID     string
	Fields map[string]string
	files  []transport.File
}

// Panel manages one collection's listing and editing state.
//
// Safe for concurrent use. Overlapping List calls resolve to the most
// recently issued one: a superseded response is discarded even when it
// arrives last, and its in-flight request is cancelled.
type Panel struct {
	col     content.Collection
	client  *transport.Client
	confirm Confirmer
	logger  *logging.Logger

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	items   []Record
	listErr error
	draft   *Draft
}

// New creates a panel for one collection.
func New(col content.Collection, client *transport.Client, confirm Confirmer, logger *logging.Logger) *Panel {
	return &Panel{
		col:     col,
		client:  client,
		confirm: confirm,
		logger:  logger,
	}
}

// Collection returns the descriptor this panel is bound to.
func (p *Panel) Collection() content.Collection { return p.col }

// List fetches the collection and replaces the displayed items.
//
// Only the most recently issued List may apply its result; issuing a new
// one cancels the previous request and marks its eventual response
// stale. On failure the previously displayed items stay intact and the
// error is retained for Err.
func (p *Panel) List(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	items, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		// A newer List was issued while this one was in flight.
		return nil
	}
	if err != nil {
		p.listErr = err
		return err
	}
	p.items = items
	p.listErr = nil
	return nil
}

func (p *Panel) fetch(ctx context.Context) ([]Record, error) {
	resp, err := p.client.Get(ctx, p.col.Path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", p.col.Name, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(p.col.Name, resp)
	}
	return decodeList(resp.Body)
}

// decodeList accepts both a bare JSON array and a {"results": [...]}
// envelope, normalizing to a slice.
func decodeList(r io.Reader) ([]Record, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}

	var items []Record
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var envelope struct {
		Results []Record `json:"results"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}
	return envelope.Results, nil
}

// Items returns the currently displayed records.
func (p *Panel) Items() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items
}

// Err returns the most recent list failure, or nil after a successful
// list.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listErr
}

// NewDraft opens an empty draft for creating a record, discarding any
// unsaved draft including its edit binding.
func (p *Panel) NewDraft() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = &Draft{Fields: make(map[string]string)}
}

// Edit copies a record's editable fields into a draft bound to its id,
// discarding any unsaved prior draft. Attachment URLs and server-managed
// fields are not copied; an unchanged file simply isn't resubmitted.
func (p *Panel) Edit(record Record) {
	draft := &Draft{
		ID:     record.ID(),
		Fields: make(map[string]string),
	}
	for _, field := range p.col.Fields {
		if field.Type == content.FieldFile {
			continue
		}
		if v, ok := record[field.Name]; ok {
			draft.Fields[field.Name] = fieldString(v)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = draft
}

// Cancel discards the current draft without network activity.
func (p *Panel) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = nil
}

// Draft returns the current draft, or nil when no form is open.
func (p *Panel) Draft() *Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// SetField stages one field value on the open draft. A no-op when no
// draft is open.
func (p *Panel) SetField(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draft != nil {
		p.draft.Fields[name] = value
	}
}

// StageFile attaches a pending upload to the open draft. Staging the
// same field twice replaces the earlier file.
func (p *Panel) StageFile(field, filename string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draft == nil {
		return
	}
	for i, f := range p.draft.files {
		if f.Field == field {
			p.draft.files[i] = transport.File{Field: field, Filename: filename, Data: data}
			return
		}
	}
	p.draft.files = append(p.draft.files, transport.File{Field: field, Filename: filename, Data: data})
}

// Submit dispatches the open draft: POST to the collection when the
// draft is unbound, PUT to the item when it carries an id. The payload
// is multipart when the collection always submits multipart or a file is
// staged, JSON otherwise.
//
// On success the draft is discarded and the list re-fetched. On failure
// the draft is retained unmodified so the user can correct and resubmit.
func (p *Panel) Submit(ctx context.Context) error {
	p.mu.Lock()
	draft := p.draft
	p.mu.Unlock()
	if draft == nil {
		return fmt.Errorf("%s: no draft open", p.col.Name)
	}

	method := http.MethodPost
	path := p.col.Path
	if draft.ID != "" {
		method = http.MethodPut
		path = p.col.Path + draft.ID + "/"
	}

	body, err := p.encodeDraft(draft)
	if err != nil {
		return fmt.Errorf("%s: %w", p.col.Name, err)
	}

	resp, err := p.client.Do(ctx, method, path, body, nil)
	if err != nil {
		return fmt.Errorf("submitting %s: %w", p.col.Name, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return responseError(p.col.Name, resp)
	}

	p.mu.Lock()
	if p.draft == draft {
		p.draft = nil
	}
	p.mu.Unlock()

	return p.List(ctx)
}

func (p *Panel) encodeDraft(draft *Draft) (transport.Body, error) {
	if p.col.AlwaysMultipart || len(draft.files) > 0 {
		return transport.MultipartBody(draft.Fields, draft.files)
	}
	fields := make(map[string]any, len(draft.Fields))
	for k, v := range draft.Fields {
		fields[k] = v
	}
	return transport.JSONBody(fields)
}

// Patch applies a partial update to one record without opening a draft,
// for single-field toggles like publishing. Re-fetches the list on
// success.
func (p *Panel) Patch(ctx context.Context, id string, fields map[string]string) error {
	body, err := transport.JSONBody(fields)
	if err != nil {
		return fmt.Errorf("%s: %w", p.col.Name, err)
	}

	resp, err := p.client.Do(ctx, http.MethodPatch, p.col.Path+id+"/", body, nil)
	if err != nil {
		return fmt.Errorf("updating %s: %w", p.col.Name, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusOK {
		return responseError(p.col.Name, resp)
	}
	return p.List(ctx)
}

// Delete removes one record after explicit confirmation. Without
// confirmation no network call is made. Re-fetches the list on success;
// on failure the displayed list stays as-is.
func (p *Panel) Delete(ctx context.Context, id string) error {
	if !p.confirm.Confirm(fmt.Sprintf("Delete this %s record? This cannot be undone.", p.col.Name)) {
		return nil
	}

	resp, err := p.client.Delete(ctx, p.col.Path+id+"/")
	if err != nil {
		return fmt.Errorf("deleting %s: %w", p.col.Name, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return responseError(p.col.Name, resp)
	}
	return p.List(ctx)
}

// Close cancels any in-flight list request. The panel issues no further
// background work after Close.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	// Invalidate any in-flight result.
	p.seq++
}

// responseError summarizes a non-2xx response, preferring the API's
// error envelope message when one is present.
func responseError(name string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)) //nolint:errcheck // best-effort diagnostic read

	var envelope struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Message != "" {
		return fmt.Errorf("%s: %s (status %d)", name, envelope.Message, resp.StatusCode)
	}
	return fmt.Errorf("%s: server returned %d", name, resp.StatusCode)
}

// fieldString renders a flattened record value back into form-input
// shape. Numbers arrive as float64 from JSON decoding.
func fieldString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
