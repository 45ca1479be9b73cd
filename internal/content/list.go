package content

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// ListView is the list screen of one entity kind: an ordered snapshot of the
// collection, a client-side filter, and the entry points to the edit form
// and delete confirmation.
type ListView struct {
	mu       sync.Mutex
	schema   *Schema
	coll     types.Collection
	logger   *zap.Logger
	notifier Notifier
	formOpts []FormOption

	items   []types.Document
	loaded  bool
	loading bool
	epoch   uint64
	closed  bool
	term    string
	pending string
	dialog  ConfirmDialog
	form    *Form
}

// ListOption configures a ListView.
type ListOption func(*ListView)

// WithLogger sets the logger for backend failures.
func WithLogger(l *zap.Logger) ListOption {
	return func(v *ListView) { v.logger = l }
}

// WithNotifier sets the toast sink shared by the view and its form.
func WithNotifier(n Notifier) ListOption {
	return func(v *ListView) { v.notifier = n }
}

// WithFormOptions passes options to the view's edit form.
func WithFormOptions(opts ...FormOption) ListOption {
	return func(v *ListView) { v.formOpts = append(v.formOpts, opts...) }
}

// NewListView returns an unloaded view for schema over coll.
func NewListView(schema *Schema, coll types.Collection, opts ...ListOption) *ListView {
	v := &ListView{
		schema:   schema,
		coll:     coll,
		logger:   zap.NewNop(),
		notifier: Discard,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Load fetches the collection in schema order and replaces the items. Only
// the most recent Load may update the view; a failed fetch keeps the prior
// items.
func (v *ListView) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.epoch++
	ep := v.epoch
	v.loading = true
	v.mu.Unlock()

	docs, err := v.coll.List(ctx, v.schema.Order)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || ep != v.epoch {
		return nil
	}
	v.loading = false
	if err != nil {
		v.logger.Error("fetch documents",
			zap.String("collection", string(v.schema.Kind)),
			zap.Error(err))
		return fmt.Errorf("list %s: %w", v.schema.Kind, err)
	}
	v.items = docs
	v.loaded = true
	return nil
}

// Loading reports whether a fetch is outstanding.
func (v *ListView) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

// Items returns the full fetched list.
func (v *ListView) Items() []types.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]types.Document(nil), v.items...)
}

// SetFilter sets the search term.
func (v *ListView) SetFilter(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.term = term
}

// Filter returns the search term.
func (v *ListView) Filter() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.term
}

// Visible returns the items matching the search term, in fetched order.
func (v *ListView) Visible() []types.Document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visibleLocked()
}

func (v *ListView) visibleLocked() []types.Document {
	out := make([]types.Document, 0, len(v.items))
	for _, d := range v.items {
		if v.schema.Matches(d, v.term) {
			out = append(out, d)
		}
	}
	return out
}

// Empty reports whether a completed fetch left nothing to show.
func (v *ListView) Empty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded && !v.loading && len(v.visibleLocked()) == 0
}

// EmptyMessage is the text shown when Empty is true.
func (v *ListView) EmptyMessage() string {
	if term := v.Filter(); term != "" {
		return fmt.Sprintf("No %s match %q.", strings.ToLower(v.schema.Plural), term)
	}
	return fmt.Sprintf("No %s yet.", strings.ToLower(v.schema.Plural))
}

// Cards renders the visible items.
func (v *ListView) Cards() []Card {
	docs := v.Visible()
	out := make([]Card, 0, len(docs))
	for _, d := range docs {
		out = append(out, v.schema.CardOf(d))
	}
	return out
}

// Form returns the view's edit form, creating it on first use. Successful
// submits refetch the list.
func (v *ListView) Form() *Form {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.form == nil {
		opts := []FormOption{
			WithFormLogger(v.logger),
			WithFormNotifier(v.notifier),
		}
		opts = append(opts, v.formOpts...)
		opts = append(opts, WithOnSaved(v.saved))
		v.form = NewForm(v.schema, v.coll, opts...)
	}
	return v.form
}

// saved is the form's completion signal.
func (v *ListView) saved(ctx context.Context, _ string) {
	if err := v.Load(ctx); err != nil {
		v.logger.Warn("refresh after save", zap.String("collection", string(v.schema.Kind)), zap.Error(err))
	}
}

// OpenCreate opens the form in create mode.
func (v *ListView) OpenCreate(ctx context.Context) (*Form, error) {
	f := v.Form()
	return f, f.Open(ctx, false, "")
}

// OpenEdit opens the form on document id.
func (v *ListView) OpenEdit(ctx context.Context, id string) (*Form, error) {
	f := v.Form()
	return f, f.Open(ctx, true, id)
}

// RequestDelete opens the confirmation dialog for id. Nothing is deleted
// until ConfirmDelete.
func (v *ListView) RequestDelete(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	v.mu.Lock()
	v.pending = id
	v.mu.Unlock()
	v.dialog.Open(func(ctx context.Context) error { return v.remove(ctx, id) })
	return nil
}

// PendingDelete returns the ID awaiting confirmation.
func (v *ListView) PendingDelete() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.dialog.IsOpen() {
		return ""
	}
	return v.pending
}

// ConfirmDelete deletes the pending document and refetches the list once.
func (v *ListView) ConfirmDelete(ctx context.Context) error {
	return v.dialog.Confirm(ctx)
}

// CancelDelete closes the dialog without deleting.
func (v *ListView) CancelDelete() {
	v.dialog.Cancel()
}

// Dialog returns the delete confirmation dialog.
func (v *ListView) Dialog() *ConfirmDialog {
	return &v.dialog
}

func (v *ListView) remove(ctx context.Context, id string) error {
	if err := v.coll.Delete(ctx, id); err != nil {
		v.logger.Error("delete document",
			zap.String("collection", string(v.schema.Kind)),
			zap.String("id", id),
			zap.Error(err))
		v.notifier.Error(fmt.Sprintf("could not delete %s: %v", strings.ToLower(v.schema.Title), err))
		return err
	}
	v.notifier.Success(v.schema.Messages.Deleted)
	if err := v.Load(ctx); err != nil {
		v.logger.Warn("refresh after delete", zap.String("collection", string(v.schema.Kind)), zap.Error(err))
	}
	return nil
}

// Close disposes the view. Fetches still in flight are dropped and the form
// is dismissed.
func (v *ListView) Close() {
	v.mu.Lock()
	v.closed = true
	form := v.form
	v.mu.Unlock()
	if form != nil {
		form.Close()
	}
}
