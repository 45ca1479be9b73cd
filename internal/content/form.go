package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/blob"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// State is the lifecycle state of a Form.
type State int

// Form states.
const (
	StateClosed State = iota
	StateCreate
	StateEdit
	StateSubmitting
	StateError
)

func (s State) String() string {
	switch s {
	case StateCreate:
		return "create"
	case StateEdit:
		return "edit"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	default:
		return "closed"
	}
}

// DefaultResetDelay is how long fields keep their values after a successful
// submit, so a closing modal does not flash empty inputs.
const DefaultResetDelay = 300 * time.Millisecond

// slotState tracks the upload of one file input.
type slotState struct {
	epoch     uint64
	percent   int
	uploading bool
	fileName  string
	cancel    context.CancelFunc
}

// Form is the edit modal of one entity kind: it loads, validates, and writes
// a single document.
type Form struct {
	mu         sync.Mutex
	schema     *Schema
	coll       types.Collection
	uploader   blob.Uploader
	validator  *DocumentValidator
	logger     *zap.Logger
	notifier   Notifier
	onSaved    func(ctx context.Context, id string)
	onProgress func(slot string, p blob.Progress)
	resetDelay time.Duration

	state      State
	mode       State
	editID     string
	loadFailed bool
	values     map[string]string
	err        error
	slots      map[string]*slotState
	epoch      uint64
	resetTimer *time.Timer
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithUploader sets the blob uploader used by StartUpload.
func WithUploader(u blob.Uploader) FormOption {
	return func(f *Form) { f.uploader = u }
}

// WithFormLogger sets the logger for backend failures.
func WithFormLogger(l *zap.Logger) FormOption {
	return func(f *Form) { f.logger = l }
}

// WithFormNotifier sets the toast sink.
func WithFormNotifier(n Notifier) FormOption {
	return func(f *Form) { f.notifier = n }
}

// WithOnSaved registers the completion signal sent after a successful write.
func WithOnSaved(fn func(ctx context.Context, id string)) FormOption {
	return func(f *Form) { f.onSaved = fn }
}

// WithProgress registers an observer called after each applied upload event.
func WithProgress(fn func(slot string, p blob.Progress)) FormOption {
	return func(f *Form) { f.onProgress = fn }
}

// WithResetDelay overrides DefaultResetDelay. Zero resets immediately.
func WithResetDelay(d time.Duration) FormOption {
	return func(f *Form) { f.resetDelay = d }
}

// WithValidator sets the document validator.
func WithValidator(v *DocumentValidator) FormOption {
	return func(f *Form) { f.validator = v }
}

// defaultValidator caches compiled schemas across forms.
var defaultValidator = NewDocumentValidator()

// NewForm returns a closed form for schema over coll.
func NewForm(schema *Schema, coll types.Collection, opts ...FormOption) *Form {
	f := &Form{
		schema:     schema,
		coll:       coll,
		validator:  defaultValidator,
		logger:     zap.NewNop(),
		notifier:   Discard,
		resetDelay: DefaultResetDelay,
		values:     schema.BlankValues(),
		slots:      make(map[string]*slotState),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open shows the form. In create mode fields start blank; in edit mode the
// document id is loaded. Reopening with the same mode and id is a no-op
// unless the previous load failed; any other change reinitializes the form.
func (f *Form) Open(ctx context.Context, isEdit bool, id string) error {
	if isEdit && id == "" {
		return types.ErrInvalidID
	}
	mode := StateCreate
	if isEdit {
		mode = StateEdit
	} else {
		id = ""
	}

	f.mu.Lock()
	if f.state != StateClosed && !f.loadFailed && f.mode == mode && f.editID == id {
		f.mu.Unlock()
		return nil
	}
	f.epoch++
	ep := f.epoch
	f.stopResetLocked()
	f.cancelUploadsLocked()
	f.values = f.schema.BlankValues()
	f.err = nil
	f.mode = mode
	f.state = mode
	f.editID = id
	f.loadFailed = false
	f.mu.Unlock()

	if !isEdit {
		return nil
	}

	doc, err := f.coll.Get(ctx, id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.epoch != ep {
		return nil
	}
	if err != nil {
		f.state = StateError
		f.err = err
		f.loadFailed = true
		f.logger.Error("load document",
			zap.String("collection", string(f.schema.Kind)),
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("load %s %s: %w", f.schema.Kind, id, err)
	}
	f.values = f.schema.ValuesOf(doc)
	return nil
}

// Close dismisses the form. In-flight uploads are cancelled and late results
// are ignored.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.epoch++
	f.stopResetLocked()
	f.cancelUploadsLocked()
	f.state = StateClosed
}

// Set changes a field value.
func (f *Form) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateClosed {
		return ErrNotOpen
	}
	if _, ok := f.schema.Field(key); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	f.values[key] = value
	return nil
}

// Submit validates the fields and writes the document. A validation failure
// moves the form to StateError without touching the backend. On success the
// form closes, the completion signal fires, and fields reset after the reset
// delay. It returns the ID of the written document.
func (f *Form) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	switch f.state {
	case StateClosed:
		f.mu.Unlock()
		return "", ErrNotOpen
	case StateSubmitting:
		f.mu.Unlock()
		return "", ErrBusy
	}

	if verr := f.schema.Validate(f.values); verr != nil {
		f.state = StateError
		f.err = verr
		f.mu.Unlock()
		f.notifier.Error(verr.Message)
		return "", verr
	}

	record, err := f.schema.Coerce(f.values)
	if err == nil {
		err = f.validator.Validate(f.schema, record)
	}
	if err != nil {
		f.state = StateError
		f.err = err
		f.mu.Unlock()
		f.logger.Error("document rejected", zap.String("collection", string(f.schema.Kind)), zap.Error(err))
		f.notifier.Error(err.Error())
		return "", err
	}

	isEdit := f.mode == StateEdit
	for _, key := range f.schema.Stamps(isEdit) {
		record[key] = types.ServerTimestamp
	}
	id := f.editID
	ep := f.epoch
	f.state = StateSubmitting
	f.mu.Unlock()

	if isEdit {
		err = f.coll.Update(ctx, id, record)
	} else {
		id, err = f.coll.Add(ctx, record)
	}

	f.mu.Lock()
	if f.epoch != ep {
		f.mu.Unlock()
		f.logger.Debug("form dismissed before write completed",
			zap.String("collection", string(f.schema.Kind)), zap.String("id", id))
		return id, err
	}
	if err != nil {
		f.state = StateError
		f.err = err
		f.mu.Unlock()
		f.logger.Error("save document",
			zap.String("collection", string(f.schema.Kind)),
			zap.String("id", id),
			zap.Error(err))
		f.notifier.Error(fmt.Sprintf("could not save %s: %v", strings.ToLower(f.schema.Title), err))
		return "", err
	}
	f.state = StateClosed
	f.err = nil
	f.cancelUploadsLocked()
	f.scheduleResetLocked()
	f.mu.Unlock()

	f.notifier.Success(f.schema.SavedMessage(isEdit))
	if f.onSaved != nil {
		f.onSaved(ctx, id)
	}
	return id, nil
}

// StartUpload uploads r to the slot's category and fills the slot's URL field
// on completion. Starting a new upload on a slot supersedes the previous one.
// The returned channel closes once the upload has settled.
func (f *Form) StartUpload(ctx context.Context, slotName, fileName string, r io.Reader, size int64) (<-chan struct{}, error) {
	slot, ok := f.schema.Slot(slotName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, slotName)
	}
	if f.uploader == nil {
		return nil, errors.New("no uploader configured")
	}
	objectPath, err := blob.ObjectPath(slot.Category, fileName)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.state == StateClosed {
		f.mu.Unlock()
		return nil, ErrNotOpen
	}
	st := f.slots[slotName]
	if st == nil {
		st = &slotState{}
		f.slots[slotName] = st
	}
	if st.cancel != nil {
		st.cancel()
	}
	st.epoch++
	ep := st.epoch
	uctx, cancel := context.WithCancel(ctx)
	st.cancel = cancel
	st.uploading = true
	st.percent = 0
	st.fileName = fileName
	formEpoch := f.epoch
	f.mu.Unlock()

	events := f.uploader.Upload(uctx, objectPath, r, size)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		for p := range events {
			f.applyProgress(slot, formEpoch, ep, fileName, size, p)
		}
		f.settleUpload(slot.Name, formEpoch, ep)
	}()
	return done, nil
}

// applyProgress folds one upload event into the form unless the upload has
// been superseded or the form dismissed.
func (f *Form) applyProgress(slot UploadSlot, formEpoch, ep uint64, fileName string, size int64, p blob.Progress) {
	f.mu.Lock()
	st := f.slots[slot.Name]
	if f.epoch != formEpoch || st == nil || st.epoch != ep {
		f.mu.Unlock()
		return
	}

	var failure error
	switch {
	case p.Err != nil:
		st.uploading = false
		st.cancel = nil
		if !errors.Is(p.Err, context.Canceled) {
			failure = p.Err
		}
	case p.Done:
		st.uploading = false
		st.cancel = nil
		st.percent = 100
		f.values[slot.URLField] = p.URL
		if slot.NameField != "" {
			f.values[slot.NameField] = fileName
		}
		if slot.SizeField != "" && strings.TrimSpace(f.values[slot.SizeField]) == "" && size > 0 {
			f.values[slot.SizeField] = megabytes(size)
		}
	default:
		st.percent = p.Percent()
	}
	f.mu.Unlock()

	if failure != nil {
		f.logger.Error("upload failed",
			zap.String("collection", string(f.schema.Kind)),
			zap.String("slot", slot.Name),
			zap.String("file", fileName),
			zap.Error(failure))
		f.notifier.Error(fmt.Sprintf("Upload failed: %v", failure))
	}
	if f.onProgress != nil {
		f.onProgress(slot.Name, p)
	}
}

// settleUpload clears the uploading flag of a stream that ended without a
// terminal event.
func (f *Form) settleUpload(slot string, formEpoch, ep uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.slots[slot]
	if f.epoch != formEpoch || st == nil || st.epoch != ep {
		return
	}
	st.uploading = false
	st.cancel = nil
}

// megabytes formats a byte count as MB with two decimals. Sizes that round
// to zero give "" so the required check still asks for a value.
func megabytes(n int64) string {
	mb := strconv.FormatFloat(float64(n)/(1024*1024), 'f', 2, 64)
	if mb == "0.00" {
		return ""
	}
	return mb
}

// cancelUploadsLocked cancels every in-flight upload and invalidates its
// pending events.
func (f *Form) cancelUploadsLocked() {
	for _, st := range f.slots {
		if st.cancel != nil {
			st.cancel()
			st.cancel = nil
		}
		st.epoch++
		st.uploading = false
	}
}

func (f *Form) stopResetLocked() {
	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetTimer = nil
	}
}

// scheduleResetLocked clears the fields after the reset delay unless the form
// has been reopened meanwhile.
func (f *Form) scheduleResetLocked() {
	if f.resetDelay <= 0 {
		f.values = f.schema.BlankValues()
		return
	}
	ep := f.epoch
	f.resetTimer = time.AfterFunc(f.resetDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.epoch == ep && f.state == StateClosed {
			f.values = f.schema.BlankValues()
		}
	})
}

// State returns the current state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsEdit reports whether the form was opened on an existing document.
func (f *Form) IsEdit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode == StateEdit
}

// EditID returns the ID of the document being edited.
func (f *Form) EditID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.editID
}

// Value returns one field value.
func (f *Form) Value(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

// Values returns a copy of all field values.
func (f *Form) Values() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Err returns the error shown in StateError.
func (f *Form) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Progress returns the upload percentage of a slot and whether an upload is
// in flight.
func (f *Form) Progress(slot string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.slots[slot]
	if st == nil {
		return 0, false
	}
	return st.percent, st.uploading
}

// Schema returns the form's schema.
func (f *Form) Schema() *Schema {
	return f.schema
}
