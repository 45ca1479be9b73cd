package content

import (
	"context"
	"sync"
)

// ConfirmDialog gates a destructive action behind an explicit confirm.
type ConfirmDialog struct {
	mu     sync.Mutex
	open   bool
	action func(context.Context) error
}

// Open shows the dialog for action, replacing any pending action.
func (d *ConfirmDialog) Open(action func(context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = true
	d.action = action
}

// IsOpen reports whether the dialog is shown.
func (d *ConfirmDialog) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// Confirm runs the pending action. The dialog closes when the action
// succeeds and stays open when it fails.
func (d *ConfirmDialog) Confirm(ctx context.Context) error {
	d.mu.Lock()
	if !d.open || d.action == nil {
		d.mu.Unlock()
		return ErrDialogClosed
	}
	action := d.action
	d.mu.Unlock()

	if err := action(ctx); err != nil {
		return err
	}

	d.mu.Lock()
	d.open = false
	d.action = nil
	d.mu.Unlock()
	return nil
}

// Cancel closes the dialog without running the action.
func (d *ConfirmDialog) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.action = nil
}
