// Package app wires configuration, the content library, blob storage, and
// the dashboard views into one handle shared by the CLI and the HTTP server.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/blob"
	"github.com/mesh-intelligence/qurancms/internal/config"
	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/internal/paths"
	"github.com/mesh-intelligence/qurancms/internal/session"
	"github.com/mesh-intelligence/qurancms/pkg/library"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// App is an attached content library plus the services built around it.
type App struct {
	Config    *config.Config
	ConfigDir string
	DataDir   string
	Logger    *zap.Logger
	Library   types.Library
	Blobs     *blob.Store
	Events    *content.Broadcaster

	formOpts []content.FormOption
}

// Option configures an App.
type Option func(*App)

// WithFormOptions adds options to every form the App creates.
func WithFormOptions(opts ...content.FormOption) Option {
	return func(a *App) { a.formOpts = append(a.formOpts, opts...) }
}

// WithBlobFs replaces the OS filesystem under the storage root.
func WithBlobFs(fs afero.Fs) Option {
	return func(a *App) { a.Blobs = blob.NewStore(fs, a.Config.Storage.PublicURL) }
}

// Open attaches the configured backend over dataDir and prepares the blob
// store under the storage root.
func Open(ctx context.Context, cfg *config.Config, configDir, dataDir string, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lib, err := library.New(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if err := lib.Attach(ctx, cfg.Library(dataDir)); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", cfg.Backend, err)
	}

	a := &App{
		Config:    cfg,
		ConfigDir: configDir,
		DataDir:   dataDir,
		Logger:    logger,
		Library:   lib,
		Events:    content.NewBroadcaster(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Blobs == nil {
		root, err := paths.ResolveStorageRoot(cfg.Storage.Root, dataDir)
		if err != nil {
			lib.Detach()
			return nil, fmt.Errorf("resolve storage root: %w", err)
		}
		if err := os.MkdirAll(root, 0o755); err != nil {
			lib.Detach()
			return nil, fmt.Errorf("create storage root: %w", err)
		}
		a.Blobs = blob.NewStore(afero.NewBasePathFs(afero.NewOsFs(), root), cfg.Storage.PublicURL)
	}

	logger.Info("library attached",
		zap.String("backend", cfg.Backend),
		zap.String("data_dir", dataDir),
		zap.Bool("legacy_collection_names", cfg.LegacyCollectionNames))
	return a, nil
}

// Close detaches the library.
func (a *App) Close() error {
	return a.Library.Detach()
}

// Collection returns the collection of kind.
func (a *App) Collection(kind types.Kind) (types.Collection, error) {
	return a.Library.Collection(kind)
}

// View returns a list view of kind whose toasts go to n and to the event
// broadcaster. Saves and deletes also broadcast a refresh event.
func (a *App) View(kind types.Kind, n content.Notifier) (*content.ListView, error) {
	schema, err := content.SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	coll, err := a.Library.Collection(kind)
	if err != nil {
		return nil, err
	}
	name := kind.Plural()
	notifier := content.Notifiers(n, a.Events.Notifier(name), refresher{b: a.Events, collection: name})

	formOpts := []content.FormOption{
		content.WithUploader(a.Blobs),
		content.WithProgress(func(slot string, p blob.Progress) {
			a.Events.Publish(content.Event{
				Type:       content.EventProgress,
				Collection: name,
				Slot:       slot,
				Percent:    p.Percent(),
			})
		}),
	}
	formOpts = append(formOpts, a.formOpts...)

	return content.NewListView(schema, coll,
		content.WithLogger(a.Logger.With(zap.String("view", name))),
		content.WithNotifier(notifier),
		content.WithFormOptions(formOpts...),
	), nil
}

// Gate returns the CLI session gate backed by the marker file in the config
// directory.
func (a *App) Gate() *session.Gate {
	return NewFileGate(a.Config, a.ConfigDir)
}

// NewFileGate builds a gate over the session marker in configDir without
// attaching a library.
func NewFileGate(cfg *config.Config, configDir string) *session.Gate {
	store := session.NewFileStore(afero.NewOsFs(), paths.SessionFile(configDir))
	return session.NewGate(store, session.WithAdminKey(cfg.AdminKey))
}

// refresher tells subscribers to refetch a collection after a write.
type refresher struct {
	b          *content.Broadcaster
	collection string
}

func (r refresher) Success(string) {
	r.b.Publish(content.Event{Type: content.EventRefresh, Collection: r.collection})
}

func (refresher) Error(string) {}
