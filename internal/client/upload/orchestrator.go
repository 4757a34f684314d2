// Package upload drives the content-addressed upload protocol: hash the
// file, negotiate a presigned capability, PUT the bytes straight to object
// storage, then notify the API. Steps are strictly sequential within a
// task; tasks run independently and concurrently across files.
package upload

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/securevault/securevault/internal/client/api"
	"github.com/securevault/securevault/internal/cryptox"
	"github.com/securevault/securevault/internal/logging"
	"github.com/securevault/securevault/internal/netx"
)

const defaultContentType = "application/octet-stream"

// API is the slice of the transport the orchestrator needs.
type API interface {
	PresignUpload(ctx context.Context, req api.PresignUploadRequest) (*api.PresignUploadResponse, error)
	NotifyUpload(ctx context.Context, req api.NotifyUploadRequest) error
}

// Options configures an Orchestrator.
type Options struct {
	// HTTPClient performs the direct storage PUT. Defaults to
	// http.DefaultClient. This is NOT the API transport: the presigned URL
	// carries its own capability and must not get an auth header.
	HTTPClient *http.Client

	// Observer, when set, receives a snapshot of the task after every
	// status transition.
	Observer func(Task)

	// OnUploaded, when set, runs after each successful notify; the typical
	// use is invalidating/refreshing a file listing.
	OnUploaded func()

	// Concurrency bounds how many tasks UploadAll runs at once.
	// Values < 1 mean unbounded.
	Concurrency int
}

// Orchestrator tracks upload tasks and executes the four-step protocol for
// each. A finished or failed task stays tracked until explicitly removed.
type Orchestrator struct {
	api  API
	log  logging.Logger
	opts Options

	mu    sync.Mutex
	tasks map[string]*Task
	order []string
}

func New(apiClient API, log logging.Logger, opts Options) *Orchestrator {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Orchestrator{
		api:   apiClient,
		log:   log.With("component", "upload"),
		opts:  opts,
		tasks: make(map[string]*Task),
	}
}

// Enqueue registers the file at path as a new queued task and returns a
// snapshot of it. No network activity happens until Run.
func (o *Orchestrator) Enqueue(path string) (Task, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Task{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Task{}, fmt.Errorf("%s is a directory", path)
	}

	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = defaultContentType
	}

	t := &Task{
		ID:          uuid.NewString(),
		Name:        filepath.Base(path),
		Path:        path,
		ContentType: ct,
		Size:        info.Size(),
		Status:      StatusQueued,
	}

	o.mu.Lock()
	o.tasks[t.ID] = t
	o.order = append(o.order, t.ID)
	snapshot := *t
	o.mu.Unlock()

	o.publish(snapshot)
	return snapshot, nil
}

// Run executes the protocol for one task. It returns the task's terminal
// error, already recorded on the task, so callers may ignore it when they
// track status through the observer instead.
func (o *Orchestrator) Run(ctx context.Context, id string) error {
	// Hash. Must complete before presign: the digest gates acceptance.
	t, ok := o.setStatus(id, StatusHashing)
	if !ok {
		return fmt.Errorf("unknown task %s", id)
	}

	digest, err := cryptox.DigestFile(t.Path)
	if err != nil {
		return o.fail(ctx, id, StepHash, err)
	}
	o.update(id, func(t *Task) { t.Digest = digest })

	// Presign.
	presign, err := o.api.PresignUpload(ctx, api.PresignUploadRequest{
		FileName:    t.Name,
		ContentType: t.ContentType,
		Size:        t.Size,
		SHA256:      digest,
	})
	if err != nil {
		return o.fail(ctx, id, StepPresign, err)
	}
	o.update(id, func(t *Task) { t.RemoteKey = presign.Key })
	o.setStatus(id, StatusUploading)

	// Transfer: raw bytes to the presigned URL.
	if err := o.transfer(ctx, t, presign.UploadURL); err != nil {
		return o.fail(ctx, id, StepTransfer, err)
	}
	o.setStatus(id, StatusNotifying)

	// Notify, repeating size and digest for server-side verification.
	if err := o.api.NotifyUpload(ctx, api.NotifyUploadRequest{
		Key:    presign.Key,
		Size:   t.Size,
		SHA256: digest,
	}); err != nil {
		return o.fail(ctx, id, StepNotify, err)
	}

	o.setStatus(id, StatusDone)
	o.log.Info(ctx, "upload complete", "name", t.Name, "key", presign.Key, "size", t.Size)
	if o.opts.OnUploaded != nil {
		o.opts.OnUploaded()
	}
	return nil
}

func (o *Orchestrator) transfer(ctx context.Context, t Task, url string) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return netx.PutPresigned(ctx, o.opts.HTTPClient, url, t.ContentType, f, t.Size)
}

// UploadAll enqueues every path and runs the tasks concurrently, bounded by
// Options.Concurrency. Failures stay per-path: an unreadable path or a
// failed task never aborts its siblings, and every other path still runs to
// completion. The first recorded error is returned after all tasks finish.
func (o *Orchestrator) UploadAll(ctx context.Context, paths []string) error {
	var g errgroup.Group
	if o.opts.Concurrency > 0 {
		g.SetLimit(o.opts.Concurrency)
	}

	var firstErr error
	for _, path := range paths {
		t, err := o.Enqueue(path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		id := t.ID
		g.Go(func() error {
			return o.Run(ctx, id)
		})
	}

	if err := g.Wait(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Get returns a snapshot of one task.
func (o *Orchestrator) Get(id string) (Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Tasks returns snapshots in enqueue order.
func (o *Orchestrator) Tasks() []Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Task, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, *o.tasks[id])
	}
	return out
}

// Remove drops a task from tracking. Completed and failed tasks are kept
// until this explicit call; nothing is dropped silently.
func (o *Orchestrator) Remove(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.tasks[id]; !ok {
		return false
	}
	delete(o.tasks, id)
	for i, oid := range o.order {
		if oid == id {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// setStatus transitions a task and publishes the change to the observer.
func (o *Orchestrator) setStatus(id string, status Status) (Task, bool) {
	t, ok := o.update(id, func(t *Task) { t.Status = status })
	if ok {
		o.publish(t)
	}
	return t, ok
}

// update mutates a task under the lock without publishing; status
// transitions go through setStatus so observers see exactly one event per
// transition.
func (o *Orchestrator) update(id string, fn func(*Task)) (Task, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.tasks[id]
	if !ok {
		return Task{}, false
	}
	fn(t)
	return *t, true
}

func (o *Orchestrator) fail(ctx context.Context, id string, step Step, err error) error {
	stepErr := &StepError{Step: step, Err: err}
	t, ok := o.update(id, func(t *Task) {
		t.Status = StatusError
		t.Err = stepErr
	})
	if ok {
		o.publish(t)
	}
	o.log.Error(ctx, "upload step failed", "task", id, "step", string(step), "error", err)
	return stepErr
}

func (o *Orchestrator) publish(t Task) {
	if o.opts.Observer != nil {
		o.opts.Observer(t)
	}
}
