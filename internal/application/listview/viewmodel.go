// Package listview holds the per-session state of the record list pages:
// the loaded items, the edit and delete panels, in-flight guards for the
// remote actions and the pending toasts.
package listview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/isow/backend/internal/application/i18n"
	"github.com/isow/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// View errors
var (
	ErrActionInFlight    = shared.NewDomainError("ACTION_IN_FLIGHT", "The action is already in progress")
	ErrInvalidTransition = shared.NewDomainError("INVALID_STATE", "The action is not allowed in the current view state")
	ErrClosed            = shared.NewDomainError("VIEW_CLOSED", "The view has been closed")
)

// State is the observable state of a list view
type State string

const (
	StateIdle              State = "idle"
	StateLoading           State = "loading"
	StateLoaded            State = "loaded"
	StateEditOpen          State = "edit_open"
	StateDeleteConfirmOpen State = "delete_confirm_open"
)

// RenderMode tells the page what to draw for the list body
type RenderMode string

const (
	ModeSkeleton RenderMode = "skeleton"
	ModeEmpty    RenderMode = "empty"
	ModeTable    RenderMode = "table"
)

// Action is a remote action guarded against duplicate triggers
type Action string

const (
	ActionRefresh       Action = "refresh"
	ActionConfirmDelete Action = "confirm_delete"
	ActionSubmitEdit    Action = "submit_edit"
)

// Source is the remote side of a list view
type Source[T any, I any] interface {
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, id string, in I) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Config configures a ViewModel
type Config[T any, I any] struct {
	Entity   string
	Source   Source[T, I]
	ID       func(T) string
	Form     func(T) I
	Messages Messages
	// SettleDelay keeps the view in Loading after a fetch resolves. Quiet
	// revalidations skip it.
	SettleDelay time.Duration
	Logger      *zap.Logger
	Now         func() time.Time
}

// ViewModel is the list page state of one entity type for one session.
// It is safe for concurrent use; remote calls run outside the lock.
type ViewModel[T any, I any] struct {
	cfg Config[T, I]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	items      []T
	loaded     bool
	loading    bool
	editing    *T
	editOpen   bool
	deleting   string
	deleteOpen bool
	inFlight   map[Action]bool
	notices    []notice
	touched    time.Time
	// mutations counts successful edits and deletes. A fetch that started
	// before the latest one is refetched instead of applied.
	mutations uint64
}

// New creates an idle view. Nothing is fetched until Refresh is called.
func New[T any, I any](cfg Config[T, I]) *ViewModel[T, I] {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ViewModel[T, I]{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		inFlight: make(map[Action]bool),
		touched:  cfg.Now(),
	}
}

// Entity returns the entity type the view lists
func (vm *ViewModel[T, I]) Entity() string {
	return vm.cfg.Entity
}

// State returns the current state
func (vm *ViewModel[T, I]) State() State {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.stateLocked()
}

func (vm *ViewModel[T, I]) stateLocked() State {
	switch {
	case vm.editOpen:
		return StateEditOpen
	case vm.deleteOpen:
		return StateDeleteConfirmOpen
	case vm.loading:
		return StateLoading
	case vm.loaded:
		return StateLoaded
	default:
		return StateIdle
	}
}

// Mode returns how the list body should be rendered
func (vm *ViewModel[T, I]) Mode() RenderMode {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.modeLocked()
}

func (vm *ViewModel[T, I]) modeLocked() RenderMode {
	switch {
	case vm.loading || !vm.loaded:
		return ModeSkeleton
	case len(vm.items) == 0:
		return ModeEmpty
	default:
		return ModeTable
	}
}

// Items returns a copy of the listed items
func (vm *ViewModel[T, I]) Items() []T {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return slices.Clone(vm.items)
}

// Editing returns the item in the edit panel
func (vm *ViewModel[T, I]) Editing() (T, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.editing == nil {
		var zero T
		return zero, false
	}
	return *vm.editing, true
}

// Form returns the edit form pre-populated from the item being edited
func (vm *ViewModel[T, I]) Form() (I, bool) {
	item, ok := vm.Editing()
	if !ok || vm.cfg.Form == nil {
		var zero I
		return zero, false
	}
	return vm.cfg.Form(item), true
}

// DeletingID returns the id awaiting delete confirmation
func (vm *ViewModel[T, I]) DeletingID() string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.deleting
}

// LastTouched returns when the view was last used
func (vm *ViewModel[T, I]) LastTouched() time.Time {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.touched
}

// Refresh fetches every item and waits out the settle delay
func (vm *ViewModel[T, I]) Refresh(ctx context.Context) error {
	quiet, err := vm.beginRefresh(false)
	if err != nil {
		return err
	}
	defer vm.wg.Done()
	return vm.runRefresh(ctx, quiet)
}

// StartRefresh runs Refresh in the background. The goroutine is bound to
// the view and stops when the view is closed.
func (vm *ViewModel[T, I]) StartRefresh() error {
	return vm.startRefresh(false)
}

// Revalidate refetches in the background without taking the list off the
// page. A view that never loaded gets a regular refresh.
func (vm *ViewModel[T, I]) Revalidate() error {
	return vm.startRefresh(true)
}

func (vm *ViewModel[T, I]) startRefresh(revalidate bool) error {
	quiet, err := vm.beginRefresh(revalidate)
	if err != nil {
		return err
	}
	go func() {
		defer vm.wg.Done()
		if err := vm.runRefresh(vm.ctx, quiet); err != nil && !errors.Is(err, context.Canceled) {
			vm.cfg.Logger.Warn("background refresh failed",
				zap.String("entity", vm.cfg.Entity), zap.Error(err))
		}
	}()
	return nil
}

// beginRefresh marks the refresh in flight. A revalidation of a loaded view
// is quiet: the list stays rendered and no settle delay runs.
func (vm *ViewModel[T, I]) beginRefresh(revalidate bool) (bool, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.closed {
		return false, ErrClosed
	}
	if vm.inFlight[ActionRefresh] {
		return false, ErrActionInFlight
	}
	quiet := revalidate && vm.loaded
	vm.inFlight[ActionRefresh] = true
	if !quiet {
		vm.loading = true
	}
	vm.touched = vm.cfg.Now()
	vm.wg.Add(1)
	return quiet, nil
}

func (vm *ViewModel[T, I]) runRefresh(ctx context.Context, quiet bool) error {
	for {
		vm.mu.Lock()
		seen := vm.mutations
		vm.mu.Unlock()

		items, err := vm.cfg.Source.List(ctx)

		vm.mu.Lock()
		if err != nil {
			vm.loading = false
			vm.loaded = true
			vm.inFlight[ActionRefresh] = false
			vm.pushLocked(NotificationError, i18n.MsgLoadFailedTitle, i18n.MsgLoadFailedBody)
			vm.mu.Unlock()
			return fmt.Errorf("refresh %s: %w", vm.cfg.Entity, err)
		}
		if vm.mutations != seen {
			// An edit or delete landed while the fetch was out; its result
			// may predate it.
			vm.mu.Unlock()
			continue
		}
		vm.items = items
		vm.mu.Unlock()
		break
	}

	if !quiet {
		settle(ctx, vm.cfg.SettleDelay)
	}

	vm.mu.Lock()
	vm.loading = false
	vm.loaded = true
	vm.inFlight[ActionRefresh] = false
	vm.mu.Unlock()
	return nil
}

// OpenEdit opens the edit panel for the listed item with the given id
func (vm *ViewModel[T, I]) OpenEdit(id string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.stateLocked() != StateLoaded {
		return ErrInvalidTransition
	}
	idx := vm.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("edit %s/%s: %w", vm.cfg.Entity, id, shared.ErrNotFound)
	}
	item := vm.items[idx]
	vm.editing = &item
	vm.editOpen = true
	vm.touched = vm.cfg.Now()
	return nil
}

// SubmitEdit sends the form to the source. A validation failure keeps the
// panel open; any other outcome closes it and clears the selection.
func (vm *ViewModel[T, I]) SubmitEdit(ctx context.Context, in I) (*T, error) {
	vm.mu.Lock()
	if !vm.editOpen || vm.editing == nil {
		vm.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if vm.inFlight[ActionSubmitEdit] {
		vm.mu.Unlock()
		return nil, ErrActionInFlight
	}
	vm.inFlight[ActionSubmitEdit] = true
	id := vm.cfg.ID(*vm.editing)
	vm.touched = vm.cfg.Now()
	vm.mu.Unlock()

	updated, err := vm.cfg.Source.Update(ctx, id, in)

	vm.mu.Lock()
	vm.inFlight[ActionSubmitEdit] = false
	if errors.Is(err, shared.ErrValidation) {
		vm.mu.Unlock()
		return nil, err
	}
	vm.editOpen = false
	vm.editing = nil
	if err != nil {
		vm.pushLocked(NotificationError, i18n.MsgEditFailedTitle, vm.cfg.Messages.EditFailed)
		vm.mu.Unlock()
		return nil, err
	}
	vm.mutations++
	if idx := vm.indexLocked(id); idx >= 0 && updated != nil {
		vm.items[idx] = *updated
	}
	vm.pushLocked(NotificationSuccess, vm.cfg.Messages.Edited, vm.cfg.Messages.EditedBody)
	vm.mu.Unlock()

	vm.refreshAfterMutation()
	return updated, nil
}

// SubmitEditFrom decodes the form with bind and submits it
func (vm *ViewModel[T, I]) SubmitEditFrom(ctx context.Context, bind func(any) error) error {
	var in I
	if err := bind(&in); err != nil {
		return shared.ErrInvalidInput.WithCause(err)
	}
	_, err := vm.SubmitEdit(ctx, in)
	return err
}

// CancelEdit closes the edit panel without a remote call
func (vm *ViewModel[T, I]) CancelEdit() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.editOpen = false
	vm.editing = nil
	vm.touched = vm.cfg.Now()
}

// RequestDelete opens the delete confirmation for the listed item
func (vm *ViewModel[T, I]) RequestDelete(id string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.stateLocked() != StateLoaded {
		return ErrInvalidTransition
	}
	if vm.indexLocked(id) < 0 {
		return fmt.Errorf("delete %s/%s: %w", vm.cfg.Entity, id, shared.ErrNotFound)
	}
	vm.deleting = id
	vm.deleteOpen = true
	vm.touched = vm.cfg.Now()
	return nil
}

// ConfirmDelete deletes the selected item. On success the item is dropped
// from the list right away and a refresh is started.
func (vm *ViewModel[T, I]) ConfirmDelete(ctx context.Context) error {
	vm.mu.Lock()
	if !vm.deleteOpen {
		vm.mu.Unlock()
		return ErrInvalidTransition
	}
	if vm.inFlight[ActionConfirmDelete] {
		vm.mu.Unlock()
		return ErrActionInFlight
	}
	vm.inFlight[ActionConfirmDelete] = true
	id := vm.deleting
	vm.touched = vm.cfg.Now()
	vm.mu.Unlock()

	err := vm.cfg.Source.Delete(ctx, id)

	vm.mu.Lock()
	vm.inFlight[ActionConfirmDelete] = false
	vm.deleteOpen = false
	vm.deleting = ""
	if err != nil {
		vm.pushLocked(NotificationError, i18n.MsgRemoveFailedTitle, vm.cfg.Messages.RemoveFailed)
		vm.mu.Unlock()
		return err
	}
	vm.mutations++
	vm.items = slices.DeleteFunc(vm.items, func(item T) bool { return vm.cfg.ID(item) == id })
	vm.pushLocked(NotificationSuccess, vm.cfg.Messages.Removed, vm.cfg.Messages.RemovedBody)
	vm.mu.Unlock()

	vm.refreshAfterMutation()
	return nil
}

// CancelDelete closes the delete confirmation without a remote call
func (vm *ViewModel[T, I]) CancelDelete() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.deleteOpen = false
	vm.deleting = ""
	vm.touched = vm.cfg.Now()
}

// InFlight reports whether the action is pending
func (vm *ViewModel[T, I]) InFlight(action Action) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.inFlight[action]
}

// Close cancels background refreshes and waits for them to stop
func (vm *ViewModel[T, I]) Close() {
	vm.mu.Lock()
	vm.closed = true
	vm.mu.Unlock()
	vm.cancel()
	vm.wg.Wait()
}

// Notify queues a notification for the next snapshot. title and body are
// catalog keys.
func (vm *ViewModel[T, I]) Notify(kind NotificationKind, title, body string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.pushLocked(kind, title, body)
}

func (vm *ViewModel[T, I]) refreshAfterMutation() {
	if err := vm.Revalidate(); err != nil && !errors.Is(err, ErrActionInFlight) && !errors.Is(err, ErrClosed) {
		vm.cfg.Logger.Warn("failed to start refresh", zap.String("entity", vm.cfg.Entity), zap.Error(err))
	}
}

func (vm *ViewModel[T, I]) indexLocked(id string) int {
	return slices.IndexFunc(vm.items, func(item T) bool { return vm.cfg.ID(item) == id })
}

func (vm *ViewModel[T, I]) pushLocked(kind NotificationKind, title, body string) {
	vm.notices = append(vm.notices, newNotice(kind, title, body, vm.cfg.Now()))
	if over := len(vm.notices) - maxNotifications; over > 0 {
		vm.notices = vm.notices[over:]
	}
}

func settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Snapshot is the rendered view state. Pending notifications are handed
// out once and then dropped.
type Snapshot struct {
	Entity        string         `json:"entity"`
	State         State          `json:"state"`
	Mode          RenderMode     `json:"mode"`
	Items         any            `json:"items"`
	Count         int            `json:"count"`
	Editing       any            `json:"editing,omitempty"`
	Form          any            `json:"form,omitempty"`
	DeletingID    string         `json:"deleting_id,omitempty"`
	InFlight      []Action       `json:"in_flight,omitempty"`
	EmptyMessage  string         `json:"empty_message,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// Snapshot renders the state with messages in lang
func (vm *ViewModel[T, I]) Snapshot(lang language.Tag) Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	items := slices.Clone(vm.items)
	if items == nil {
		items = []T{}
	}
	snap := Snapshot{
		Entity:        vm.cfg.Entity,
		State:         vm.stateLocked(),
		Mode:          vm.modeLocked(),
		Items:         items,
		Count:         len(vm.items),
		DeletingID:    vm.deleting,
		Notifications: make([]Notification, 0, len(vm.notices)),
	}
	if vm.editOpen && vm.editing != nil {
		snap.Editing = *vm.editing
		if vm.cfg.Form != nil {
			snap.Form = vm.cfg.Form(*vm.editing)
		}
	}
	for _, a := range []Action{ActionRefresh, ActionConfirmDelete, ActionSubmitEdit} {
		if vm.inFlight[a] {
			snap.InFlight = append(snap.InFlight, a)
		}
	}
	if snap.Mode == ModeEmpty && vm.cfg.Messages.Empty != "" {
		snap.EmptyMessage = i18n.T(lang, vm.cfg.Messages.Empty)
	}
	for _, n := range vm.notices {
		snap.Notifications = append(snap.Notifications, n.render(lang))
	}
	vm.notices = nil
	vm.touched = vm.cfg.Now()
	return snap
}
