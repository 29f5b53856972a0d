// Package panel implements the user settings panel: optimistic edits on top
// of the stored settings, written back after a quiet period.
package panel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/docket-app/docket/internal/debounce"
	"github.com/docket-app/docket/internal/metrics"
	"github.com/docket-app/docket/internal/overlay"
	"github.com/docket-app/docket/internal/settings"
)

// DefaultDebounce is the quiet period before edits are written.
const DefaultDebounce = 750 * time.Millisecond

// saveTimeout bounds a debounced write, which runs outside any request.
const saveTimeout = 10 * time.Second

// Placeholder texts of an empty panel.
const (
	EmptyOwner    = "No settings to manage yet."
	EmptyAdmin    = "No settings to manage for this user."
	AdminSubtitle = "GDPR-specific settings intentionally excluded."
)

// ErrSettingNotFound is returned when an edit names a setting the panel does not show.
var ErrSettingNotFound = errors.New("setting not found")

// Mode is who looks at the panel.
type Mode int

const (
	// Owner is the user editing their own settings.
	Owner Mode = iota
	// Admin is an administrator editing another user's settings.
	Admin
)

func (m Mode) String() string {
	if m == Admin {
		return "admin"
	}

	return "owner"
}

// Store loads and writes the full settings list of a user.
type Store interface {
	Load(ctx context.Context, userID uint64) ([]settings.Setting, error)
	Save(ctx context.Context, userID uint64, list []settings.Setting) error
}

// View is what a panel renders.
type View struct {
	Settings []settings.Setting
	// Empty is the placeholder shown when Settings is empty.
	Empty    string
	Subtitle string
	// Error is the message of the last failed write.
	Error  string
	Saving bool
}

// Panel is the settings panel of one user seen in one mode.
type Panel struct {
	userID uint64
	mode   Mode
	store  Store
	now    func() time.Time

	edits    *overlay.Overlay[uint64, settings.Setting]
	debounce *debounce.Debouncer

	mu      sync.Mutex
	lastErr error
}

// New returns a panel. A zero delay uses DefaultDebounce.
func New(store Store, userID uint64, mode Mode, delay time.Duration) *Panel {
	if delay <= 0 {
		delay = DefaultDebounce
	}

	return &Panel{
		userID:   userID,
		mode:     mode,
		store:    store,
		now:      time.Now,
		edits:    overlay.New[uint64, settings.Setting](),
		debounce: debounce.New(delay),
	}
}

func settingID(s settings.Setting) uint64 { return s.ID }

// snapshot loads the stored list as this panel's mode shows it.
func (p *Panel) snapshot(ctx context.Context) ([]settings.Setting, error) {
	list, err := p.store.Load(ctx, p.userID)
	if err != nil {
		return nil, err
	}

	if p.mode == Admin {
		list = settings.WithoutGDPR(list)
	}

	return list, nil
}

// View returns the stored settings with pending edits applied. The error of a
// failed write is reported once.
func (p *Panel) View(ctx context.Context) (View, error) {
	list, err := p.snapshot(ctx)
	if err != nil {
		return View{}, err
	}

	v := View{
		Settings: p.edits.Merge(list, settingID),
		Saving:   p.edits.Len() > 0,
		Empty:    EmptyOwner,
	}

	if p.mode == Admin {
		v.Empty = EmptyAdmin
		v.Subtitle = AdminSubtitle
	}

	p.mu.Lock()
	if p.lastErr != nil {
		v.Error = p.lastErr.Error()
		p.lastErr = nil
	}
	p.mu.Unlock()

	return v, nil
}

// Edit stages a new raw value for a setting and schedules the write. A value
// that does not parse as the setting's type is rejected and nothing is staged.
func (p *Panel) Edit(ctx context.Context, id uint64, raw string) (settings.Setting, error) {
	list, err := p.snapshot(ctx)
	if err != nil {
		return settings.Setting{}, err
	}

	var (
		current settings.Setting
		found   bool
	)

	for _, s := range p.edits.Merge(list, settingID) {
		if s.ID == id {
			current, found = s, true
			break
		}
	}

	if !found {
		return settings.Setting{}, ErrSettingNotFound
	}

	v, err := settings.Parse(current.Type, raw)
	if err != nil {
		return current, err
	}

	current.Value = v.String()

	if p.mode == Owner {
		ts := p.now()
		current.LastUpdatedByUser = &ts
	}

	p.edits.Stage(id, current)
	p.debounce.Trigger(p.save)

	return current, nil
}

// save writes the full list with every pending edit applied.
func (p *Panel) save() {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	versions := p.edits.Versions()
	if len(versions) == 0 {
		return
	}

	list, err := p.snapshot(ctx)
	if err == nil {
		err = p.store.Save(ctx, p.userID, p.edits.Merge(list, settingID))
	}

	metrics.Flushes.WithLabelValues("settings_"+p.mode.String(), metrics.Result(err)).Inc()

	if err != nil {
		log.Error().Err(err).Uint64("user_id", p.userID).Str("mode", p.mode.String()).Msg("failed to save settings")
		p.edits.Rollback(versions)

		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()

		return
	}

	p.edits.Confirm(versions)
}

// Flush writes pending edits now. It reports whether there were any.
func (p *Panel) Flush() bool {
	return p.debounce.Flush()
}

// Discard drops pending edits without writing them.
func (p *Panel) Discard() {
	p.debounce.Stop()
	p.edits.Clear()
}

// Pending reports whether edits wait for their write.
func (p *Panel) Pending() bool {
	return p.edits.Len() > 0
}
