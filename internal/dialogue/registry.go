package dialogue

import (
	"context"
	"sync"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/assist"
	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// Key identifies an open dialogue.
type Key struct {
	SessionID string
	Topic     domain.Topic
}

// Registry holds at most one open dialogue per session and topic. Dialogue
// state lives only here and is dropped on confirm or cancel.
type Registry struct {
	mu     sync.Mutex
	turner Turner
	cfg    Config
	open   map[Key]*Controller
}

func NewRegistry(turner Turner, cfg Config) *Registry {
	return &Registry{turner: turner, cfg: cfg, open: make(map[Key]*Controller)}
}

// Open starts a dialogue and fetches its first turn. If one is already open
// for the same key, Open returns it when resume is set and the subject
// matches, and ErrDialogueOpen otherwise. A dialogue whose first turn fails
// is not kept.
func (r *Registry) Open(ctx context.Context, p Params, resume bool) (*Controller, *assist.Result, error) {
	key := Key{SessionID: p.SessionID, Topic: p.Topic}

	r.mu.Lock()
	if existing, ok := r.open[key]; ok {
		r.mu.Unlock()
		if resume && existing.params.Subject == p.Subject {
			return existing, nil, nil
		}
		return nil, nil, ErrDialogueOpen
	}
	c, err := newController(r.turner, r.cfg, p)
	if err != nil {
		r.mu.Unlock()
		return nil, nil, err
	}
	r.open[key] = c
	r.mu.Unlock()

	res, err := c.Start(ctx)
	if err != nil || !res.Success || res.Turn == nil {
		r.remove(key, c)
		return nil, res, err
	}
	return c, res, nil
}

// Get returns the open dialogue for key.
func (r *Registry) Get(key Key) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.open[key]
	if !ok {
		return nil, ErrNoDialogue
	}
	return c, nil
}

// Confirm returns the dialogue's selection and closes it. The dialogue stays
// open if it cannot be confirmed yet.
func (r *Registry) Confirm(key Key) (Confirmation, error) {
	c, err := r.Get(key)
	if err != nil {
		return Confirmation{}, err
	}
	conf, err := c.Confirm()
	if err != nil {
		return Confirmation{}, err
	}
	r.remove(key, c)
	return conf, nil
}

// Cancel closes the dialogue without a selection.
func (r *Registry) Cancel(key Key) error {
	c, err := r.Get(key)
	if err != nil {
		return err
	}
	r.remove(key, c)
	return nil
}

// Len reports the number of open dialogues.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

func (r *Registry) remove(key Key, c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.open[key] == c {
		delete(r.open, key)
	}
}
