package workflow

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"rfbmarket/internal/rfb"
	"rfbmarket/models"
)

// Registry holds the proposals in progress, keyed by proposal id. Proposals
// stay until Sweep finds them idle.
type Registry struct {
	mu        sync.RWMutex
	proposals map[string]*Proposal
	deps      Deps
}

// NewRegistry returns an empty registry opening proposals with deps.
func NewRegistry(deps Deps) *Registry {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Registry{
		proposals: make(map[string]*Proposal),
		deps:      deps,
	}
}

// Open starts a proposal against record. Closed and lapsed records are refused.
func (r *Registry) Open(record models.RFBRecord) (*Proposal, error) {
	now := r.now()
	if rfb.EffectiveStatus(record, now) != models.RFBOpen {
		return nil, fmt.Errorf("%w: %s", ErrRFBClosed, record.ID)
	}

	p := New(uuid.NewString(), record, r.deps)
	r.mu.Lock()
	r.proposals[p.ID()] = p
	r.mu.Unlock()

	r.deps.Log.Info().Str("proposal_id", p.ID()).Str("rfb_id", record.ID).Msg("proposal opened")
	return p, nil
}

// Get returns the proposal with the given id or ErrNotFound.
func (r *Registry) Get(id string) (*Proposal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.proposals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Sweep drops proposals that have not been read or changed for maxIdle and
// reports how many were removed. Busy proposals are kept.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, p := range r.proposals {
		if p.idle(now, maxIdle) {
			delete(r.proposals, id)
			n++
		}
	}
	return n
}

// Len is the number of proposals held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.proposals)
}

func (r *Registry) now() time.Time {
	if r.deps.Now != nil {
		return r.deps.Now()
	}
	return time.Now()
}
