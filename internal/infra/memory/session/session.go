package infra_memory_session

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/humanbelnik/watchparty/internal/model"
	usecase_session "github.com/humanbelnik/watchparty/internal/usecase/session"
)

// Driver keeps sessions in process memory. It backs single-node setups
// without Redis and tests.
type Driver struct {
	mu       sync.Mutex
	sessions map[model.RoomCode][]byte
	now      func() time.Time
}

func New(now func() time.Time) *Driver {
	if now == nil {
		now = time.Now
	}
	return &Driver{
		sessions: make(map[model.RoomCode][]byte),
		now:      now,
	}
}

func (d *Driver) Create(ctx context.Context, s model.Session) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.load(s.Code); ok {
		return usecase_session.ErrCodeConflict
	}
	return d.store(s)
}

func (d *Driver) Get(ctx context.Context, code model.RoomCode) (model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.load(code)
	if !ok {
		return model.Session{}, usecase_session.ErrResourceNotFound
	}
	return s, nil
}

func (d *Driver) Update(ctx context.Context, code model.RoomCode, fn func(s *model.Session) error) (model.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.load(code)
	if !ok {
		return model.Session{}, usecase_session.ErrResourceNotFound
	}
	if err := fn(&s); err != nil {
		return model.Session{}, err
	}
	if err := d.store(s); err != nil {
		return model.Session{}, err
	}
	return s, nil
}

// Sessions are stored encoded so callers never share slices or maps with the
// stored copy.
func (d *Driver) load(code model.RoomCode) (model.Session, bool) {
	raw, ok := d.sessions[code]
	if !ok {
		return model.Session{}, false
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Session{}, false
	}
	if !s.ExpiresAt.IsZero() && !d.now().Before(s.ExpiresAt) {
		delete(d.sessions, code)
		return model.Session{}, false
	}
	return s, true
}

func (d *Driver) store(s model.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	d.sessions[s.Code] = raw
	return nil
}
