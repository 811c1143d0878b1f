package booking

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-booking-client/internal/api"
)

// Manager scopes seat-selection workflows: one per signed-in browser and
// flight. Opening the seat screen always starts a fresh workflow so price
// and availability are revalidated; the previous instance for the same key
// is discarded along with its selection.
type Manager struct {
	client api.Service
	log    *logrus.Logger

	mu    sync.Mutex
	flows map[string]*Workflow
}

func NewManager(client api.Service, log *logrus.Logger) *Manager {
	return &Manager{
		client: client,
		log:    log,
		flows:  make(map[string]*Workflow),
	}
}

func flowKey(token string, flightID int64) string {
	return fmt.Sprintf("%s/%d", token, flightID)
}

// Open starts a fresh workflow for the given browser token and flight and
// loads it. On load failure nothing is registered and the caller surfaces
// the error.
func (m *Manager) Open(ctx context.Context, token string, flightID int64) (*Workflow, error) {
	w := New(m.client, m.log, flightID)
	if err := w.Load(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.flows[flowKey(token, flightID)] = w
	m.mu.Unlock()
	return w, nil
}

// Get returns the live workflow for the token and flight, if any.
func (m *Manager) Get(token string, flightID int64) (*Workflow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.flows[flowKey(token, flightID)]
	return w, ok
}

// Drop discards the workflow, clearing its selection. Called when the
// passenger navigates away or the booking concludes.
func (m *Manager) Drop(token string, flightID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, flowKey(token, flightID))
}
