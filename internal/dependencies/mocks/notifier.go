package mocks

import (
	"context"
	"sync"

	"github.com/posa/jerseyapp/internal/services/notify"
)

// MockNotifier records confirmations instead of sending them
type MockNotifier struct {
	mu   sync.Mutex
	Sent []notify.Confirmation

	// Err, when set, is returned from every call
	Err error
}

// Ensure MockNotifier implements Notifier
var _ notify.Notifier = (*MockNotifier)(nil)

// NewMockNotifier creates an empty MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// SendConfirmation records c and returns Err
func (n *MockNotifier) SendConfirmation(ctx context.Context, c notify.Confirmation) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, c)
	return n.Err
}

// Count returns the number of confirmations attempted
func (n *MockNotifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sent)
}
