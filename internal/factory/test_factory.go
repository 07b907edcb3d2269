package factory

import (
	"time"

	"github.com/posa/jerseyapp/internal/dependencies/mocks"
	"github.com/posa/jerseyapp/internal/services/auth"
	"github.com/posa/jerseyapp/internal/storage/memory"
	"github.com/posa/jerseyapp/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockNotifier *mocks.MockNotifier
	Memory       *memory.Storage
}

// NewTestApp creates an App backed by memory storage with a mocked clock and notifier
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC))
	mockNotifier := mocks.NewMockNotifier()

	app := newWithDependencies(store, mockClock, mockNotifier, "", auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockNotifier: mockNotifier,
		Memory:       store,
	}
}
