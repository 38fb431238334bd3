package runner

import (
	"github.com/stretchr/testify/mock"

	"github.com/michael-freling/agent-hooks/internal/hooks"
)

// MockRegistryLoader is a mock implementation of RegistryLoader for testing.
type MockRegistryLoader struct {
	mock.Mock
}

// LoadRegistry is a mock implementation of RegistryLoader.LoadRegistry.
func (m *MockRegistryLoader) LoadRegistry() (*hooks.Registry, error) {
	args := m.Called()
	registry, _ := args.Get(0).(*hooks.Registry)
	return registry, args.Error(1)
}
