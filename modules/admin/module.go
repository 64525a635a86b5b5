package admin

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// AdminModule exposes the administrator aggregate views. It owns no storage
// of its own; everything is read through the identity and task sides.
type AdminModule struct {
	service *AdminService
}

// Compile-time interface checks.
var _ mono.Module = (*AdminModule)(nil)

// NewModule creates a new AdminModule. cache may be nil when Redis is not
// configured.
func NewModule(users UserDirectory, tasks TaskSource, cache DashboardCache) *AdminModule {
	return &AdminModule{
		service: NewAdminService(users, tasks, cache),
	}
}

// Name returns the module name.
func (m *AdminModule) Name() string {
	return "admin"
}

// Service returns the admin service for direct wiring.
func (m *AdminModule) Service() *AdminService {
	return m.service
}

// Start starts the module.
func (m *AdminModule) Start(_ context.Context) error {
	log.Println("[admin] Module started")
	return nil
}

// Stop stops the module.
func (m *AdminModule) Stop(_ context.Context) error {
	log.Println("[admin] Module stopped")
	return nil
}
