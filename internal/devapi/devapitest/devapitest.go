// Package devapitest starts the reference backend for tests, on an in-memory
// database loaded with the demo directory.
package devapitest

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/healthmap/healthmap/internal/config"
	"github.com/healthmap/healthmap/internal/devapi"
)

// Accounts present in every test server
const (
	AdminEmail     = "admin@healthmap.test"
	AdminPassword  = "admin123"
	MemberEmail    = "aminata.diop@hpd.sn" // member of structure 1
	MemberID       = 1
	MemberPassword = "membre123"
	OtherEmail     = "moussa.fall@cliniquemadeleine.sn" // member of structure 2
	OtherMemberID  = 2

	MemberStructureID = 1
	OtherStructureID  = 2
	DemoStructures    = 5
)

// Server is a running reference backend
type Server struct {
	*devapi.Server
	// URL is the API base URL, e.g. http://127.0.0.1:1234/api
	URL string
}

// Start runs a seeded backend until the test ends
func Start(t testing.TB) *Server {
	t.Helper()

	cfg := config.DevAPIConfig{
		DatabaseURL:   devapi.InMemoryDatabase,
		AdminEmail:    AdminEmail,
		AdminPassword: AdminPassword,
	}
	srv, err := devapi.New(cfg, zerolog.Nop(), "test", devapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	require.NoError(t, srv.SeedDemo())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	return &Server{Server: srv, URL: ts.URL + "/api"}
}
