// Package linkdbapi exposes the LinkDB component over HTTP: topology CRUD,
// interface reservation, and connection spectrum allocation (spec §4.1,
// §6), built on the shared pkg/apiserver scaffold.
package linkdbapi

import (
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/linkdb"
)

// Server wraps the generic apiserver.Server with LinkDB's service and
// routes.
type Server struct {
	*apiserver.Server
	svc *linkdb.Service
}

// New returns a LinkDB API server backed by svc, with every route
// registered.
func New(svc *linkdb.Service, opts apiserver.Options) *Server {
	s := &Server{
		Server: apiserver.New("linkdb", opts),
		svc:    svc,
	}
	s.registerRoutes()
	return s
}
