// Package ctrlapi exposes the Controller over HTTP: connection lifecycle
// operations, topology path lookups, QoT status, and agent liveness (spec
// §4.3, §6), built on the shared pkg/apiserver scaffold.
package ctrlapi

import (
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/apiserver"
	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/ctrl"
)

// Server wraps the generic apiserver.Server with the Controller's
// orchestrator and routes.
type Server struct {
	*apiserver.Server
	ctrl *ctrl.Controller
}

// New returns a Controller API server backed by c, with every route
// registered.
func New(c *ctrl.Controller, opts apiserver.Options) *Server {
	s := &Server{
		Server: apiserver.New("controller", opts),
		ctrl:   c,
	}
	s.registerRoutes()
	return s
}
