// Package contracts holds the wiring interfaces shared between the domain
// packages and the application bootstrap.
package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every domain HTTP handler. The bootstrap
// collects handlers and mounts their routes on a shared router, so domains
// never touch the server directly.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
