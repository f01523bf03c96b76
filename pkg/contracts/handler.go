package contracts

import "github.com/julienschmidt/httprouter"

// Handler registers admin routes under /api/v1.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// PublicHandler also exposes unauthenticated submission routes, which are
// served behind rate limiting and idempotency.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*httprouter.Router)
}
