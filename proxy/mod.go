// Package proxy defines the HTTP front-end of a node.
package proxy

import (
	"net"
	"net/http"
)

// Proxy defines the primitives to implement an http server that handles
// client side requests.
type Proxy interface {
	// Listen starts the proxy server. This call is assumed to be blocking.
	Listen()

	// Stop stops the proxy server.
	Stop()

	// GetAddr returns the address the server is listening on, or nil when
	// it is not listening.
	GetAddr() net.Addr

	// RegisterHandler registers a new handler for every method of the path.
	RegisterHandler(path string, handler func(http.ResponseWriter, *http.Request))

	// RegisterRoute registers a new handler for the method and the pattern.
	// The pattern can contain URL parameters like /missions/{id}.
	RegisterRoute(method, pattern string, handler func(http.ResponseWriter, *http.Request))
}

// Router is implemented by the components that expose routes on the proxy.
type Router interface {
	// Routes registers the handlers of the component.
	Routes(Proxy)
}
