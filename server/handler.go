package server

// Meta describes one exchange for keep-alive decisions and the access log
type Meta struct {
	Method     string
	Path       string
	Version    string // e.g. "HTTP/1.1"
	Status     int
	Connection string // value of the request Connection header, if any
}

// RequestHandler turns one raw request into one complete response.
// A non-nil error with a non-empty response still writes the response and
// then closes the connection.
type RequestHandler interface {
	Handle(raw []byte) (resp []byte, meta Meta, err error)
}

// HandlerFunc adapts a function to RequestHandler
type HandlerFunc func(raw []byte) ([]byte, Meta, error)

// Handle calls f(raw)
func (f HandlerFunc) Handle(raw []byte) ([]byte, Meta, error) {
	return f(raw)
}
