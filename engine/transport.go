package engine

import "net/http"

// Transport exposes the engine as an http.RoundTripper so higher level
// clients funnel every call through the shared queue.
func (e *Engine) Transport() http.RoundTripper {
	return transport{engine: e}
}

type transport struct {
	engine *Engine
}

func (t transport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.engine.Do(req.Context(), req)
}
