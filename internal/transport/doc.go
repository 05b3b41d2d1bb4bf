// Package transport carries encoded hub requests over HTTP.
//
// The Transport interface is the whole contract the gate client relies on:
// send a GET with query parameters to a URL and return the body, or fail
// with a categorised *Error. Timeouts and retries are decided here and never
// by callers.
//
// HTTPTransport is the production implementation. Retries are off by
// default because an activate command toggles the door: repeating a request
// whose response was lost may move the door twice. When enabled, only
// failures that prove the request never reached the hub (connection refused,
// unreachable host or network) are retried.
//
// Instrumented wraps any Transport with Prometheus request metrics.
package transport
