package httpclient

import (
	"net/http"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
)

// Client envuelve *http.Client para los adapters que hablan HTTP con
// servicios externos (el SDK de AWS acepta cualquier cliente con Do).
type Client struct {
	HTTP *http.Client
}

// NewWithTransport crea un Client con timeout. Transport nil usa http.DefaultTransport.
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tr == nil {
		tr = http.DefaultTransport
	}
	return &Client{
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// Do cumple la interfaz HTTPClient del SDK.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.HTTP.Do(req)
}
