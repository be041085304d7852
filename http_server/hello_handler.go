package http_server

import (
	"net/http"
	"time"
)

type HelloResponse struct {
	Output                string            `json:"output"`
	Timestamp             string            `json:"timestamp"`
	QueryStringParameters map[string]string `json:"queryStringParameters"`
}

// Hello echoes the query string back, useful to check the gateway wiring.
func (s *HTTPServer) Hello(c *CustomContext) error {
	var params map[string]string
	if qp := c.QueryParams(); len(qp) > 0 {
		params = make(map[string]string, len(qp))
		for k, v := range qp {
			params[k] = v[0]
		}
	}

	return c.JSON(http.StatusOK, HelloResponse{
		Output:                "Hello World",
		Timestamp:             time.Now().UTC().Format(time.RFC3339Nano),
		QueryStringParameters: params,
	})
}
