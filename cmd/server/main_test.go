package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/maauso/mediajobs-api/internal/config"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{Port: 5000, RequestTimeout: 5 * time.Minute}
	handler := http.NotFoundHandler()

	srv := newHTTPServer(cfg, handler)

	assert.Equal(t, ":5000", srv.Addr)
	assert.Equal(t, 5*time.Minute, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.ReadHeaderTimeout)
	assert.Zero(t, srv.WriteTimeout, "a write deadline would truncate long streamed results")
	assert.NotNil(t, srv.Handler)
}
