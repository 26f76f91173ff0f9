package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/filesvc/pkg/logger"
)

const readinessTimeout = 3 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *handler) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// ready runs every check concurrently and fails when any of them fails.
func (h *handler) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(h.checks))
		failed  bool
	)
	for name, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := "ok"
			if err := check(ctx); err != nil {
				h.log.WarnContext(ctx, "readiness check failed", logger.Component(name), logger.Error(err))
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = status
			if status != "ok" {
				failed = true
			}
		}()
	}
	wg.Wait()

	if failed {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "fail", Checks: results})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Checks: results})
}
