package http

import (
	"net/http"
	"time"

	"github.com/opsportal/portal/internal/portal/store"
	"github.com/opsportal/portal/pkg/httpx"
)

// ReadyzHandler answers 200 only when the database is reachable, so load
// balancers stop routing before the service starts failing requests.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			httpx.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{
				Status:  "unavailable",
				Uptime:  time.Since(startTime).String(),
				Version: version,
			})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, healthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
