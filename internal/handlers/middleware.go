package handlers

import (
	"net/http"

	"github.com/prudhvinik1/homesync/internal/utils"
)

const adminKeyHeader = "X-Admin-Key"

// RequireAdminKey gates every account route behind the admin API key.
// A missing hash is a server misconfiguration (500), a missing or wrong key
// is forbidden (403).
func RequireAdminKey(adminKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKeyHash == "" {
				writeError(w, http.StatusInternalServerError, "Server misconfigured: admin key not set.")
				return
			}

			key := r.Header.Get(adminKeyHeader)
			if key == "" || !utils.CheckAdminKey(adminKeyHash, key) {
				writeError(w, http.StatusForbidden, "Forbidden.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
