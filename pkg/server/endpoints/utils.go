package endpoints

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/doodlesbykumbi/keystone-hybrid/pkg/config"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// clientIP resolves the caller's address. X-Forwarded-For is honored
// only when the direct peer is a configured trusted proxy.
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" && config.Get().IsTrustedProxy(ip) {
		// The leftmost entry is the originating client; everything
		// after it is the proxy chain.
		if client := strings.TrimSpace(strings.Split(forwarded, ",")[0]); client != "" {
			return client
		}
	}
	return ip
}
