package observability

import (
	"net/http"

	sonic "github.com/bytedance/sonic"
)

// DebugEndpoint is a read-only handler served on the pprof listener, next to
// the profiles.
type DebugEndpoint struct {
	Path    string
	Handler http.Handler
}

// JSONEndpoint serves whatever snapshot returns at the time of the request.
func JSONEndpoint(path string, snapshot func() any) DebugEndpoint {
	return DebugEndpoint{
		Path: path,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				w.Header().Set("Allow", http.MethodGet)
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			encoder := sonic.ConfigDefault.NewEncoder(w)
			encoder.SetIndent("", "  ")
			_ = encoder.Encode(snapshot())
		}),
	}
}
