package main

import (
	"net/http"
	"os"

	"labeling/cmd/api/handler"

	"github.com/sirupsen/logrus"
)

// withCORS wraps an http.Handler to add permissive CORS headers and handle preflight requests.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	h := &handler.Handler{Log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/labeling/run", h.Run)
	mux.HandleFunc("/labeling/runs", h.Runs)
	mux.HandleFunc("/notifications/subscribe", h.SubscribeNotifications)
	mux.HandleFunc("/traffic/generate", h.GenerateTraffic)

	addr := os.Getenv("PORT")
	if addr == "" {
		addr = "8080"
	}

	log.Infof("Starting labeling API on :%s", addr)
	if err := http.ListenAndServe(":"+addr, withCORS(mux)); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
