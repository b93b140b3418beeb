// Standalone mock webhook receiver for manual testing. Run it, register
// its endpoints as webhooks, and dispatch events at the service.
package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

var requestCount atomic.Int64

func main() {
	port := "9090"
	if p := os.Getenv("PORT"); p != "" {
		port = p
	}
	secret := os.Getenv("WEBHOOK_SECRET")

	// Successful endpoint — always returns 200, verifies signature when
	// WEBHOOK_SECRET is set
	http.HandleFunc("/hook/success", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		body, _ := io.ReadAll(r.Body)
		logRequest(r, body, secret, count, 200)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received"})
	})

	// Slow endpoint — delays 3 seconds before responding
	http.HandleFunc("/hook/slow", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		time.Sleep(3 * time.Second)
		body, _ := io.ReadAll(r.Body)
		logRequest(r, body, secret, count, 200)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "received (slow)"})
	})

	// Failing endpoint — always returns 500
	http.HandleFunc("/hook/fail", func(w http.ResponseWriter, r *http.Request) {
		count := requestCount.Add(1)
		body, _ := io.ReadAll(r.Body)
		logRequest(r, body, secret, count, 500)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
	})

	// Stats endpoint — shows request count
	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{"total_requests": requestCount.Load()})
	})

	log.Printf("Mock webhook receiver starting on :%s", port)
	log.Printf("  POST /hook/success  -> 200 OK")
	log.Printf("  POST /hook/slow     -> 200 OK (3s delay)")
	log.Printf("  POST /hook/fail     -> 500 Error")
	log.Printf("  GET  /stats         -> request count")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func logRequest(r *http.Request, body []byte, secret string, count int64, status int) {
	sig := r.Header.Get("X-Signature")

	verified := "n/a"
	if secret != "" && sig != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		if hmac.Equal([]byte(sig), []byte(hex.EncodeToString(mac.Sum(nil)))) {
			verified = "ok"
		} else {
			verified = "BAD"
		}
	}

	fmt.Printf("[#%d] %s %s -> %d | sig=%s verify=%s ua=%s\n",
		count,
		r.Method,
		r.URL.Path,
		status,
		truncate(sig, 16),
		verified,
		r.Header.Get("User-Agent"),
	)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
