// Command testservers runs a local mock target for manual burstgen runs:
// a plain HTTP endpoint for get mode and a fake LLM chat endpoint for chat
// mode, with tunable latency and error injection.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

func main() {
	port := flag.Int("port", 8080, "Listening port")
	minDelay := flag.Duration("min-delay", 10*time.Millisecond, "Minimum simulated processing time")
	maxDelay := flag.Duration("max-delay", 200*time.Millisecond, "Maximum simulated processing time")
	errorRate := flag.Float64("error-rate", 0.0, "Fraction of requests answered with HTTP 500")
	flag.Parse()

	if *maxDelay < *minDelay {
		*maxDelay = *minDelay
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	delay := func() {
		span := *maxDelay - *minDelay
		d := *minDelay
		if span > 0 {
			d += time.Duration(rng.Int63n(int64(span)))
		}
		time.Sleep(d)
	}

	failed := func(w http.ResponseWriter) bool {
		if *errorRate > 0 && rng.Float64() < *errorRate {
			http.Error(w, "injected failure", http.StatusInternalServerError)
			return true
		}
		return false
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		delay()
		if failed(w) {
			return
		}
		fmt.Fprintln(w, "ok")
	})

	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST required", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		prompt := gjson.GetBytes(body, "prompt").String()
		if prompt == "" {
			http.Error(w, "missing prompt", http.StatusBadRequest)
			return
		}

		delay()
		if failed(w) {
			return
		}

		answer := fmt.Sprintf("Echoing a short answer about: %s", firstWords(prompt, 8))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"answer": answer,
			"model":  gjson.GetBytes(body, "model").String(),
		})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock target listening on %s (GET / and POST /chat)", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
