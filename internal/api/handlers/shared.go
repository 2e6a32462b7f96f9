package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondJSON writes data as a JSON body with the given status code. A nil
// data sends the status alone. The system handlers respond directly through
// this helper; everything else goes through the response package.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Failed to encode JSON: %v", err)
		}
	}
}
