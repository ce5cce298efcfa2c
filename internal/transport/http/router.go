package http

import (
	"net/http"

	"countdown-quiz/internal/app"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// NewRouter wires the health check, the question feed and the quiz websocket.
func NewRouter(ws *WSHandler, feed app.QuestionSource) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/questions", questionsHandler(feed)).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)
	return r
}

// questionsHandler serves the question list in the feed wire format.
func questionsHandler(feed app.QuestionSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := feed.FetchQuestions(r.Context())
		if err != nil {
			writeJSON(w, http.StatusBadGateway, errorPayload{Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, questions)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
