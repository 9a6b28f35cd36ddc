package response

import (
	"encoding/json"
	"net/http"
)

// Универсальные ответы
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithErrorCode дополняет ответ машинно-читаемым кодом ошибки.
func RespondWithErrorCode(w http.ResponseWriter, code int, message, errCode string) {
	RespondWithJSON(w, code, map[string]string{"error": message, "code": errCode})
}
