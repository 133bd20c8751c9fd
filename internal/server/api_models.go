package server

// ScoreRequest is the body of POST /v1/score and of each /ws/score frame.
type ScoreRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}
