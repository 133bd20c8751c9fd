package scoring

// envelope is the request body the scoring endpoint accepts. It mimics a chat
// completion request, with the encoded pair carried on the single message.
type envelope struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stop     []string  `json:"stop"`
}

type message struct {
	Role     string `json:"role"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func newEnvelope(model, question, answer string) envelope {
	return envelope{
		Model: model,
		Messages: []message{{
			Role:     "user",
			Question: question,
			Answer:   answer,
		}},
		Stop: []string{},
	}
}
