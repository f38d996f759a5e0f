package ollama

// embedRequest is the /api/embed request body.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the /api/embed response body. Ollama reports only
// prompt tokens, embedding produces no completion tokens.
type embedResponse struct {
	Model           string      `json:"model"`
	Embeddings      [][]float32 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
}

// tagsResponse is the /api/tags response body.
type tagsResponse struct {
	Models []tagModel `json:"models"`
}

type tagModel struct {
	Name string `json:"name"`
}

// errorResponse is the body Ollama returns for failed requests.
type errorResponse struct {
	Error string `json:"error"`
}
