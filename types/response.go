package types

type SentenceResult struct {
	Index  int      `json:"index"`
	Tokens []string `json:"tokens"`
	Tags   []string `json:"tags"`
	Error  string   `json:"error,omitempty"`
}

type Response struct {
	Tid              string           `json:"tid"`
	Profile          string           `json:"profile"`
	ModelFingerprint string           `json:"model_fingerprint"`
	Sentences        []SentenceResult `json:"sentences"`
}

type ErrorResponse struct {
	Tid   string `json:"tid"`
	Error string `json:"error"`
}
