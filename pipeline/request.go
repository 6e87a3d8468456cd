package pipeline

type Request struct {
	Text    string `json:"text"`
	Tid     string `json:"tid"`
	Profile string `json:"profile"`
}

// Pipeline answers a request with a single JSON document. The channel is
// closed without a value when the request cannot be served.
type Pipeline func(request Request) <-chan string
