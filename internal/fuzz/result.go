package fuzz

// Result is one path reported by the fuzzer.
type Result struct {
	Input            string `json:"input"`
	URL              string `json:"url"`
	Status           int    `json:"status"`
	Length           int64  `json:"length"`
	Words            int    `json:"words"`
	Lines            int    `json:"lines"`
	ContentType      string `json:"content_type,omitempty"`
	RedirectLocation string `json:"redirect_location,omitempty"`
	DurationMs       int64  `json:"duration_ms"`
	Wordlist         string `json:"wordlist,omitempty"` // file the input word came from
}
