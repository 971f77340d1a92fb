package chi

// ErrorCode is a machine-readable error code in ErrorResponse.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeInvalidInput       ErrorCode = "invalid_input"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeBookNotFound       ErrorCode = "book_not_found"
	ErrorCodeNoDiverseResults   ErrorCode = "no_diverse_results"
	ErrorCodeRateLimited        ErrorCode = "rate_limited"
	ErrorCodeTimeout            ErrorCode = "timeout"
	ErrorCodeIndexUnavailable   ErrorCode = "index_unavailable"
	ErrorCodeEncoderUnavailable ErrorCode = "encoder_unavailable"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MessageResponse is returned by GET /.
type MessageResponse struct {
	Message string `json:"message"`
}

// RecommendRequest is the POST /recommend body and the GET /recommend query.
type RecommendRequest struct {
	TitleSubstring string `json:"title_substring" validate:"required,max=512"`
	TopK           *int   `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
	SkipSameAuthor bool   `json:"skip_same_author"`
}

// Recommendation is one recommended book.
type Recommendation struct {
	Title      string  `json:"title"`
	Authors    string  `json:"authors"`
	Year       int     `json:"year"`
	Publisher  string  `json:"publisher"`
	ImageURL   string  `json:"image_url,omitempty"`
	Similarity float64 `json:"similarity"`
}

// RecommendResponse is the successful /recommend response.
type RecommendResponse struct {
	SeedBook        string           `json:"seed_book"`
	Recommendations []Recommendation `json:"recommendations"`
	Requested       int              `json:"requested"`
	Underfilled     bool             `json:"underfilled"`
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Status          string            `json:"status"`
	BooksLoaded     int               `json:"books_loaded"`
	IndexCollection string            `json:"index_collection"`
	IndexedBooks    int               `json:"indexed_books"`
	Checks          map[string]string `json:"checks"`
}
