package model

// Photo is one photo-search result.
type Photo struct {
	ID          string    `json:"id"`
	URLs        PhotoURLs `json:"urls"`
	Description string    `json:"description,omitempty"`
	AuthorName  string    `json:"authorName"`
	AuthorLink  string    `json:"authorLink"`
}

type PhotoURLs struct {
	Thumb   string `json:"thumb"`
	Small   string `json:"small"`
	Regular string `json:"regular"`
	Full    string `json:"full"`
}

type PhotoSearchRequest struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

type PhotoSearchResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message,omitempty"`
	Results    []Photo `json:"results"`
	TotalPages int     `json:"totalPages"`
}
