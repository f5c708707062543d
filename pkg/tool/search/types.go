package search

type Result struct {
	Matches []Match `json:"matches"`

	Message string `json:"message,omitempty"`
}

type Match struct {
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	LessonRef string `json:"lessonRef"`
}
