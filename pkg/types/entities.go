package types

// Surah is a chapter of the Quran with its audio recitation.
type Surah struct {
	Index       int     `json:"surahIndex"`
	Name        string  `json:"surahName"`
	EnglishName string  `json:"englishName"`
	LugandaName string  `json:"lugandaName"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Verses      int     `json:"verses"`
	AudioURL    string  `json:"audioURL"`
	AudioName   string  `json:"audioName"`
	FileSize    float64 `json:"fileSize"`
}

// Quote is an attributed saying.
type Quote struct {
	Author    string `json:"author"`
	Quote     string `json:"quote"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Audio is a recorded lecture by a teacher.
type Audio struct {
	Teacher   string `json:"teacher"`
	Title     string `json:"title"`
	AudioURL  string `json:"audioUrl"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Book is a downloadable book with a cover thumbnail.
type Book struct {
	Author        string `json:"author"`
	Title         string `json:"title"`
	BookURL       string `json:"bookUrl"`
	BookThumbnail string `json:"bookThumbnail"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

// Dua is a supplication with its translation.
type Dua struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	Translation string `json:"translation"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}
