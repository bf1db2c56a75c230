package dto

// SeedQuiz describes one reading quiz to import.
type SeedQuiz struct {
	Word           string   `json:"word" validate:"required,max=50"`
	CorrectReading string   `json:"correct_reading" validate:"required,max=50"`
	WrongReadings  []string `json:"wrong_readings" validate:"omitempty,max=10,dive,required,max=50"`
	Meaning        string   `json:"meaning" validate:"max=200"`
	Example        string   `json:"example" validate:"max=300"`
}

// SeedFlashcard describes one flashcard to import.
type SeedFlashcard struct {
	Word    string `json:"word" validate:"required,max=50"`
	Reading string `json:"reading" validate:"required,max=50"`
	Meaning string `json:"meaning" validate:"required,max=200"`
	Example string `json:"example" validate:"max=300"`
}

// SeedWriting describes one handwriting drill to import.
type SeedWriting struct {
	Word        string `json:"word" validate:"required,max=10"`
	Reading     string `json:"reading" validate:"required,max=50"`
	Meaning     string `json:"meaning" validate:"required,max=200"`
	StrokeCount *int   `json:"stroke_count" validate:"omitempty,gt=0"`
}

// SeedAnnouncement describes one announcement to import.
type SeedAnnouncement struct {
	Title        string `json:"title" validate:"required,max=200"`
	Content      string `json:"content" validate:"required"`
	TeacherID    uint   `json:"teacher_id" validate:"required,gt=0"`
	IsGlobal     bool   `json:"is_global"`
	RecipientIDs []uint `json:"recipient_ids" validate:"omitempty,dive,gt=0"`
}

// SeedContentRequest is the payload accepted by the content importer.
type SeedContentRequest struct {
	Quizzes       []SeedQuiz         `json:"quizzes" validate:"omitempty,max=500,dive"`
	Flashcards    []SeedFlashcard    `json:"flashcards" validate:"omitempty,max=500,dive"`
	Writings      []SeedWriting      `json:"writings" validate:"omitempty,max=500,dive"`
	Announcements []SeedAnnouncement `json:"announcements" validate:"omitempty,max=100,dive"`
}
