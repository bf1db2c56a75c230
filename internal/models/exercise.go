package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Quiz is a reading quiz for a single compound word.
type Quiz struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Word           string         `gorm:"size:50;not null;uniqueIndex" json:"word"`
	CorrectReading string         `gorm:"size:50;not null" json:"-"`
	WrongReadings  datatypes.JSON `gorm:"type:json" json:"-"`
	Meaning        string         `gorm:"size:200" json:"meaning"`
	Example        string         `gorm:"size:300" json:"example"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SetWrongReadings stores the distractor readings as a JSON array.
func (q *Quiz) SetWrongReadings(readings []string) error {
	if readings == nil {
		readings = []string{}
	}
	data, err := json.Marshal(readings)
	if err != nil {
		return err
	}
	q.WrongReadings = datatypes.JSON(data)
	return nil
}

// Options returns the correct reading followed by the distractors.
func (q Quiz) Options() []string {
	options := []string{q.CorrectReading}
	if len(q.WrongReadings) == 0 {
		return options
	}
	var wrong []string
	if err := json.Unmarshal(q.WrongReadings, &wrong); err != nil {
		return options
	}
	return append(options, wrong...)
}

// Flashcard is a word card the student flips through.
type Flashcard struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Word      string    `gorm:"size:50;not null;uniqueIndex" json:"word"`
	Reading   string    `gorm:"size:50;not null" json:"reading"`
	Meaning   string    `gorm:"size:200;not null" json:"meaning"`
	Example   string    `gorm:"size:300" json:"example"`
	CreatedAt time.Time `json:"created_at"`
}

// Writing is a kanji handwriting drill.
type Writing struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Word        string    `gorm:"size:10;not null;uniqueIndex" json:"word"`
	Reading     string    `gorm:"size:50;not null" json:"reading"`
	Meaning     string    `gorm:"size:200;not null" json:"meaning"`
	StrokeCount *int      `json:"stroke_count"`
	CreatedAt   time.Time `json:"created_at"`
}
