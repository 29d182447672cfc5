package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type TutorialExercise struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Points      int    `json:"points" validate:"gte=0"`
}

type Tutorial struct {
	ID            uint                                  `gorm:"primaryKey" json:"id"`
	Title         string                                `gorm:"size:255;unique;not null" json:"title"`
	Content       string                                `gorm:"type:text;not null" json:"content,omitempty"`
	Description   string                                `gorm:"type:text;not null" json:"description"`
	AuthorID      uint                                  `gorm:"not null;index" json:"authorId"`
	Author        *User                                 `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Version       int                                   `gorm:"not null;default:1" json:"version"`
	Difficulty    string                                `gorm:"size:16;not null;default:beginner" json:"difficulty"`
	Tags          datatypes.JSONSlice[string]           `json:"tags"`
	Exercises     datatypes.JSONSlice[TutorialExercise] `json:"exercises"`
	Prerequisites datatypes.JSONSlice[uint]             `json:"prerequisites"`
	Published     bool                                  `gorm:"not null;default:false" json:"published"`
	CreatedAt     time.Time                             `json:"createdAt"`
	UpdatedAt     time.Time                             `json:"updatedAt"`
}

// Defaults fills the fields the create form may leave out.
func (t *Tutorial) Defaults() {
	if t.Difficulty == "" {
		t.Difficulty = DifficultyBeginner
	}
	if t.Version == 0 {
		t.Version = 1
	}
	if t.Tags == nil {
		t.Tags = datatypes.JSONSlice[string]{}
	}
	if t.Prerequisites == nil {
		t.Prerequisites = datatypes.JSONSlice[uint]{}
	}
	if t.Exercises == nil {
		t.Exercises = datatypes.JSONSlice[TutorialExercise]{}
	}
	for i := range t.Exercises {
		if t.Exercises[i].Difficulty == "" {
			t.Exercises[i].Difficulty = DifficultyBeginner
		}
		if t.Exercises[i].Points == 0 {
			t.Exercises[i].Points = 10
		}
	}
}
