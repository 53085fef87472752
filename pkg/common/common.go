package common

import "time"

// Translation is the persisted result of translating one question.
//
// Formula holds the relations with word names, Shape the same relations with
// canonical variables and Scheme the generated Atomese query. Questions with
// the same Shape share a query structure and differ only in their words.
type Translation struct {
	ID         string    `json:"id"`
	QuestionID int64     `json:"question_id"`
	ImageID    int64     `json:"image_id"`
	Question   string    `json:"question"`
	Type       string    `json:"type"`
	Formula    string    `json:"formula"`
	Shape      string    `json:"shape"`
	Scheme     string    `json:"scheme"`
	CreatedAt  time.Time `json:"created_at"`
}

// ShapeCount is the number of translations sharing a shape, with one
// example question.
type ShapeCount struct {
	Shape   string `json:"shape"`
	Type    string `json:"type"`
	Count   int64  `json:"count"`
	Example string `json:"example"`
}
