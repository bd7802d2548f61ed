package domain

import (
	"encoding/json"
	"errors"
)

type Recipe struct {
	Name        string       `json:"name"`
	Calories    int          `json:"calories"`
	DiningHall  string       `json:"diningHall"`
	Ingredients []Ingredient `json:"ingredients"`
}

// Ingredient keeps the object it was decoded from so fields beyond the name
// reach clients untouched.
type Ingredient struct {
	Name string
	raw  json.RawMessage
}

func NewIngredient(name string) Ingredient {
	return Ingredient{Name: name}
}

func (i *Ingredient) UnmarshalJSON(data []byte) error {
	var head struct {
		Name *string `json:"name"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	if head.Name == nil {
		return errors.New("ingredient without name")
	}
	i.Name = *head.Name
	i.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (i Ingredient) MarshalJSON() ([]byte, error) {
	if len(i.raw) > 0 {
		return i.raw, nil
	}
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: i.Name})
}
