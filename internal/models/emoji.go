package models

import (
	"bytes"
	"encoding/json"
)

// Emoji is one glyph of an emoji dataset. Show and Checked are UI state and
// stay nil until something sets them, so "unset" and "false" are distinct.
type Emoji struct {
	Character   string `json:"character" db:"character"`
	Name        string `json:"name" db:"name"`
	Hexadecimal string `json:"hexadecimal" db:"hexadecimal"`
	Decimal     string `json:"decimal" db:"decimal"`
	ID          int64  `json:"id" db:"id"`
	Index       int    `json:"index" db:"idx"`
	Show        *bool  `json:"show,omitempty" db:"show"`
	Checked     *bool  `json:"checked,omitempty" db:"checked"`
}

func NewEmoji(character, name, hexadecimal, decimal string, id int64, index int) Emoji {
	return Emoji{
		Character:   character,
		Name:        name,
		Hexadecimal: hexadecimal,
		Decimal:     decimal,
		ID:          id,
		Index:       index,
	}
}

// EmojiInput is the wire form used when an emoji is created or loaded.
// Required fields are pointers so a missing key can be told apart from a
// zero value.
type EmojiInput struct {
	Character   *string `json:"character" validate:"required"`
	Name        *string `json:"name" validate:"required"`
	Hexadecimal *string `json:"hexadecimal" validate:"required"`
	Decimal     *string `json:"decimal" validate:"required"`
	ID          *int64  `json:"id" validate:"required"`
	Index       *int    `json:"index" validate:"required"`
	Show        *bool   `json:"show,omitempty"`
	Checked     *bool   `json:"checked,omitempty"`
}

// ToEmoji converts a validated input. Callers must validate first.
func (in EmojiInput) ToEmoji() Emoji {
	e := NewEmoji(*in.Character, *in.Name, *in.Hexadecimal, *in.Decimal, *in.ID, *in.Index)
	e.Show = in.Show
	e.Checked = in.Checked
	return e
}

// Flag is a tri-state patch value: not present in the request, present as
// null, or present with a boolean.
type Flag struct {
	Set   bool
	Value *bool
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// EmojiFlagsPatch updates the mutable UI state of an emoji. A null clears the
// flag back to absent.
type EmojiFlagsPatch struct {
	Show    Flag `json:"show"`
	Checked Flag `json:"checked"`
}

func (p EmojiFlagsPatch) IsEmpty() bool {
	return !p.Show.Set && !p.Checked.Set
}

// Apply returns a copy of e with the patched flags.
func (p EmojiFlagsPatch) Apply(e Emoji) Emoji {
	if p.Show.Set {
		e.Show = p.Show.Value
	}
	if p.Checked.Set {
		e.Checked = p.Checked.Value
	}
	return e
}

// BoolPtr is a convenience for setting optional flags.
func BoolPtr(v bool) *bool {
	return &v
}
