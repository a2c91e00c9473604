package notion

import (
	"encoding/json"
)

// Property is the sum of the property value variants Notion can return.
// Each variant corresponds to one declared property type.
type Property interface {
	propertyType() string
}

type (
	TitleValue       struct{ Runs []RichText }
	RichTextValue    struct{ Runs []RichText }
	URLValue         struct{ URL string }
	EmailValue       struct{ Email string }
	PhoneValue       struct{ Phone string }
	SelectValue      struct{ Option *Option }
	StatusValue      struct{ Option *Option }
	MultiSelectValue struct{ Options []Option }
	DateValue        struct{ Date *DateRange }
	PeopleValue      struct{ People []User }
	UserValue        struct{ User User }
	FilesValue       struct{ Files []FileRef }
	NumberValue      struct{ Number *float64 }
	CheckboxValue    struct{ Checked bool }
	FormulaValue     struct{ Formula Formula }
	TimestampValue   struct{ Time string }
	UnsupportedValue struct{ Type string }
)

func (TitleValue) propertyType() string       { return "title" }
func (RichTextValue) propertyType() string    { return "rich_text" }
func (URLValue) propertyType() string         { return "url" }
func (EmailValue) propertyType() string       { return "email" }
func (PhoneValue) propertyType() string       { return "phone_number" }
func (SelectValue) propertyType() string      { return "select" }
func (StatusValue) propertyType() string      { return "status" }
func (MultiSelectValue) propertyType() string { return "multi_select" }
func (DateValue) propertyType() string        { return "date" }
func (PeopleValue) propertyType() string      { return "people" }
func (UserValue) propertyType() string        { return "created_by" }
func (FilesValue) propertyType() string       { return "files" }
func (NumberValue) propertyType() string      { return "number" }
func (CheckboxValue) propertyType() string    { return "checkbox" }
func (FormulaValue) propertyType() string     { return "formula" }
func (TimestampValue) propertyType() string   { return "created_time" }
func (u UnsupportedValue) propertyType() string {
	return u.Type
}

type Option struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type DateRange struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	TimeZone string `json:"time_zone"`
}

type User struct {
	Object string `json:"object"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Person *struct {
		Email string `json:"email"`
	} `json:"person,omitempty"`
}

type Formula struct {
	Type    string     `json:"type"`
	String  *string    `json:"string"`
	Number  *float64   `json:"number"`
	Boolean *bool      `json:"boolean"`
	Date    *DateRange `json:"date"`
}

// PropertyValue is a page property as returned by the API.
type PropertyValue struct {
	ID    string
	Type  string
	Value Property
}

// UnmarshalJSON never fails: a value that does not match its declared type
// becomes UnsupportedValue so one bad field cannot fail a whole page.
func (p *PropertyValue) UnmarshalJSON(data []byte) error {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &head); err != nil {
		p.Value = UnsupportedValue{}
		return nil
	}
	p.ID, p.Type = head.ID, head.Type
	if err := json.Unmarshal(data, &fields); err != nil {
		p.Value = UnsupportedValue{Type: head.Type}
		return nil
	}
	v, err := decodeVariant(head.Type, fields[head.Type])
	if err != nil {
		v = UnsupportedValue{Type: head.Type}
	}
	p.Value = v
	return nil
}

func decodeVariant(typ string, payload json.RawMessage) (Property, error) {
	if len(payload) == 0 {
		return UnsupportedValue{Type: typ}, nil
	}
	switch typ {
	case "title":
		var runs []RichText
		err := json.Unmarshal(payload, &runs)
		return TitleValue{Runs: runs}, err
	case "rich_text":
		var runs []RichText
		err := json.Unmarshal(payload, &runs)
		return RichTextValue{Runs: runs}, err
	case "url":
		var s *string
		err := json.Unmarshal(payload, &s)
		return URLValue{URL: deref(s)}, err
	case "email":
		var s *string
		err := json.Unmarshal(payload, &s)
		return EmailValue{Email: deref(s)}, err
	case "phone_number":
		var s *string
		err := json.Unmarshal(payload, &s)
		return PhoneValue{Phone: deref(s)}, err
	case "select":
		var o *Option
		err := json.Unmarshal(payload, &o)
		return SelectValue{Option: o}, err
	case "status":
		var o *Option
		err := json.Unmarshal(payload, &o)
		return StatusValue{Option: o}, err
	case "multi_select":
		var opts []Option
		err := json.Unmarshal(payload, &opts)
		return MultiSelectValue{Options: opts}, err
	case "date":
		var d *DateRange
		err := json.Unmarshal(payload, &d)
		return DateValue{Date: d}, err
	case "people":
		var people []User
		err := json.Unmarshal(payload, &people)
		return PeopleValue{People: people}, err
	case "created_by", "last_edited_by":
		var u User
		err := json.Unmarshal(payload, &u)
		return UserValue{User: u}, err
	case "files":
		var files []FileRef
		err := json.Unmarshal(payload, &files)
		return FilesValue{Files: files}, err
	case "number":
		var n *float64
		err := json.Unmarshal(payload, &n)
		return NumberValue{Number: n}, err
	case "checkbox":
		var b bool
		err := json.Unmarshal(payload, &b)
		return CheckboxValue{Checked: b}, err
	case "formula":
		var f Formula
		err := json.Unmarshal(payload, &f)
		return FormulaValue{Formula: f}, err
	case "created_time", "last_edited_time":
		var s string
		err := json.Unmarshal(payload, &s)
		return TimestampValue{Time: s}, err
	}
	return UnsupportedValue{Type: typ}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
