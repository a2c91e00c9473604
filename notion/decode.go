package notion

import (
	"strconv"
	"strings"
)

// Value is a decoded property: plain text plus, for list-like types, the
// individual items.
type Value struct {
	Text  string
	Items []string
}

// List returns the value as a list of strings. Text values are split on
// commas so a rich_text "tags" column behaves like a multi_select.
func (v Value) List() []string {
	if len(v.Items) > 0 {
		return v.Items
	}
	var out []string
	for _, part := range strings.Split(v.Text, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Decode turns a property into its plain value. It is total: unsupported
// and malformed values decode to the zero Value.
func Decode(p PropertyValue) Value {
	switch v := p.Value.(type) {
	case TitleValue:
		return Value{Text: PlainText(v.Runs)}
	case RichTextValue:
		return Value{Text: PlainText(v.Runs)}
	case URLValue:
		return Value{Text: v.URL}
	case EmailValue:
		return Value{Text: v.Email}
	case PhoneValue:
		return Value{Text: v.Phone}
	case SelectValue:
		return optionValue(v.Option)
	case StatusValue:
		return optionValue(v.Option)
	case MultiSelectValue:
		var items []string
		for _, o := range v.Options {
			if o.Name != "" {
				items = append(items, o.Name)
			}
		}
		return Value{Text: strings.Join(items, ", "), Items: items}
	case DateValue:
		if v.Date == nil {
			return Value{}
		}
		return Value{Text: v.Date.Start}
	case PeopleValue:
		var names []string
		for _, u := range v.People {
			if u.Name != "" {
				names = append(names, u.Name)
			}
		}
		return Value{Text: strings.Join(names, ", "), Items: names}
	case UserValue:
		return Value{Text: v.User.Name}
	case FilesValue:
		for i := range v.Files {
			if u := v.Files[i].URL(); u != "" {
				return Value{Text: u}
			}
		}
		return Value{}
	case NumberValue:
		if v.Number == nil {
			return Value{}
		}
		return Value{Text: strconv.FormatFloat(*v.Number, 'f', -1, 64)}
	case CheckboxValue:
		return Value{Text: strconv.FormatBool(v.Checked)}
	case FormulaValue:
		return formulaValue(v.Formula)
	case TimestampValue:
		return Value{Text: v.Time}
	case UnsupportedValue:
		return Value{}
	}
	return Value{}
}

func optionValue(o *Option) Value {
	if o == nil {
		return Value{}
	}
	return Value{Text: o.Name}
}

func formulaValue(f Formula) Value {
	switch {
	case f.String != nil:
		return Value{Text: *f.String}
	case f.Number != nil:
		return Value{Text: strconv.FormatFloat(*f.Number, 'f', -1, 64)}
	case f.Boolean != nil:
		return Value{Text: strconv.FormatBool(*f.Boolean)}
	case f.Date != nil:
		return Value{Text: f.Date.Start}
	}
	return Value{}
}

// PlainText concatenates the plain text of runs and trims the result.
func PlainText(runs []RichText) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.PlainText)
	}
	return strings.TrimSpace(b.String())
}
