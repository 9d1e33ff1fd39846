package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Answer is one stored response to a question
type Answer struct {
	RespondentID   string    `json:"respondentId" bson:"userId"`
	RespondentName string    `json:"respondentName,omitempty" bson:"username,omitempty"`
	SubmissionID   string    `json:"submissionId,omitempty" bson:"submissionId,omitempty"`
	Response       Response  `json:"response" bson:"response"`
	AnsweredAt     time.Time `json:"answeredAt,omitempty" bson:"answeredAt,omitempty"`
}

// ResponseShape tags which field of a Response carries the value
type ResponseShape string

const (
	ShapeEmpty  ResponseShape = ""
	ShapeText   ResponseShape = "text"   // plain string: option text, numeric string or free text
	ShapeNumber ResponseShape = "number" // numeric rating
	ShapeChoice ResponseShape = "choice" // {selectedOption, customInput}
	ShapeList   ResponseShape = "list"   // ordered selections
	ShapeOther  ResponseShape = "other"  // anything else, kept verbatim in Raw
)

// Selection is one chosen option with optional free-text augmentation
type Selection struct {
	SelectedOption string `json:"selectedOption" bson:"selectedOption"`
	CustomInput    string `json:"customInput,omitempty" bson:"customInput,omitempty"`
}

func (s Selection) String() string {
	if s.CustomInput != "" {
		return s.SelectedOption + ": " + s.CustomInput
	}
	return s.SelectedOption
}

// Response is the polymorphic answer value. Shape says which field is set.
// It decodes from and encodes to the loosely typed JSON/BSON stored by clients,
// so a value of the wrong shape survives a round trip as ShapeOther.
type Response struct {
	Shape      ResponseShape
	Text       string
	Number     float64
	Choice     Selection
	Selections []Selection
	Raw        any
}

func TextResponse(text string) Response {
	return Response{Shape: ShapeText, Text: text}
}

func NumberResponse(n float64) Response {
	return Response{Shape: ShapeNumber, Number: n}
}

func ChoiceResponse(option, customInput string) Response {
	return Response{Shape: ShapeChoice, Choice: Selection{SelectedOption: option, CustomInput: customInput}}
}

func ListResponse(items ...Selection) Response {
	return Response{Shape: ShapeList, Selections: items}
}

// OtherResponse wraps a value that fits no known shape
func OtherResponse(v any) Response {
	return Response{Shape: ShapeOther, Raw: v}
}

// IsEmpty reports whether no value was stored
func (r Response) IsEmpty() bool {
	return r.Shape == ShapeEmpty
}

// Rating coerces the response to an integer rating in [RatingMin, RatingMax].
// Numeric strings are accepted; fractional or out-of-range values are not.
func (r Response) Rating() (int, bool) {
	var f float64
	switch r.Shape {
	case ShapeNumber:
		f = r.Number
	case ShapeText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r.Text), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < RatingMin || f > RatingMax {
		return 0, false
	}
	return int(f), true
}

// Value returns the natural Go form of the response: string, float64,
// Selection, []any of string/Selection, the raw value, or nil.
// List items without custom input are returned as plain strings.
func (r Response) Value() any {
	switch r.Shape {
	case ShapeText:
		return r.Text
	case ShapeNumber:
		return r.Number
	case ShapeChoice:
		return r.Choice
	case ShapeList:
		items := make([]any, 0, len(r.Selections))
		for _, sel := range r.Selections {
			if sel.CustomInput == "" {
				items = append(items, sel.SelectedOption)
			} else {
				items = append(items, sel)
			}
		}
		return items
	case ShapeOther:
		return r.Raw
	}
	return nil
}

// String renders the response the way the insights view displays it
func (r Response) String() string {
	switch r.Shape {
	case ShapeText:
		return r.Text
	case ShapeNumber:
		return strconv.FormatFloat(r.Number, 'f', -1, 64)
	case ShapeChoice:
		return r.Choice.String()
	case ShapeList:
		parts := make([]string, 0, len(r.Selections))
		for _, sel := range r.Selections {
			parts = append(parts, sel.String())
		}
		return strings.Join(parts, ", ")
	case ShapeOther:
		if data, err := json.Marshal(r.Raw); err == nil {
			return string(data)
		}
		return fmt.Sprint(r.Raw)
	}
	return ""
}

// ResponseFromValue classifies a generically decoded value (JSON or BSON)
func ResponseFromValue(v any) Response {
	v = normalizeValue(v)
	switch val := v.(type) {
	case nil:
		return Response{}
	case string:
		return TextResponse(val)
	case float64:
		return NumberResponse(val)
	case map[string]any:
		if sel, ok := selectionFromMap(val); ok {
			return Response{Shape: ShapeChoice, Choice: sel}
		}
		return OtherResponse(val)
	case []any:
		items := make([]Selection, 0, len(val))
		for _, item := range val {
			switch it := item.(type) {
			case string:
				items = append(items, Selection{SelectedOption: it})
			case map[string]any:
				sel, ok := selectionFromMap(it)
				if !ok {
					return OtherResponse(val)
				}
				items = append(items, sel)
			default:
				return OtherResponse(val)
			}
		}
		return ListResponse(items...)
	}
	return OtherResponse(v)
}

func selectionFromMap(m map[string]any) (Selection, bool) {
	option, ok := m["selectedOption"].(string)
	if !ok {
		return Selection{}, false
	}
	sel := Selection{SelectedOption: option}
	switch custom := m["customInput"].(type) {
	case nil:
	case string:
		sel.CustomInput = custom
	default:
		return Selection{}, false
	}
	return sel, true
}

// normalizeValue turns numeric variants into float64 and BSON containers into
// plain maps and slices.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case primitive.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = normalizeValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = normalizeValue(e)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = normalizeValue(e)
		}
		return m
	case primitive.A:
		return normalizeValue([]any(val))
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeValue(e)
		}
		return out
	}
	return v
}

func (r Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

func (r *Response) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*r = ResponseFromValue(v)
	return nil
}

func (r Response) MarshalBSONValue() (bsontype.Type, []byte, error) {
	v := r.Value()
	if r.Shape == ShapeNumber && r.Number == math.Trunc(r.Number) && math.Abs(r.Number) < math.MaxInt32 {
		v = int32(r.Number)
	}
	return bson.MarshalValue(v)
}

func (r *Response) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*r = Response{}
		return nil
	}
	var v any
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&v); err != nil {
		return err
	}
	*r = ResponseFromValue(v)
	return nil
}
