package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Bucket is one label of a distribution with its count
type Bucket struct {
	Label string `json:"label" bson:"label"`
	Count int    `json:"count" bson:"count"`
}

// Distribution is an ordered label -> count mapping. Order follows the
// question's declared options (or "1".."5" for ratings).
// It encodes to JSON as an object whose keys keep that order.
type Distribution []Bucket

// Get returns the count for label and whether the label exists
func (d Distribution) Get(label string) (int, bool) {
	for _, b := range d {
		if b.Label == label {
			return b.Count, true
		}
	}
	return 0, false
}

// Total sums every bucket
func (d Distribution) Total() int {
	total := 0
	for _, b := range d {
		total += b.Count
	}
	return total
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	pairs := make([]orderedPair, len(d))
	for i, b := range d {
		pairs[i] = orderedPair{key: b.Label, value: b.Count}
	}
	return marshalOrdered(pairs)
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	out := Distribution{}
	err := unmarshalOrdered(data, func(key string, raw json.RawMessage) error {
		var count int
		if err := json.Unmarshal(raw, &count); err != nil {
			return err
		}
		out = append(out, Bucket{Label: key, Count: count})
		return nil
	})
	if err != nil {
		return err
	}
	*d = out
	return nil
}

// Share is the percentage of participants behind one label
type Share struct {
	Label      string  `json:"label" bson:"label"`
	Percentage float64 `json:"percentage" bson:"percentage"`
}

// Percentages is an ordered label -> percentage mapping, encoded like Distribution
type Percentages []Share

func (p Percentages) MarshalJSON() ([]byte, error) {
	pairs := make([]orderedPair, len(p))
	for i, s := range p {
		pairs[i] = orderedPair{key: s.Label, value: s.Percentage}
	}
	return marshalOrdered(pairs)
}

func (p *Percentages) UnmarshalJSON(data []byte) error {
	out := Percentages{}
	err := unmarshalOrdered(data, func(key string, raw json.RawMessage) error {
		var pct float64
		if err := json.Unmarshal(raw, &pct); err != nil {
			return err
		}
		out = append(out, Share{Label: key, Percentage: pct})
		return nil
	})
	if err != nil {
		return err
	}
	*p = out
	return nil
}

// CustomInputs collects free-text augmentations given for one option
type CustomInputs struct {
	Option string   `json:"option" bson:"option"`
	Inputs []string `json:"inputs" bson:"inputs"`
}

// TextAnswer is one verbatim fill_in answer
type TextAnswer struct {
	RespondentID   string `json:"respondentId" bson:"respondentId"`
	RespondentName string `json:"respondentName,omitempty" bson:"respondentName,omitempty"`
	Response       string `json:"response" bson:"response"`
}

// UnmatchedAnswer is a stored response that fits neither the question type nor its options
type UnmatchedAnswer struct {
	RespondentID string   `json:"respondentId" bson:"respondentId"`
	Response     Response `json:"response" bson:"response"`
	Reason       string   `json:"reason" bson:"reason"`
}

// QuestionAnalytics is the derived summary of one question's answers.
// It is always re-derivable from the raw answers.
type QuestionAnalytics struct {
	QuestionID         string            `json:"questionId" bson:"questionId"`
	QuestionType       QuestionType      `json:"questionType" bson:"questionType"`
	TotalResponses     int               `json:"totalResponses" bson:"totalResponses"`
	Distribution       Distribution      `json:"distribution,omitempty" bson:"distribution,omitempty"`
	Percentages        Percentages       `json:"percentages,omitempty" bson:"percentages,omitempty"`
	AverageRating      *float64          `json:"averageRating,omitempty" bson:"averageRating,omitempty"` // five_point only
	ResponseRate       string            `json:"responseRate" bson:"responseRate"`
	MostCommonResponse string            `json:"mostCommonResponse,omitempty" bson:"mostCommonResponse,omitempty"`
	CustomInputs       []CustomInputs    `json:"customInputs,omitempty" bson:"customInputs,omitempty"`
	TextResponses      []TextAnswer      `json:"responses,omitempty" bson:"responses,omitempty"`           // fill_in only
	SelectionCount     int               `json:"selectionCount,omitempty" bson:"selectionCount,omitempty"` // multiple_selection: sum of buckets
	UnmatchedCount     int               `json:"unmatchedCount" bson:"unmatchedCount"`
	Unmatched          []UnmatchedAnswer `json:"unmatched,omitempty" bson:"unmatched,omitempty"`
	ComputedAt         time.Time         `json:"computedAt" bson:"computedAt"`
}

type orderedPair struct {
	key   string
	value any
}

func marshalOrdered(pairs []orderedPair) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unmarshalOrdered(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
