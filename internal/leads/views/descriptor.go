package views

import (
	"fmt"
	"strings"
	"time"

	"lead-workers/internal/common/validation"
	"lead-workers/internal/models"
)

type MatchMode string

const (
	MatchAll MatchMode = "all"
	MatchAny MatchMode = "any"
)

type Field string

const (
	FieldID        Field = "id"
	FieldStatus    Field = "status"
	FieldScore     Field = "score"
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldName      Field = "name"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldCompany   Field = "company"
	FieldOwnerID   Field = "ownerId"
	FieldCreatedAt Field = "createdAt"
	FieldUpdatedAt Field = "updatedAt"
)

type Operator string

const (
	OpEq            Operator = "eq"
	OpNeq           Operator = "neq"
	OpGt            Operator = "gt"
	OpGte           Operator = "gte"
	OpLt            Operator = "lt"
	OpLte           Operator = "lte"
	OpIn            Operator = "in"
	OpContains      Operator = "contains"
	OpExists        Operator = "exists"
	OpMissing       Operator = "missing"
	OpWithinDays    Operator = "within_days"
	OpOlderThanDays Operator = "older_than_days"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindNumber
	kindTime
)

var fieldKinds = map[Field]fieldKind{
	FieldID:        kindString,
	FieldStatus:    kindString,
	FieldFirstName: kindString,
	FieldLastName:  kindString,
	FieldName:      kindString,
	FieldEmail:     kindString,
	FieldPhone:     kindString,
	FieldCompany:   kindString,
	FieldOwnerID:   kindString,
	FieldScore:     kindNumber,
	FieldCreatedAt: kindTime,
	FieldUpdatedAt: kindTime,
}

var operatorsByKind = map[fieldKind]map[Operator]bool{
	kindString: {OpEq: true, OpNeq: true, OpIn: true, OpContains: true, OpExists: true, OpMissing: true},
	kindNumber: {OpEq: true, OpNeq: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true, OpExists: true, OpMissing: true},
	kindTime:   {OpWithinDays: true, OpOlderThanDays: true, OpExists: true, OpMissing: true},
}

// Condition is a single field/operator/value triple.
type Condition struct {
	Field Field       `json:"field"`
	Op    Operator    `json:"op"`
	Value interface{} `json:"value,omitempty"`
}

// Descriptor is the persisted form of a custom view. An empty condition list
// matches every lead.
type Descriptor struct {
	Label      string            `json:"label"`
	Sort       models.SortOption `json:"sort"`
	Match      MatchMode         `json:"match,omitempty"`
	Conditions []Condition       `json:"conditions"`
}

const descriptorSchema = `{
	"type": "object",
	"required": ["label", "sort", "conditions"],
	"additionalProperties": false,
	"properties": {
		"label": {"type": "string", "minLength": 1, "maxLength": 80},
		"sort": {"enum": ["score-desc", "score-asc", "name-asc", "name-desc", "company-asc", "date-desc", "date-asc", "created-desc"]},
		"match": {"enum": ["all", "any"]},
		"conditions": {
			"type": "array",
			"maxItems": 20,
			"items": {
				"type": "object",
				"required": ["field", "op"],
				"additionalProperties": false,
				"properties": {
					"field": {"enum": ["id", "status", "score", "firstName", "lastName", "name", "email", "phone", "company", "ownerId", "createdAt", "updatedAt"]},
					"op": {"enum": ["eq", "neq", "gt", "gte", "lt", "lte", "in", "contains", "exists", "missing", "within_days", "older_than_days"]},
					"value": {}
				}
			}
		}
	}
}`

// Validate checks the descriptor shape against its JSON Schema and then the
// operator/value pairing of every condition.
func (d Descriptor) Validate() error {
	if d.Conditions == nil {
		d.Conditions = []Condition{}
	}
	result, err := validation.ValidateDocument(descriptorSchema, d)
	if err != nil {
		return err
	}
	if err := result.Err(); err != nil {
		return err
	}

	for i, c := range d.Conditions {
		if err := c.validate(); err != nil {
			return fmt.Errorf("conditions.%d: %w", i, err)
		}
	}
	return nil
}

func (c Condition) validate() error {
	kind := fieldKinds[c.Field]
	if !operatorsByKind[kind][c.Op] {
		return fmt.Errorf("operator %q not supported for field %q", c.Op, c.Field)
	}

	switch c.Op {
	case OpExists, OpMissing:
		return nil
	case OpIn:
		if _, ok := toStrings(c.Value); !ok {
			return fmt.Errorf("operator %q needs a list of strings", c.Op)
		}
	case OpWithinDays, OpOlderThanDays:
		if n, ok := toFloat(c.Value); !ok || n < 0 {
			return fmt.Errorf("operator %q needs a non-negative number of days", c.Op)
		}
	default:
		if kind == kindNumber {
			if _, ok := toFloat(c.Value); !ok {
				return fmt.Errorf("operator %q on %q needs a number", c.Op, c.Field)
			}
		} else if _, ok := c.Value.(string); !ok {
			return fmt.Errorf("operator %q on %q needs a string", c.Op, c.Field)
		}
	}
	return nil
}

// Matches evaluates the descriptor against a lead. Conditions that cannot be
// evaluated count as not matching.
func (d Descriptor) Matches(lead models.Lead, now time.Time) bool {
	if len(d.Conditions) == 0 {
		return true
	}

	if d.Match == MatchAny {
		for _, c := range d.Conditions {
			if c.matches(lead, now) {
				return true
			}
		}
		return false
	}

	for _, c := range d.Conditions {
		if !c.matches(lead, now) {
			return false
		}
	}
	return true
}

func (c Condition) matches(lead models.Lead, now time.Time) bool {
	switch fieldKinds[c.Field] {
	case kindNumber:
		return c.matchNumber(lead.Score)
	case kindTime:
		return c.matchTime(timeField(lead, c.Field), now)
	default:
		return c.matchString(stringField(lead, c.Field))
	}
}

func (c Condition) matchString(value string) bool {
	switch c.Op {
	case OpExists:
		return value != ""
	case OpMissing:
		return value == ""
	case OpIn:
		options, ok := toStrings(c.Value)
		if !ok {
			return false
		}
		for _, o := range options {
			if o == value {
				return true
			}
		}
		return false
	}

	want, ok := c.Value.(string)
	if !ok {
		return false
	}
	switch c.Op {
	case OpEq:
		return value == want
	case OpNeq:
		return value != want
	case OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(want))
	}
	return false
}

func (c Condition) matchNumber(score *int) bool {
	switch c.Op {
	case OpExists:
		return score != nil
	case OpMissing:
		return score == nil
	}

	want, ok := toFloat(c.Value)
	if !ok {
		return false
	}
	value := 0.0
	if score != nil {
		value = float64(*score)
	}

	switch c.Op {
	case OpEq:
		return value == want
	case OpNeq:
		return value != want
	case OpGt:
		return value > want
	case OpGte:
		return value >= want
	case OpLt:
		return value < want
	case OpLte:
		return value <= want
	}
	return false
}

func (c Condition) matchTime(value *time.Time, now time.Time) bool {
	switch c.Op {
	case OpExists:
		return value != nil
	case OpMissing:
		return value == nil
	}

	if value == nil {
		return false
	}
	days, ok := toFloat(c.Value)
	if !ok {
		return false
	}
	window := time.Duration(days * float64(24*time.Hour))

	switch c.Op {
	case OpWithinDays:
		return value.After(now.Add(-window))
	case OpOlderThanDays:
		return now.Sub(*value) >= window
	}
	return false
}

func stringField(lead models.Lead, field Field) string {
	switch field {
	case FieldID:
		return lead.ID.String()
	case FieldStatus:
		return string(lead.Status)
	case FieldFirstName:
		return lead.FirstName
	case FieldLastName:
		return lead.LastName
	case FieldName:
		return lead.FullName()
	case FieldEmail:
		return lead.Email
	case FieldPhone:
		return lead.Phone
	case FieldCompany:
		return lead.Company
	case FieldOwnerID:
		return lead.OwnerID
	}
	return ""
}

func timeField(lead models.Lead, field Field) *time.Time {
	if field == FieldUpdatedAt {
		return lead.UpdatedAt
	}
	return lead.CreatedAt
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func toStrings(v interface{}) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
