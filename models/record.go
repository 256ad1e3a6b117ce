package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the column type the preprocessing transformer was fitted with.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the kind names used in exported artifacts.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number", "float", "int":
		return Numeric, nil
	case "categorical", "category", "text", "string", "object":
		return Categorical, nil
	default:
		return 0, fmt.Errorf("unknown column kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type ColumnSpec struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Training-time values for the two columns the form does not collect.
const (
	CylinderDefault = 4
	GearBoxDefault  = 5
)

// Schema is the column order of the training frame.
var Schema = []ColumnSpec{
	{Name: "policy_tenure", Kind: Numeric},
	{Name: "age_of_car", Kind: Numeric},
	{Name: "age_of_policyholder", Kind: Numeric},
	{Name: "population_density", Kind: Numeric},
	{Name: "make", Kind: Categorical},
	{Name: "segment", Kind: Categorical},
	{Name: "model", Kind: Categorical},
	{Name: "fuel_type", Kind: Categorical},
	{Name: "max_power", Kind: Numeric},
	{Name: "engine_type", Kind: Categorical},
	{Name: "airbags", Kind: Numeric},
	{Name: "rear_brakes_type", Kind: Categorical},
	{Name: "displacement", Kind: Numeric},
	{Name: "cylinder", Kind: Numeric},
	{Name: "transmission_type", Kind: Categorical},
	{Name: "gear_box", Kind: Numeric},
	{Name: "steering_type", Kind: Categorical},
	{Name: "turning_radius", Kind: Numeric},
	{Name: "length", Kind: Numeric},
	{Name: "width", Kind: Numeric},
	{Name: "height", Kind: Numeric},
	{Name: "gross_weight", Kind: Numeric},
	{Name: "ncap_rating", Kind: Numeric},
}

// Value is a single cell. Numeric cells use NaN as the missing marker.
type Value struct {
	Kind Kind
	Num  float64
	Text string
}

func NumberValue(f float64) Value { return Value{Kind: Numeric, Num: f} }

func TextValue(s string) Value { return Value{Kind: Categorical, Text: s} }

func (v Value) Missing() bool {
	return v.Kind == Numeric && math.IsNaN(v.Num)
}

func (v Value) String() string {
	if v.Kind == Categorical {
		return v.Text
	}
	if v.Missing() {
		return "NaN"
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

type Column struct {
	Name  string
	Value Value
}

// Record is one scoring request in training column order.
type Record struct {
	Columns []Column
}

func (r Record) Len() int { return len(r.Columns) }

func (r Record) Names() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

func (r Record) Get(name string) (Value, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value, true
		}
	}
	return Value{}, false
}

// Map flattens the record for JSON output. Missing numbers become nil.
func (r Record) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Columns))
	for _, c := range r.Columns {
		switch {
		case c.Value.Kind == Categorical:
			out[c.Name] = c.Value.Text
		case c.Value.Missing():
			out[c.Name] = nil
		default:
			out[c.Name] = c.Value.Num
		}
	}
	return out
}

// Fingerprint is a stable digest of names, kinds and values.
func (r Record) Fingerprint() string {
	var b strings.Builder
	for _, c := range r.Columns {
		fmt.Fprintf(&b, "%s|%d|%s;", c.Name, c.Value.Kind, c.Value.String())
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// ToText renders any raw form value as the text a categorical column expects.
func ToText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// ToNumber coerces a raw value, returning NaN when it is not numeric.
func ToNumber(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// Assemble maps the form onto Schema, injecting the fixed columns.
func Assemble(f ClaimForm) Record {
	raw := map[string]interface{}{
		"policy_tenure":       f.PolicyTenure,
		"age_of_car":          f.AgeOfCar,
		"age_of_policyholder": f.AgeOfPolicyholder,
		"population_density":  f.PopulationDensity,
		"make":                f.Make,
		"segment":             f.Segment,
		"model":               f.Model,
		"fuel_type":           f.FuelType,
		"max_power":           f.MaxPower,
		"engine_type":         f.EngineType,
		"airbags":             f.Airbags,
		"rear_brakes_type":    f.RearBrakesType,
		"displacement":        f.Displacement,
		"cylinder":            CylinderDefault,
		"transmission_type":   f.TransmissionType,
		"gear_box":            GearBoxDefault,
		"steering_type":       f.SteeringType,
		"turning_radius":      f.TurningRadius,
		"length":              f.Length,
		"width":               f.Width,
		"height":              f.Height,
		"gross_weight":        f.GrossWeight,
		"ncap_rating":         f.NCAPRating,
	}

	cols := make([]Column, len(Schema))
	for i, spec := range Schema {
		v := raw[spec.Name]
		if spec.Kind == Categorical {
			cols[i] = Column{Name: spec.Name, Value: TextValue(ToText(v))}
		} else {
			cols[i] = Column{Name: spec.Name, Value: NumberValue(ToNumber(v))}
		}
	}
	return Record{Columns: cols}
}
