package models

type Control string

const (
	ControlNumber Control = "number"
	ControlSelect Control = "select"
	ControlSlider Control = "slider"
)

const (
	SectionPolicy  = "Policy & Customer Details"
	SectionVehicle = "Vehicle Details"
	SectionEngine  = "Engine & Dimensions"
)

// Field describes one input control and its accepted domain.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Section string   `json:"section"`
	Control Control  `json:"control"`
	Integer bool     `json:"integer,omitempty"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Step    float64  `json:"step,omitempty"`
	Options []string `json:"options,omitempty"`
	Default string   `json:"default"`
}

// Bounded reports whether the control carries numeric min/max bounds.
func (f Field) Bounded() bool {
	return f.Control == ControlNumber || f.Control == ControlSlider
}

type Section struct {
	Title  string
	Fields []Field
}

var defaults = DefaultForm().Values()

func number(name, label, section string, min, max, step float64) Field {
	return Field{Name: name, Label: label, Section: section, Control: ControlNumber,
		Min: min, Max: max, Step: step, Default: defaults[name]}
}

func integer(name, label, section string, min, max float64) Field {
	f := number(name, label, section, min, max, 1)
	f.Integer = true
	return f
}

func slider(name, label, section string, min, max float64) Field {
	f := integer(name, label, section, min, max)
	f.Control = ControlSlider
	return f
}

func choice(name, label, section string, options ...string) Field {
	return Field{Name: name, Label: label, Section: section, Control: ControlSelect,
		Options: options, Default: defaults[name]}
}

// Fields lists the controls in page order.
var Fields = []Field{
	number("policy_tenure", "Policy Tenure", SectionPolicy, 0, 2, 0.01),
	number("age_of_car", "Age of Car (normalized)", SectionPolicy, 0, 1, 0.01),
	number("age_of_policyholder", "Age of Policyholder (normalized)", SectionPolicy, 0, 1, 0.01),
	integer("population_density", "Population Density", SectionPolicy, 0, 8000),

	choice("make", "Car Make (Encoded)", SectionVehicle, "1", "2", "3", "4", "5"),
	choice("model", "Car Model (Encoded)", SectionVehicle, "1", "2", "3", "4", "5"),
	choice("segment", "Car Segment", SectionVehicle, "A", "B1", "B2", "C1", "C2"),
	choice("fuel_type", "Fuel Type", SectionVehicle, "Petrol", "Diesel", "CNG"),
	choice("transmission_type", "Transmission Type", SectionVehicle, "Manual", "Automatic"),
	choice("engine_type", "Engine Type", SectionVehicle, "MPFI", "CRDI", "VVT"),
	choice("rear_brakes_type", "Rear Brakes Type", SectionVehicle, "Drum", "Disc"),
	choice("steering_type", "Steering Type", SectionVehicle, "Power", "Manual"),
	slider("airbags", "Number of Airbags", SectionVehicle, 1, 6),
	slider("ncap_rating", "NCAP Safety Rating", SectionVehicle, 0, 5),

	number("max_power", "Max Power (bhp)", SectionEngine, 50, 200, 0.01),
	integer("displacement", "Engine Displacement (cc)", SectionEngine, 500, 2000),
	integer("gross_weight", "Gross Weight (kg)", SectionEngine, 800, 2000),
	number("turning_radius", "Turning Radius (m)", SectionEngine, 4, 6, 0.01),
	integer("length", "Car Length (mm)", SectionEngine, 3000, 5000),
	integer("width", "Car Width (mm)", SectionEngine, 1400, 2000),
	integer("height", "Car Height (mm)", SectionEngine, 1400, 2000),
}

// Sections groups Fields under their headers, keeping page order.
func Sections() []Section {
	var out []Section
	index := map[string]int{}
	for _, f := range Fields {
		i, ok := index[f.Section]
		if !ok {
			i = len(out)
			index[f.Section] = i
			out = append(out, Section{Title: f.Section})
		}
		out[i].Fields = append(out[i].Fields, f)
	}
	return out
}

func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
