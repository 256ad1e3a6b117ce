package models

import "strconv"

// ClaimForm holds the current value of every control on the page.
type ClaimForm struct {
	PolicyTenure      float64 `form:"policy_tenure" json:"policy_tenure" binding:"gte=0,lte=2"`
	AgeOfCar          float64 `form:"age_of_car" json:"age_of_car" binding:"gte=0,lte=1"`
	AgeOfPolicyholder float64 `form:"age_of_policyholder" json:"age_of_policyholder" binding:"gte=0,lte=1"`
	PopulationDensity int     `form:"population_density" json:"population_density" binding:"gte=0,lte=8000"`

	Make             int    `form:"make" json:"make" binding:"oneof=1 2 3 4 5"`
	Model            int    `form:"model" json:"model" binding:"oneof=1 2 3 4 5"`
	Segment          string `form:"segment" json:"segment" binding:"oneof=A B1 B2 C1 C2"`
	FuelType         string `form:"fuel_type" json:"fuel_type" binding:"oneof=Petrol Diesel CNG"`
	TransmissionType string `form:"transmission_type" json:"transmission_type" binding:"oneof=Manual Automatic"`
	EngineType       string `form:"engine_type" json:"engine_type" binding:"oneof=MPFI CRDI VVT"`
	RearBrakesType   string `form:"rear_brakes_type" json:"rear_brakes_type" binding:"oneof=Drum Disc"`
	SteeringType     string `form:"steering_type" json:"steering_type" binding:"oneof=Power Manual"`

	Airbags    int `form:"airbags" json:"airbags" binding:"gte=1,lte=6"`
	NCAPRating int `form:"ncap_rating" json:"ncap_rating" binding:"gte=0,lte=5"`

	MaxPower      float64 `form:"max_power" json:"max_power" binding:"gte=50,lte=200"`
	Displacement  int     `form:"displacement" json:"displacement" binding:"gte=500,lte=2000"`
	GrossWeight   int     `form:"gross_weight" json:"gross_weight" binding:"gte=800,lte=2000"`
	TurningRadius float64 `form:"turning_radius" json:"turning_radius" binding:"gte=4,lte=6"`
	Length        int     `form:"length" json:"length" binding:"gte=3000,lte=5000"`
	Width         int     `form:"width" json:"width" binding:"gte=1400,lte=2000"`
	Height        int     `form:"height" json:"height" binding:"gte=1400,lte=2000"`
}

func DefaultForm() ClaimForm {
	return ClaimForm{
		PolicyTenure:      0.5,
		AgeOfCar:          0.2,
		AgeOfPolicyholder: 0.4,
		PopulationDensity: 0,
		Make:              1,
		Model:             1,
		Segment:           "A",
		FuelType:          "Petrol",
		TransmissionType:  "Manual",
		EngineType:        "MPFI",
		RearBrakesType:    "Drum",
		SteeringType:      "Power",
		Airbags:           2,
		NCAPRating:        3,
		MaxPower:          90.0,
		Displacement:      1200,
		GrossWeight:       1300,
		TurningRadius:     5.0,
		Length:            3800,
		Width:             1700,
		Height:            1550,
	}
}

// Values renders each control's current value keyed by field name.
func (f ClaimForm) Values() map[string]string {
	fl := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return map[string]string{
		"policy_tenure":       fl(f.PolicyTenure),
		"age_of_car":          fl(f.AgeOfCar),
		"age_of_policyholder": fl(f.AgeOfPolicyholder),
		"population_density":  strconv.Itoa(f.PopulationDensity),
		"make":                strconv.Itoa(f.Make),
		"model":               strconv.Itoa(f.Model),
		"segment":             f.Segment,
		"fuel_type":           f.FuelType,
		"transmission_type":   f.TransmissionType,
		"engine_type":         f.EngineType,
		"rear_brakes_type":    f.RearBrakesType,
		"steering_type":       f.SteeringType,
		"airbags":             strconv.Itoa(f.Airbags),
		"ncap_rating":         strconv.Itoa(f.NCAPRating),
		"max_power":           fl(f.MaxPower),
		"displacement":        strconv.Itoa(f.Displacement),
		"gross_weight":        strconv.Itoa(f.GrossWeight),
		"turning_radius":      fl(f.TurningRadius),
		"length":              strconv.Itoa(f.Length),
		"width":               strconv.Itoa(f.Width),
		"height":              strconv.Itoa(f.Height),
	}
}
