/*
Package goalcalc recommends a daily water goal from a person's profile.

MODEL:
  Daily water need is the sum of the body's losses minus what it gains
  without drinking:

    losses = urine (1500) + faeces (200) + skin + respiratory + sweat
    gains  = metabolic water (+ water from food, country dependent)

  Skin losses scale with body surface (Du Bois). Respiratory losses,
  sweat and metabolic water scale with calorie expenditure, which
  depends on activity, gender and age bracket. Pregnancy adds 300 and
  breastfeeding 700 to the losses.

  Every published figure is rounded to the nearest 100.

USAGE:
  goal := goalcalc.DailyWaterIntake(goalcalc.Profile{
      Activity: goalcalc.ActivityOccasional,
      Gender:   goalcalc.GenderMan,
      Age:      30,
      HeightCm: 170,
      WeightKg: 60,
      Country:  goalcalc.CountryAverage,
  })
*/
package goalcalc

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// =============================================================================
// PROFILE
// =============================================================================

type Activity string

const (
	ActivityRare       Activity = "rare"
	ActivityOccasional Activity = "occasional"
	ActivityWeekly     Activity = "weekly"
	ActivityDaily      Activity = "daily"
)

var activityFactors = map[Activity]float64{
	ActivityRare:       1.4,
	ActivityOccasional: 1.53,
	ActivityWeekly:     1.76,
	ActivityDaily:      2.25,
}

func ParseActivity(s string) (Activity, error) {
	a := Activity(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := activityFactors[a]; !ok {
		return "", fmt.Errorf("unknown activity %q (expected rare, occasional, weekly or daily)", s)
	}
	return a, nil
}

type Gender string

const (
	GenderMan           Gender = "man"
	GenderWoman         Gender = "woman"
	GenderPregnant      Gender = "pregnant"
	GenderBreastfeeding Gender = "breastfeeding"
)

func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.ToLower(strings.TrimSpace(s))); g {
	case GenderMan, GenderWoman, GenderPregnant, GenderBreastfeeding:
		return g, nil
	default:
		return "", fmt.Errorf("unknown gender %q (expected man, woman, pregnant or breastfeeding)", s)
	}
}

type Country string

const CountryAverage Country = "average"

// waterFromFood is the daily water a typical diet supplies, per country.
var waterFromFood = map[Country]float64{
	"argentina":      623,
	"mexico":         557,
	"brazil":         470,
	"uruguay":        550,
	"china":          1000,
	"indonesia":      468,
	"singapore":      533,
	"dubai":          711,
	"russia":         926,
	"france":         840,
	"united kingdom": 683,
	"spain":          794,
	"japan":          855,
	"germany":        780,
	"poland":         780,
	"turkey":         830,
	CountryAverage:   711,
}

// ParseCountry accepts any known country name; an empty string means average.
func ParseCountry(s string) (Country, error) {
	c := Country(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CountryAverage, nil
	}
	if _, ok := waterFromFood[c]; !ok {
		return "", fmt.Errorf("unknown country %q", s)
	}
	return c, nil
}

// Countries lists every known country, sorted.
func Countries() []Country {
	out := make([]Country, 0, len(waterFromFood))
	for c := range waterFromFood {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Profile is what the recommendation is computed from.
// Height is in centimetres, weight in kilograms, results in millilitres.
type Profile struct {
	Activity Activity
	Gender   Gender
	Age      int
	HeightCm float64
	WeightKg float64
	Country  Country
}

func (p Profile) Validate() error {
	if _, ok := activityFactors[p.Activity]; !ok {
		return fmt.Errorf("unknown activity %q", p.Activity)
	}
	if _, err := ParseGender(string(p.Gender)); err != nil {
		return err
	}
	if _, ok := waterFromFood[p.Country]; !ok {
		return fmt.Errorf("unknown country %q", p.Country)
	}
	if p.Age <= 0 || p.HeightCm <= 0 || p.WeightKg <= 0 {
		return fmt.Errorf("age, height and weight must be positive")
	}
	return nil
}

// =============================================================================
// RESULTS
// =============================================================================

// DailyWaterIntake is the recommended daily drinking goal.
func DailyWaterIntake(p Profile) float64 {
	return roundAmount(LostWater(p) - SupplyWater(p))
}

// LostWater is the total daily loss including pregnancy and lactation.
func LostWater(p Profile) float64 {
	return roundAmount(netLosses(p, true, false))
}

// SupplyWater is the part of the loss covered by food.
func SupplyWater(p Profile) float64 {
	return roundAmount(netLosses(p, false, false) - netLosses(p, false, true))
}

func roundAmount(amount float64) float64 {
	return math.Round(amount/100) * 100
}

// =============================================================================
// MODEL
// =============================================================================

func netLosses(p Profile, pregnancyAndLactation, foodWater bool) float64 {
	surface := bodySurface(p.WeightKg, p.HeightCm)
	ce := calorieExpenditure(p.Activity, p.WeightKg, p.Gender, p.Age)
	ceRare := calorieExpenditure(ActivityRare, p.WeightKg, p.Gender, p.Age)

	skin := surface * 7 * 24
	respiratory := 0.107*ce + 92.2
	sweat := 500.0
	if p.Activity != ActivityRare {
		sweat += (ce - ceRare) * 0.75 / 0.58
	}
	metabolic := 0.119*ce - 2.25

	need := 1500 + 200 + skin + respiratory + sweat - metabolic

	if pregnancyAndLactation {
		switch p.Gender {
		case GenderPregnant:
			need += 300
		case GenderBreastfeeding:
			need += 700
		}
	}
	if foodWater {
		need -= waterFromFood[p.Country]
	}
	return need
}

func bodySurface(weight, height float64) float64 {
	return 0.007184 * math.Pow(height, 0.725) * math.Pow(weight, 0.425)
}

type ageBracket struct {
	weightFactor float64
	extra        float64
}

var (
	manBrackets   = [3]ageBracket{{15.057, 692.2}, {11.472, 873.1}, {11.711, 587.7}}
	womanBrackets = [3]ageBracket{{14.818, 486.6}, {8.126, 845.6}, {9.082, 658.5}}
)

func calorieExpenditure(activity Activity, weight float64, gender Gender, age int) float64 {
	brackets := womanBrackets
	if gender == GenderMan {
		brackets = manBrackets
	}

	var b ageBracket
	switch {
	case age < 30:
		b = brackets[0]
	case age < 60:
		b = brackets[1]
	default:
		b = brackets[2]
	}
	return activityFactors[activity] * (b.weightFactor*weight + b.extra)
}
