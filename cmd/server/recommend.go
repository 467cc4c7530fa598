package main

import (
	"github.com/spf13/cobra"

	"github.com/warp/hydration-engine/goalcalc"
)

var (
	profileAge      int
	profileGender   string
	profileHeight   float64
	profileWeight   float64
	profileActivity string
	profileCountry  string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print a recommended daily water goal for a profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		activity, err := goalcalc.ParseActivity(profileActivity)
		if err != nil {
			return err
		}
		gender, err := goalcalc.ParseGender(profileGender)
		if err != nil {
			return err
		}
		country, err := goalcalc.ParseCountry(profileCountry)
		if err != nil {
			return err
		}
		p := goalcalc.Profile{
			Activity: activity,
			Gender:   gender,
			Age:      profileAge,
			HeightCm: profileHeight,
			WeightKg: profileWeight,
			Country:  country,
		}
		if err := p.Validate(); err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), map[string]float64{
			"daily_water_intake": goalcalc.DailyWaterIntake(p),
			"lost_water":         goalcalc.LostWater(p),
			"supply_water":       goalcalc.SupplyWater(p),
		})
	},
}

func init() {
	f := recommendCmd.Flags()
	f.IntVar(&profileAge, "age", 0, "Age in years")
	f.StringVar(&profileGender, "gender", "", "man, woman, pregnant or breastfeeding")
	f.Float64Var(&profileHeight, "height", 0, "Height in cm")
	f.Float64Var(&profileWeight, "weight", 0, "Weight in kg")
	f.StringVar(&profileActivity, "activity", "occasional", "rare, occasional, weekly or daily")
	f.StringVar(&profileCountry, "country", "", "Country for water from food (default: average)")
	for _, name := range []string{"age", "gender", "height", "weight"} {
		_ = recommendCmd.MarkFlagRequired(name)
	}
	rootCmd.AddCommand(recommendCmd)
}
