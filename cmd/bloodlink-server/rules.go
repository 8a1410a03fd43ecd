package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/domain/screening"
)

// rulesCmd evaluates the compatibility matrix and screening predicates
// without a database, for staff checking a borderline case by hand.
func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Evaluate donation rules offline",
	}
	cmd.AddCommand(compatCmd(), screenCmd(), qualifyCmd())
	return cmd
}

func compatCmd() *cobra.Command {
	var typeCode, componentCode string
	cmd := &cobra.Command{
		Use:   "compat",
		Short: "Show who a blood type can give to and receive from",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := bloodtype.New(typeCode)
			if err != nil {
				return err
			}
			c, err := bloodtype.ParseComponent(componentCode)
			if err != nil {
				return err
			}
			return writeJSON(cmd, bloodtype.Compatibility(t, c))
		},
	}
	cmd.Flags().StringVar(&typeCode, "type", "", "blood type, e.g. O-")
	cmd.Flags().StringVar(&componentCode, "component", string(bloodtype.WholeBlood), "blood component")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func screenCmd() *cobra.Command {
	var v screening.Vitals
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "Evaluate donor eligibility from health-check vitals",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := screening.NewService(nil).Health(v)
			if err != nil {
				return err
			}
			return writeJSON(cmd, r)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&v.Weight, "weight", 0, "weight in kg")
	f.Float64Var(&v.Height, "height", 0, "height in m")
	f.Float64Var(&v.Temperature, "temperature", 0, "body temperature in °C")
	f.StringVar(&v.BloodPressure, "bp", "", "blood pressure as systolic/diastolic")
	f.Float64Var(&v.Hemoglobin, "hemoglobin", 0, "hemoglobin in g/dL")
	f.BoolVar(&v.HBV, "hbv", false, "hepatitis B positive")
	return cmd
}

func qualifyCmd() *cobra.Command {
	var u screening.UnitTest
	cmd := &cobra.Command{
		Use:   "qualify",
		Short: "Evaluate whether a collected unit is usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := screening.NewService(nil).Unit(u)
			if err != nil {
				return err
			}
			return writeJSON(cmd, r)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&u.Hematocrit, "hematocrit", 0, "hematocrit in percent")
	f.BoolVar(&u.HIV, "hiv", false, "HIV positive")
	f.BoolVar(&u.HepatitisC, "hepatitis-c", false, "hepatitis C positive")
	f.BoolVar(&u.Syphilis, "syphilis", false, "syphilis positive")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
