package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"wildtrack/dataset"
	"wildtrack/ml"
	"wildtrack/reload"
)

func predictCmd(g *globalFlags) *cobra.Command {
	var (
		traits     = ml.DefaultTraits()
		tables     = ml.DefaultTables()
		sel        ml.Selection
		tempChange float64
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict extinction risk for one species",
		Example: `  wildtrack predict --height 160 --weight 450 --lifespan 25 --speed 40 \
    --gestation 240 --offspring 2 --social Solitary --region Arctic --habitat Tundra`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := g.service()
			if err != nil {
				return err
			}
			sel.Traits = traits
			if cmd.Flags().Changed("temp-change") {
				if schema := svc.Encoder().Schema(); schema != ml.SchemaBasic {
					return fmt.Errorf("--temp-change applies only to the basic schema, model uses %s", schema)
				}
				// the region default would otherwise take precedence
				sel.Region = ""
				sel.TempChange = &tempChange
			}
			result, err := svc.Predict(context.Background(), sel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.asJSON {
				return printJSON(out, result)
			}
			verdict := "NOT at risk"
			if result.AtRisk {
				verdict = "AT RISK"
			}
			fmt.Fprintf(out, "This species is predicted to be %s.\n", verdict)
			if result.Probability != nil {
				fmt.Fprintf(out, "Probability: %.2f\n", *result.Probability)
			}
			return nil
		},
	}

	f := cmd.Flags()
	for _, spec := range ml.TraitSpecs() {
		value, _ := traits.Get(spec.Field)
		f.Var(&traitValue{traits: &traits, field: spec.Field, value: value}, spec.Field,
			fmt.Sprintf("%s (%g-%g)", spec.Label, spec.Min, spec.Max))
	}
	f.StringVar(&sel.Social, "social", tables.Social[0].Label, "Social structure: "+strings.Join(tables.SocialLabels(), ", "))
	f.StringVar(&sel.Region, "region", tables.Regions[0].Label, "Region: "+strings.Join(tables.RegionLabels(), ", "))
	f.StringVar(&sel.Habitat, "habitat", tables.Habitat[0].Label, "Habitat: "+strings.Join(tables.HabitatLabels(), ", "))
	spec := ml.TempChangeSpec()
	f.Float64Var(&tempChange, "temp-change", spec.Default,
		fmt.Sprintf("Temperature change in °C for the basic schema, instead of --region (%g-%g)", spec.Min, spec.Max))
	cmd.MarkFlagsMutuallyExclusive("region", "temp-change")
	return cmd
}

// traitValue binds one trait field to a flag.
type traitValue struct {
	traits *ml.Traits
	field  string
	value  float64
}

func (v *traitValue) String() string { return strconv.FormatFloat(v.value, 'f', -1, 64) }

func (v *traitValue) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	v.value = f
	v.traits.Set(v.field, f)
	return nil
}

func (v *traitValue) Type() string { return "float" }

type modelInfo struct {
	Type         string        `json:"type"`
	Path         string        `json:"path"`
	Schema       ml.Schema     `json:"schema"`
	Probability  bool          `json:"probability"`
	FeatureNames []string      `json:"feature_names"`
	Datasets     []datasetInfo `json:"datasets,omitempty"`
}

type datasetInfo struct {
	Name   string          `json:"name"`
	Rows   int             `json:"rows"`
	Report *dataset.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

func inspectCmd(g *globalFlags) *cobra.Command {
	var withData bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the model type, schema and feature names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := g.service()
			if err != nil {
				return err
			}
			p := svc.Predictor()
			info := modelInfo{
				Type:         p.ModelType(),
				Path:         cfg.Model.Path,
				Schema:       p.Schema(),
				Probability:  p.SupportsProbability(),
				FeatureNames: p.FeatureNames(),
			}
			if withData {
				info.Datasets = describeDatasets(reload.NewCatalog(cfg, nil).Snapshot())
			}

			out := cmd.OutOrStdout()
			if g.asJSON {
				return printJSON(out, info)
			}
			fmt.Fprintf(out, "model:       %s\n", info.Path)
			fmt.Fprintf(out, "type:        %s\n", info.Type)
			fmt.Fprintf(out, "schema:      %s\n", info.Schema)
			fmt.Fprintf(out, "probability: %t\n", info.Probability)
			fmt.Fprintln(out, "features:")
			for i, name := range info.FeatureNames {
				fmt.Fprintf(out, "  %2d  %s\n", i, name)
			}
			if withData {
				fmt.Fprintln(out, "datasets:")
				for _, d := range info.Datasets {
					if d.Error != "" {
						fmt.Fprintf(out, "  %-9s unavailable: %s\n", d.Name, d.Error)
						continue
					}
					fmt.Fprintf(out, "  %-9s %d rows", d.Name, d.Rows)
					if d.Report != nil && d.Report.Rejected > 0 {
						fmt.Fprintf(out, ", %d rejected", d.Report.Rejected)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withData, "datasets", false, "Also load the configured datasets and report them")
	return cmd
}

func describeDatasets(snap *dataset.Snapshot) []datasetInfo {
	names := []string{dataset.Animals, dataset.Climate, dataset.Combined}
	out := make([]datasetInfo, 0, len(names))
	for _, name := range names {
		info := datasetInfo{Name: name}
		frame, err := snap.Frame(name)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Rows = frame.Len()
			if r, ok := snap.Report(name); ok {
				info.Report = &r
			}
		}
		out = append(out, info)
	}
	return out
}

func tablesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print the categorical encoding tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := ml.DefaultTables()
			out := cmd.OutOrStdout()
			if g.asJSON {
				return printJSON(out, tables)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SOCIAL STRUCTURE\tCODE")
			for _, e := range tables.Social {
				fmt.Fprintf(tw, "%s\t%d\n", e.Label, e.Code)
			}
			fmt.Fprintln(tw, "\t")
			fmt.Fprintln(tw, "HABITAT\tCODE")
			for _, e := range tables.Habitat {
				fmt.Fprintf(tw, "%s\t%d\n", e.Label, e.Code)
			}
			fmt.Fprintln(tw, "\t")
			fmt.Fprintln(tw, "REGION\tTEMP CHANGE\tAVG TEMP RECENT")
			for _, r := range tables.Regions {
				fmt.Fprintf(tw, "%s\t%g\t%g\n", r.Label, r.Climate.TempChange, r.Climate.AvgTempRecent)
			}
			return tw.Flush()
		},
	}
}
