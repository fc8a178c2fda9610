package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classifyVersion bool

var classifyCmd = &cobra.Command{
	Use:         "classify <company name>...",
	Short:       "Print the industry label of each company name",
	Long:        "Classify company names with the industry rule table. Unknown names are labeled Other.",
	Annotations: map[string]string{logLevelAnnotation: "warn"},
	RunE:        runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyVersion, "version", false, "Print the industry rule table version")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if !classifyVersion && len(args) == 0 {
		return fmt.Errorf("at least one company name is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	_, classifier, err := loadRules(cfg.RulesPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if classifyVersion {
		fmt.Fprintf(out, "industry rules %s\n", classifier.Version())
	}
	for _, name := range args {
		fmt.Fprintf(out, "%s\t%s\n", name, classifier.Classify(name))
	}
	return nil
}
