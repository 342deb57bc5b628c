package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/leakprobe/internal/lexicon"
)

var classifyLexicon string

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <term...>",
	Short: "Show the lexical category of terms",
	Long: `Classify prints the category each term falls into: generic_actor,
structural_term, domain_vocabulary or specific_identifier. Only specific
identifiers count toward entity overlap.

Example:
  leakprobe classify NATO "Minister Kao" "arms sales"
  leakprobe classify --lexicon corpus.yaml "Keelung"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("lexicon") {
			cfg.Lexicon.Path = classifyLexicon
		}

		lex, err := lexicon.Load(cfg.Lexicon.Path)
		if err != nil {
			return err
		}
		classifier := lexicon.NewClassifier(lex)

		for _, term := range args {
			fmt.Printf("%-30s %s\n", term, classifier.Classify(term))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&classifyLexicon, "lexicon", "", "lexicon YAML file (default: built-in)")
}
