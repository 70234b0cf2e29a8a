package main

import (
	"github.com/spf13/cobra"

	"github.com/phobologic/jrewrite/internal/report"
)

func newRulesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [path]",
		Short: "List the enabled rules",
		Long: `List the rules a run in path would apply: built-in rules plus the
custom_rules of the config file, narrowed by --rules or the config's rules
list. Every template is compiled, so a malformed rule is reported here.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := *opts
			o.cachePath = ""
			s, err := newSession(cmd, &o, args)
			if err != nil {
				return err
			}
			return report.Rules(s.stdout, s.ruleInfos(), s.color)
		},
	}
}
