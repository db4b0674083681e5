package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardgen/internal/cli/output"
)

// NewTokensCommand creates the tokens command.
func NewTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens <config>",
		Short: "Print the build tokens of a board configuration",
		Long: `Compile a board configuration and print only its build tokens: the device
name, its flags, and the recognized display, indev and expander drivers.

Nothing is written and no build is recorded.`,
		Example: `  # Pass tokens to the firmware build
  make BOARD_TOKENS="$(boardgen tokens board.toml --output text)"

  # Tokens as a JSON array
  boardgen tokens board.toml --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, args[0])
		},
	}
}

func runTokens(cmd *cobra.Command, docPath string) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noOutput: true, noState: true})
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := cmdCtx.Engine.Compile(commandContext(cmd), docPath)
	if err != nil {
		return err
	}
	toks := out.Result.Tokens
	if toks == nil {
		toks = []string{}
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(toks)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Build tokens"))
		r.Println("")
		if len(toks) > 0 {
			r.Println(output.FormatList(toks))
		}
		return nil
	default:
		r.Println(strings.Join(toks, " "))
		return nil
	}
}
