package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardgen/internal/cli/output"
	"github.com/leapstack-labs/boardgen/internal/engine"
)

// CompileOptions holds options for the compile command.
type CompileOptions struct {
	Stdout bool
	Force  bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand() *cobra.Command {
	opts := &CompileOptions{}

	cmd := &cobra.Command{
		Use:   "compile <config>",
		Short: "Compile a board configuration into display-init source",
		Long: `Compile a TOML or YAML board configuration into MicroPython display
initialization source and build tokens.

The generated source is written to output_file (default: display.py) only when
compilation succeeds. With incremental builds enabled, the write is skipped when
the configuration, driver catalog and previous output are unchanged.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Compile and write display.py
  boardgen compile board.toml

  # Print the generated source instead of writing it
  boardgen compile board.yaml --stdout

  # Always rebuild, even when nothing changed
  boardgen compile board.toml --incremental --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Stdout, "stdout", false, "Print the generated source to stdout instead of writing output_file")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Rebuild even when the previous output is up to date")

	return cmd
}

func runCompile(cmd *cobra.Command, docPath string, opts *CompileOptions) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noOutput: opts.Stdout, rebuild: opts.Force})
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := cmdCtx.Engine.Compile(commandContext(cmd), docPath)
	if err != nil {
		return err
	}

	if opts.Stdout {
		cmdCtx.Renderer.Printf("%s", out.Result.Source)
		return nil
	}
	return renderOutcome(cmdCtx.Renderer, docPath, out)
}

// renderOutcome reports a compile outcome in the renderer's mode.
func renderOutcome(r *output.Renderer, docPath string, out *engine.Outcome) error {
	res := compileOutput(docPath, out)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(res)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Compiled "+docPath))
		r.Println("")
		r.Println(output.FormatKeyValue("Status", outcomeStatus(out)))
		if res.Device != "" {
			r.Println(output.FormatKeyValue("Device", res.Device))
		}
		if res.Output != "" {
			r.Println(output.FormatKeyValue("Output", res.Output))
		}
		r.Println(output.FormatKeyValue("Tokens", "`"+strings.Join(res.Tokens, " ")+"`"))
		if len(res.Imports) > 0 {
			r.Println(output.FormatKeyValue("Imports", strings.Join(res.Imports, ", ")))
		}
		return nil
	default:
		detail := res.Output
		if out.Skipped {
			detail = "up to date"
		} else if !out.Written {
			detail = "nothing written"
		}
		r.StatusLine(docPath, outcomeStatus(out), detail)
		r.Muted(fmt.Sprintf("  tokens: %s", strings.Join(res.Tokens, " ")))
		return nil
	}
}

func compileOutput(docPath string, out *engine.Outcome) output.CompileOutput {
	res := output.CompileOutput{
		Config:  docPath,
		Written: out.Written,
		Skipped: out.Skipped,
	}
	if out.Written || out.Skipped {
		res.Output = out.OutputPath
	}
	if out.Build != nil {
		res.Device = out.Build.Device
		res.Tokens = out.Build.Tokens
		res.DurationMs = out.Build.Duration.Milliseconds()
	}
	if out.Result != nil {
		res.Tokens = out.Result.Tokens
		res.Imports = out.Result.Imports
		res.Constants = out.Result.Constants
		if out.Result.Device != nil {
			res.Device = out.Result.Device.Name
		}
	}
	if res.Tokens == nil {
		res.Tokens = []string{}
	}
	return res
}

func outcomeStatus(out *engine.Outcome) string {
	if out.Skipped {
		return "skipped"
	}
	return "success"
}
