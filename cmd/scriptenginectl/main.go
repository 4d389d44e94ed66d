// Command scriptenginectl is the operator-facing CLI for the expression
// engine: evaluate a demo expression tree, compile it through the JIT
// backend, or serve its Prometheus instruments. Structured the way the
// engine's own plugin CLIs are laid out, via github.com/spf13/cobra.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/opsmonitor/scriptengine/internal/ast"
	"github.com/opsmonitor/scriptengine/internal/interp"
	"github.com/opsmonitor/scriptengine/internal/jit"
	"github.com/opsmonitor/scriptengine/internal/metrics"
	"github.com/opsmonitor/scriptengine/internal/scriptframe"
	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
)

func main() {
	root := &cobra.Command{
		Use:   "scriptenginectl",
		Short: "Inspect and exercise the configuration script expression engine",
	}
	root.AddCommand(newEvalCmd(), newJitCmd(), newMetricsCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// demoExpression builds a small, fixed AST standing in for what a real
// lexer/parser (an out-of-scope external collaborator per spec §1) would
// hand the engine: `1 + 2 * 3`.
func demoExpression() ast.Expression {
	loc := ast.Info{File: "<demo>", StartLine: 1, StartCol: 1}
	return ast.NewAdd(loc,
		&ast.Literal{Location: loc, Value: scriptvalue.Number(1)},
		ast.NewMultiply(loc,
			&ast.Literal{Location: loc, Value: scriptvalue.Number(2)},
			&ast.Literal{Location: loc, Value: scriptvalue.Number(3)},
		),
	)
}

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval",
		Short: "Interpret the built-in demo expression tree and print its result",
		RunE: func(cmd *cobra.Command, args []string) error {
			frame := scriptframe.New()
			defer frame.Pop()
			result, err := interp.Evaluate(demoExpression(), frame, nil)
			if err != nil {
				return err
			}
			fmt.Println(result.Value.Inspect())
			return nil
		},
	}
}

func newJitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "jit",
		Short: "Compile the built-in demo expression tree through the JIT backend and run it",
		RunE: func(cmd *cobra.Command, args []string) error {
			compiled, err := jit.Compile(demoExpression())
			if err != nil {
				return err
			}
			defer compiled.Close()

			frame := scriptframe.New()
			defer frame.Pop()
			result, err := compiled.Evaluate(frame, nil)
			if err != nil {
				return err
			}
			fmt.Println(result.Value.Inspect())
			return nil
		},
	}
}

func newMetricsCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Serve the engine's Prometheus instruments over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			if err := metrics.Register(reg); err != nil {
				return err
			}
			http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			fmt.Fprintf(os.Stderr, "serving metrics on %s/metrics\n", addr)
			return http.ListenAndServe(addr, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9108", "address to serve /metrics on")
	return cmd
}
