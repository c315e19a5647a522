package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "retirement-planner",
		Short: "Australian retirement projection engine",
		Long: `Projects super, ETF, property and cash balances year by year from a financial
snapshot, then reports whether the plan funds retirement and what to change.

Snapshots are YAML (.yaml, .yml) or JSON files; "-" reads JSON from stdin.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "configuration file (default: built-in 2024-25 settings)")

	loadEngine := func() (*Engine, error) {
		cfg, err := LoadConfigOrDefault(configFile)
		if err != nil {
			return nil, err
		}
		return NewEngine(cfg, nil), nil
	}

	rootCmd.AddCommand(projectCmd(loadEngine))
	rootCmd.AddCommand(taxCmd(loadEngine))
	rootCmd.AddCommand(borrowCmd(loadEngine))
	rootCmd.AddCommand(amortizeCmd())
	rootCmd.AddCommand(reportCmd(loadEngine))
	rootCmd.AddCommand(sensitivityCmd(loadEngine))
	rootCmd.AddCommand(sustainableCmd(loadEngine))
	rootCmd.AddCommand(scenariosCmd(loadEngine))
	rootCmd.AddCommand(serveCmd(loadEngine))
	rootCmd.AddCommand(initConfigCmd())
	rootCmd.AddCommand(newSnapshotCmd(loadEngine))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type engineLoader func() (*Engine, error)

func projectCmd(load engineLoader) *cobra.Command {
	var pdfFile string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "project [snapshot]",
		Short: "Run a projection and print the year-by-year outlook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}
			p, err := engine.Project(cmd.Context(), snap)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, p)
			}
			PrintHeader(out, &snap)
			PrintTaxBreakdown(out, p.Current.Tax, p.Current.Bracket)
			PrintProjection(out, &snap, p)

			if pdfFile != "" {
				return writePDF(pdfFile, &snap, p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfFile, "pdf", "", "also write a PDF report to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the projection as JSON")
	return cmd
}

func taxCmd(load engineLoader) *cobra.Command {
	var pretax float64

	cmd := &cobra.Command{
		Use:   "tax [gross-income]",
		Short: "Show the tax breakdown for a salary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			gross, err := strconv.ParseFloat(args[0], 64)
			if err != nil || gross < 0 {
				return fmt.Errorf("invalid income %q", args[0])
			}
			tc := &engine.Config().Tax
			PrintTaxBreakdown(cmd.OutOrStdout(), ComputeTaxBreakdown(tc, gross, pretax), GetMarginalBracket(tc, gross-pretax))
			return nil
		},
	}

	cmd.Flags().Float64Var(&pretax, "pretax-super", 0, "annual salary sacrifice deducted before tax")
	return cmd
}

func borrowCmd(load engineLoader) *cobra.Command {
	var rate float64

	cmd := &cobra.Command{
		Use:   "borrow [snapshot]",
		Short: "Estimate borrowing capacity from a snapshot's income, expenses and loans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}
			h := HouseholdFromSnapshot(&snap)
			h.InterestRatePercent = rate

			out := cmd.OutOrStdout()
			PrintBorrowingCapacity(out, ComputeBorrowingCapacity(engine.Config(), h, snap.Properties))
			for _, m := range ComputeAllPropertyMetrics(snap.Properties) {
				fmt.Fprintf(out, "  %-20s LVR %5.1f%%  net yield %5.2f%%  cash flow %s/month\n",
					truncateString(m.Name, 20), m.LoanToValue*100, m.NetYield*100, FormatMoneyFull(m.MonthlyCashFlow))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&rate, "rate", 0, "loan rate in percent (default: lending base rate)")
	return cmd
}

func amortizeCmd() *cobra.Command {
	var principal, rate float64
	var years int
	var interestOnly bool

	cmd := &cobra.Command{
		Use:   "amortize",
		Short: "Print a loan repayment schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if principal <= 0 || rate < 0 || years <= 0 {
				return fmt.Errorf("principal and term must be positive and rate must not be negative")
			}
			loanType := PrincipalAndInterest
			if interestOnly {
				loanType = InterestOnly
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Monthly repayment: %s (%s)\n\n", FormatMoneyFull(ComputeAmortizedPayment(principal, rate, years, loanType)), loanType)
			PrintAmortization(out, AmortizationSchedule(principal, rate, years, loanType))
			return nil
		},
	}

	cmd.Flags().Float64Var(&principal, "principal", 0, "loan amount")
	cmd.Flags().Float64Var(&rate, "rate", 6, "interest rate in percent")
	cmd.Flags().IntVar(&years, "years", 30, "loan term in years")
	cmd.Flags().BoolVar(&interestOnly, "interest-only", false, "interest-only loan")
	return cmd
}

func reportCmd(load engineLoader) *cobra.Command {
	var outFile string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report [snapshot]",
		Short: "Write a PDF projection report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}
			p, err := engine.Project(cmd.Context(), snap)
			if err != nil {
				return err
			}
			ext := "pdf"
			if asHTML {
				ext = "html"
			}
			if outFile == "" {
				outFile = fmt.Sprintf("retirement-projection-%s.%s", p.StartedAt.Format("2006-01-02"), ext)
			}
			if asHTML {
				if err := GenerateHTMLReport(&snap, p, outFile); err != nil {
					return err
				}
				log.Printf("Wrote HTML report to %s", outFile)
				return nil
			}
			return writePDF(outFile, &snap, p)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "report file to write")
	cmd.Flags().BoolVar(&asHTML, "html", false, "write an HTML page instead of a PDF")
	return cmd
}

func sensitivityCmd(load engineLoader) *cobra.Command {
	var htmlFile string

	cmd := &cobra.Command{
		Use:   "sensitivity [snapshot]",
		Short: "Project across a grid of super and ETF returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}
			a, err := engine.RunSensitivityAnalysis(cmd.Context(), snap)
			if err != nil {
				return err
			}
			PrintSensitivity(cmd.OutOrStdout(), a)
			if htmlFile == "" {
				return nil
			}
			f, err := os.Create(htmlFile)
			if err != nil {
				return err
			}
			defer f.Close()
			return WriteSensitivityHTML(f, a, time.Now())
		},
	}

	cmd.Flags().StringVar(&htmlFile, "html", "", "also write a heatmap page to this file")
	return cmd
}

func sustainableCmd(load engineLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sustainable [snapshot]",
		Short: "Find the highest monthly spending that lasts to life expectancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(args[0])
			if err != nil {
				return err
			}
			res, err := engine.FindSustainableSpending(cmd.Context(), snap)
			if err != nil {
				return err
			}
			PrintSustainableSpending(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func scenariosCmd(load engineLoader) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Manage saved scenarios",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "scenario store directory (default: server data_dir)")

	service := func() (*ScenarioService, error) {
		engine, err := load()
		if err != nil {
			return nil, err
		}
		cfg := engine.Config()
		dir := dataDir
		if dir == "" {
			dir = cfg.Server.GetDataDir()
		}
		repo, err := NewFileScenarioRepo(dir)
		if err != nil {
			return nil, err
		}
		return NewScenarioService(repo, nil, cfg.Projection.GetMaxYears()), nil
	}

	var description string
	save := &cobra.Command{
		Use:   "save [name] [snapshot]",
		Short: "Save a snapshot as a new scenario",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service()
			if err != nil {
				return err
			}
			snap, err := readSnapshotFile(args[1])
			if err != nil {
				return err
			}
			sc, err := svc.Save(args[0], description, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as %s\n", sc.Name, sc.ID)
			return nil
		},
	}
	save.Flags().StringVarP(&description, "description", "d", "", "scenario description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service()
			if err != nil {
				return err
			}
			scenarios, err := svc.List()
			if err != nil {
				return err
			}
			PrintScenarios(cmd.OutOrStdout(), scenarios)
			return nil
		},
	}

	var exportFile string
	export := &cobra.Command{
		Use:   "export [id...]",
		Short: "Export scenarios as JSON (all when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service()
			if err != nil {
				return err
			}
			env, err := svc.ExportEnvelope(args...)
			if err != nil {
				return err
			}
			data, err := EncodeEnvelope(env)
			if err != nil {
				return err
			}
			if exportFile == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := atomicWriteFile(exportFile, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d scenarios to %s\n", len(env.Scenarios), exportFile)
			return nil
		},
	}
	export.Flags().StringVarP(&exportFile, "output", "o", "", "file to write (default: stdout)")

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import scenarios from an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service()
			if err != nil {
				return err
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			res, err := svc.ImportEnvelope(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d scenarios (%d given new ids)\n", len(res.Scenarios), res.ReassignedIDs)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a saved scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service()
			if err != nil {
				return err
			}
			return svc.Delete(args[0])
		},
	}

	cmd.AddCommand(save, list, export, importCmd, del)
	return cmd
}

func serveCmd(load engineLoader) *cobra.Command {
	var addr, dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planner HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			cfg := engine.Config()
			if addr == "" {
				addr = cfg.Server.GetAddress()
			}
			if dataDir == "" {
				dataDir = cfg.Server.GetDataDir()
			}
			repo, err := NewFileScenarioRepo(dataDir)
			if err != nil {
				return err
			}
			scenarios := NewScenarioService(repo, nil, cfg.Projection.GetMaxYears())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log.Printf("Scenarios stored in %s", dataDir)
			return NewWebServer(engine, scenarios, addr).Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.address or $PORT)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "scenario store directory")
	return cmd
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [file]",
		Short: "Write the built-in configuration to a file for editing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("%s already exists", args[0])
			}
			cfg, err := LoadDefaultConfig()
			if err != nil {
				return err
			}
			if err := SaveConfig(cfg, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[0])
			return nil
		},
	}
}

func newSnapshotCmd(load engineLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "new [snapshot.yaml]",
		Short: "Answer a few questions to create a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			b := NewSnapshotBuilder(cmd.InOrStdin(), cmd.OutOrStdout())
			snap, err := b.BuildSnapshot(engine.Config().Projection.GetMaxYears())
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(&snap)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s. Run: retirement-planner project %s\n", args[0], args[0])
			return nil
		},
	}
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// readSnapshotFile decodes a snapshot, picking YAML or JSON by extension
func readSnapshotFile(name string) (FinancialSnapshot, error) {
	data, err := readInput(name)
	if err != nil {
		return FinancialSnapshot{}, err
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return DecodeSnapshotYAML(data)
	default:
		return DecodeSnapshot(data)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePDF(name string, snap *FinancialSnapshot, p *Projection) error {
	data, err := GenerateProjectionPDF(snap, p)
	if err != nil {
		return err
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	log.Printf("Wrote PDF report to %s", name)
	return nil
}

func init() {
	log.SetFlags(log.Ltime)
	log.SetOutput(os.Stderr)
}
