package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zebutron/turbine-scoring-engine/internal/fetcher"
	"github.com/zebutron/turbine-scoring-engine/internal/model"
	"github.com/zebutron/turbine-scoring-engine/internal/scoring"
	"github.com/zebutron/turbine-scoring-engine/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score companies and contacts from staging tables",
}

var scoreCompaniesCmd = &cobra.Command{
	Use:   "companies <input>",
	Short: "Score a company staging table",
	Long: `Score a company staging table (CSV, TSV, or XLSX).

Each company gets Alignment, Budget, and Demand pillar scores plus a
combined 0-100 company score. Budget and Demand components are ranked
against the rest of the batch, so scores are batch-relative.

Examples:
  # Score the master list and print the top of the table
  score companies master.csv

  # Write full results to CSV and persist the run
  score companies master.xlsx --sheet Companies --output scored.csv --save`,
	Args: cobra.ExactArgs(1),
	RunE: runScoreCompanies,
}

var scoreContactsCmd = &cobra.Command{
	Use:   "contacts <input>",
	Short: "Score a contact staging table against scored companies",
	Long: `Score a contact staging table (CSV, TSV, or XLSX).

Job titles are scored with keyword rules, each contact's company is
fuzzy-matched against the scored company set, and contact and lead
scores are min-max normalized across the batch (or against the stored
baseline with --use-baseline).

Examples:
  # Score contacts against a freshly scored master list
  score contacts contacts.csv --companies master.csv

  # Normalize against the stored baseline and refresh it afterwards
  score contacts contacts.csv --companies master.csv --use-baseline --save-baseline --save`,
	Args: cobra.ExactArgs(1),
	RunE: runScoreContacts,
}

func init() {
	for _, c := range []*cobra.Command{scoreCompaniesCmd, scoreContactsCmd} {
		f := c.Flags()
		f.String("config", "", "scoring config JSON path (default: newest tuning snapshot, else built-in)")
		f.String("output", "", "output file path (default: stdout)")
		f.String("format", "csv", "output format: table or csv")
		f.String("encoding", "", "input file encoding (e.g. latin-1, windows-1252)")
		f.String("sheet", "", "XLSX sheet name (default: first sheet)")
		f.Bool("save", false, "persist the run and its scores to the store")
	}

	cf := scoreContactsCmd.Flags()
	cf.String("companies", "", "company staging table to score and match against (required)")
	cf.Float64("min-confidence", 0, "fuzzy match confidence gate (default from config)")
	cf.Int("concurrency", 0, "scoring worker count (default from config)")
	cf.Bool("use-baseline", false, "normalize against the stored baseline instead of the batch")
	cf.Bool("save-baseline", false, "store this batch's raw score extremes as the new baseline")
	_ = scoreContactsCmd.MarkFlagRequired("companies")

	scoreCmd.AddCommand(scoreCompaniesCmd)
	scoreCmd.AddCommand(scoreContactsCmd)
	rootCmd.AddCommand(scoreCmd)
}

func runScoreCompanies(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input := args[0]
	configPath, _ := cmd.Flags().GetString("config")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetBool("save")

	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}

	rules, configSource, err := loadScoringRules(ctx, configPath)
	if err != nil {
		return err
	}

	records, err := loadCompanyRecords(ctx, cmd, input)
	if err != nil {
		return err
	}

	log := zap.L().With(zap.String("command", "score companies"))
	log.Info("scoring companies",
		zap.Int("records", len(records)),
		zap.String("config", configSource),
	)

	results := scoring.NewCompanyScorer(rules).Score(records)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompanyScore > results[j].CompanyScore
	})

	if err := outputResults(outputPath, format, results, writeCompanyCSV, writeCompanyTable); err != nil {
		return err
	}

	if save {
		summary := companySummary(results)
		summary.ConfigSource = configSource
		if err := persistRun(ctx, model.RunKindCompanies, input, summary, func(ctx context.Context, st store.Store, runID string) error {
			return st.SaveCompanyScores(ctx, runID, results)
		}); err != nil {
			return err
		}
		fmt.Printf("Saved %d company scores\n", len(results))
	}

	return nil
}

func runScoreContacts(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	input := args[0]
	companiesPath, _ := cmd.Flags().GetString("companies")
	configPath, _ := cmd.Flags().GetString("config")
	outputPath, _ := cmd.Flags().GetString("output")
	format, _ := cmd.Flags().GetString("format")
	save, _ := cmd.Flags().GetBool("save")
	useBaseline, _ := cmd.Flags().GetBool("use-baseline")
	saveBaseline, _ := cmd.Flags().GetBool("save-baseline")

	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}

	rules, configSource, err := loadScoringRules(ctx, configPath)
	if err != nil {
		return err
	}

	companyRecords, err := loadCompanyRecords(ctx, cmd, companiesPath)
	if err != nil {
		return err
	}
	companies := scoring.NewCompanyScorer(rules).Score(companyRecords)
	candidates := scoring.CandidatesFromCompanies(companies)

	table, err := fetcher.LoadTable(ctx, input, tableOptions(cmd))
	if err != nil {
		return err
	}
	contacts, err := fetcher.ContactsFromTable(table)
	if err != nil {
		return err
	}

	opts := scoring.PipelineOptions{MinConfidence: cfg.Scoring.MinMatchConfidence}
	if v, _ := cmd.Flags().GetFloat64("min-confidence"); v > 0 {
		opts.MinConfidence = v
	}
	opts.Concurrency = cfg.Batch.MaxConcurrentContacts
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		opts.Concurrency = v
	}

	var st store.Store
	if useBaseline || saveBaseline || save {
		st, err = initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}
	}

	if useBaseline {
		baseline, err := st.GetBaseline(ctx, cfg.Scoring.BaselineName)
		if err != nil {
			return eris.Wrap(err, "score: load baseline")
		}
		if baseline == nil {
			zap.L().Warn("score: no stored baseline, normalizing against batch",
				zap.String("baseline", cfg.Scoring.BaselineName))
		}
		opts.Baseline = baseline
	}

	log := zap.L().With(zap.String("command", "score contacts"))
	log.Info("scoring contacts",
		zap.Int("contacts", len(contacts)),
		zap.Int("companies", len(companies)),
		zap.String("config", configSource),
		zap.Bool("baseline", opts.Baseline != nil),
	)

	results, err := scoring.ScoreContacts(ctx, contacts, candidates, rules, opts)
	if err != nil {
		return eris.Wrap(err, "score: contacts")
	}

	if err := outputResults(outputPath, format, results, writeContactCSV, writeContactTable); err != nil {
		return err
	}

	if save {
		summary := contactSummary(results)
		summary.ConfigSource = configSource
		if err := saveRun(ctx, st, model.RunKindContacts, input, summary, func(ctx context.Context, runID string) error {
			return st.SaveContactScores(ctx, runID, results)
		}); err != nil {
			return err
		}
		fmt.Printf("Saved %d contact scores\n", len(results))
	}

	if saveBaseline && len(results) > 0 {
		baseline := batchBaseline(results)
		if err := st.SaveBaseline(ctx, cfg.Scoring.BaselineName, baseline); err != nil {
			return eris.Wrap(err, "score: save baseline")
		}
		fmt.Printf("Baseline %q updated\n", cfg.Scoring.BaselineName)
	}

	return nil
}

func tableOptions(cmd *cobra.Command) fetcher.TableOptions {
	encoding, _ := cmd.Flags().GetString("encoding")
	sheet, _ := cmd.Flags().GetString("sheet")
	return fetcher.TableOptions{Encoding: encoding, SheetName: sheet}
}

func loadCompanyRecords(ctx context.Context, cmd *cobra.Command, path string) ([]model.CompanyRecord, error) {
	table, err := fetcher.LoadTable(ctx, path, tableOptions(cmd))
	if err != nil {
		return nil, err
	}
	return fetcher.CompaniesFromTable(table)
}

// persistRun records a run around a save callback, opening its own store.
func persistRun(ctx context.Context, kind model.RunKind, input string, summary *model.RunSummary, saveFn func(context.Context, store.Store, string) error) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return saveRun(ctx, st, kind, input, summary, func(ctx context.Context, runID string) error {
		return saveFn(ctx, st, runID)
	})
}

// saveRun records the run lifecycle around the save callback: failures mark
// the run failed before returning.
func saveRun(ctx context.Context, st store.Store, kind model.RunKind, input string, summary *model.RunSummary, saveFn func(context.Context, string) error) error {
	run, err := st.CreateRun(ctx, kind, input)
	if err != nil {
		return eris.Wrap(err, "score: create run")
	}
	if err := saveFn(ctx, run.ID); err != nil {
		if failErr := st.FailRun(ctx, run.ID, err); failErr != nil {
			zap.L().Error("score: mark run failed", zap.String("run_id", run.ID), zap.Error(failErr))
		}
		return eris.Wrap(err, "score: save scores")
	}
	if err := st.CompleteRun(ctx, run.ID, summary); err != nil {
		return eris.Wrap(err, "score: complete run")
	}
	return nil
}

func companySummary(results []model.ScoredCompany) *model.RunSummary {
	s := &model.RunSummary{Records: len(results)}
	var sum float64
	for _, r := range results {
		sum += r.CompanyScore
		if r.CompanyScore > s.TopScore {
			s.TopScore = r.CompanyScore
		}
	}
	if len(results) > 0 {
		s.MeanScore = sum / float64(len(results))
	}
	return s
}

func contactSummary(results []model.ScoredContact) *model.RunSummary {
	s := &model.RunSummary{Records: len(results)}
	var sum float64
	for _, r := range results {
		sum += r.LeadScore
		if r.LeadScore > s.TopScore {
			s.TopScore = r.LeadScore
		}
		if r.MatchedCompany != "" {
			s.Matched++
		}
	}
	if len(results) > 0 {
		s.MeanScore = sum / float64(len(results))
	}
	return s
}

// batchBaseline captures the raw score extremes of a scored batch.
func batchBaseline(results []model.ScoredContact) *model.Baseline {
	contactMin, contactMax := results[0].RawContactScore, results[0].RawContactScore
	leadMin, leadMax := results[0].RawLeadScore, results[0].RawLeadScore
	for _, r := range results[1:] {
		contactMin = math.Min(contactMin, r.RawContactScore)
		contactMax = math.Max(contactMax, r.RawContactScore)
		leadMin = math.Min(leadMin, r.RawLeadScore)
		leadMax = math.Max(leadMax, r.RawLeadScore)
	}
	return &model.Baseline{
		ContactScoreMin: &contactMin,
		ContactScoreMax: &contactMax,
		LeadScoreMin:    &leadMin,
		LeadScoreMax:    &leadMax,
	}
}

func outputResults[T any](outputPath, format string, results []T, csvFn func(io.Writer, []T) error, tableFn func(io.Writer, []T) error) error {
	var w *os.File
	if outputPath != "" {
		var err error
		w, err = os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer w.Close() //nolint:errcheck
	} else {
		w = os.Stdout
	}

	switch format {
	case "csv":
		return csvFn(w, results)
	case "table":
		return tableFn(w, results)
	default:
		return eris.Errorf("score: unsupported format %q", format)
	}
}

// scoreCell renders a score as a whole number, the way the staging sheets
// display them.
func scoreCell(v float64) string {
	return strconv.Itoa(int(math.Round(v)))
}

// optionalScoreCell renders nil as an empty cell so unmatched contacts carry
// no company columns.
func optionalScoreCell(v *float64) string {
	if v == nil {
		return ""
	}
	return scoreCell(*v)
}

var companyCSVHeader = []string{
	"Company Name", "Company Score", "Alignment", "Budget", "Demand",
	"Dev", "F2P", "Mobile", "Fresh",
	"Revenue", "Funding", "Headcount",
	"Status", "Volatility", "Revenue Delta", "Runway Delta", "Headcount Delta", "Hiring",
	"URL", "Normalized Name", "Country", "FLAG", "Notes",
	"Discover Source", "Created Date", "Updated Date",
}

func writeCompanyCSV(w io.Writer, results []model.ScoredCompany) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(companyCSVHeader); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}
	for _, r := range results {
		row := []string{
			r.Name,
			scoreCell(r.CompanyScore),
			scoreCell(r.Alignment),
			scoreCell(r.Budget),
			scoreCell(r.Demand),
			scoreCell(r.Sub.Dev),
			scoreCell(r.Sub.F2P),
			scoreCell(r.Sub.Mobile),
			scoreCell(r.Sub.Fresh),
			scoreCell(r.Sub.Revenue),
			scoreCell(r.Sub.Funding),
			scoreCell(r.Sub.Headcount),
			scoreCell(r.Sub.Status),
			scoreCell(r.Sub.Volatility),
			scoreCell(r.Sub.RevenueDelta),
			scoreCell(r.Sub.RunwayDelta),
			scoreCell(r.Sub.HeadcountDelta),
			scoreCell(r.Sub.Hiring),
			r.URL,
			r.NormalizedName,
			r.Country,
			r.Flag,
			r.Notes,
			r.DiscoverSource,
			r.CreatedDate,
			r.UpdatedDate,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return cw.Error()
}

var contactCSVHeader = []string{
	"First Name", "Last Name", "Full Name", "Job Title", "Company Name",
	"Lead Score", "Contact Score", "Company Score",
	"Seniority", "Domain", "Warmth",
	"Matched Company", "Match Confidence",
	"Source", "Date Created", "Date Updated", "Extra Data",
}

func writeContactCSV(w io.Writer, results []model.ScoredContact) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(contactCSVHeader); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}
	for _, r := range results {
		row := []string{
			r.FirstName,
			r.LastName,
			r.FullName,
			r.JobTitle,
			r.CompanyName,
			scoreCell(r.LeadScore),
			scoreCell(r.ContactScore),
			optionalScoreCell(r.CompanyScore),
			scoreCell(r.Seniority),
			scoreCell(r.Domain),
			scoreCell(r.Warmth),
			r.MatchedCompany,
			optionalScoreCell(r.MatchConfidence),
			r.Source,
			r.DateCreated,
			r.DateUpdated,
			r.ExtraData,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return cw.Error()
}

func writeCompanyTable(out io.Writer, results []model.ScoredCompany) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMPANY\tSCORE\tALIGN\tBUDGET\tDEMAND")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(r.Name, 40),
			scoreCell(r.CompanyScore),
			scoreCell(r.Alignment),
			scoreCell(r.Budget),
			scoreCell(r.Demand),
		)
	}
	return w.Flush()
}

func writeContactTable(out io.Writer, results []model.ScoredContact) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tCOMPANY\tLEAD\tCONTACT\tMATCHED")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(r.FullName, 30),
			truncate(r.JobTitle, 30),
			truncate(r.CompanyName, 30),
			scoreCell(r.LeadScore),
			scoreCell(r.ContactScore),
			truncate(r.MatchedCompany, 30),
		)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
