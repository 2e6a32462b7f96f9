package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/flexledger/flexledger/internal/apperrors"
	"github.com/flexledger/flexledger/internal/classify"
	"github.com/flexledger/flexledger/internal/convert"
	"github.com/flexledger/flexledger/internal/dedup"
	"github.com/flexledger/flexledger/internal/flex"
	"github.com/flexledger/flexledger/internal/fxsplit"
	"github.com/flexledger/flexledger/internal/ledger"
	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/repository"
	"github.com/flexledger/flexledger/internal/resolver"
	"github.com/flexledger/flexledger/internal/section"
)

// accountGroup is the ledger group all managed sub-accounts live under.
const accountGroup = "Brokerage"

// maxAccountFetches caps concurrent per-account activity downloads.
const maxAccountFetches = 4

// SourceCSV and SourceFlex identify what triggered an import run.
const (
	SourceCSV  = "csv"
	SourceFlex = "flex"
)

// ImportService runs the full pipeline: merge sections, classify rows,
// reconstruct currencies and amounts, split conversions, deduplicate
// against the host ledger, and group the result per currency. A run
// produces a preview; Confirm pushes a previewed batch to the ledger.
type ImportService struct {
	baseCurrency string
	currencies   []string
	exchanges    convert.ExchangeTable
	ledger       ledger.Client
	resolver     resolver.Resolver
	flexClient   flex.Client
	flexConfig   *FlexConfigService
	runRepo      *repository.ImportRunRepository
}

// NewImportService creates a new ImportService with the provided collaborators.
func NewImportService(
	baseCurrency string,
	currencies []string,
	exchanges convert.ExchangeTable,
	ledgerClient ledger.Client,
	symbolResolver resolver.Resolver,
	flexClient flex.Client,
	flexConfig *FlexConfigService,
	runRepo *repository.ImportRunRepository,
) *ImportService {
	return &ImportService{
		baseCurrency: baseCurrency,
		currencies:   currencies,
		exchanges:    exchanges,
		ledger:       ledgerClient,
		resolver:     symbolResolver,
		flexClient:   flexClient,
		flexConfig:   flexConfig,
		runRepo:      runRepo,
	}
}

// AccountName returns the ledger account name for a currency sub-ledger.
func AccountName(currency string) string {
	return accountGroup + " " + currency
}

// ImportCSV runs the pipeline over an uploaded activity export and returns
// the preview. Nothing is pushed to the ledger until Confirm.
func (s *ImportService) ImportCSV(ctx context.Context, raw string) (*model.ImportResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.ErrEmptyUpload
	}
	return s.run(ctx, raw, SourceCSV)
}

// SyncFromFlex fetches a fresh report from the provider using the stored
// credentials and runs the pipeline over it.
func (s *ImportService) SyncFromFlex(ctx context.Context) (*model.ImportResult, error) {
	cfg, err := s.flexConfig.GetConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Configured {
		return nil, apperrors.ErrFlexConfigNotFound
	}

	token, err := s.flexConfig.Token()
	if err != nil {
		return nil, err
	}

	raw, err := s.flexClient.FetchReport(ctx, token, cfg.QueryID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flex report: %w", err)
	}

	return s.run(ctx, raw, SourceFlex)
}

// AutoImport is the scheduled path: fetch, run the pipeline, and push the
// result to the ledger without an interactive confirm step.
func (s *ImportService) AutoImport(ctx context.Context) (*model.ConfirmResult, error) {
	result, err := s.SyncFromFlex(ctx)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.Confirm(ctx, result.Groups)
	if err != nil {
		return nil, err
	}

	if err := s.flexConfig.MarkImported(time.Now()); err != nil {
		log.Printf("failed to record last import date: %v", err)
	}

	return confirmed, nil
}

func (s *ImportService) run(ctx context.Context, raw, source string) (*model.ImportResult, error) {
	table, err := section.Merge(raw)
	if err != nil {
		return nil, err
	}

	rows := s.resolver.Resolve(ctx, table.Rows)
	classified := classify.New(s.baseCurrency).ClassifyAll(rows)

	converter := convert.NewConverter(s.baseCurrency, s.exchanges, s.currencies, classified)
	converted := converter.ConvertAll(classified)

	activities, fxSkips := fxsplit.Split(converted.Activities, s.currencies)

	warnings := converted.Warnings
	skipCounts := converted.Skipped
	if skipCounts == nil {
		skipCounts = map[string]int{}
	}
	for _, skip := range fxSkips {
		warnings = append(warnings, fmt.Sprintf("conversion %s dropped: %s", skip.Symbol, skip.Reason))
		skipCounts[skip.Reason]++
	}

	groups := groupByCurrency(activities)

	failedAccounts := s.dedupAgainstLedger(ctx, groups)

	imported := 0
	for i := range groups {
		groups[i].Summarize()
		imported += len(groups[i].Activities)
	}
	duplicates := len(activities) - imported

	result := &model.ImportResult{
		RunID:          uuid.New().String(),
		Source:         source,
		Groups:         groups,
		Imported:       imported,
		Duplicates:     duplicates,
		SkipCounts:     skipCounts,
		Warnings:       warnings,
		FailedAccounts: failedAccounts,
		CreatedAt:      time.Now().UTC(),
	}

	s.recordRun(result)
	return result, nil
}

// dedupAgainstLedger loads the existing activities of each group's ledger
// account and filters duplicates out of the group in place. A failed
// account fetch leaves that group untouched and is reported back so the
// caller knows the preview may contain duplicates for it.
func (s *ImportService) dedupAgainstLedger(ctx context.Context, groups []model.TransactionGroup) []string {
	if len(groups) == 0 {
		return nil
	}

	accounts, err := s.ledger.GetAccounts(ctx)
	if err != nil {
		log.Printf("failed to list ledger accounts: %v", err)
		failed := make([]string, 0, len(groups))
		for _, g := range groups {
			failed = append(failed, AccountName(g.Currency))
		}
		return failed
	}

	byCurrency := accountsByCurrency(accounts)

	var (
		mu     sync.Mutex
		failed []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxAccountFetches)

	for i := range groups {
		account, ok := byCurrency[groups[i].Currency]
		if !ok {
			// New currency: no ledger history, but the batch can still
			// repeat its own rows.
			unique, _ := dedup.Filter(groups[i].Activities, nil)
			groups[i].Activities = unique
			continue
		}
		groups[i].AccountID = account.ID

		i := i
		g.Go(func() error {
			existing, err := s.ledger.GetAll(gctx, account.ID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("failed to load activities for account %s: %v", account.ID, err)
				failed = append(failed, account.Name)
				return nil
			}
			unique, _ := dedup.Filter(groups[i].Activities, existing)
			groups[i].Activities = unique
			return nil
		})
	}

	// Goroutines never return errors; Wait only synchronizes.
	_ = g.Wait()
	return failed
}

// Confirm pushes a previewed batch to the host ledger, creating currency
// sub-accounts that do not exist yet.
func (s *ImportService) Confirm(ctx context.Context, groups []model.TransactionGroup) (*model.ConfirmResult, error) {
	accounts, err := s.ledger.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerUnavailable, err)
	}
	byCurrency := accountsByCurrency(accounts)

	result := &model.ConfirmResult{}
	var batch []model.Activity

	for _, group := range groups {
		if len(group.Activities) == 0 {
			continue
		}

		account, ok := byCurrency[group.Currency]
		if !ok {
			created, err := s.ledger.CreateAccount(ctx, model.Account{
				Name:     AccountName(group.Currency),
				Currency: group.Currency,
				Group:    accountGroup,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create account for %s: %w", group.Currency, err)
			}
			account = created
			byCurrency[group.Currency] = account
		}
		result.Accounts = append(result.Accounts, account)

		for _, a := range group.Activities {
			a.AccountID = account.ID
			batch = append(batch, a)
		}
	}

	if len(batch) == 0 {
		return result, nil
	}

	reply, err := s.ledger.Import(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerUnavailable, err)
	}

	result.Imported = reply.Imported
	result.Failed = reply.Failed
	return result, nil
}

// PreviewAccounts reports, for each configured currency, the sub-account an
// import would target and whether it already exists in the ledger.
func (s *ImportService) PreviewAccounts(ctx context.Context) ([]model.AccountPreview, error) {
	accounts, err := s.ledger.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrLedgerUnavailable, err)
	}
	byCurrency := accountsByCurrency(accounts)

	previews := make([]model.AccountPreview, 0, len(s.currencies))
	for _, currency := range s.currencies {
		preview := model.AccountPreview{
			Currency: currency,
			Name:     AccountName(currency),
			Group:    accountGroup,
		}
		if account, ok := byCurrency[currency]; ok {
			preview.Existing = &account
			preview.Name = account.Name
		}
		previews = append(previews, preview)
	}
	return previews, nil
}

// GetRuns retrieves the most recent import runs.
func (s *ImportService) GetRuns(limit int) ([]model.ImportRun, error) {
	return s.runRepo.GetRuns(limit)
}

// GetRun retrieves one import run by ID.
func (s *ImportService) GetRun(id string) (*model.ImportRun, error) {
	run, err := s.runRepo.GetRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrImportRunNotFound
	}
	return run, err
}

func (s *ImportService) recordRun(result *model.ImportResult) {
	skipped := 0
	for _, n := range result.SkipCounts {
		skipped += n
	}

	run := &model.ImportRun{
		ID:             result.RunID,
		Source:         result.Source,
		Imported:       result.Imported,
		Duplicates:     result.Duplicates,
		Skipped:        skipped,
		Warnings:       len(result.Warnings),
		FailedAccounts: result.FailedAccounts,
	}
	if err := s.runRepo.CreateRun(run); err != nil {
		log.Printf("failed to record import run %s: %v", run.ID, err)
	}
}

// groupByCurrency buckets activities per currency, preserving the order
// currencies first appear in the batch.
func groupByCurrency(activities []model.Activity) []model.TransactionGroup {
	index := map[string]int{}
	groups := []model.TransactionGroup{}

	for _, a := range activities {
		i, ok := index[a.Currency]
		if !ok {
			i = len(groups)
			index[a.Currency] = i
			groups = append(groups, model.TransactionGroup{Currency: a.Currency})
		}
		groups[i].Activities = append(groups[i].Activities, a)
	}
	return groups
}

func accountsByCurrency(accounts []model.Account) map[string]model.Account {
	byCurrency := map[string]model.Account{}
	for _, account := range accounts {
		if _, ok := byCurrency[account.Currency]; !ok {
			byCurrency[account.Currency] = account
		}
	}
	return byCurrency
}

