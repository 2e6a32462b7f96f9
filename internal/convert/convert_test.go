package convert_test

import (
	"math"
	"strings"
	"testing"

	"github.com/flexledger/flexledger/internal/classify"
	"github.com/flexledger/flexledger/internal/convert"
	"github.com/flexledger/flexledger/internal/model"
	"github.com/flexledger/flexledger/internal/testutil"
)

var testCurrencies = []string{"EUR", "USD", "GBP"}

func runPipeline(t *testing.T, rows ...model.RawRow) convert.Result {
	t.Helper()
	classified := classify.New("EUR").ClassifyAll(rows)
	c := convert.NewConverter("EUR", convert.DefaultExchangeTable(), testCurrencies, classified)
	return c.ConvertAll(classified)
}

func findActivity(t *testing.T, res convert.Result, typ model.ActivityType) model.Activity {
	t.Helper()
	for _, a := range res.Activities {
		if a.Type == typ {
			return a
		}
	}
	t.Fatalf("No %s activity in result: %+v", typ, res.Activities)
	return model.Activity{}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// TestParsePerShare tests dividend description parsing.
//
// WHY: Dividend reconstruction keys off the per-share rate embedded in
// free text; the parser must tolerate suffix variations and reject noise
// values that are amounts rather than rates.
func TestParsePerShare(t *testing.T) {
	t.Run("parses canonical description", func(t *testing.T) {
		ccy, rate, ok := convert.ParsePerShare("AAPL(US0378331005) Cash Dividend USD 0.25 per Share (Ordinary Dividend)")
		if !ok || ccy != "USD" || !approx(rate, 0.25) {
			t.Errorf("ParsePerShare = %s, %v, %v; want USD, 0.25, true", ccy, rate, ok)
		}
	})

	t.Run("tolerates missing per-share suffix", func(t *testing.T) {
		ccy, rate, ok := convert.ParsePerShare("VOD Cash Dividend GBP 0.045")
		if !ok || ccy != "GBP" || !approx(rate, 0.045) {
			t.Errorf("ParsePerShare = %s, %v, %v; want GBP, 0.045, true", ccy, rate, ok)
		}
	})

	t.Run("rejects implausible rates and non-dividends", func(t *testing.T) {
		if _, _, ok := convert.ParsePerShare("Cash Dividend USD 99999 per Share"); ok {
			t.Error("Expected implausible rate to be rejected")
		}
		if _, _, ok := convert.ParsePerShare("Balance adjustment"); ok {
			t.Error("Expected non-dividend description to be rejected")
		}
	})
}

// TestPositionIndex tests the running position history.
//
// WHY: Dividend amounts are reconstructed as position times per-share
// rate; the position must reflect only the trades at or before the lookup
// date, with sells subtracting.
func TestPositionIndex(t *testing.T) {
	rows := []model.RawRow{
		testutil.NewTradeRow("AAPL", "BUY").WithQuantity(100).WithDate("2024-01-10").Build(),
		testutil.NewTradeRow("AAPL", "SELL").WithQuantity(30).WithDate("2024-02-10").Build(),
		testutil.NewTradeRow("AAPL", "BUY").WithQuantity(50).WithDate("2024-03-10").Build(),
	}
	classified := classify.New("EUR").ClassifyAll(rows)
	idx := convert.NewPositionIndex(classified)

	cases := []struct {
		date string
		want float64
	}{
		{"2024-01-01", 0},
		{"2024-01-10", 100},
		{"2024-02-15", 70},
		{"2024-04-01", 120},
	}
	for _, tc := range cases {
		if got := idx.At("AAPL", tc.date); got != tc.want {
			t.Errorf("At(AAPL, %s) = %v, want %v", tc.date, got, tc.want)
		}
	}

	if got := idx.At("MSFT", "2024-04-01"); got != 0 {
		t.Errorf("Expected 0 for untraded symbol, got %v", got)
	}
}

// TestRateIndex tests realized FX rate lookup.
//
// WHY: Currency reconstruction falls back to rates observed in the batch's
// own conversions. Lookups must prefer the closest earlier rate, serve
// reciprocals for the swapped pair, and admit a future rate only when
// nothing earlier exists.
func TestRateIndex(t *testing.T) {
	conversion := testutil.NewRow().
		WithCurrency("USD").
		WithColumn(model.ColSymbol, "EUR.USD").
		WithColumn(model.ColTransactionType, model.TxTypeFXTrade).
		WithColumn(model.ColBuySell, "SELL").
		WithColumn(model.ColLevelOfDetail, model.LevelDetail).
		WithColumn(model.ColTradeDate, "2024-02-01").
		WithColumn(model.ColQuantity, "1000").
		WithColumn(model.ColTradePrice, "1.10").
		WithColumn(model.ColTradeMoney, "1100").
		Build()

	classified := classify.New("EUR").ClassifyAll([]model.RawRow{conversion})
	idx := convert.NewRateIndex(classified)

	t.Run("serves rate and reciprocal", func(t *testing.T) {
		rate, ok := idx.Lookup("EUR", "USD", "2024-02-15")
		if !ok || !approx(rate, 1.10) {
			t.Errorf("Lookup(EUR/USD) = %v, %v; want 1.10, true", rate, ok)
		}
		inv, ok := idx.Lookup("USD", "EUR", "2024-02-15")
		if !ok || !approx(inv, 1/1.10) {
			t.Errorf("Lookup(USD/EUR) = %v, %v; want %v, true", inv, ok, 1/1.10)
		}
	})

	t.Run("future rate is a last resort", func(t *testing.T) {
		rate, ok := idx.Lookup("EUR", "USD", "2024-01-01")
		if !ok || !approx(rate, 1.10) {
			t.Errorf("Lookup before first entry = %v, %v; want 1.10, true", rate, ok)
		}
	})

	t.Run("same currency is identity", func(t *testing.T) {
		rate, ok := idx.Lookup("EUR", "EUR", "2024-01-01")
		if !ok || rate != 1 {
			t.Errorf("Lookup(EUR/EUR) = %v, %v; want 1, true", rate, ok)
		}
	})

	t.Run("unknown pair reports not found", func(t *testing.T) {
		if _, ok := idx.Lookup("EUR", "JPY", "2024-02-15"); ok {
			t.Error("Expected unknown pair lookup to fail")
		}
	})
}

// TestConvert_Trades tests trade conversion.
//
// WHY: Trade amounts are recomputed from quantity times price and the fee
// aggregates commission plus taxes; the currency comes from the listing
// exchange, not the report currency.
func TestConvert_Trades(t *testing.T) {
	row := testutil.NewTradeRow("AAPL", "BUY").
		WithQuantity(10).
		WithPrice(150).
		WithColumn(model.ColIBCommission, "-1.5").
		WithColumn(model.ColTaxes, "-0.5").
		Build()

	res := runPipeline(t, row)
	act := findActivity(t, res, model.ActivityBuy)

	if !approx(act.Amount, 1500) {
		t.Errorf("Expected amount 1500, got %v", act.Amount)
	}
	if !approx(act.Fee, 2.0) {
		t.Errorf("Expected fee 2.0 (commission plus taxes), got %v", act.Fee)
	}
	if act.Currency != "USD" {
		t.Errorf("Expected USD from NYSE listing, got %s", act.Currency)
	}
	if act.Quantity != 10 || act.UnitPrice != 150 {
		t.Errorf("Expected quantity 10 at price 150, got %v at %v", act.Quantity, act.UnitPrice)
	}
}

// TestConvert_Dividends tests dividend amount reconstruction.
//
// WHY: The export stores dividends as base-currency equivalents. The true
// payout is position times per-share rate in the dividend's own currency;
// without a position the literal amount must survive with a warning rather
// than silently vanishing.
func TestConvert_Dividends(t *testing.T) {
	dividendRow := func(desc string) model.RawRow {
		return testutil.NewRow().
			WithCurrency("EUR").
			WithColumn(model.ColSymbol, "AAPL").
			WithColumn(model.ColActivityCode, model.CodeDividend).
			WithColumn(model.ColLevelOfDetail, model.LevelDetail).
			WithColumn(model.ColAmount, "27.5").
			WithColumn(model.ColTradeDate, "2024-03-15").
			WithColumn(model.ColExchange, "NASDAQ").
			WithDescription(desc).
			Build()
	}

	t.Run("reconstructs from position and per-share rate", func(t *testing.T) {
		buy := testutil.NewTradeRow("AAPL", "BUY").WithQuantity(120).WithDate("2024-01-10").Build()
		div := dividendRow("AAPL(US0378331005) Cash Dividend USD 0.25 per Share (Ordinary Dividend)")

		res := runPipeline(t, buy, div)
		act := findActivity(t, res, model.ActivityDividend)

		if act.Currency != "USD" {
			t.Errorf("Expected USD, got %s", act.Currency)
		}
		if !approx(act.Amount, 30) {
			t.Errorf("Expected 120 * 0.25 = 30, got %v", act.Amount)
		}
		if act.Quantity != act.Amount || act.UnitPrice != 1 {
			t.Errorf("Cash convention violated: quantity=%v unitPrice=%v", act.Quantity, act.UnitPrice)
		}
	})

	t.Run("reconstructs across provider-native trade timestamps", func(t *testing.T) {
		buy := testutil.NewTradeRow("AAPL", "BUY").WithQuantity(120).WithDate("20240110;093000").Build()
		div := dividendRow("AAPL(US0378331005) Cash Dividend USD 0.25 per Share (Ordinary Dividend)")

		res := runPipeline(t, buy, div)

		trade := findActivity(t, res, model.ActivityBuy)
		if trade.Date != "2024-01-10" {
			t.Errorf("Expected canonical trade date, got %q", trade.Date)
		}
		act := findActivity(t, res, model.ActivityDividend)
		if act.Currency != "USD" || !approx(act.Amount, 30) {
			t.Errorf("Expected 120 * 0.25 = 30 USD, got %s %v", act.Currency, act.Amount)
		}
	})

	t.Run("base-currency dividend keeps literal amount", func(t *testing.T) {
		div := dividendRow("ASML(NL0010273215) Cash Dividend EUR 1.40 per Share")
		res := runPipeline(t, div)
		act := findActivity(t, res, model.ActivityDividend)

		if act.Currency != "EUR" || !approx(act.Amount, 27.5) {
			t.Errorf("Expected literal EUR 27.5, got %s %v", act.Currency, act.Amount)
		}
	})

	t.Run("no position and no rate falls back to literal with warning", func(t *testing.T) {
		div := dividendRow("AAPL(US0378331005) Cash Dividend USD 0.25 per Share (Ordinary Dividend)")
		res := runPipeline(t, div)
		act := findActivity(t, res, model.ActivityDividend)

		if act.Currency != "USD" || !approx(act.Amount, 27.5) {
			t.Errorf("Expected literal fallback USD 27.5, got %s %v", act.Currency, act.Amount)
		}
		if len(res.Warnings) == 0 {
			t.Error("Expected a warning for the literal fallback")
		}
	})
}

// TestConvert_RowFailures tests per-row failure isolation.
//
// WHY: Row failures are partial failures. A row without any parseable date
// must be rejected rather than defaulted to today, and an unconfigured
// currency drops the row with a warning instead of aborting the batch.
func TestConvert_RowFailures(t *testing.T) {
	t.Run("missing date rejects the row", func(t *testing.T) {
		row := testutil.NewTradeRow("AAPL", "BUY").WithDate("").Build()
		res := runPipeline(t, row)

		if len(res.Activities) != 0 {
			t.Errorf("Expected no activities, got %d", len(res.Activities))
		}
		if res.Skipped["missing date"] != 1 {
			t.Errorf("Expected 1 missing-date skip, got %d", res.Skipped["missing date"])
		}
	})

	t.Run("report date fallback when trade date is invalid", func(t *testing.T) {
		row := testutil.NewTradeRow("AAPL", "BUY").WithDate("garbage").
			WithColumn(model.ColReportDate, "2024-03-05").Build()
		res := runPipeline(t, row)

		if len(res.Activities) != 1 {
			t.Fatalf("Expected 1 activity, got %d", len(res.Activities))
		}
		if res.Activities[0].Date != "2024-03-05" {
			t.Errorf("Expected fallback date 2024-03-05, got %s", res.Activities[0].Date)
		}
	})

	t.Run("unconfigured currency is dropped with warning", func(t *testing.T) {
		row := testutil.NewTradeRow("SONY", "BUY").WithColumn(model.ColListingExchange, "TSEJ").Build()
		res := runPipeline(t, row)

		if len(res.Activities) != 0 {
			t.Errorf("Expected JPY trade to be dropped, got %+v", res.Activities)
		}
		if res.Skipped["missing account"] != 1 {
			t.Errorf("Expected missing-account skip, got %v", res.Skipped)
		}
		if len(res.Warnings) == 0 || !strings.Contains(res.Warnings[0], "JPY") {
			t.Errorf("Expected warning naming JPY, got %v", res.Warnings)
		}
	})
}

// TestConvert_CashConvention tests the quantity/unitPrice convention for
// cash types.
//
// WHY: The host ledger treats every row uniformly; cash flows must carry
// quantity equal to amount at unit price 1 under the synthetic cash symbol.
func TestConvert_CashConvention(t *testing.T) {
	res := runPipeline(t, testutil.NewCashRow(model.CodeDeposit, 500).Build())
	act := findActivity(t, res, model.ActivityDeposit)

	if act.Quantity != 500 || act.UnitPrice != 1 || act.Amount != 500 {
		t.Errorf("Cash convention violated: %+v", act)
	}
	if act.Symbol != model.CashSymbol("EUR") {
		t.Errorf("Expected %s, got %s", model.CashSymbol("EUR"), act.Symbol)
	}
}

// TestLoadExchangeTable tests the embedded exchange table.
//
// WHY: The converter derives trade currencies from this table; a broken
// embed would silently fall every trade back to the base currency.
func TestLoadExchangeTable(t *testing.T) {
	table := convert.DefaultExchangeTable()

	cases := map[string]string{
		"NYSE":   "USD",
		"NASDAQ": "USD",
		"LSE":    "GBP",
		"IBIS":   "EUR",
	}
	for exchange, want := range cases {
		if got := table.Currency(exchange); got != want {
			t.Errorf("Currency(%s) = %s, want %s", exchange, got, want)
		}
	}

	if got := table.Currency("NO-SUCH-EXCHANGE"); got != "" {
		t.Errorf("Expected empty for unknown exchange, got %s", got)
	}

	t.Run("parses override yaml", func(t *testing.T) {
		table, err := convert.LoadExchangeTable([]byte("exchanges:\n  xtst: jpy\n"))
		if err != nil {
			t.Fatalf("LoadExchangeTable returned unexpected error: %v", err)
		}
		if got := table.Currency("XTST"); got != "JPY" {
			t.Errorf("Expected uppercased JPY, got %s", got)
		}
	})
}
