// Package portlib tracks a personal investment account as an append-only
// ledger of transactions and cash changes, and derives, as of any date, the
// account's holdings, cash balance, market value and profit-and-loss
// decomposed into realized, unrealized and dividend components, across
// multiple securities and currencies.
//
// The core pieces are:
//   - TransactionLedger: the append-only record of Buy/Sell/Dividend/Split
//     rows, enforcing the no-short-position invariant and retroactive split
//     adjustment.
//   - CashLedger: the append-only record of deposits and withdrawals.
//   - FxRateCache: lazily populated per-pair daily closing-rate series with
//     point-in-time, forward-filled lookups.
//   - Position: the per-ticker price and held-quantity series, and the
//     day-by-day PnL decomposition algorithm.
//   - Portfolio: the valuation engine composing all of the above. It owns
//     the solvency check performed before accepting new transactions.
//
// Ledgers persist through the Repository interface; the CSV implementations
// keep one transactions.csv and one cash.csv per account. Market data is
// fetched by a Source (see the alphavantage package) and persisted as
// Date-indexed CSV series that a DataReader reads back.
//
// This package serves as the foundational logic for the `plb` command-line
// tool.
package portlib
