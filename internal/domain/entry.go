package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GenesisHash is the previous-hash sentinel of the very first ledger entry.
const GenesisHash = "GENESIS"

// LedgerEntry is an immutable, hash-chained record of one balanced
// double-entry transaction. Entries are created once and never updated;
// corrections happen through new reversing entries.
type LedgerEntry struct {
	CreatedAt     time.Time
	TransactionID *string
	ID            string
	EntryNumber   string
	Description   string
	DescriptionAr string
	Currency      Currency
	Hash          string
	PreviousHash  string
	CreatedBy     string
	TotalDebit    decimal.Decimal
	TotalCredit   decimal.Decimal
	Lines         []LedgerLine
}

// LedgerLine is one leg of a ledger entry. Exactly one of Debit/Credit is
// non-zero in typical use, but both fields exist for symmetry.
type LedgerLine struct {
	ID          string
	EntryID     string
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// ValidateLines checks that lines form a balanced entry: non-empty,
// non-negative amounts, and total debits equal total credits within
// BalanceTolerance. Returns the rounded totals on success.
func ValidateLines(lines []LedgerLine) (totalDebit, totalCredit decimal.Decimal, err error) {
	if len(lines) == 0 {
		return decimal.Zero, decimal.Zero, ErrEmptyEntry
	}

	totalDebit = decimal.Zero
	totalCredit = decimal.Zero

	for _, line := range lines {
		if line.AccountCode == "" {
			return decimal.Zero, decimal.Zero, ErrMissingAccountCode
		}

		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return decimal.Zero, decimal.Zero, ErrNegativeLineAmount
		}

		totalDebit = totalDebit.Add(line.Debit)
		totalCredit = totalCredit.Add(line.Credit)
	}

	totalDebit = RoundMoney(totalDebit)
	totalCredit = RoundMoney(totalCredit)

	if !WithinTolerance(totalDebit, totalCredit) {
		return decimal.Zero, decimal.Zero, ErrUnbalancedEntry
	}

	return totalDebit, totalCredit, nil
}

// ComputeHash derives the tamper-evidence hash of an entry from its
// content and the previous entry's hash. Any retroactive change to the
// entry or to an earlier link breaks the chain.
func ComputeHash(entryNumber, description string, lines []LedgerLine, previousHash string, createdAt time.Time) string {
	var b strings.Builder

	b.WriteString(entryNumber)
	b.WriteByte('|')
	b.WriteString(description)
	b.WriteByte('|')

	for _, line := range lines {
		fmt.Fprintf(&b, "%s:%s:%s;", line.AccountCode, line.Debit.StringFixed(2), line.Credit.StringFixed(2))
	}

	b.WriteByte('|')
	b.WriteString(previousHash)
	b.WriteByte('|')
	b.WriteString(createdAt.UTC().Format(time.RFC3339Nano))

	sum := sha256.Sum256([]byte(b.String()))

	return hex.EncodeToString(sum[:])
}

// VerifyHash recomputes the entry hash and reports whether it matches
// the stored one.
func (e *LedgerEntry) VerifyHash() bool {
	return e.Hash == ComputeHash(e.EntryNumber, e.Description, e.Lines, e.PreviousHash, e.CreatedAt)
}
