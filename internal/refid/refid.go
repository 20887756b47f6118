// Package refid generates opaque reference codes for human traceability.
// Codes carry a type prefix (e.g. RET, INV, LOAN) followed by a base36
// timestamp and a short random suffix. They are never parsed by business
// logic, only displayed and logged.
package refid

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const suffixLength = 3

// Prefixes used across the platform. Kept here so the convention is in one place.
const (
	PrefixInvestment         = "INV"
	PrefixInvestmentReturn   = "IRT"
	PrefixInvestmentWithdraw = "IWD"
	PrefixWithdrawal         = "RET"
	PrefixWithdrawalTx       = "WTX"
	PrefixDeposit            = "DEP"
	PrefixDepositTx          = "TXDEP"
	PrefixLoan               = "LOAN"
	PrefixLoanTx             = "LN"
	PrefixLoanPayment        = "PAY"
	PrefixReferral           = "REF"
	PrefixTransaction        = "TX"
)

// New returns a reference code of the form PREFIX-TIMESTAMP36SUF.
func New(prefix string) string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return prefix + "-" + ts + randomSuffix(suffixLength)
}

func randomSuffix(n int) string {
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	var b strings.Builder
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			// crypto/rand failing is effectively unreachable; degrade to a
			// timestamp-derived character rather than panic.
			b.WriteByte(alphabet[time.Now().Nanosecond()%len(alphabet)])
			continue
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}
