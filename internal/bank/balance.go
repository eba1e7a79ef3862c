package bank

import (
	"fmt"
	"math"
)

// balanceTolerance is one cent: parsed amounts are decimal currency carried
// as floats, so equality is a tolerance check, not ==.
const balanceTolerance = 0.01

// Movement is one normalized statement line.
type Movement struct {
	Description string  `json:"description,omitempty"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	// Balance is the running balance the statement reports after this
	// movement.
	Balance float64 `json:"balance"`
}

// BalanceReport is the outcome of the structural balance check.
type BalanceReport struct {
	Balanced bool `json:"balanced"`
	// ImpliedOpening is reconstructed from the first movement.
	ImpliedOpening float64 `json:"implied_opening"`
	// ProjectedClosing is the opening plus all credits minus all debits.
	ProjectedClosing float64 `json:"projected_closing"`
	// ReportedClosing is the last movement's running balance.
	ReportedClosing float64 `json:"reported_closing"`
	Difference      float64 `json:"difference"`
}

// ValidateBalances checks that a parsed movement list is internally
// consistent: the closing balance projected from the implied opening must
// match the reported closing within one cent. This is a parser sanity check,
// not a security control.
func ValidateBalances(movements []Movement) (BalanceReport, error) {
	if len(movements) == 0 {
		return BalanceReport{}, fmt.Errorf("bank: no movements to validate")
	}

	first := movements[0]
	opening := first.Balance - first.Credit + first.Debit

	closing := opening
	for _, m := range movements {
		closing += m.Credit - m.Debit
	}

	reported := movements[len(movements)-1].Balance
	diff := math.Abs(closing - reported)

	return BalanceReport{
		Balanced:         diff < balanceTolerance,
		ImpliedOpening:   opening,
		ProjectedClosing: closing,
		ReportedClosing:  reported,
		Difference:       diff,
	}, nil
}
