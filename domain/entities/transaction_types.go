package entities

// TransactionType represents the reason for a ledger entry
type TransactionType string

// All transaction types supported by the system
const (
	// Reward transactions
	TransactionTypeDaily TransactionType = "daily"
	TransactionTypeQuiz  TransactionType = "quiz"
	TransactionTypeGold  TransactionType = "gold"

	// Robbery transactions
	TransactionTypeRobWin  TransactionType = "rob_win"
	TransactionTypeRobLose TransactionType = "rob_lose"

	// System transactions
	TransactionTypeTax       TransactionType = "tax"
	TransactionTypeEvent     TransactionType = "event"
	TransactionTypeAdmin     TransactionType = "admin"
	TransactionTypeShieldBuy TransactionType = "shield_buy"
)

// IsRewardType returns true for quiz-driven rewards
func (tt TransactionType) IsRewardType() bool {
	return tt == TransactionTypeDaily ||
		tt == TransactionTypeQuiz ||
		tt == TransactionTypeGold
}

// IsRobberyType returns true if the transaction came out of a robbery
func (tt TransactionType) IsRobberyType() bool {
	return tt == TransactionTypeRobWin || tt == TransactionTypeRobLose
}

// IsValid reports whether the type is one the ledger accepts
func (tt TransactionType) IsValid() bool {
	switch tt {
	case TransactionTypeDaily, TransactionTypeQuiz, TransactionTypeGold,
		TransactionTypeRobWin, TransactionTypeRobLose,
		TransactionTypeTax, TransactionTypeEvent, TransactionTypeAdmin, TransactionTypeShieldBuy:
		return true
	}
	return false
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
