package core

// Balance is derived from the transaction set, never stored.
type Balance struct {
	Income  Money
	Outcome Money
	Total   Money
}

// ComputeBalance sums income and outcome values over the full transaction
// set. Pure and O(n); an empty set yields an all-zero balance.
func ComputeBalance(transactions []Transaction) Balance {
	var b Balance
	for _, t := range transactions {
		switch t.Type {
		case Income:
			b.Income.Cents += t.Value.Cents
		case Outcome:
			b.Outcome.Cents += t.Value.Cents
		}
	}
	b.Total.Cents = b.Income.Cents - b.Outcome.Cents
	return b
}
