package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const orderNumberDigits = 8

var orderNumberSpace = big.NewInt(100_000_000)

// OrderNumbers issues human-readable order numbers of the form ORD########.
// Collisions are not checked; the order store rejects duplicates.
type OrderNumbers struct{}

func NewOrderNumbers() OrderNumbers { return OrderNumbers{} }

func (OrderNumbers) Next() (string, error) {
	n, err := rand.Int(rand.Reader, orderNumberSpace)
	if err != nil {
		return "", fmt.Errorf("order number: %w", err)
	}
	return fmt.Sprintf("ORD%0*d", orderNumberDigits, n.Int64()), nil
}
