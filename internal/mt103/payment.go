package mt103

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zdziszkee/mt103-simulator/internal/models"
)

var ErrBadName = errors.New("name must have at least 3 characters")

const (
	SessionWidth   = 4
	SequenceWidth  = 6
	ReferenceWidth = 16

	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Party is one side of a transfer
type Party struct {
	Bank    string
	Branch  string
	Account string
	Name    string
}

// Payment is the tuple carried by an MT103 message. Session and Sequence hold
// the fixed-width strings that appear in the header.
type Payment struct {
	Sender         Party
	Receiver       Party
	Amount         int
	Currency       models.Currency
	Session        string
	Sequence       string
	Reference      string
	TransactionRef string
}

// NewPayment builds an outgoing payment with a fresh 16 character reference.
// Both names need at least 3 characters for the transaction reference.
func NewPayment(sender, receiver Party, amount int, currency models.Currency, session, seq int, rng *rand.Rand) (*Payment, error) {
	ref, err := TransactionReference(sender.Name, receiver.Name, seq)
	if err != nil {
		return nil, err
	}
	return &Payment{
		Sender:         sender,
		Receiver:       receiver,
		Amount:         amount,
		Currency:       currency,
		Session:        PadInt(session, SessionWidth),
		Sequence:       PadInt(seq, SequenceWidth),
		Reference:      GenerateReference(rng, ReferenceWidth),
		TransactionRef: ref,
	}, nil
}

// TransactionReference is upper(first3(sendName)) + "TO" + upper(first3(destName)) + seq
func TransactionReference(sendName, destName string, seq int) (string, error) {
	from, err := firstThree(sendName)
	if err != nil {
		return "", err
	}
	to, err := firstThree(destName)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(from) + "TO" + strings.ToUpper(to) + strconv.Itoa(seq), nil
}

func firstThree(name string) (string, error) {
	if utf8.RuneCountInString(name) < 3 {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return string([]rune(name)[:3]), nil
}

// PadInt left-pads the decimal form of in with zeros to places characters.
// A value that is already wider loses its first character and nothing else.
func PadInt(in, places int) string {
	s := strconv.Itoa(in)
	if len(s) > places {
		return s[1:]
	}
	return strings.Repeat("0", places-len(s)) + s
}

// GenerateReference returns n characters drawn from A-Z and 0-9
func GenerateReference(rng *rand.Rand, n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		var i int
		if rng == nil {
			i = rand.IntN(len(referenceAlphabet))
		} else {
			i = rng.IntN(len(referenceAlphabet))
		}
		sb.WriteByte(referenceAlphabet[i])
	}
	return sb.String()
}

// Summary is the one line description logged by receivers
func (p *Payment) Summary() string {
	return fmt.Sprintf("%s/%s/%d,00%s->%s/%s",
		p.Sender.Bank, p.Sender.Name, p.Amount, p.Currency.SwiftCode(), p.Receiver.Bank, p.Receiver.Name)
}
