package mt103

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zdziszkee/mt103-simulator/internal/models"
)

var (
	ErrDecode   = errors.New("malformed MT103 message")
	ErrChecksum = errors.New("MT103 checksum mismatch")
)

const (
	lineSep    = "\r\n"
	dateLayout = "060102"
	minLines   = 10

	// offsets into the concatenated header blocks of line 0
	sendBankStart   = 6
	sendBankEnd     = 14
	sendBranchStart = 15
	sendBranchEnd   = 18
	sessionEnd      = 22
	seqEnd          = 28
	destBankStart   = 36
	destBankEnd     = 44
	destBranchStart = 45
	destBranchEnd   = 48
	refStart        = 72
	refEnd          = 88

	tagTransactionRef = ":20:"
	tagValueDate      = ":32A:"
	tagOrderer        = ":50A:/"
	tagBeneficiary    = ":59:/"
	checksumPrefix    = "{5:{CHK:"
	checksumSuffix    = "}}"
)

// Encode renders p as an MT103 message dated today in local time
func Encode(p *Payment) string {
	return EncodeAt(p, time.Now())
}

// EncodeAt renders p as an MT103 message carrying the given value date
func EncodeAt(p *Payment, date time.Time) string {
	var sb strings.Builder
	sb.WriteString("{1:F01" + p.Sender.Bank + "Z" + p.Sender.Branch + p.Session + p.Sequence + "}")
	sb.WriteString("{2:I103" + p.Receiver.Bank + "X" + p.Receiver.Branch + "N1020}")
	sb.WriteString("{3:{113:SEPA}{108:" + p.Reference + "}}")
	sb.WriteString("{4:" + lineSep)
	sb.WriteString(tagTransactionRef + p.TransactionRef + lineSep)
	sb.WriteString(":23B:CRED" + lineSep)
	sb.WriteString(tagValueDate + date.Format(dateLayout) + p.Currency.SwiftCode() + strconv.Itoa(p.Amount) + ",00" + lineSep)
	sb.WriteString(tagOrderer + p.Sender.Account + " " + p.Sender.Name + lineSep)
	sb.WriteString(tagBeneficiary + p.Receiver.Account + " " + p.Receiver.Name + lineSep)
	sb.WriteString(":70:INVOICE " + p.Sequence + lineSep)
	sb.WriteString(":71A:SHA" + lineSep)
	sb.WriteString("-}" + lineSep)

	body := sb.String()
	return body + checksumPrefix + Checksum(body) + checksumSuffix
}

// Checksum is the lowercase hex MD5 of the message body. It fingerprints the
// message; it does not authenticate it.
func Checksum(body string) string {
	sum := md5.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum checks the {5:{CHK:...}} footer against the body before it
func VerifyChecksum(message string) error {
	idx := strings.LastIndex(message, checksumPrefix)
	if idx < 0 || !strings.HasSuffix(message, checksumSuffix) {
		return fmt.Errorf("%w: missing checksum block", ErrChecksum)
	}
	got := message[idx+len(checksumPrefix) : len(message)-len(checksumSuffix)]
	if want := Checksum(message[:idx]); got != want {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksum, got, want)
	}
	return nil
}

// DecodeStrict verifies the checksum footer before decoding
func DecodeStrict(message string) (*Payment, error) {
	if err := VerifyChecksum(message); err != nil {
		return nil, err
	}
	return Decode(message)
}

// Decode rebuilds a payment from an MT103 message. The value date and the
// checksum footer are not consulted.
func Decode(message string) (*Payment, error) {
	lines := strings.Split(message, lineSep)
	if len(lines) < minLines {
		return nil, fmt.Errorf("%w: expected at least %d lines, got %d", ErrDecode, minLines, len(lines))
	}

	header := lines[0]
	if len(header) < refEnd {
		return nil, fmt.Errorf("%w: header too short (%d characters)", ErrDecode, len(header))
	}
	if !strings.HasPrefix(header, "{1:F01") || header[sendBankEnd] != 'Z' || header[destBankEnd] != 'X' {
		return nil, fmt.Errorf("%w: unexpected header layout", ErrDecode)
	}

	p := &Payment{
		Sender: Party{
			Bank:   header[sendBankStart:sendBankEnd],
			Branch: header[sendBranchStart:sendBranchEnd],
		},
		Receiver: Party{
			Bank:   header[destBankStart:destBankEnd],
			Branch: header[destBranchStart:destBranchEnd],
		},
		Session:   header[sendBranchEnd:sessionEnd],
		Sequence:  header[sessionEnd:seqEnd],
		Reference: header[refStart:refEnd],
	}

	ref, ok := strings.CutPrefix(lines[1], tagTransactionRef)
	if !ok {
		return nil, fmt.Errorf("%w: line 1 is not a %s field", ErrDecode, tagTransactionRef)
	}
	p.TransactionRef = ref

	if err := decodeAmount(lines[3], p); err != nil {
		return nil, err
	}

	var err error
	if p.Sender.Account, p.Sender.Name, err = decodeParty(lines[4], tagOrderer); err != nil {
		return nil, err
	}
	if p.Receiver.Account, p.Receiver.Name, err = decodeParty(lines[5], tagBeneficiary); err != nil {
		return nil, err
	}
	return p, nil
}

func decodeAmount(line string, p *Payment) error {
	rest, ok := strings.CutPrefix(line, tagValueDate)
	if !ok {
		return fmt.Errorf("%w: line 3 is not a %s field", ErrDecode, tagValueDate)
	}
	// YYMMDD, then the currency code, then digits up to the first comma
	if len(rest) < 9 {
		return fmt.Errorf("%w: %s field too short", ErrDecode, tagValueDate)
	}
	currency, err := models.ParseCurrency(rest[6:9])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	digits, _, found := strings.Cut(rest[9:], ",")
	if !found || digits == "" || strings.Trim(digits, "0123456789") != "" {
		return fmt.Errorf("%w: unparsable amount %q", ErrDecode, rest[9:])
	}
	amount, err := strconv.Atoi(digits)
	if err != nil {
		return fmt.Errorf("%w: unparsable amount %q: %w", ErrDecode, digits, err)
	}
	p.Currency = currency
	p.Amount = amount
	return nil
}

func decodeParty(line, tag string) (account, name string, err error) {
	rest, ok := strings.CutPrefix(line, tag)
	if !ok {
		return "", "", fmt.Errorf("%w: expected %s field", ErrDecode, tag)
	}
	account, name, found := strings.Cut(rest, " ")
	if !found {
		return "", "", fmt.Errorf("%w: %s field has no name", ErrDecode, tag)
	}
	return account, name, nil
}
