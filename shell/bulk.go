package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/benz9527/xrbtree/lib/tree"
)

var ErrInvalidValue = errors.New("invalid integer value")

type BulkStatus uint8

const (
	BulkInserted BulkStatus = iota
	BulkDuplicate
	BulkInvalid
)

type BulkEntry struct {
	Token  string
	Value  int
	Status BulkStatus
}

// BulkResult keeps the outcome of every token in the input order.
type BulkResult struct {
	Entries    []BulkEntry
	Inserted   int
	Duplicates int
	Invalid    []string
}

// InsertMany inserts every whitespace separated integer of line into t.
// Invalid tokens are skipped and reported by the returned error, one
// ErrInvalidValue per token.
func InsertMany(t tree.RBTree[int], line string) (BulkResult, error) {
	tokens := strings.Fields(line)
	res := BulkResult{
		Entries: make([]BulkEntry, 0, len(tokens)),
	}
	var err error
	for _, token := range tokens {
		v, convErr := strconv.Atoi(token)
		if convErr != nil {
			res.Invalid = append(res.Invalid, token)
			res.Entries = append(res.Entries, BulkEntry{Token: token, Status: BulkInvalid})
			err = multierr.Append(err, fmt.Errorf("%w: %q", ErrInvalidValue, token))
			continue
		}
		entry := BulkEntry{Token: token, Value: v, Status: BulkInserted}
		if t.Insert(v) {
			res.Inserted++
		} else {
			entry.Status = BulkDuplicate
			res.Duplicates++
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, err
}
