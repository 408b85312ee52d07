package usecase

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// newReceipt returns a sortable, unique token used as gateway receipt and
// request reference.
func newReceipt(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
