// Package settlement merges outgoing transfers per beneficiary account and
// writes the bank's batch transfer files.
package settlement

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"bankrecon/internal/core"
)

// NoticeSeparator joins the notices of merged transfers.
const NoticeSeparator = ","

// DefaultNoticeLimit is the bank's memo field length in characters.
const DefaultNoticeLimit = 140

// Merge combines two transfers to the same account. The result carries the
// account, beneficiary, currency and date of a. A notice longer than limit
// characters is an error; limit <= 0 disables the check.
func Merge(a, b core.Transfer, limit int) (core.Transfer, error) {
	merged := a
	merged.Amount = a.Amount.Add(b.Amount)
	merged.Notice = joinNotices(a.Notice, b.Notice)
	if err := checkNotice(merged.Notice, limit); err != nil {
		return core.Transfer{}, err
	}
	return merged, nil
}

// Aggregate merges transfers per target account. Groups keep the order in
// which their account first appears; within a group transfers are folded in
// input order. Every resulting notice is checked against limit.
func Aggregate(transfers []core.Transfer, limit int) ([]core.Transfer, error) {
	index := make(map[string]int)
	var out []core.Transfer
	for _, t := range transfers {
		i, ok := index[t.TargetAccount]
		if !ok {
			if err := checkNotice(t.Notice, limit); err != nil {
				return nil, err
			}
			index[t.TargetAccount] = len(out)
			out = append(out, t)
			continue
		}
		merged, err := Merge(out[i], t, limit)
		if err != nil {
			return nil, err
		}
		out[i] = merged
	}
	return out, nil
}

// Batch is the aggregated transfers of one transfer date.
type Batch struct {
	Date      time.Time
	Transfers []core.Transfer
}

// AggregateByDate splits transfers by transfer date and aggregates each
// date separately. Batches are ordered by date.
func AggregateByDate(transfers []core.Transfer, limit int) ([]Batch, error) {
	byDate := make(map[time.Time][]core.Transfer)
	for _, t := range transfers {
		d := dateOnly(t.TransferDate)
		byDate[d] = append(byDate[d], t)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	batches := make([]Batch, 0, len(dates))
	for _, d := range dates {
		merged, err := Aggregate(byDate[d], limit)
		if err != nil {
			return nil, err
		}
		batches = append(batches, Batch{Date: d, Transfers: merged})
	}
	return batches, nil
}

func joinNotices(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return strings.Join([]string{a, b}, NoticeSeparator)
	}
}

func checkNotice(notice string, limit int) error {
	if limit <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(notice); n > limit {
		return &core.NoticeLengthExceededError{Length: n, Limit: limit, Notice: notice}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
