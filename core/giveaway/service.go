package giveaway

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iypan/shiksha/core"
	"github.com/iypan/shiksha/core/refcode"
)

var (
	// ErrStoreUnavailable is the cause of every failed store read; the
	// submission that hit it allocates and writes nothing.
	ErrStoreUnavailable = errors.New("giveaway store unavailable")
)

// Batch result statuses.
const (
	ResultSuccess        = "success"
	ResultDuplicateFound = "duplicate_found"
)

type (
	// Repository persists issued entries. CreateEntries must be atomic: it
	// inserts all entries or none.
	Repository interface {
		ListReferenceCodes(ctx context.Context) ([]string, error)
		// ListContactEmails returns the lower-cased emails of all issued entries.
		ListContactEmails(ctx context.Context) ([]string, error)
		CreateEntries(ctx context.Context, entries []Entry) (int, error)
		// QueryAllEntries returns issued entries, most recent first.
		QueryAllEntries(ctx context.Context) ([]Entry, error)
	}

	Service struct {
		conf *core.Config
		repo Repository
	}

	// Result reports the outcome of a batch submission. A non-empty
	// Duplicates means nothing was written: the caller must review and
	// re-submit the Accepted list with ConfirmBatch to commit it.
	Result struct {
		Status     string   `json:"status"`
		Inserted   int      `json:"inserted"`
		Accepted   []Entry  `json:"accepted,omitempty"`
		Duplicates []string `json:"duplicates,omitempty"`
	}
)

func NewService(conf *core.Config, repo Repository) *Service {
	return &Service{conf: conf, repo: repo}
}

// PartitionBatch splits proposed entries into accepted (in input order, each
// numbered by alloc) and duplicates (the original email values, for caller
// display). An entry is a duplicate when its email matches one of
// existingEmails case-insensitively. Entries without an email are always
// accepted. It performs no writes and is a pure function of its inputs.
//
// Duplicates within the proposed batch itself are not guarded against: two
// new rows sharing an email are both accepted.
func PartitionBatch(proposed []NewEntry, existingEmails []string, alloc *refcode.Allocator) (accepted []Entry, duplicates []string) {
	existing := make(map[string]struct{}, len(existingEmails))
	for _, email := range existingEmails {
		if email != "" {
			existing[strings.ToLower(email)] = struct{}{}
		}
	}

	for _, ne := range proposed {
		if ne.ContactEmail != "" {
			if _, ok := existing[strings.ToLower(ne.ContactEmail)]; ok {
				duplicates = append(duplicates, ne.ContactEmail)
				continue
			}
		}
		_, code := alloc.Next()
		accepted = append(accepted, ne.entry(code))
	}
	return accepted, duplicates
}

// SubmitBatch runs proposed entries through the duplicate guard and, when no
// duplicates are found, commits them in one batch insert. When duplicates are
// found nothing is written; the result carries the duplicate emails and the
// already-numbered accepted list for an explicit ConfirmBatch re-submission.
func (svc *Service) SubmitBatch(ctx context.Context, proposed []NewEntry) (Result, error) {
	accepted, duplicates, err := svc.check(ctx, proposed)
	if err != nil {
		return Result{}, err
	}
	if len(duplicates) > 0 {
		return Result{Status: ResultDuplicateFound, Accepted: accepted, Duplicates: duplicates}, nil
	}
	return svc.commit(ctx, accepted)
}

// ConfirmBatch inserts exactly the given entries, skipping the duplicate
// guard: the caller was already shown the duplicate report for this batch and
// has decided to proceed.
func (svc *Service) ConfirmBatch(ctx context.Context, entries []Entry) (Result, error) {
	return svc.commit(ctx, entries)
}

// Add issues a single entry in one request: duplicate-checked and, if clear,
// numbered and committed with no confirmation round trip.
func (svc *Service) Add(ctx context.Context, ne NewEntry) (Result, error) {
	return svc.SubmitBatch(ctx, []NewEntry{ne})
}

func (svc *Service) QueryAll(ctx context.Context) ([]Entry, error) {
	entries, err := svc.repo.QueryAllEntries(ctx)
	return entries, errors.Wrap(err, "querying giveaway entries")
}

func (svc *Service) check(ctx context.Context, proposed []NewEntry) (accepted []Entry, duplicates []string, err error) {
	emails, err := svc.repo.ListContactEmails(ctx)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrStoreUnavailable, "listing contact emails: %v", err)
	}
	codes, err := svc.repo.ListReferenceCodes(ctx)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrStoreUnavailable, "listing reference codes: %v", err)
	}

	alloc := refcode.NewAllocator(svc.conf.EliteCard.GiveawayRefPrefix, svc.conf.EliteCard.GiveawayRefFloor, codes)
	accepted, duplicates = PartitionBatch(proposed, emails, alloc)
	return accepted, duplicates, nil
}

func (svc *Service) commit(ctx context.Context, entries []Entry) (Result, error) {
	if len(entries) == 0 {
		return Result{Status: ResultSuccess}, nil
	}
	count, err := svc.repo.CreateEntries(ctx, entries)
	if err != nil {
		// no retry; the operator re-submits
		return Result{}, errors.Wrap(err, "inserting giveaway entries")
	}
	return Result{Status: ResultSuccess, Inserted: count, Accepted: entries}, nil
}
