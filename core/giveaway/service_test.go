package giveaway_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/iypan/shiksha/core"
	"github.com/iypan/shiksha/core/giveaway"
	"github.com/iypan/shiksha/core/refcode"
	dummydb "github.com/iypan/shiksha/storage/database/dummy"
)

func newTestService(t *testing.T) (*giveaway.Service, giveaway.Repository) {
	t.Helper()

	conf := new(core.Config)
	conf.EliteCard.GiveawayRefPrefix = "ISMLINO"
	conf.EliteCard.GiveawayRefFloor = 3859

	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewGiveawayRepository(db)
	return giveaway.NewService(conf, repo), repo
}

func seedEntries(t *testing.T, repo giveaway.Repository, entries ...giveaway.Entry) {
	t.Helper()
	_, err := repo.CreateEntries(context.Background(), entries)
	require.NoError(t, err)
}

func TestPartitionBatch(t *testing.T) {
	existing := []string{"jaya@test.test", "arun@test.test"}

	tests := []struct {
		name           string
		proposed       []giveaway.NewEntry
		wantAccepted   []string // display names, in order
		wantDuplicates []string
	}{
		{
			name: "clean batch accepted in order",
			proposed: []giveaway.NewEntry{
				{DisplayName: "Meena", ContactEmail: "meena@test.test"},
				{DisplayName: "Ravi", ContactEmail: "ravi@test.test"},
			},
			wantAccepted: []string{"Meena", "Ravi"},
		},
		{
			name: "duplicate detected case-insensitively, original casing reported",
			proposed: []giveaway.NewEntry{
				{DisplayName: "Jaya", ContactEmail: "Jaya@Test.Test"},
				{DisplayName: "Ravi", ContactEmail: "ravi@test.test"},
			},
			wantAccepted:   []string{"Ravi"},
			wantDuplicates: []string{"Jaya@Test.Test"},
		},
		{
			name: "entries without email always accepted",
			proposed: []giveaway.NewEntry{
				{DisplayName: "NoMail"},
				{DisplayName: "Arun", ContactEmail: "arun@test.test"},
			},
			wantAccepted:   []string{"NoMail"},
			wantDuplicates: []string{"arun@test.test"},
		},
		{
			name: "repeats within the batch are all accepted",
			proposed: []giveaway.NewEntry{
				{DisplayName: "First", ContactEmail: "new@test.test"},
				{DisplayName: "Second", ContactEmail: "new@test.test"},
			},
			wantAccepted: []string{"First", "Second"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alloc := refcode.NewAllocator("ISMLINO", 3859, nil)
			accepted, duplicates := giveaway.PartitionBatch(tt.proposed, existing, alloc)

			var names []string
			for _, e := range accepted {
				names = append(names, e.DisplayName)
			}
			assert.Equal(t, tt.wantAccepted, names)
			assert.Equal(t, tt.wantDuplicates, duplicates)
		})
	}
}

func TestPartitionBatchNumbersConsecutively(t *testing.T) {
	alloc := refcode.NewAllocator("ISMLINO", 3859, []string{"ISMLINO3860", "ISMLINO3861"})
	proposed := []giveaway.NewEntry{
		{DisplayName: "A"},
		{DisplayName: "B"},
		{DisplayName: "C"},
	}

	accepted, duplicates := giveaway.PartitionBatch(proposed, nil, alloc)
	require.Empty(t, duplicates)
	require.Len(t, accepted, 3)
	assert.Equal(t, "ISMLINO3862", accepted[0].ReferenceCode)
	assert.Equal(t, "ISMLINO3863", accepted[1].ReferenceCode)
	assert.Equal(t, "ISMLINO3864", accepted[2].ReferenceCode)
}

func TestSubmitBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store starts above the floor", func(t *testing.T) {
		svc, _ := newTestService(t)

		res, err := svc.SubmitBatch(ctx, []giveaway.NewEntry{{DisplayName: "First"}})
		require.NoError(t, err)
		assert.Equal(t, giveaway.ResultSuccess, res.Status)
		require.Len(t, res.Accepted, 1)
		assert.Equal(t, "ISMLINO3860", res.Accepted[0].ReferenceCode)
	})

	t.Run("next code follows the max, malformed codes ignored", func(t *testing.T) {
		svc, repo := newTestService(t)
		seedEntries(t, repo,
			giveaway.Entry{ReferenceCode: "ISMLINO3860", DisplayName: "A"},
			giveaway.Entry{ReferenceCode: "ISMLINO3861", DisplayName: "B"},
			giveaway.Entry{ReferenceCode: "ISMLINOxyz", DisplayName: "Bad"},
		)

		res, err := svc.SubmitBatch(ctx, []giveaway.NewEntry{{DisplayName: "C"}})
		require.NoError(t, err)
		require.Len(t, res.Accepted, 1)
		assert.Equal(t, "ISMLINO3862", res.Accepted[0].ReferenceCode)
	})

	t.Run("duplicate found writes nothing", func(t *testing.T) {
		svc, repo := newTestService(t)
		seedEntries(t, repo, giveaway.Entry{
			ReferenceCode: "ISMLINO3860",
			DisplayName:   "Jaya",
			ContactEmail:  null.StringFrom("jaya@test.test"),
		})

		res, err := svc.SubmitBatch(ctx, []giveaway.NewEntry{
			{DisplayName: "Jaya2", ContactEmail: "JAYA@test.test"},
			{DisplayName: "Ravi", ContactEmail: "ravi@test.test"},
		})
		require.NoError(t, err)
		assert.Equal(t, giveaway.ResultDuplicateFound, res.Status)
		assert.Equal(t, []string{"JAYA@test.test"}, res.Duplicates)
		assert.Zero(t, res.Inserted)

		entries, err := repo.QueryAllEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1) // only the seed row
	})

	t.Run("confirm inserts exactly the shown accepted rows", func(t *testing.T) {
		svc, repo := newTestService(t)
		seedEntries(t, repo, giveaway.Entry{
			ReferenceCode: "ISMLINO3860",
			DisplayName:   "Jaya",
			ContactEmail:  null.StringFrom("jaya@test.test"),
		})

		res, err := svc.SubmitBatch(ctx, []giveaway.NewEntry{
			{DisplayName: "Jaya2", ContactEmail: "jaya@test.test"},
			{DisplayName: "Ravi", ContactEmail: "ravi@test.test"},
		})
		require.NoError(t, err)
		require.Equal(t, giveaway.ResultDuplicateFound, res.Status)

		confirmed, err := svc.ConfirmBatch(ctx, res.Accepted)
		require.NoError(t, err)
		assert.Equal(t, giveaway.ResultSuccess, confirmed.Status)
		assert.Equal(t, 1, confirmed.Inserted)

		entries, err := repo.QueryAllEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}

func TestAdd(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	res, err := svc.Add(ctx, giveaway.NewEntry{DisplayName: "Solo", ContactEmail: "solo@test.test"})
	require.NoError(t, err)
	assert.Equal(t, giveaway.ResultSuccess, res.Status)
	assert.Equal(t, 1, res.Inserted)

	// second submission with the same email reports the duplicate
	res, err = svc.Add(ctx, giveaway.NewEntry{DisplayName: "Solo2", ContactEmail: "SOLO@test.test"})
	require.NoError(t, err)
	assert.Equal(t, giveaway.ResultDuplicateFound, res.Status)

	entries, err := repo.QueryAllEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// failingRepository fails every read; writes must never be reached.
type failingRepository struct {
	created int
}

var _ giveaway.Repository = (*failingRepository)(nil)

func (repo *failingRepository) ListReferenceCodes(ctx context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func (repo *failingRepository) ListContactEmails(ctx context.Context) ([]string, error) {
	return nil, errors.New("connection refused")
}

func (repo *failingRepository) CreateEntries(ctx context.Context, entries []giveaway.Entry) (int, error) {
	repo.created += len(entries)
	return len(entries), nil
}

func (repo *failingRepository) QueryAllEntries(ctx context.Context) ([]giveaway.Entry, error) {
	return nil, errors.New("connection refused")
}

func TestSubmitBatchStoreUnavailable(t *testing.T) {
	conf := new(core.Config)
	conf.EliteCard.GiveawayRefPrefix = "ISMLINO"
	conf.EliteCard.GiveawayRefFloor = 3859

	repo := new(failingRepository)
	svc := giveaway.NewService(conf, repo)

	_, err := svc.SubmitBatch(context.Background(), []giveaway.NewEntry{{DisplayName: "X"}})
	require.Error(t, err)
	assert.Equal(t, giveaway.ErrStoreUnavailable, errors.Cause(err))
	assert.Zero(t, repo.created, "a failed read must not reach the insert")
}
