package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/resys/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type locationFixture struct {
	repo      *MockStockLocationRepository
	publisher *testutil.RecordingPublisher
	service   *LocationService
}

func newLocationFixture(t *testing.T) *locationFixture {
	repo := new(MockStockLocationRepository)
	publisher := testutil.NewRecordingPublisher()
	scope := common.NewNoOpTransactionScope(nil, nil, nil, repo, publisher)
	return &locationFixture{
		repo:      repo,
		publisher: publisher,
		service:   NewLocationService(repo, scope, zaptest.NewLogger(t)),
	}
}

func persistedLocation(t *testing.T, code string) *stock.StockLocation {
	t.Helper()
	loc, err := stock.NewStockLocation("Location "+code, code, stock.LocationTypeWarehouse)
	require.NoError(t, err)
	loc.ClearDomainEvents()
	loc.MarkPersisted()
	return loc
}

// =============================================================================
// Create
// =============================================================================

func TestLocationService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a location with address and stores", func(t *testing.T) {
		f := newLocationFixture(t)
		storeID := uuid.New()
		f.repo.On("ExistsByCode", ctx, "WH-EAST").Return(false, nil)
		f.repo.On("Save", ctx, mock.AnythingOfType("*stock.StockLocation")).Return(nil)

		resp, err := f.service.Create(ctx, CreateLocationRequest{
			Name: "East warehouse",
			Code: "wh-east",
			Type: "WAREHOUSE",
			Address: &common.AddressInput{
				FirstName: "Dock", Line1: "1 Harbor Rd", City: "Boston", PostalCode: "02110", Country: "us",
			},
			StoreIDs: []uuid.UUID{storeID},
		})

		require.NoError(t, err)
		assert.Equal(t, "WH-EAST", resp.Code)
		assert.True(t, resp.Active)
		assert.False(t, resp.IsDefault)
		assert.Equal(t, []uuid.UUID{storeID}, resp.StoreIDs)
		require.NotNil(t, resp.Address)
		assert.Equal(t, "US", resp.Address.Country)
		assert.Len(t, f.publisher.EventsByType(stock.EventTypeStockLocationCreated), 1)
		f.repo.AssertExpectations(t)
	})

	t.Run("duplicate code is a conflict", func(t *testing.T) {
		f := newLocationFixture(t)
		f.repo.On("ExistsByCode", ctx, "WH-EAST").Return(true, nil)

		_, err := f.service.Create(ctx, CreateLocationRequest{Name: "East", Code: "WH-EAST", Type: "WAREHOUSE"})

		assert.ErrorIs(t, err, stock.ErrDuplicateCode)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.Events())
	})

	t.Run("invalid type is rejected before any lookup", func(t *testing.T) {
		f := newLocationFixture(t)

		_, err := f.service.Create(ctx, CreateLocationRequest{Name: "East", Code: "WH-EAST", Type: "GARAGE"})

		assert.ErrorIs(t, err, stock.ErrInvalidLocationType)
		f.repo.AssertNotCalled(t, "ExistsByCode", mock.Anything, mock.Anything)
	})

	t.Run("default location replaces the previous default", func(t *testing.T) {
		f := newLocationFixture(t)
		previous := persistedLocation(t, "WH-OLD")
		require.NoError(t, previous.MarkDefault())
		previous.MarkPersisted()

		f.repo.On("ExistsByCode", ctx, "WH-NEW").Return(false, nil)
		f.repo.On("FindDefault", ctx).Return(previous, nil)
		f.repo.On("Save", ctx, mock.AnythingOfType("*stock.StockLocation")).Return(nil)

		resp, err := f.service.Create(ctx, CreateLocationRequest{Name: "New", Code: "WH-NEW", Type: "WAREHOUSE", IsDefault: true})

		require.NoError(t, err)
		assert.True(t, resp.IsDefault)
		assert.False(t, previous.IsDefault)
		f.repo.AssertNumberOfCalls(t, "Save", 2)
	})
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestLocationService_MarkDefault(t *testing.T) {
	ctx := context.Background()

	t.Run("no previous default", func(t *testing.T) {
		f := newLocationFixture(t)
		loc := persistedLocation(t, "WH-1")
		f.repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
		f.repo.On("FindDefault", ctx).Return(nil, stock.ErrLocationNotFound)
		f.repo.On("Save", ctx, loc).Return(nil)

		resp, err := f.service.MarkDefault(ctx, loc.ID)

		require.NoError(t, err)
		assert.True(t, resp.IsDefault)
		assert.Len(t, f.publisher.EventsByType(stock.EventTypeStockLocationStatusChanged), 1)
	})

	t.Run("inactive location cannot become default", func(t *testing.T) {
		f := newLocationFixture(t)
		loc := persistedLocation(t, "WH-1")
		require.NoError(t, loc.Deactivate())
		f.repo.On("FindByID", ctx, loc.ID).Return(loc, nil)

		_, err := f.service.MarkDefault(ctx, loc.ID)

		assert.ErrorIs(t, err, stock.ErrInactiveDefault)
		f.repo.AssertNotCalled(t, "FindDefault", mock.Anything)
	})
}

func TestLocationService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates a regular location", func(t *testing.T) {
		f := newLocationFixture(t)
		loc := persistedLocation(t, "WH-1")
		f.repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
		f.repo.On("Save", ctx, loc).Return(nil)

		resp, err := f.service.Deactivate(ctx, loc.ID)

		require.NoError(t, err)
		assert.False(t, resp.Active)
	})

	t.Run("default location is refused", func(t *testing.T) {
		f := newLocationFixture(t)
		loc := persistedLocation(t, "WH-1")
		require.NoError(t, loc.MarkDefault())
		loc.ClearDomainEvents()
		f.repo.On("FindByID", ctx, loc.ID).Return(loc, nil)

		_, err := f.service.Deactivate(ctx, loc.ID)

		assert.ErrorIs(t, err, stock.ErrCannotDeactivateDefault)
		f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.Events())
	})

	t.Run("unknown location", func(t *testing.T) {
		f := newLocationFixture(t)
		id := uuid.New()
		f.repo.On("FindByID", ctx, id).Return(nil, stock.ErrLocationNotFound)

		_, err := f.service.Deactivate(ctx, id)

		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})
}

func TestLocationService_DeleteAndRestore(t *testing.T) {
	ctx := context.Background()
	f := newLocationFixture(t)
	loc := persistedLocation(t, "WH-1")
	f.repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
	f.repo.On("Save", ctx, loc).Return(nil)

	require.NoError(t, f.service.Delete(ctx, loc.ID))
	assert.True(t, loc.IsDeleted())

	t.Run("deleted location cannot link stores", func(t *testing.T) {
		_, err := f.service.LinkStore(ctx, loc.ID, uuid.New())
		assert.ErrorIs(t, err, stock.ErrLocationDeleted)
	})

	resp, err := f.service.Restore(ctx, loc.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.DeletedAt)
	assert.False(t, resp.Active)
}

func TestLocationService_StoreLinks(t *testing.T) {
	ctx := context.Background()
	f := newLocationFixture(t)
	loc := persistedLocation(t, "WH-1")
	storeID := uuid.New()
	f.repo.On("FindByID", ctx, loc.ID).Return(loc, nil)
	f.repo.On("Save", ctx, loc).Return(nil)

	resp, err := f.service.LinkStore(ctx, loc.ID, storeID)
	require.NoError(t, err)
	assert.Contains(t, resp.StoreIDs, storeID)

	resp, err = f.service.UnlinkStore(ctx, loc.ID, storeID)
	require.NoError(t, err)
	assert.Empty(t, resp.StoreIDs)

	_, err = f.service.LinkStore(ctx, loc.ID, uuid.Nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestLocationService_List(t *testing.T) {
	ctx := context.Background()
	f := newLocationFixture(t)
	locs := []*stock.StockLocation{persistedLocation(t, "A"), persistedLocation(t, "B")}
	f.repo.On("FindAll", ctx, mock.MatchedBy(func(filter shared.Filter) bool {
		return filter.Page == 2 && filter.PageSize == 1 && filter.OrderBy == "code"
	})).Return(locs[1:], int64(2), nil)

	page, err := f.service.List(ctx, LocationListFilter{Page: 2, PageSize: 1})

	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "B", page.Items[0].Code)
}
