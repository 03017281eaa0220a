package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type projectionTestDeps struct {
	svc       *ProjectionServiceImpl
	readModel *mocks.MockWalletReadModel
	ctrl      *gomock.Controller
}

func setupProjectionService(t *testing.T) *projectionTestDeps {
	ctrl := gomock.NewController(t)
	d := &projectionTestDeps{
		readModel: mocks.NewMockWalletReadModel(ctrl),
		ctrl:      ctrl,
	}
	d.svc = NewProjectionService(d.readModel, zerolog.Nop())
	return d
}

func TestProjectionService_HandleWalletCreated_InsertsDocument(t *testing.T) {
	d := setupProjectionService(t)
	defer d.ctrl.Finish()

	walletID := uuid.New()
	ownerID := uuid.New()
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	balance := int64(0)

	payload, err := json.Marshal(domain.WalletCreatedMessage{
		AggregateID: walletID,
		OwnerID:     ownerID,
		CreatedAt:   createdAt,
		Balance:     &balance,
	})
	require.NoError(t, err)

	d.readModel.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *domain.WalletDocument) error {
			assert.Equal(t, walletID, doc.WalletID)
			assert.Equal(t, ownerID, doc.OwnerID)
			assert.True(t, createdAt.Equal(doc.CreatedAt))
			require.NotNil(t, doc.Balance)
			assert.Equal(t, int64(0), *doc.Balance)
			return nil
		})

	require.NoError(t, d.svc.HandleWalletCreated(context.Background(), payload))
}

func TestProjectionService_HandleWalletCreated_BadPayload(t *testing.T) {
	d := setupProjectionService(t)
	defer d.ctrl.Finish()

	err := d.svc.HandleWalletCreated(context.Background(), []byte("not json"))
	assert.Equal(t, "EVT_002", errCode(t, err))
}

func TestProjectionService_HandleWalletCreated_MissingID(t *testing.T) {
	d := setupProjectionService(t)
	defer d.ctrl.Finish()

	err := d.svc.HandleWalletCreated(context.Background(), []byte(`{"owner_id":"`+uuid.NewString()+`"}`))
	assert.Equal(t, "EVT_002", errCode(t, err))
}

func TestProjectionService_HandleBalanceChanged_UpdatesDocument(t *testing.T) {
	d := setupProjectionService(t)
	defer d.ctrl.Finish()

	walletID := uuid.New()
	old := int64(100)
	payload, err := json.Marshal(domain.BalanceChangedMessage{WalletID: walletID, Balance: 170})
	require.NoError(t, err)

	d.readModel.EXPECT().Get(gomock.Any(), walletID).
		Return(&domain.WalletDocument{WalletID: walletID, OwnerID: uuid.New(), Balance: &old}, nil)
	d.readModel.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, doc *domain.WalletDocument) error {
			require.NotNil(t, doc.Balance)
			assert.Equal(t, int64(170), *doc.Balance)
			return nil
		})

	require.NoError(t, d.svc.HandleBalanceChanged(context.Background(), payload))
}

func TestProjectionService_HandleBalanceChanged_DocumentMissing(t *testing.T) {
	d := setupProjectionService(t)
	defer d.ctrl.Finish()

	walletID := uuid.New()
	payload, err := json.Marshal(domain.BalanceChangedMessage{WalletID: walletID, Balance: 50})
	require.NoError(t, err)

	d.readModel.EXPECT().Get(gomock.Any(), walletID).Return(nil, nil)

	handleErr := d.svc.HandleBalanceChanged(context.Background(), payload)
	assert.Equal(t, "EVT_003", errCode(t, handleErr))
	assert.ErrorIs(t, handleErr, domain.ErrDocumentNotFound)
}

func TestProjectionService_HandleBalanceChanged_StoreFailure(t *testing.T) {
	d := setupProjectionService(t)
	defer d.ctrl.Finish()

	walletID := uuid.New()
	payload, err := json.Marshal(domain.BalanceChangedMessage{WalletID: walletID, Balance: 50})
	require.NoError(t, err)

	d.readModel.EXPECT().Get(gomock.Any(), walletID).Return(nil, errors.New("redis down"))

	handleErr := d.svc.HandleBalanceChanged(context.Background(), payload)
	assert.Equal(t, "SYS_001", errCode(t, handleErr))
}
