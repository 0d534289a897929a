package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"

	"secureprint/internal/domain/envelope"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Put(ctx context.Context, rec *Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) Get(ctx context.Context, code string) (*Record, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRepository) TryRedeem(ctx context.Context, code string, now time.Time) (*Record, error) {
	args := m.Called(ctx, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockRepository) Transition(ctx context.Context, code string, to State) (bool, error) {
	args := m.Called(ctx, code, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockRepository) ListExpired(ctx context.Context, now time.Time) ([]Record, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

// MockBlobStore is a mock implementation of the BlobStore interface for testing
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Store(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) Fetch(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockBlobStore) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func testService(t *testing.T, repo Repository, blobs BlobStore) *Service {
	t.Helper()

	keyring, err := envelope.NewStaticKeyring(make([]byte, envelope.KeySize))
	require.NoError(t, err)

	return NewService(repo, blobs, envelope.NewCodec(keyring), slog.Default())
}

func pendingRecord(code string, expiresAt time.Time) *Record {
	return &Record{
		Code:         code,
		BlobRef:      "blob-" + code,
		OriginalName: "report.pdf",
		MimeType:     "application/pdf",
		Size:         1024,
		CreatedAt:    expiresAt.Add(-24 * time.Hour),
		ExpiresAt:    expiresAt,
		State:        StatePending,
	}
}

func TestService_Create_emptyPayload(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Create(context.Background(), CreateInput{Data: nil, OriginalName: "empty.txt"})

	// Assert
	assert.ErrorIs(t, err, ErrEmptyPayload)
	assert.Nil(t, result)
	blobs.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
}

func TestService_Create_invalidTTL(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Create(context.Background(), CreateInput{
		Data:         []byte("payload"),
		OriginalName: "report.pdf",
		TTL:          TTL("30m"),
	})

	// Assert
	assert.ErrorIs(t, err, ErrInvalidTTL)
	assert.Nil(t, result)
}

func TestService_Create_blobStoreDown(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	blobs.On("Store", mock.Anything, mock.Anything).Return("", assert.AnError)
	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Create(context.Background(), CreateInput{
		Data:         []byte("payload"),
		OriginalName: "report.pdf",
	})

	// Assert
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Nil(t, result)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestService_Create_compensatesBlobOnInsertFailure(t *testing.T) {
	// Arrange: the record insert fails, so the blob must be removed again
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	blobs.On("Store", mock.Anything, mock.Anything).Return("blob-ref", nil)
	blobs.On("Delete", mock.Anything, "blob-ref").Return(nil)
	repo.On("Get", mock.Anything, mock.Anything).Return(nil, ErrInvalidCode)
	repo.On("Put", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Create(context.Background(), CreateInput{
		Data:         []byte("payload"),
		OriginalName: "report.pdf",
	})

	// Assert
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Nil(t, result)
	blobs.AssertCalled(t, "Delete", mock.Anything, "blob-ref")
}

func TestService_Create_retriesOnDuplicateCode(t *testing.T) {
	// Arrange: first insert loses the check-to-insert window, second wins
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	blobs.On("Store", mock.Anything, mock.Anything).Return("blob-ref", nil)
	repo.On("Get", mock.Anything, mock.Anything).Return(nil, ErrInvalidCode)
	repo.On("Put", mock.Anything, mock.Anything).Return(ErrDuplicateCode).Once()
	repo.On("Put", mock.Anything, mock.Anything).Return(nil).Once()

	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Create(context.Background(), CreateInput{
		Data:         []byte("payload"),
		OriginalName: "report.pdf",
	})

	// Assert
	require.NoError(t, err)
	assert.Len(t, result.Code, CodeLength)
	repo.AssertNumberOfCalls(t, "Put", 2)
}

func TestService_Redeem_expiredRecordIsReclaimed(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	rec := pendingRecord("K7X2M9", time.Now().Add(-time.Minute))
	repo.On("Get", mock.Anything, "K7X2M9").Return(rec, nil)
	repo.On("Transition", mock.Anything, "K7X2M9", StateExpired).Return(true, nil)
	repo.On("Delete", mock.Anything, "K7X2M9").Return(nil)
	blobs.On("Delete", mock.Anything, rec.BlobRef).Return(nil)

	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Redeem(context.Background(), "K7X2M9", "")

	// Assert
	assert.ErrorIs(t, err, ErrExpiredCode)
	assert.Nil(t, result)
	blobs.AssertCalled(t, "Delete", mock.Anything, rec.BlobRef)
	repo.AssertCalled(t, "Delete", mock.Anything, "K7X2M9")
	blobs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestService_Redeem_wrongPasswordDoesNotConsume(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	rec := pendingRecord("K7X2M9", time.Now().Add(time.Hour))
	rec.PasswordHash = string(hash)
	repo.On("Get", mock.Anything, "K7X2M9").Return(rec, nil)

	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Redeem(context.Background(), "K7X2M9", "wrong")

	// Assert
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, result)
	repo.AssertNotCalled(t, "TryRedeem", mock.Anything, mock.Anything, mock.Anything)
	blobs.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestService_Redeem_corruptedEnvelopeStillDestroys(t *testing.T) {
	// Arrange: the stored envelope fails authentication after the win; the
	// transfer must be destroyed regardless
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	rec := pendingRecord("K7X2M9", time.Now().Add(time.Hour))
	used := *rec
	used.State = StateUsed

	tampered := make([]byte, 64)
	repo.On("Get", mock.Anything, "K7X2M9").Return(rec, nil)
	repo.On("TryRedeem", mock.Anything, "K7X2M9", mock.Anything).Return(&used, nil)
	repo.On("Delete", mock.Anything, "K7X2M9").Return(nil)
	blobs.On("Fetch", mock.Anything, rec.BlobRef).Return(tampered, nil)
	blobs.On("Delete", mock.Anything, rec.BlobRef).Return(nil)

	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Redeem(context.Background(), "K7X2M9", "")

	// Assert
	assert.ErrorIs(t, err, ErrCorruptedFile)
	assert.Nil(t, result)
	blobs.AssertCalled(t, "Delete", mock.Anything, rec.BlobRef)
	repo.AssertCalled(t, "Delete", mock.Anything, "K7X2M9")
}

func TestService_Redeem_fetchFailureStillDestroys(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	rec := pendingRecord("K7X2M9", time.Now().Add(time.Hour))
	used := *rec
	used.State = StateUsed

	repo.On("Get", mock.Anything, "K7X2M9").Return(rec, nil)
	repo.On("TryRedeem", mock.Anything, "K7X2M9", mock.Anything).Return(&used, nil)
	repo.On("Delete", mock.Anything, "K7X2M9").Return(nil)
	blobs.On("Fetch", mock.Anything, rec.BlobRef).Return(nil, assert.AnError)
	blobs.On("Delete", mock.Anything, rec.BlobRef).Return(nil)

	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Redeem(context.Background(), "K7X2M9", "")

	// Assert
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Nil(t, result)
	blobs.AssertCalled(t, "Delete", mock.Anything, rec.BlobRef)
}

func TestService_Redeem_normalizesCode(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	svc := testService(t, repo, blobs)

	env, err := svc.codec.Seal([]byte("payload"))
	require.NoError(t, err)

	rec := pendingRecord("K7X2M9", time.Now().Add(time.Hour))
	used := *rec
	used.State = StateUsed

	repo.On("Get", mock.Anything, "K7X2M9").Return(rec, nil)
	repo.On("TryRedeem", mock.Anything, "K7X2M9", mock.Anything).Return(&used, nil)
	repo.On("Delete", mock.Anything, "K7X2M9").Return(nil)
	blobs.On("Fetch", mock.Anything, rec.BlobRef).Return(env, nil)
	blobs.On("Delete", mock.Anything, rec.BlobRef).Return(nil)

	// Act: the recipient typed the code in lower case with whitespace
	result, err := svc.Redeem(context.Background(), "  k7x2m9 ", "")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), result.Data)
	assert.Equal(t, "report.pdf", result.FileName)
}

func TestService_Peek(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		rec      *Record
		expected PeekResult
	}{
		{
			name: "open transfer exposes metadata",
			rec:  pendingRecord("K7X2M9", time.Now().Add(time.Hour)),
			expected: PeekResult{
				RequiresPassword: false,
				FileName:         "report.pdf",
				FileSize:         1024,
			},
		},
		{
			name: "protected transfer withholds metadata",
			rec: func() *Record {
				r := pendingRecord("K7X2M9", time.Now().Add(time.Hour))
				r.PasswordHash = string(hash)
				return r
			}(),
			expected: PeekResult{
				RequiresPassword: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			repo := new(MockRepository)
			blobs := new(MockBlobStore)
			repo.On("Get", mock.Anything, "K7X2M9").Return(tt.rec, nil)
			svc := testService(t, repo, blobs)

			// Act
			result, err := svc.Peek(context.Background(), "K7X2M9")

			// Assert
			require.NoError(t, err)
			assert.Equal(t, tt.expected, *result)
		})
	}
}

func TestService_Peek_expiredReadsAsInvalid(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	rec := pendingRecord("K7X2M9", time.Now().Add(-time.Minute))
	repo.On("Get", mock.Anything, "K7X2M9").Return(rec, nil)
	repo.On("Transition", mock.Anything, "K7X2M9", StateExpired).Return(true, nil)
	repo.On("Delete", mock.Anything, "K7X2M9").Return(nil)
	blobs.On("Delete", mock.Anything, rec.BlobRef).Return(nil)

	svc := testService(t, repo, blobs)

	// Act
	result, err := svc.Peek(context.Background(), "K7X2M9")

	// Assert
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Nil(t, result)
	blobs.AssertCalled(t, "Delete", mock.Anything, rec.BlobRef)
}

func TestService_Cancel_unknownCodeIsNotAnError(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	repo.On("Get", mock.Anything, "K7X2M9").Return(nil, ErrInvalidCode)
	svc := testService(t, repo, blobs)

	// Act
	err := svc.Cancel(context.Background(), "K7X2M9")

	// Assert
	assert.NoError(t, err)
}

func TestService_Cancel_lostTransitionDoesNotDestroy(t *testing.T) {
	// Arrange: a concurrent redeem already moved the record out of PENDING
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	rec := pendingRecord("K7X2M9", time.Now().Add(time.Hour))
	repo.On("Get", mock.Anything, "K7X2M9").Return(rec, nil)
	repo.On("Transition", mock.Anything, "K7X2M9", StateDeleted).Return(false, nil)

	svc := testService(t, repo, blobs)

	// Act
	err := svc.Cancel(context.Background(), "K7X2M9")

	// Assert
	assert.NoError(t, err)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSweeper_SweepOnce(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)

	now := time.Now()
	expired := []Record{
		*pendingRecord("AAAAAA", now.Add(-time.Hour)),
		*pendingRecord("BBBBBB", now.Add(-time.Minute)),
	}

	repo.On("ListExpired", mock.Anything, now).Return(expired, nil)
	repo.On("Transition", mock.Anything, "AAAAAA", StateExpired).Return(true, nil)
	// the second record was grabbed by a concurrent redeem mid-sweep
	repo.On("Transition", mock.Anything, "BBBBBB", StateExpired).Return(false, nil)
	repo.On("Delete", mock.Anything, "AAAAAA").Return(nil)
	blobs.On("Delete", mock.Anything, "blob-AAAAAA").Return(nil)

	svc := testService(t, repo, blobs)
	sweeper := NewSweeper(svc, time.Hour, slog.Default())

	// Act
	reclaimed, err := sweeper.SweepOnce(context.Background(), now)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, reclaimed)
	blobs.AssertNotCalled(t, "Delete", mock.Anything, "blob-BBBBBB")
}

func TestSweeper_SweepOnce_emptyStore(t *testing.T) {
	// Arrange
	repo := new(MockRepository)
	blobs := new(MockBlobStore)
	repo.On("ListExpired", mock.Anything, mock.Anything).Return([]Record(nil), nil)

	svc := testService(t, repo, blobs)
	sweeper := NewSweeper(svc, time.Hour, slog.Default())

	// Act
	reclaimed, err := sweeper.SweepOnce(context.Background(), time.Now())

	// Assert
	require.NoError(t, err)
	assert.Zero(t, reclaimed)
}
