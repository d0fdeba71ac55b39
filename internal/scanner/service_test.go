package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymflex/internal/auth"
	"gymflex/internal/booking"
	"gymflex/internal/checkin"
	"gymflex/internal/clock"
	"gymflex/internal/gym"
)

type MockScanRepo struct{ mock.Mock }
type MockGymRepo struct{ mock.Mock }
type MockBookingRepo struct{ mock.Mock }

func (m *MockScanRepo) CreateScan(ctx context.Context, gymID uuid.UUID, bookingID, userID *uuid.UUID, status string, allowed bool) (*Scan, error) {
	args := m.Called(ctx, gymID, bookingID, userID, status, allowed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Scan), args.Error(1)
}

func (m *MockScanRepo) GetScansByGym(ctx context.Context, gymID uuid.UUID, limit, offset int) ([]Scan, error) {
	args := m.Called(ctx, gymID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Scan), args.Error(1)
}

func (m *MockScanRepo) GetScanStats(ctx context.Context, from, to time.Time) ([]ScanStats, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ScanStats), args.Error(1)
}

func (m *MockGymRepo) CreateGym(ctx context.Context, name, location string, ownerID uuid.UUID) (*gym.Gym, error) {
	args := m.Called(ctx, name, location, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *MockGymRepo) GetAllGyms(ctx context.Context) ([]gym.Gym, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.Gym), args.Error(1)
}

func (m *MockGymRepo) GetGymByID(ctx context.Context, id uuid.UUID) (*gym.Gym, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *MockGymRepo) GymOwnedBy(ctx context.Context, gymID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockGymRepo) CreateSession(ctx context.Context, gymID uuid.UUID, title string, startTime, endTime time.Time, capacity int, priceCents int64, currency string) (*gym.Session, error) {
	args := m.Called(ctx, gymID, title, startTime, endTime, capacity, priceCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Session), args.Error(1)
}

func (m *MockGymRepo) GetSessionsByGym(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]gym.Session, error) {
	args := m.Called(ctx, gymID, onlyFuture)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.Session), args.Error(1)
}

func (m *MockGymRepo) GetSessionByID(ctx context.Context, id uuid.UUID) (*gym.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Session), args.Error(1)
}

func (m *MockGymRepo) GetSessionsWithAvailability(ctx context.Context, gymID uuid.UUID, onlyFuture bool) ([]gym.SessionWithAvailability, error) {
	args := m.Called(ctx, gymID, onlyFuture)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.SessionWithAvailability), args.Error(1)
}

func (m *MockBookingRepo) CreateBooking(ctx context.Context, userID, sessionID uuid.UUID, priceCents int64, currency string) (*booking.Booking, error) {
	args := m.Called(ctx, userID, sessionID, priceCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetBookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetBookingStatus(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockBookingRepo) CancelBooking(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingRepo) MarkCheckedIn(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingRepo) CountActiveBookingsForSession(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepo) UserHasBookingForSession(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepo) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]booking.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetBookingsBySession(ctx context.Context, sessionID uuid.UUID) ([]booking.BookingWithDetails, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingWithDetails), args.Error(1)
}

func (m *MockBookingRepo) GetBookingsByGym(ctx context.Context, gymID uuid.UUID) ([]booking.BookingWithDetails, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingWithDetails), args.Error(1)
}

func (m *MockBookingRepo) GetBookingStatsByDay(ctx context.Context, from, to time.Time) ([]booking.BookingStatsByBucket, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingStatsByBucket), args.Error(1)
}

func (m *MockBookingRepo) GetBookingStatsByGym(ctx context.Context, from, to time.Time) ([]booking.BookingStatsByGym, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingStatsByGym), args.Error(1)
}

// scanBaseTime sits inside the test session window (18:00-19:00 UTC).
var scanBaseTime = time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

func newScanService(sr *MockScanRepo, gr *MockGymRepo, br *MockBookingRepo) (Service, *checkin.Codec) {
	clk := clock.NewMockClock(scanBaseTime)
	codec := checkin.NewCodec(clk)
	validator := checkin.NewValidator(codec, clk)
	return NewService(sr, gr, br, validator), codec
}

func mintToken(t *testing.T, codec *checkin.Codec, b checkin.Booking) string {
	t.Helper()
	_, token, err := codec.Encode(b)
	require.NoError(t, err)
	return token
}

func testCheckinBooking(bookingID, gymID, memberID uuid.UUID) checkin.Booking {
	return checkin.Booking{
		ID:           bookingID.String(),
		GymID:        gymID.String(),
		UserID:       memberID.String(),
		CheckinCode:  "GF-4F7A2C19",
		SessionStart: time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC),
		SessionEnd:   time.Date(2025, 3, 10, 19, 0, 0, 0, time.UTC),
		AmountCents:  1500,
		Currency:     "EUR",
	}
}

func TestService_Scan_ValidBooking(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()
	bookingID := uuid.New()
	memberID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, codec := newScanService(sr, gr, br)

	token := mintToken(t, codec, testCheckinBooking(bookingID, gymID, memberID))

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID, Name: "Iron Temple"}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(true, nil)
	br.On("GetBookingStatus", mock.Anything, bookingID).Return("active", nil)
	br.On("MarkCheckedIn", mock.Anything, bookingID).Return(nil)
	sr.On("CreateScan", mock.Anything, gymID, &bookingID, &memberID, "valid", true).Return(&Scan{ID: uuid.New()}, nil)

	resp, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: token})

	require.NoError(t, err)
	assert.True(t, resp.Allowed)
	assert.Equal(t, checkin.StatusValid, resp.Status)
	assert.Equal(t, 30, resp.RemainingMinutes)
	assert.Equal(t, "Check-in approved. 30 minutes remaining", resp.Message)
	br.AssertCalled(t, "MarkCheckedIn", mock.Anything, bookingID)
	sr.AssertExpectations(t)
}

func TestService_Scan_CancelledBooking(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()
	bookingID := uuid.New()
	memberID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, codec := newScanService(sr, gr, br)

	token := mintToken(t, codec, testCheckinBooking(bookingID, gymID, memberID))

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(true, nil)
	br.On("GetBookingStatus", mock.Anything, bookingID).Return("cancelled", nil)
	sr.On("CreateScan", mock.Anything, gymID, &bookingID, &memberID, "cancelled", false).Return(&Scan{}, nil)

	resp, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: token})

	require.NoError(t, err)
	assert.False(t, resp.Allowed)
	assert.Equal(t, checkin.StatusCancelled, resp.Status)
	assert.Equal(t, "This booking was cancelled", resp.Message)
	br.AssertNotCalled(t, "MarkCheckedIn", mock.Anything, mock.Anything)
}

func TestService_Scan_RepeatScan(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()
	bookingID := uuid.New()
	memberID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, codec := newScanService(sr, gr, br)

	token := mintToken(t, codec, testCheckinBooking(bookingID, gymID, memberID))

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(true, nil)
	br.On("GetBookingStatus", mock.Anything, bookingID).Return("checked_in", nil)
	sr.On("CreateScan", mock.Anything, gymID, &bookingID, &memberID, "already_checked_in", true).Return(&Scan{}, nil)

	resp, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: token})

	require.NoError(t, err)
	// Повторный скан пускает внутрь, но второй раз check-in не пишем.
	assert.True(t, resp.Allowed)
	assert.Equal(t, checkin.StatusAlreadyCheckedIn, resp.Status)
	br.AssertNotCalled(t, "MarkCheckedIn", mock.Anything, mock.Anything)
}

func TestService_Scan_WrongGym(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()
	otherGymID := uuid.New()
	bookingID := uuid.New()
	memberID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, codec := newScanService(sr, gr, br)

	// Token minted for a different gym than the one scanning.
	token := mintToken(t, codec, testCheckinBooking(bookingID, otherGymID, memberID))

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(true, nil)
	sr.On("CreateScan", mock.Anything, gymID, &bookingID, &memberID, "wrong_gym", false).Return(&Scan{}, nil)

	resp, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: token})

	require.NoError(t, err)
	assert.False(t, resp.Allowed)
	assert.Equal(t, checkin.StatusWrongGym, resp.Status)
	// Identity is settled before any booking lookup happens.
	br.AssertNotCalled(t, "GetBookingStatus", mock.Anything, mock.Anything)
}

func TestService_Scan_GarbageToken(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, _ := newScanService(sr, gr, br)

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(true, nil)
	sr.On("CreateScan", mock.Anything, gymID, (*uuid.UUID)(nil), (*uuid.UUID)(nil), "invalid", false).Return(&Scan{}, nil)

	resp, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: "https://example.com/menu.pdf"})

	require.NoError(t, err)
	assert.False(t, resp.Allowed)
	assert.Equal(t, checkin.StatusInvalid, resp.Status)
	assert.Equal(t, "Invalid check-in code", resp.Message)
	sr.AssertExpectations(t)
}

func TestService_Scan_ForeignGymRejected(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, _ := newScanService(sr, gr, br)

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(false, nil)

	_, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: "whatever"})

	assert.ErrorIs(t, err, ErrNotYourGym)
	sr.AssertNotCalled(t, "CreateScan", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Scan_AdminSkipsOwnership(t *testing.T) {
	adminID := uuid.New()
	gymID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, _ := newScanService(sr, gr, br)

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	sr.On("CreateScan", mock.Anything, gymID, (*uuid.UUID)(nil), (*uuid.UUID)(nil), "invalid", false).Return(&Scan{}, nil)

	resp, err := service.Scan(context.Background(), adminID, auth.RoleAdmin, ScanRequest{GymID: gymID.String(), Token: "not-a-token"})

	require.NoError(t, err)
	assert.Equal(t, checkin.StatusInvalid, resp.Status)
	gr.AssertNotCalled(t, "GymOwnedBy", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Scan_LookupFailureSurfaces(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()
	bookingID := uuid.New()
	memberID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, codec := newScanService(sr, gr, br)

	token := mintToken(t, codec, testCheckinBooking(bookingID, gymID, memberID))

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(true, nil)
	br.On("GetBookingStatus", mock.Anything, bookingID).Return("", errors.New("connection refused"))

	resp, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: token})

	// Инфраструктурная ошибка не превращается в отказ по QR.
	assert.Error(t, err)
	assert.Nil(t, resp)
	sr.AssertNotCalled(t, "CreateScan", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Scan_GymNotFound(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, _ := newScanService(sr, gr, br)

	gr.On("GetGymByID", mock.Anything, gymID).Return(nil, errors.New("no rows"))

	_, err := service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: gymID.String(), Token: "x"})
	assert.ErrorIs(t, err, ErrGymNotFound)

	// Мусор вместо uuid ведёт туда же
	_, err = service.Scan(context.Background(), ownerID, auth.RoleOwner, ScanRequest{GymID: "42", Token: "x"})
	assert.ErrorIs(t, err, ErrGymNotFound)
}

func TestBookingSource(t *testing.T) {
	br := new(MockBookingRepo)
	source := NewBookingSource(br)
	ctx := context.Background()

	t.Run("unparsable id is unknown, not an error", func(t *testing.T) {
		status, err := source.BookingStatus(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Equal(t, checkin.BookingUnknown, status)
	})

	t.Run("known booking maps straight through", func(t *testing.T) {
		id := uuid.New()
		br.On("GetBookingStatus", mock.Anything, id).Return("active", nil)

		status, err := source.BookingStatus(ctx, id.String())
		require.NoError(t, err)
		assert.Equal(t, checkin.BookingActive, status)
	})

	t.Run("lookup error propagates", func(t *testing.T) {
		id := uuid.New()
		br.On("GetBookingStatus", mock.Anything, id).Return("", errors.New("db down"))

		_, err := source.BookingStatus(ctx, id.String())
		assert.Error(t, err)
	})
}

func TestService_GetScansByGym(t *testing.T) {
	ownerID := uuid.New()
	gymID := uuid.New()

	sr := new(MockScanRepo)
	gr := new(MockGymRepo)
	br := new(MockBookingRepo)
	service, _ := newScanService(sr, gr, br)

	gr.On("GetGymByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID}, nil)
	gr.On("GymOwnedBy", mock.Anything, gymID, ownerID).Return(true, nil)
	sr.On("GetScansByGym", mock.Anything, gymID, 50, 0).Return([]Scan{
		{ID: uuid.New(), GymID: gymID, Status: "valid", Allowed: true},
	}, nil)

	scans, err := service.GetScansByGym(context.Background(), ownerID, auth.RoleOwner, gymID, 50, 0)

	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.True(t, scans[0].Allowed)
}
