package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/service"
)

func TestCreateBooking_ConcurrentOverlap(t *testing.T) {
	_, _, svc := newBookingEnv(day)

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor := domain.Identity{UserID: int32(1000 + i)}
			// Every window overlaps [10:00, 12:00).
			w := domain.Window{
				Start: day.Add(10*time.Hour + time.Duration(i)*time.Minute),
				End:   day.Add(12 * time.Hour),
			}
			_, err := svc.CreateBooking(context.Background(), actor, deviceID, w)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, conflicts)
}

func TestReleaseEscrow_ConcurrentCallers(t *testing.T) {
	now := day.Add(12*time.Hour + domain.EscrowGracePeriod + time.Hour)
	store := newMemStore(testDevice())
	b := acceptedBooking(store)
	svc := service.NewEscrowService(store, store.BookingRepository(), store.SettlementRepository(), &recordingDispatcher{}, clockAt(now))

	actors := []domain.Identity{renter, admin, renter, admin, renter, admin, renter, admin}
	errs := make([]error, len(actors))
	var wg sync.WaitGroup
	for i, actor := range actors {
		wg.Add(1)
		go func(i int, actor domain.Identity) {
			defer wg.Done()
			_, errs[i] = svc.ReleaseEscrow(context.Background(), actor, b.ID)
		}(i, actor)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, domain.ErrAlreadyReleased)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, store.settlementCount())
	assert.True(t, store.booking(b.ID).EscrowReleased)
}
