package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"bravework-rental-backend/internal/domain"
	"bravework-rental-backend/internal/repository"
)

// memStore is an in-memory Transactor. Transactions run one at a time and a
// failed transaction restores the state it started from.
type memStore struct {
	mu          sync.Mutex
	devices     map[int32]domain.Device
	bookings    map[int32]domain.Booking
	settlements map[int32]domain.Settlement
	outbox      map[int64]domain.OutboxMessage

	nextBooking    int32
	nextSettlement int32
	nextOutbox     int64
}

func newMemStore(devices ...domain.Device) *memStore {
	s := &memStore{
		devices:     make(map[int32]domain.Device),
		bookings:    make(map[int32]domain.Booking),
		settlements: make(map[int32]domain.Settlement),
		outbox:      make(map[int64]domain.OutboxMessage),
	}
	for _, d := range devices {
		s.devices[d.ID] = d
	}
	return s
}

type memSnapshot struct {
	bookings    map[int32]domain.Booking
	settlements map[int32]domain.Settlement
	outbox      map[int64]domain.OutboxMessage
	ids         [3]int64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		bookings:    make(map[int32]domain.Booking, len(s.bookings)),
		settlements: make(map[int32]domain.Settlement, len(s.settlements)),
		outbox:      make(map[int64]domain.OutboxMessage, len(s.outbox)),
		ids:         [3]int64{int64(s.nextBooking), int64(s.nextSettlement), s.nextOutbox},
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.settlements {
		snap.settlements[k] = v
	}
	for k, v := range s.outbox {
		snap.outbox[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.bookings = snap.bookings
	s.settlements = snap.settlements
	s.outbox = snap.outbox
	s.nextBooking = int32(snap.ids[0])
	s.nextSettlement = int32(snap.ids[1])
	s.nextOutbox = snap.ids[2]
}

func (s *memStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx, memUoW{s: s}); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// BookingRepository returns a repository for reads outside a transaction.
func (s *memStore) BookingRepository() repository.BookingRepository {
	return &memBookings{s: s, locking: true}
}

func (s *memStore) SettlementRepository() repository.SettlementRepository {
	return &memSettlements{s: s, locking: true}
}

func (s *memStore) put(b domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID > s.nextBooking {
		s.nextBooking = b.ID
	}
	s.bookings[b.ID] = b
}

func (s *memStore) booking(id int32) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id]
}

func (s *memStore) settlementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.settlements)
}

func (s *memStore) outboxMessages() []domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.OutboxMessage, 0, len(s.outbox))
	for _, m := range s.outbox {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memUoW struct {
	s *memStore
}

func (u memUoW) Devices() repository.DeviceRepository         { return memDevices{s: u.s} }
func (u memUoW) Bookings() repository.BookingRepository       { return &memBookings{s: u.s} }
func (u memUoW) Settlements() repository.SettlementRepository { return &memSettlements{s: u.s} }
func (u memUoW) Outbox() repository.OutboxRepository          { return memOutbox{s: u.s} }

type memDevices struct {
	s *memStore
}

func (r memDevices) GetByID(ctx context.Context, id int32) (*domain.Device, error) {
	d, ok := r.s.devices[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (r memDevices) GetForUpdate(ctx context.Context, id int32) (*domain.Device, error) {
	return r.GetByID(ctx, id)
}

// memBookings takes the store lock itself only when used outside a
// transaction.
type memBookings struct {
	s       *memStore
	locking bool
}

func (r *memBookings) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memBookings) Create(ctx context.Context, b *domain.Booking) error {
	defer r.lock()()
	r.s.nextBooking++
	b.ID = r.s.nextBooking
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *memBookings) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	defer r.lock()()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *memBookings) GetForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r *memBookings) ListBlocking(ctx context.Context, deviceID int32, w domain.Window) ([]domain.Booking, error) {
	defer r.lock()()
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.DeviceID == deviceID && b.Status.BlocksSlot() && b.StartAt.Before(w.End) && w.Start.Before(b.EndAt) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *memBookings) UpdateStatus(ctx context.Context, b *domain.Booking) error {
	defer r.lock()()
	if _, ok := r.s.bookings[b.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.bookings[b.ID] = *b
	return nil
}

func (r *memBookings) MarkEscrowReleased(ctx context.Context, id int32) (bool, error) {
	defer r.lock()()
	b, ok := r.s.bookings[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if b.EscrowReleased {
		return false, nil
	}
	b.EscrowReleased = true
	r.s.bookings[id] = b
	return true, nil
}

func (r *memBookings) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	defer r.lock()()
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if filter.Role == domain.BookingRoleOwner && b.OwnerID != filter.UserID {
			continue
		}
		if filter.Role != domain.BookingRoleOwner && b.RenterID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	return out, int32(len(out)), nil
}

func (r *memBookings) ListAwaitingRelease(ctx context.Context, endedBefore time.Time, limit int32) ([]domain.Booking, error) {
	defer r.lock()()
	var out []domain.Booking
	for _, b := range r.s.bookings {
		if b.Status == domain.BookingStatusAccepted && !b.EscrowReleased && !b.EndAt.After(endedBefore) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memSettlements struct {
	s       *memStore
	locking bool
}

func (r *memSettlements) lock() func() {
	if !r.locking {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memSettlements) Create(ctx context.Context, st *domain.Settlement) error {
	defer r.lock()()
	for _, existing := range r.s.settlements {
		if existing.BookingID == st.BookingID {
			return domain.ErrAlreadyReleased
		}
	}
	r.s.nextSettlement++
	st.ID = r.s.nextSettlement
	r.s.settlements[st.ID] = *st
	return nil
}

func (r *memSettlements) GetByBooking(ctx context.Context, bookingID int32) (*domain.Settlement, error) {
	defer r.lock()()
	for _, st := range r.s.settlements {
		if st.BookingID == bookingID {
			return &st, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memSettlements) ListByOwner(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Settlement, int32, error) {
	defer r.lock()()
	var out []domain.Settlement
	for _, st := range r.s.settlements {
		if st.OwnerID == ownerID {
			out = append(out, st)
		}
	}
	return out, int32(len(out)), nil
}

type memOutbox struct {
	s *memStore
}

func (r memOutbox) Enqueue(ctx context.Context, msg *domain.OutboxMessage) error {
	for _, existing := range r.s.outbox {
		if existing.DedupeKey == msg.DedupeKey {
			msg.ID = 0
			return nil
		}
	}
	r.s.nextOutbox++
	msg.ID = r.s.nextOutbox
	msg.Status = domain.OutboxStatusPending
	r.s.outbox[msg.ID] = *msg
	return nil
}

func (r memOutbox) Claim(ctx context.Context, ids []int64, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error) {
	return nil, nil
}

func (r memOutbox) ClaimBatch(ctx context.Context, limit int32, lease time.Duration, maxAttempts int32) ([]domain.OutboxMessage, error) {
	return nil, nil
}

func (r memOutbox) MarkSent(ctx context.Context, id int64) error { return nil }

func (r memOutbox) MarkFailed(ctx context.Context, id int64, reason string) error { return nil }
