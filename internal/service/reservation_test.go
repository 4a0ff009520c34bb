package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/model"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
)

// memStore is an in-memory implementation of the engine's store
// interfaces. Begin locks the store and snapshots it; Rollback
// restores the snapshot, Commit discards it. Transactions are
// serialized, which is exactly the atomicity the engine may assume
// from the real database.
type memStore struct {
	mu       sync.Mutex
	accounts map[uint64]model.Account
	movies   map[uint64]model.Movie
	tickets  map[uint64]model.Ticket
	nextID   uint64

	snapMovies  map[uint64]model.Movie
	snapTickets map[uint64]model.Ticket
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[uint64]model.Account),
		movies:   make(map[uint64]model.Movie),
		tickets:  make(map[uint64]model.Ticket),
		nextID:   1,
	}
}

type memTx struct {
	s    *memStore
	done bool
}

func (s *memStore) Begin(ctx context.Context) (repository.Tx, error) {
	s.mu.Lock()
	s.snapMovies = make(map[uint64]model.Movie, len(s.movies))
	for k, v := range s.movies {
		s.snapMovies[k] = v
	}
	s.snapTickets = make(map[uint64]model.Ticket, len(s.tickets))
	for k, v := range s.tickets {
		s.snapTickets[k] = v
	}
	return &memTx{s: s}, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errors.New("tx already finished")
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil // rollback after commit is a no-op
	}
	t.done = true
	t.s.movies = t.s.snapMovies
	t.s.tickets = t.s.snapTickets
	t.s.mu.Unlock()
	return nil
}

func (s *memStore) own(tx repository.Tx) *memTx {
	t, ok := tx.(*memTx)
	if !ok || t.s != s {
		panic("foreign tx passed to memStore")
	}
	return t
}

func (s *memStore) GetTx(ctx context.Context, tx repository.Tx, id uint64) (model.Account, error) {
	s.own(tx)
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

func (s *memStore) SetActive(ctx context.Context, id uint64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.IsActive = active
	s.accounts[id] = a
	return nil
}

// movieStore and ticketStore expose the movie/ticket slices of
// memStore under distinct method sets, mirroring how the real repos
// share one *sql.DB.
type movieStore struct{ *memStore }

func (m movieStore) GetTx(ctx context.Context, tx repository.Tx, id uint64) (model.Movie, error) {
	m.own(tx)
	mv, ok := m.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrMovieNotFound
	}
	return mv, nil
}

func (m movieStore) DecrementSeatsTx(ctx context.Context, tx repository.Tx, id uint64) error {
	m.own(tx)
	mv, ok := m.movies[id]
	if !ok {
		return repository.ErrMovieNotFound
	}
	if mv.AvailableSeats <= 0 {
		return repository.ErrNoSeatsAvailable
	}
	mv.AvailableSeats--
	m.movies[id] = mv
	return nil
}

func (m movieStore) IncrementSeatsTx(ctx context.Context, tx repository.Tx, id uint64) error {
	m.own(tx)
	mv, ok := m.movies[id]
	if !ok {
		return repository.ErrMovieNotFound
	}
	if mv.AvailableSeats < mv.SeatCapacity {
		mv.AvailableSeats++
	}
	m.movies[id] = mv
	return nil
}

func (m movieStore) DeleteTx(ctx context.Context, tx repository.Tx, id uint64) error {
	m.own(tx)
	if _, ok := m.movies[id]; !ok {
		return repository.ErrMovieNotFound
	}
	delete(m.movies, id)
	return nil
}

type ticketStore struct{ *memStore }

func (t ticketStore) InsertTx(ctx context.Context, tx repository.Tx, tk *model.Ticket) error {
	t.own(tx)
	tk.ID = t.nextID
	t.nextID++
	t.tickets[tk.ID] = *tk
	return nil
}

func (t ticketStore) GetTx(ctx context.Context, tx repository.Tx, id uint64) (model.Ticket, error) {
	t.own(tx)
	tk, ok := t.tickets[id]
	if !ok {
		return model.Ticket{}, repository.ErrTicketNotFound
	}
	return tk, nil
}

func (t ticketStore) DeleteTx(ctx context.Context, tx repository.Tx, id uint64) error {
	t.own(tx)
	if _, ok := t.tickets[id]; !ok {
		return repository.ErrTicketNotFound
	}
	delete(t.tickets, id)
	return nil
}

func (t ticketStore) CountByMovieTx(ctx context.Context, tx repository.Tx, movieID uint64) (int, error) {
	t.own(tx)
	n := 0
	for _, tk := range t.tickets {
		if tk.MovieID == movieID {
			n++
		}
	}
	return n, nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu        sync.Mutex
	issued    []queue.TicketIssuedEvent
	cancelled []queue.TicketCancelledEvent
}

func (p *recordingPublisher) TicketIssued(ctx context.Context, ev queue.TicketIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, ev)
	return nil
}

func (p *recordingPublisher) TicketCancelled(ctx context.Context, ev queue.TicketCancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, ev)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newEngine(store *memStore, pub EventPublisher) *ReservationService {
	return NewReservationService(store, store, movieStore{store}, ticketStore{store}, pub, quietLogger())
}

func seed(store *memStore) (accountID, movieID uint64) {
	store.accounts[1] = model.Account{ID: 1, Login: "moviefan1", Role: model.RoleClient, IsActive: true}
	store.movies[10] = model.Movie{ID: 10, Title: "Heat", BasePrice: 45.75, RoomNumber: 3, AvailableSeats: 100, SeatCapacity: 100}
	return 1, 10
}

func TestCreateTicketNormal(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	pub := &recordingPublisher{}
	engine := newEngine(store, pub)

	ticket, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	require.NoError(t, err)
	assert.Equal(t, 45.75, ticket.FinalPrice)
	assert.NotEmpty(t, ticket.Code)
	assert.Equal(t, accID, ticket.AccountID)
	assert.Equal(t, movID, ticket.MovieID)
	assert.Equal(t, 99, store.movies[movID].AvailableSeats)
	require.Len(t, pub.issued, 1)
	assert.Equal(t, ticket.ID, pub.issued[0].TicketID)
	assert.Equal(t, "Heat", pub.issued[0].MovieTitle)
}

func TestCreateTicketReducedPrice(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	engine := newEngine(store, nil)

	ticket, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketReduced,
	})
	require.NoError(t, err)
	assert.Equal(t, 34.31, ticket.FinalPrice) // 45.75 * 0.75 rounded to two decimals
}

func TestCreateTicketAccountNotFound(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	_, movID := seed(store)
	engine := newEngine(store, nil)

	_, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: 999, MovieID: movID, Type: TicketNormal,
	})
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	assert.Equal(t, 100, store.movies[movID].AvailableSeats)
	assert.Empty(t, store.tickets)
}

func TestCreateTicketInactiveAccountLeavesStoresUntouched(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	a := store.accounts[accID]
	a.IsActive = false
	store.accounts[accID] = a
	engine := newEngine(store, nil)

	_, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	assert.ErrorIs(t, err, repository.ErrAccountInactive)
	assert.Equal(t, 100, store.movies[movID].AvailableSeats)
	assert.Empty(t, store.tickets)
}

func TestCreateTicketMovieNotFound(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, _ := seed(store)
	engine := newEngine(store, nil)

	_, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: 999, Type: TicketNormal,
	})
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
}

func TestCreateTicketNoSeats(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	m := store.movies[movID]
	m.AvailableSeats = 0
	store.movies[movID] = m
	engine := newEngine(store, nil)

	_, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	assert.ErrorIs(t, err, repository.ErrNoSeatsAvailable)
	assert.Empty(t, store.tickets)
	assert.Equal(t, 0, store.movies[movID].AvailableSeats)
}

func TestConcurrentBookingsLastSeat(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	m := store.movies[movID]
	m.AvailableSeats = 1
	store.movies[movID] = m
	engine := newEngine(store, nil)

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.CreateTicket(context.Background(), CreateTicketInput{
				AccountID: accID, MovieID: movID, Type: TicketNormal,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, losses int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, repository.ErrNoSeatsAvailable):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, losses)
	assert.Equal(t, 0, store.movies[movID].AvailableSeats)
	assert.Len(t, store.tickets, 1)
}

func TestDeleteTicketRoundTripRestoresSeats(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	pub := &recordingPublisher{}
	engine := newEngine(store, pub)

	ticket, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	require.NoError(t, err)
	require.Equal(t, 99, store.movies[movID].AvailableSeats)

	require.NoError(t, engine.DeleteTicket(context.Background(), ticket.ID))
	assert.Equal(t, 100, store.movies[movID].AvailableSeats)
	assert.Empty(t, store.tickets)
	require.Len(t, pub.cancelled, 1)
	assert.Equal(t, ticket.ID, pub.cancelled[0].TicketID)
}

func TestDeleteTicketNotFound(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seed(store)
	engine := newEngine(store, nil)

	err := engine.DeleteTicket(context.Background(), 42)
	assert.ErrorIs(t, err, repository.ErrTicketNotFound)
}

func TestDeleteTicketDanglingMovie(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, _ := seed(store)
	store.tickets[7] = model.Ticket{ID: 7, Code: "dead-beef", AccountID: accID, MovieID: 999}
	store.nextID = 8
	engine := newEngine(store, nil)

	err := engine.DeleteTicket(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
	// Rollback keeps the dangling ticket visible for repair.
	assert.Contains(t, store.tickets, uint64(7))
}

func TestDeleteTicketIncrementCappedAtCapacity(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	engine := newEngine(store, nil)

	ticket, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	require.NoError(t, err)

	// Simulate the counter having drifted back up to capacity.
	m := store.movies[movID]
	m.AvailableSeats = m.SeatCapacity
	store.movies[movID] = m

	require.NoError(t, engine.DeleteTicket(context.Background(), ticket.ID))
	assert.Equal(t, m.SeatCapacity, store.movies[movID].AvailableSeats)
}

func TestDeleteMovieGuard(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	engine := newEngine(store, nil)

	ticket, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	require.NoError(t, err)

	err = engine.DeleteMovie(context.Background(), movID)
	assert.ErrorIs(t, err, repository.ErrMovieInUse)
	assert.Contains(t, store.movies, movID)

	require.NoError(t, engine.DeleteTicket(context.Background(), ticket.ID))
	require.NoError(t, engine.DeleteMovie(context.Background(), movID))
	assert.NotContains(t, store.movies, movID)
}

func TestDeleteMovieNotFound(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	seed(store)
	engine := newEngine(store, nil)

	err := engine.DeleteMovie(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrMovieNotFound)
}

func TestActivateDeactivateAccount(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	engine := newEngine(store, nil)

	require.NoError(t, engine.DeactivateAccount(context.Background(), accID))
	assert.False(t, store.accounts[accID].IsActive)

	// Bookings are blocked while deactivated.
	_, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	assert.ErrorIs(t, err, repository.ErrAccountInactive)

	require.NoError(t, engine.ActivateAccount(context.Background(), accID))
	assert.True(t, store.accounts[accID].IsActive)

	_, err = engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	assert.NoError(t, err)
}

func TestActivateUnknownAccount(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	engine := newEngine(store, nil)

	err := engine.ActivateAccount(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	err = engine.DeactivateAccount(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
}

func TestDeactivationKeepsExistingTickets(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	accID, movID := seed(store)
	engine := newEngine(store, nil)

	ticket, err := engine.CreateTicket(context.Background(), CreateTicketInput{
		AccountID: accID, MovieID: movID, Type: TicketNormal,
	})
	require.NoError(t, err)

	require.NoError(t, engine.DeactivateAccount(context.Background(), accID))
	assert.Contains(t, store.tickets, ticket.ID)
	assert.Equal(t, 99, store.movies[movID].AvailableSeats)
}
