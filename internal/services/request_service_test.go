package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
	"github.com/slugpoints/slugpoints-backend/internal/repository/memory"
	"github.com/slugpoints/slugpoints-backend/internal/worker"
)

type fixture struct {
	repos         memory.Repositories
	requests      *RequestService
	points        *PointsService
	notifications *NotificationService

	wp       *worker.Pool
	stopOnce sync.Once
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories(memory.NewStore())
	wp := worker.NewPool(2)
	n := NewNotificationService(repos.Notifications, wp)
	f := &fixture{
		repos:         repos,
		requests:      NewRequestService(repos.Requests, repos.Points, repos.Users, n),
		points:        NewPointsService(repos.Points),
		notifications: n,
		wp:            wp,
	}
	t.Cleanup(f.drain)
	return f
}

// drain flushes pending notification writes so tests can assert on them.
func (f *fixture) drain() {
	f.stopOnce.Do(f.wp.Stop)
}

func (f *fixture) user(t *testing.T, email, name string) models.User {
	t.Helper()
	u, err := f.repos.Users.Create(context.Background(), email, name, "hash")
	require.NoError(t, err)
	return u
}

func (f *fixture) setBalance(t *testing.T, userID string, balance int64) {
	t.Helper()
	_, err := f.repos.Points.Set(context.Background(), userID, balance)
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	b, err := f.repos.Points.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	return b.Balance
}

func requireOpError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	require.Equal(t, status, oe.Status)
	require.Equal(t, message, oe.Message)
}

func TestCreateRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")

	created, err := f.requests.Create(ctx, alice.ID, "  Oakes Cafe ", float64(5), "low on points")
	require.NoError(t, err)
	require.Equal(t, "Oakes Cafe", created.Location)
	require.Equal(t, int64(5), created.PointsRequested)
	require.Equal(t, models.RequestPending, created.Status)
	require.Nil(t, created.DonorID)
	require.NotNil(t, created.Requester)
	require.Equal(t, "Alice", created.Requester.Name)

	_, err = f.requests.Create(ctx, alice.ID, "", float64(5), nil)
	requireOpError(t, err, 400, "Location is required")

	_, err = f.requests.Create(ctx, alice.ID, "Oakes Cafe", "5", nil)
	requireOpError(t, err, 400, "Points requested must be a positive integer")
}

func TestAcceptTransfersPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	f.setBalance(t, bob.ID, 10)

	created, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(5), nil)
	require.NoError(t, err)

	accepted, err := f.requests.Accept(ctx, created.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestAccepted, accepted.Status)
	require.NotNil(t, accepted.DonorID)
	require.Equal(t, bob.ID, *accepted.DonorID)

	require.Equal(t, int64(5), f.balance(t, bob.ID))
	require.Equal(t, int64(5), f.balance(t, alice.ID))

	f.drain()
	ns, err := f.notifications.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.Equal(t, models.NotificationRequestAccepted, ns[0].Type)
	require.Contains(t, ns[0].Message, "Bob accepted your request for 5 points at Oakes Cafe")
	require.False(t, ns[0].Read)
}

// Points are conserved across a transfer: nothing minted, nothing burned.
func TestAcceptConservesPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	f.setBalance(t, alice.ID, 3)
	f.setBalance(t, bob.ID, 12)
	before := f.balance(t, alice.ID) + f.balance(t, bob.ID)

	created, err := f.requests.Create(ctx, alice.ID, "Porter/Kresge Dining Hall", float64(7), nil)
	require.NoError(t, err)
	_, err = f.requests.Accept(ctx, created.ID, bob.ID)
	require.NoError(t, err)

	require.Equal(t, before, f.balance(t, alice.ID)+f.balance(t, bob.ID))
	require.Equal(t, int64(10), f.balance(t, alice.ID))
	require.Equal(t, int64(5), f.balance(t, bob.ID))
}

func TestAcceptRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	f.setBalance(t, bob.ID, 10)

	created, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(15), nil)
	require.NoError(t, err)

	_, err = f.requests.Accept(ctx, "no-such-id", bob.ID)
	requireOpError(t, err, 404, "Request not found")

	_, err = f.requests.Accept(ctx, created.ID, alice.ID)
	requireOpError(t, err, 400, "You cannot accept your own request")

	// balance 10 < 15 requested; nothing moves
	_, err = f.requests.Accept(ctx, created.ID, bob.ID)
	requireOpError(t, err, 400, "Insufficient points balance")
	require.Equal(t, int64(10), f.balance(t, bob.ID))
	require.Equal(t, int64(0), f.balance(t, alice.ID))

	got, err := f.repos.Requests.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, got.Status)
	require.Nil(t, got.DonorID)
}

func TestAcceptResolvedRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	carol := f.user(t, "carol@ucsc.edu", "Carol")
	f.setBalance(t, bob.ID, 10)
	f.setBalance(t, carol.ID, 10)

	created, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(5), nil)
	require.NoError(t, err)
	_, err = f.requests.Accept(ctx, created.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.requests.Accept(ctx, created.ID, carol.ID)
	requireOpError(t, err, 400, "Request is no longer pending")
	require.Equal(t, int64(10), f.balance(t, carol.ID))
}

// Two racing accepts on the same pending request: exactly one succeeds, the
// other observes the request already resolved, and the transfer applies once.
func TestConcurrentAcceptExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	f.setBalance(t, bob.ID, 5) // exactly the requested amount

	created, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(5), nil)
	require.NoError(t, err)

	start := make(chan struct{})
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			_, err := f.requests.Accept(ctx, created.ID, bob.ID)
			results <- err
		}()
	}
	close(start)

	var successes, rejections int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			successes++
			continue
		}
		requireOpError(t, err, 400, "Request is no longer pending")
		rejections++
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, rejections)

	require.Equal(t, int64(0), f.balance(t, bob.ID))
	require.Equal(t, int64(5), f.balance(t, alice.ID))
}

func TestDeclineRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	f.setBalance(t, bob.ID, 10)

	created, err := f.requests.Create(ctx, alice.ID, "Crown/Merrill Dining Hall", float64(5), nil)
	require.NoError(t, err)

	err = f.requests.Decline(ctx, created.ID, alice.ID)
	requireOpError(t, err, 400, "You cannot decline your own request")

	require.NoError(t, f.requests.Decline(ctx, created.ID, bob.ID))

	got, err := f.repos.Requests.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestDeclined, got.Status)
	require.Equal(t, bob.ID, *got.DonorID)

	// no ledger effect
	require.Equal(t, int64(10), f.balance(t, bob.ID))
	require.Equal(t, int64(0), f.balance(t, alice.ID))

	// terminal: cannot decline or accept again
	err = f.requests.Decline(ctx, created.ID, bob.ID)
	requireOpError(t, err, 400, "Request is no longer pending")

	err = f.requests.Decline(ctx, "no-such-id", bob.ID)
	requireOpError(t, err, 404, "Request not found")

	f.drain()
	ns, err := f.notifications.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.Equal(t, models.NotificationRequestDeclined, ns[0].Type)
	require.Contains(t, ns[0].Message, "Bob declined your request")
}

func TestDeleteRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")

	created, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(5), nil)
	require.NoError(t, err)

	err = f.requests.Delete(ctx, created.ID, bob.ID)
	requireOpError(t, err, 403, "You can only delete your own requests")
	_, err = f.repos.Requests.GetByID(ctx, created.ID)
	require.NoError(t, err, "request must survive a forbidden delete")

	require.NoError(t, f.requests.Delete(ctx, created.ID, alice.ID))

	// second delete observes the record gone
	err = f.requests.Delete(ctx, created.ID, alice.ID)
	requireOpError(t, err, 404, "Request not found")
}

func TestDeleteResolvedRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	f.setBalance(t, bob.ID, 10)

	created, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(5), nil)
	require.NoError(t, err)
	_, err = f.requests.Accept(ctx, created.ID, bob.ID)
	require.NoError(t, err)

	err = f.requests.Delete(ctx, created.ID, alice.ID)
	requireOpError(t, err, 400, "You can only delete pending requests")
}

// resolveOnDelete accepts the request right before deleting it, standing in
// for a donor whose accept commits between the delete validation and the
// storage delete.
type resolveOnDelete struct {
	repo.Requests
	donorID string
}

func (r *resolveOnDelete) Delete(ctx context.Context, id string) error {
	if _, err := r.Requests.Accept(ctx, id, r.donorID); err != nil {
		return err
	}
	return r.Requests.Delete(ctx, id)
}

// A delete that loses the race to an accept must not erase the resolved
// request: the transfer stands and the requester sees the pending-only
// rejection.
func TestDeleteLosesRaceToAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")
	bob := f.user(t, "bob@ucsc.edu", "Bob")
	f.setBalance(t, bob.ID, 10)

	created, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(5), nil)
	require.NoError(t, err)

	racing := NewRequestService(
		&resolveOnDelete{Requests: f.repos.Requests, donorID: bob.ID},
		f.repos.Points, f.repos.Users, f.notifications,
	)
	err = racing.Delete(ctx, created.ID, alice.ID)
	requireOpError(t, err, 400, "You can only delete pending requests")

	got, err := f.repos.Requests.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestAccepted, got.Status)
	require.Equal(t, int64(5), f.balance(t, bob.ID))
	require.Equal(t, int64(5), f.balance(t, alice.ID))
}

func TestListRequestsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@ucsc.edu", "Alice")

	first, err := f.requests.Create(ctx, alice.ID, "Oakes Cafe", float64(1), nil)
	require.NoError(t, err)
	second, err := f.requests.Create(ctx, alice.ID, "Other", float64(2), nil)
	require.NoError(t, err)

	out, err := f.requests.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, second.ID, out[0].ID)
	require.Equal(t, first.ID, out[1].ID)
	require.NotNil(t, out[0].Requester)
}
