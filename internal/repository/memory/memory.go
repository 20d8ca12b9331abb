// Package memory provides mutex-guarded in-memory repositories used by the
// test suite and by APP_STORE=memory dev runs. Each operation takes the
// store lock for its full duration, which gives the same all-or-nothing
// visibility the Postgres transactions provide.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slugpoints/slugpoints-backend/internal/models"
	repo "github.com/slugpoints/slugpoints-backend/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	users         map[string]models.User
	usersByEmail  map[string]string
	requests      map[string]models.Request
	points        map[string]models.PointsBalance
	notifications map[string]models.Notification
	seq           map[string]int64 // insertion order, newest-first tiebreak
	nextSeq       int64
}

type Repositories struct {
	Users         repo.Users
	Requests      repo.Requests
	Points        repo.Points
	Notifications repo.Notifications
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]models.User),
		usersByEmail:  make(map[string]string),
		requests:      make(map[string]models.Request),
		points:        make(map[string]models.PointsBalance),
		notifications: make(map[string]models.Notification),
		seq:           make(map[string]int64),
	}
}

func NewRepositories(s *Store) Repositories {
	return Repositories{
		Users:         &usersRepo{s},
		Requests:      &requestsRepo{s},
		Points:        &pointsRepo{s},
		Notifications: &notificationsRepo{s},
	}
}

func (s *Store) nextSequence(id string) {
	s.nextSeq++
	s.seq[id] = s.nextSeq
}

// ---------------- users ----------------

type usersRepo struct{ s *Store }

func (r *usersRepo) Create(_ context.Context, email, name, passwordHash string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.usersByEmail[email]; taken {
		return models.User{}, repo.ErrDuplicateEmail
	}
	now := time.Now()
	u := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[u.ID] = u
	r.s.usersByEmail[email] = u.ID
	return u, nil
}

func (r *usersRepo) GetByID(_ context.Context, id string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, found := r.s.users[id]
	if !found {
		return models.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, found := r.s.usersByEmail[email]
	if !found {
		return models.User{}, repo.ErrNotFound
	}
	return r.s.users[id], nil
}

// ---------------- requests ----------------

type requestsRepo struct{ s *Store }

// withRefs returns a copy with requester/donor identity attached, matching
// the joined rows the Postgres repository returns.
func (r *requestsRepo) withRefs(rq models.Request) models.Request {
	if u, found := r.s.users[rq.RequesterID]; found {
		ref := u.Ref()
		rq.Requester = &ref
	}
	if rq.DonorID != nil {
		if u, found := r.s.users[*rq.DonorID]; found {
			ref := u.Ref()
			rq.Donor = &ref
		}
	}
	return rq
}

func (r *requestsRepo) Create(_ context.Context, req models.Request) (models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Requester = nil
	req.Donor = nil
	r.s.requests[req.ID] = req
	r.s.nextSequence(req.ID)
	return r.withRefs(req), nil
}

func (r *requestsRepo) GetByID(_ context.Context, id string) (models.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rq, found := r.s.requests[id]
	if !found {
		return models.Request{}, repo.ErrNotFound
	}
	return r.withRefs(rq), nil
}

func (r *requestsRepo) List(_ context.Context) ([]models.Request, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]models.Request, 0, len(r.s.requests))
	for _, rq := range r.s.requests {
		out = append(out, r.withRefs(rq))
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.seq[out[i].ID] > r.s.seq[out[j].ID]
	})
	return out, nil
}

// Delete only removes a request that is still pending; resolved requests are
// terminal.
func (r *requestsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rq, found := r.s.requests[id]
	if !found {
		return repo.ErrNotFound
	}
	if rq.Status != models.RequestPending {
		return repo.ErrNotPending
	}
	delete(r.s.requests, id)
	return nil
}

func (r *requestsRepo) Resolve(_ context.Context, id, donorID string, status models.RequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rq, found := r.s.requests[id]
	if !found {
		return repo.ErrNotFound
	}
	if rq.Status != models.RequestPending {
		return repo.ErrNotPending
	}
	rq.Status = status
	rq.DonorID = &donorID
	rq.UpdatedAt = time.Now()
	r.s.requests[id] = rq
	return nil
}

func (r *requestsRepo) Accept(_ context.Context, id, donorID string) (models.Request, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rq, found := r.s.requests[id]
	if !found {
		return models.Request{}, repo.ErrNotFound
	}
	if rq.Status != models.RequestPending {
		return models.Request{}, repo.ErrNotPending
	}

	donor := r.s.points[donorID]
	if donor.Balance < rq.PointsRequested {
		return models.Request{}, repo.ErrInsufficientBalance
	}

	now := time.Now()
	donor.UserID = donorID
	donor.Balance -= rq.PointsRequested
	donor.UpdatedAt = now
	r.s.points[donorID] = donor

	requester := r.s.points[rq.RequesterID]
	if requester.UserID == "" {
		requester.UserID = rq.RequesterID
		requester.CreatedAt = now
	}
	requester.Balance += rq.PointsRequested
	requester.UpdatedAt = now
	r.s.points[rq.RequesterID] = requester

	rq.Status = models.RequestAccepted
	rq.DonorID = &donorID
	rq.UpdatedAt = now
	r.s.requests[id] = rq
	return r.withRefs(rq), nil
}

// ---------------- points ----------------

type pointsRepo struct{ s *Store }

func (r *pointsRepo) GetOrCreate(_ context.Context, userID string) (models.PointsBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if b, found := r.s.points[userID]; found {
		return b, nil
	}
	now := time.Now()
	b := models.PointsBalance{UserID: userID, Balance: 0, CreatedAt: now, UpdatedAt: now}
	r.s.points[userID] = b
	return b, nil
}

func (r *pointsRepo) Get(_ context.Context, userID string) (models.PointsBalance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, found := r.s.points[userID]
	if !found {
		return models.PointsBalance{}, repo.ErrNotFound
	}
	return b, nil
}

func (r *pointsRepo) Set(_ context.Context, userID string, balance int64) (models.PointsBalance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	b, found := r.s.points[userID]
	if !found {
		b = models.PointsBalance{UserID: userID, CreatedAt: now}
	}
	b.Balance = balance
	b.UpdatedAt = now
	r.s.points[userID] = b
	return b, nil
}

// ---------------- notifications ----------------

type notificationsRepo struct{ s *Store }

func (r *notificationsRepo) Create(_ context.Context, n models.Notification) (models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	r.s.notifications[n.ID] = n
	r.s.nextSequence(n.ID)
	return n, nil
}

func (r *notificationsRepo) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Notification{}
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return r.s.seq[out[i].ID] > r.s.seq[out[j].ID]
	})
	return out, nil
}

func (r *notificationsRepo) MarkRead(_ context.Context, id, userID string, read bool) (models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, found := r.s.notifications[id]
	if !found || n.UserID != userID {
		return models.Notification{}, repo.ErrNotFound
	}
	n.Read = read
	n.UpdatedAt = time.Now()
	r.s.notifications[id] = n
	return n, nil
}
