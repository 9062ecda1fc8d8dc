package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = fmt.Sprintf("u-%d", len(r.users)+1)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Role = role
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		for _, role := range roles {
			if user.Role == role {
				result = append(result, *user)
				break
			}
		}
	}
	return result, nil
}

func (r *fakeUserRepo) ListWithTicketCounts(ctx context.Context) ([]repository.UserWithTicketCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []repository.UserWithTicketCount
	for _, user := range r.users {
		result = append(result, repository.UserWithTicketCount{User: *user})
	}
	return result, nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	similar []domain.Ticket
	seq     int
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	repo := &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
	for _, ticket := range tickets {
		repo.tickets[ticket.ID] = ticket
	}
	return repo
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	ticket.ID = fmt.Sprintf("t-%d", r.seq)
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatorID != nil && ticket.CreatorID != *filter.CreatorID {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) FindSimilarByTitle(ctx context.Context, title string, limit int) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.similar) > limit {
		return r.similar[:limit], nil
	}
	return r.similar, nil
}

func (r *fakeTicketRepo) CountByCategory(ctx context.Context) ([]repository.CategoryCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[domain.TicketCategory]int)
	for _, ticket := range r.tickets {
		counts[ticket.Category]++
	}
	var result []repository.CategoryCount
	for category, count := range counts {
		result = append(result, repository.CategoryCount{Category: category, Count: count})
	}
	return result, nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []domain.Comment
	seq      int
}

func (r *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = fmt.Sprintf("c-%d", r.seq)
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Comment
	for _, comment := range r.comments {
		if comment.TicketID == ticketID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []domain.ActivityLogEntry
	failErr error
}

func (r *fakeActivityRepo) Create(ctx context.Context, entry *domain.ActivityLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	entry.ID = fmt.Sprintf("a-%d", len(r.entries)+1)
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeActivityRepo) ListByTicket(ctx context.Context, ticketID string, limit, offset int) ([]domain.ActivityLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ActivityLogEntry
	for _, entry := range r.entries {
		if entry.TicketID != nil && *entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeActivityRepo) snapshot() []domain.ActivityLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ActivityLogEntry{}, r.entries...)
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
	seq      int
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	message.ID = fmt.Sprintf("m-%d", r.seq)
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) ListConversation(ctx context.Context, userA, userB string, limit, offset int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Message
	for _, message := range r.messages {
		pair := message.SenderID == userA && message.RecipientID == userB ||
			message.SenderID == userB && message.RecipientID == userA
		if pair {
			result = append(result, message)
		}
	}
	return result, nil
}

type sentEmail struct {
	Kind  notify.EmailKind
	Email notify.TicketEmail
}

type fakeEmailSender struct {
	mu      sync.Mutex
	sent    []sentEmail
	failErr error
}

func (s *fakeEmailSender) SendTicketEmail(kind notify.EmailKind, email notify.TicketEmail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.sent = append(s.sent, sentEmail{Kind: kind, Email: email})
	return nil
}

func (s *fakeEmailSender) snapshot() []sentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentEmail{}, s.sent...)
}

func (s *fakeEmailSender) recipients() []string {
	var result []string
	for _, item := range s.snapshot() {
		result = append(result, item.Email.RecipientEmail)
	}
	return result
}

type publishedUpdate struct {
	Channel string
	Event   string
	Payload notify.RealtimeUpdate
}

type fakeRealtimePublisher struct {
	mu        sync.Mutex
	published []publishedUpdate
}

func (p *fakeRealtimePublisher) Publish(ctx context.Context, channel, event string, payload notify.RealtimeUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, publishedUpdate{Channel: channel, Event: event, Payload: payload})
	return nil
}

func (p *fakeRealtimePublisher) snapshot() []publishedUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedUpdate{}, p.published...)
}

type fakeReceiptRecorder struct {
	mu      sync.Mutex
	calls   []string
	txHash  string
	failErr error
}

func (r *fakeReceiptRecorder) RecordStatusChange(ctx context.Context, ticketID string, status domain.TicketStatus) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return "", r.failErr
	}
	r.calls = append(r.calls, ticketID+":"+string(status))
	if r.txHash == "" {
		return "0xdeadbeef", nil
	}
	return r.txHash, nil
}

func (r *fakeReceiptRecorder) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func strPtr(s string) *string { return &s }

func containsAll(haystack []string, needles ...string) bool {
	for _, needle := range needles {
		found := false
		for _, item := range haystack {
			if strings.Contains(item, needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
