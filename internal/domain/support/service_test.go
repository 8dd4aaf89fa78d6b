package support

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"wcu-registry/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	tickets  map[string]Ticket
	messages []Message
}

func newTestRepo() *testRepo { return &testRepo{tickets: map[string]Ticket{}} }

func (r *testRepo) CreateTicket(ctx context.Context, t Ticket) error {
	r.tickets[t.ID] = t
	return nil
}

func (r *testRepo) UpdateTicket(ctx context.Context, t Ticket) error {
	if _, ok := r.tickets[t.ID]; !ok {
		return ErrNotFound
	}
	r.tickets[t.ID] = t
	return nil
}

func (r *testRepo) GetTicket(ctx context.Context, id string) (Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return t, nil
}

func (r *testRepo) GetByReference(ctx context.Context, ref string) (Ticket, error) {
	for _, t := range r.tickets {
		if t.Reference == ref {
			return t, nil
		}
	}
	return Ticket{}, ErrNotFound
}

func (r *testRepo) ListTickets(ctx context.Context, f ListFilter) ([]Ticket, int, error) {
	var out []Ticket
	for _, t := range r.tickets {
		if f.Status == "" || t.Status == f.Status {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, len(out), nil
}

func (r *testRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	out := map[Status]int{}
	for _, t := range r.tickets {
		out[t.Status]++
	}
	return out, nil
}

func (r *testRepo) AddMessage(ctx context.Context, m Message) error {
	r.messages = append(r.messages, m)
	return nil
}

func (r *testRepo) ListMessages(ctx context.Context, ticketID string) ([]Message, error) {
	var out []Message
	for _, m := range r.messages {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	opened  []notify.TicketMail
	replies []notify.TicketMail
	failing bool
}

func (f *fakeNotifier) TicketOpened(ctx context.Context, t notify.TicketMail) error {
	f.opened = append(f.opened, t)
	return nil
}

func (f *fakeNotifier) TicketReply(ctx context.Context, t notify.TicketMail) error {
	if f.failing {
		return errors.New("sendgrid: 500")
	}
	f.replies = append(f.replies, t)
	return nil
}

func newTestService() (*Service, *testRepo, *fakeNotifier) {
	repo := newTestRepo()
	n := &fakeNotifier{}
	svc := NewService(repo, n, nil, nil)
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return svc, repo, n
}

func openSample(t *testing.T, svc *Service) Ticket {
	t.Helper()
	tk, err := svc.Open(context.Background(), OpenInput{
		Name:    "Ana",
		Email:   "Ana@Example.com",
		Subject: "Certificate typo",
		Body:    "My dog's name is misspelled.",
	})
	require.NoError(t, err)
	return tk
}

func TestOpen(t *testing.T) {
	svc, repo, n := newTestService()
	tk := openSample(t, svc)

	assert.Regexp(t, `^T-[0-9A-F]{8}$`, tk.Reference)
	assert.Equal(t, StatusOpen, tk.Status)
	assert.Equal(t, "ana@example.com", tk.Email)

	require.Len(t, repo.messages, 1)
	assert.Equal(t, DirectionInbound, repo.messages[0].Direction)

	require.Len(t, n.opened, 1)
	assert.Equal(t, "["+tk.Reference+"] Certificate typo", n.opened[0].Subject)
	assert.Equal(t, "ana@example.com", n.opened[0].To)
}

func TestOpen_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	cases := []OpenInput{
		{Email: "not-an-email", Subject: "x", Body: "y"},
		{Email: "a@example.com", Subject: " ", Body: "y"},
		{Email: "a@example.com", Subject: "x", Body: ""},
		{Email: "Ana <a@example.com>", Subject: "x", Body: "y"},
	}
	for _, in := range cases {
		_, err := svc.Open(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
	}
}

func TestReply(t *testing.T) {
	svc, repo, n := newTestService()
	tk := openSample(t, svc)

	m, err := svc.Reply(context.Background(), tk.ID, "admin-1", "Fixed, thanks!")
	require.NoError(t, err)
	assert.Equal(t, DirectionOutbound, m.Direction)

	require.Len(t, n.replies, 1)
	assert.Equal(t, "["+tk.Reference+"] Re: Certificate typo", n.replies[0].Subject)
	assert.Equal(t, StatusAnswered, repo.tickets[tk.ID].Status)

	_, err = svc.Reply(context.Background(), "missing", "admin-1", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReply_DeliveryFailureStoresNothing(t *testing.T) {
	svc, repo, n := newTestService()
	tk := openSample(t, svc)
	n.failing = true

	_, err := svc.Reply(context.Background(), tk.ID, "admin-1", "hello")
	assert.ErrorIs(t, err, ErrDelivery)
	assert.Len(t, repo.messages, 1)
	assert.Equal(t, StatusOpen, repo.tickets[tk.ID].Status)
}

func TestReceiveInbound_ThreadsByReference(t *testing.T) {
	svc, repo, _ := newTestService()
	tk := openSample(t, svc)
	_, err := svc.SetStatus(context.Background(), tk.ID, StatusClosed)
	require.NoError(t, err)

	got, err := svc.ReceiveInbound(context.Background(), InboundEmail{
		From:    "Ana <ana@example.com>",
		Subject: "Re: [" + tk.Reference + "] Re: Certificate typo",
		Text:    "One more thing.\n\nOn Mon, Jun 2, 2025 WCU wrote:\n> Fixed, thanks!",
	})
	require.NoError(t, err)
	assert.Equal(t, tk.ID, got.ID)
	assert.Equal(t, StatusOpen, got.Status)

	_, msgs, err := svc.Get(context.Background(), tk.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "One more thing.", msgs[1].Body)
	assert.Len(t, repo.tickets, 1)
}

func TestReceiveInbound_NewTicket(t *testing.T) {
	svc, repo, n := newTestService()

	got, err := svc.ReceiveInbound(context.Background(), InboundEmail{
		From:    "bo@example.com",
		Subject: "[T-DEADBEEF] lost reference",
		Text:    "Hello",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "T-DEADBEEF", got.Reference)
	assert.Equal(t, "bo@example.com", got.Email)
	assert.Len(t, repo.tickets, 1)
	assert.Len(t, n.opened, 1)

	_, err = svc.ReceiveInbound(context.Background(), InboundEmail{From: "bo@example.com", Subject: "x", Text: "> only quoted"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReceiveInbound_TruncatesOnRuneBoundary(t *testing.T) {
	svc, repo, _ := newTestService()

	got, err := svc.ReceiveInbound(context.Background(), InboundEmail{
		From:    "bo@example.com",
		Subject: strings.Repeat("s", maxSubjectLen-1) + "é",
		Text:    strings.Repeat("a", maxBodyLen-1) + "ñ más",
	})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(got.Subject))
	assert.Equal(t, strings.Repeat("s", maxSubjectLen-1), got.Subject)

	require.Len(t, repo.messages, 1)
	body := repo.messages[0].Body
	assert.True(t, utf8.ValidString(body))
	assert.Equal(t, maxBodyLen-1, len(body))
}

func TestListAndCounts(t *testing.T) {
	svc, _, _ := newTestService()
	a := openSample(t, svc)
	openSample(t, svc)
	_, err := svc.Reply(context.Background(), a.ID, "admin-1", "done")
	require.NoError(t, err)

	open, total, err := svc.List(context.Background(), ListFilter{Status: StatusOpen})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, open, 1)

	counts, err := svc.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[StatusOpen])
	assert.Equal(t, 1, counts[StatusAnswered])

	_, err = svc.SetStatus(context.Background(), a.ID, "archived")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseReference(t *testing.T) {
	ref, ok := ParseReference("RE: [t-0a1b2c3d] Re: hi")
	assert.True(t, ok)
	assert.Equal(t, "T-0A1B2C3D", ref)

	_, ok = ParseReference("no reference here")
	assert.False(t, ok)
}

func TestReplySubject(t *testing.T) {
	tk := Ticket{Reference: "T-0A1B2C3D", Subject: "Re: re: Lost certificate"}
	assert.Equal(t, "[T-0A1B2C3D] Re: Lost certificate", ReplySubject(tk))
}
