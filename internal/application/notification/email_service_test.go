package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/tests/testutil"
)

var testNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repo     *testutil.MockEmailRepository
	renderer *testutil.MockRenderer
	sender   *testutil.MockSender
	svc      *EmailService
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(testutil.MockEmailRepository),
		renderer: new(testutil.MockRenderer),
		sender:   new(testutil.MockSender),
	}
	f.svc = NewEmailService(f.repo, f.renderer, f.sender, Config{
		Policy:    notification.RetryPolicy{Base: 30 * time.Second, Cap: time.Hour, MaxAttempts: 3},
		BatchSize: 20,
	}, nil)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func newMessage(t *testing.T) *notification.Message {
	t.Helper()
	msg, err := notification.NewMessage("ada@example.com", "Hello", notification.TemplateOrderConfirmation,
		notification.Rendered{HTML: "<p>hi</p>", Text: "hi"}, nil, 3)
	require.NoError(t, err)
	msg.NextAttemptAt = testNow.Add(-time.Second)
	return msg
}

func TestEmailService_Enqueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	orderID := uuid.New()
	f.renderer.On("Render", notification.TemplateOrderShipped, "data").Return(notification.Rendered{
		Subject: "Your order shipped", HTML: "<p>shipped</p>", Text: "shipped",
	}, nil)

	var saved *notification.Message
	f.repo.On("Save", ctx, mock.MatchedBy(func(m *notification.Message) bool {
		saved = m
		return true
	})).Return(nil)

	resp, err := f.svc.Enqueue(ctx, notification.TemplateOrderShipped, " Ada@Example.com ", "data", &orderID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", resp.To)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, 3, resp.MaxAttempts)
	assert.Equal(t, testNow, resp.NextAttemptAt)
	require.NotNil(t, saved)
	assert.Equal(t, "<p>shipped</p>", saved.HTMLBody)
	assert.Equal(t, &orderID, saved.OrderID)
}

func TestEmailService_Enqueue_RenderError(t *testing.T) {
	f := newFixture()
	f.renderer.On("Render", "nope", nil).Return(notification.Rendered{}, shared.ErrNotFound)

	_, err := f.svc.Enqueue(context.Background(), "nope", "ada@example.com", nil, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	f.repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestEmailService_DispatchDue(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	ok := newMessage(t)
	flaky := newMessage(t)
	rejected := newMessage(t)
	due := []notification.Message{*ok, *flaky, *rejected}

	f.repo.On("FindDue", mock.Anything, testNow, 20).Return(due, nil)
	f.sender.On("Send", mock.Anything, mock.MatchedBy(func(m *notification.Message) bool { return m.ID == ok.ID })).Return(nil)
	f.sender.On("Send", mock.Anything, mock.MatchedBy(func(m *notification.Message) bool { return m.ID == flaky.ID })).
		Return(errors.New("email provider returned HTTP 503"))
	f.sender.On("Send", mock.Anything, mock.MatchedBy(func(m *notification.Message) bool { return m.ID == rejected.ID })).
		Return(&notification.PermanentError{StatusCode: 422, Err: errors.New("invalid recipient")})
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.DispatchDue(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, &DispatchResult{Checked: 3, Sent: 1, Failed: 1, Dead: 1}, res)

	assert.Equal(t, notification.StatusSent, due[0].Status)
	require.NotNil(t, due[0].SentAt)

	assert.Equal(t, notification.StatusFailed, due[1].Status)
	assert.Equal(t, 1, due[1].Attempts)
	assert.Equal(t, testNow.Add(30*time.Second), due[1].NextAttemptAt)

	assert.Equal(t, notification.StatusDead, due[2].Status)
	assert.Equal(t, "invalid recipient", due[2].LastError)
	f.repo.AssertNumberOfCalls(t, "Save", 3)
}

func TestEmailService_DispatchDue_BackoffGrowsUntilDead(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	msg := newMessage(t)
	msg.Attempts = 1
	msg.Status = notification.StatusFailed
	due := []notification.Message{*msg}

	f.repo.On("FindDue", mock.Anything, testNow, 20).Return(due, nil)
	f.sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("timeout"))
	f.repo.On("Save", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.DispatchDue(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, due[0].Attempts)
	assert.Equal(t, testNow.Add(time.Minute), due[0].NextAttemptAt)

	due[0].NextAttemptAt = testNow
	_, err = f.svc.DispatchDue(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, notification.StatusDead, due[0].Status)
}

func TestEmailService_DispatchDue_SaveError(t *testing.T) {
	f := newFixture()
	f.repo.On("FindDue", mock.Anything, testNow, 5).Return([]notification.Message{*newMessage(t)}, nil)
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil)
	f.repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.svc.DispatchDue(context.Background(), 5)
	assert.ErrorContains(t, err, "db down")
}

func TestEmailService_Retry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	msg := newMessage(t)
	msg.MarkFailed(&notification.PermanentError{StatusCode: 400, Err: errors.New("bad")}, testNow, notification.DefaultRetryPolicy())
	f.repo.On("FindByID", ctx, msg.ID).Return(msg, nil)
	f.repo.On("Save", ctx, msg).Return(nil)

	resp, err := f.svc.Retry(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Zero(t, resp.Attempts)

	_, err = f.svc.Retry(ctx, msg.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestEmailService_List_InvalidStatus(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.List(context.Background(), EmailListFilter{Status: "bounced"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestOrderEmailHandler(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	orders := new(testutil.MockOrderRepository)
	h := NewOrderEmailHandler(f.svc, orders, "Acme Goods", nil)

	o, err := order.NewOrder("ada@example.com", nil, shared.Address{
		Name: "Ada", Line1: "1 Main St", City: "London", PostalCode: "N1", Country: "GB",
	}, "USD")
	require.NoError(t, err)
	require.NoError(t, o.AddItem(uuid.New(), "TOTE", "Canvas Tote", decimal.NewFromInt(10), 1))
	evt := order.NewEvent(order.EventTypeShipped, o)
	evt.TrackingNumber = "1Z999"

	orders.On("FindByID", ctx, o.ID).Return(o, nil)
	f.renderer.On("Render", notification.TemplateOrderShipped, mock.MatchedBy(func(d notification.OrderEmailData) bool {
		return d.StoreName == "Acme Goods" && d.TrackingNumber == "1Z999" && d.Order == o
	})).Return(notification.Rendered{Subject: "Shipped", Text: "on its way"}, nil)
	f.repo.On("Save", ctx, mock.Anything).Return(nil)

	require.NoError(t, h.Handle(ctx, evt))
	f.renderer.AssertExpectations(t)
	f.repo.AssertNumberOfCalls(t, "Save", 1)

	assert.NoError(t, h.Handle(ctx, order.NewEvent(order.EventTypePlaced, o)))
	f.repo.AssertNumberOfCalls(t, "Save", 1)
	assert.Contains(t, h.EventTypes(), order.EventTypeRefunded)
}
