package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/jinsharnam/internal/models"
)

type mockSMS struct {
	mock.Mock
}

func (m *mockSMS) SendOTP(ctx context.Context, phone, code string) error {
	args := m.Called(ctx, phone, code)
	return args.Error(0)
}

// expectSend records every code sent to phone into codes.
func (m *mockSMS) expectSend(phone string, codes *[]string, err error) *mock.Call {
	return m.On("SendOTP", mock.Anything, phone, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			*codes = append(*codes, args.String(2))
		}).
		Return(err)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Provider() string { return "mock" }

func (m *mockGateway) CreateOrder(ctx context.Context, req GatewayOrderRequest) (*GatewayOrder, error) {
	args := m.Called(ctx, req)
	order, _ := args.Get(0).(*GatewayOrder)
	return order, args.Error(1)
}

func (m *mockGateway) FetchPayment(ctx context.Context, id string) (*GatewayPayment, error) {
	args := m.Called(ctx, id)
	payment, _ := args.Get(0).(*GatewayPayment)
	return payment, args.Error(1)
}

type orderEvent struct {
	kind  string
	order *models.Order
	from  models.OrderStatus
}

type recordingNotifier struct {
	events chan orderEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan orderEvent, 8)}
}

func (n *recordingNotifier) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	n.events <- orderEvent{kind: "created", order: order}
	return nil
}

func (n *recordingNotifier) NotifyStatusChange(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	n.events <- orderEvent{kind: "status", order: order, from: from}
	return nil
}
