package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"shoply/internal/domain"

	"github.com/google/uuid"
)

func insertTestUser(t *testing.T) *domain.User {
	t.Helper()

	repo := NewUserRepository(testDB)
	user := &domain.User{
		ID:           uuid.New(),
		Email:        uuid.New().String() + "@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash",
		FirstName:    "Test",
		LastName:     "Buyer",
		Role:         "user",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	t.Cleanup(func() {
		_, _ = testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)
	})
	return user
}

func insertTestOrder(t *testing.T, userID uuid.UUID, status domain.OrderStatus) *domain.Order {
	t.Helper()

	repo := NewOrderRepository(testDB)
	order := &domain.Order{
		ID:     uuid.New(),
		UserID: userID,
		Items: []domain.OrderItem{
			{ProductID: uuid.New(), Name: "espresso machine", Image: "https://example.com/em.jpg", Price: 150, Quantity: 2},
			{ProductID: uuid.New(), Name: "grinder", Price: 40, Quantity: 1},
		},
		ShippingAddress: domain.ShippingAddress{
			FullName:   "Test Buyer",
			Address:    "42 Elm Street",
			Phone:      "0123456789",
			City:       "Springfield",
			PostalCode: "12345",
		},
		PaymentMethod: "cod",
		TotalPrice:    340,
		Status:        status,
		OrderDate:     time.Now(),
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("failed to insert order: %v", err)
	}
	return order
}

func TestOrderCreate_RoundTrip(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := insertTestUser(t)
	order := insertTestOrder(t, user.ID, domain.OrderStatusPending)

	retrieved, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}

	if retrieved.UserID != user.ID {
		t.Errorf("user mismatch: %s", retrieved.UserID)
	}
	if retrieved.TotalPrice != 340 {
		t.Errorf("expected total 340, got %.2f", retrieved.TotalPrice)
	}
	if retrieved.Status != domain.OrderStatusPending {
		t.Errorf("expected pending, got %s", retrieved.Status)
	}
	if retrieved.ShippingAddress != order.ShippingAddress {
		t.Errorf("shipping address mismatch: %+v", retrieved.ShippingAddress)
	}
	if retrieved.PaymentMethod != "cod" {
		t.Errorf("payment method mismatch: %q", retrieved.PaymentMethod)
	}
	if len(retrieved.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(retrieved.Items))
	}
	if retrieved.Items[0].Name != "espresso machine" || retrieved.Items[0].Quantity != 2 {
		t.Errorf("item snapshot mismatch: %+v", retrieved.Items[0])
	}
	if retrieved.PaidAt != nil || retrieved.DeliveredAt != nil {
		t.Error("fresh order already carries status timestamps")
	}
}

func TestOrderCreate_OptionalFieldsEmpty(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := insertTestUser(t)

	order := &domain.Order{
		ID:     uuid.New(),
		UserID: user.ID,
		Items: []domain.OrderItem{
			{ProductID: uuid.New(), Name: "kettle", Price: 30, Quantity: 1},
		},
		ShippingAddress: domain.ShippingAddress{
			FullName: "Test Buyer",
			Address:  "42 Elm Street",
			Phone:    "0123456789",
		},
		TotalPrice: 30,
		Status:     domain.OrderStatusPending,
		OrderDate:  time.Now(),
	}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	retrieved, err := repo.FindByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if retrieved.ShippingAddress.City != "" || retrieved.ShippingAddress.PostalCode != "" || retrieved.PaymentMethod != "" {
		t.Errorf("optional fields not empty: %+v %q", retrieved.ShippingAddress, retrieved.PaymentMethod)
	}
}

func TestOrderFindByID_NotFound(t *testing.T) {
	repo := NewOrderRepository(testDB)

	_, err := repo.FindByID(context.Background(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderListByUser_NewestFirst(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := insertTestUser(t)

	first := insertTestOrder(t, user.ID, domain.OrderStatusPending)
	_, _ = testDB.Exec("UPDATE orders SET order_date = order_date - interval '1 hour' WHERE id = $1", first.ID)
	second := insertTestOrder(t, user.ID, domain.OrderStatusPending)

	// Another user's orders must not leak in.
	other := insertTestUser(t)
	insertTestOrder(t, other.ID, domain.OrderStatusPending)

	orders, err := repo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != second.ID || orders[1].ID != first.ID {
		t.Error("orders not sorted newest first")
	}
	if len(orders[0].Items) == 0 {
		t.Error("listed orders missing items")
	}
}

func TestOrderUpdateStatus_StampsTimestamps(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := insertTestUser(t)
	order := insertTestOrder(t, user.ID, domain.OrderStatusPending)

	paid, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid)
	if err != nil {
		t.Fatalf("UpdateStatus to paid failed: %v", err)
	}
	if paid.Status != domain.OrderStatusPaid || paid.PaidAt == nil {
		t.Errorf("paid transition not stamped: status %s paidAt %v", paid.Status, paid.PaidAt)
	}
	if paid.DeliveredAt != nil {
		t.Error("deliveredAt stamped on paid transition")
	}

	delivered, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusDelivered)
	if err != nil {
		t.Fatalf("UpdateStatus to delivered failed: %v", err)
	}
	if delivered.DeliveredAt == nil {
		t.Error("deliveredAt not stamped")
	}
	if delivered.PaidAt == nil {
		t.Error("paidAt lost on later transition")
	}
}

func TestOrderUpdateStatus_NotFound(t *testing.T) {
	repo := NewOrderRepository(testDB)

	_, err := repo.UpdateStatus(context.Background(), uuid.New(), domain.OrderStatusShipping)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderMarkCancelled_PendingOnly(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()
	user := insertTestUser(t)

	pending := insertTestOrder(t, user.ID, domain.OrderStatusPending)
	if err := repo.MarkCancelled(ctx, pending.ID); err != nil {
		t.Fatalf("MarkCancelled failed: %v", err)
	}
	retrieved, _ := repo.FindByID(ctx, pending.ID)
	if retrieved.Status != domain.OrderStatusCancelled {
		t.Errorf("expected cancelled, got %s", retrieved.Status)
	}

	// Cancelling twice, or cancelling a shipped order, hits the status guard.
	if err := repo.MarkCancelled(ctx, pending.ID); !errors.Is(err, ErrOrderNotPending) {
		t.Errorf("expected ErrOrderNotPending on double cancel, got %v", err)
	}

	shipping := insertTestOrder(t, user.ID, domain.OrderStatusShipping)
	if err := repo.MarkCancelled(ctx, shipping.ID); !errors.Is(err, ErrOrderNotPending) {
		t.Errorf("expected ErrOrderNotPending for shipping order, got %v", err)
	}
	after, _ := repo.FindByID(ctx, shipping.ID)
	if after.Status != domain.OrderStatusShipping {
		t.Errorf("guarded order mutated to %s", after.Status)
	}
}
