package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/campusshop/internal/auth"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
)

// SampleProducts is the built-in catalog used to seed an empty store.
func SampleProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          1,
			Name:        "Laptop Gaming ASUS ROG",
			Description: "Laptop chơi game hiệu năng cao, RTX 4060, i7 13th Gen.",
			Price:       25000000,
			Category:    "Laptop",
			Image:       "https://picsum.photos/id/1/600/600",
			Stock:       10,
			Rating:      4.8,
		},
		{
			ID:          2,
			Name:        "MacBook Air M2",
			Description: "Siêu mỏng nhẹ, pin trâu, phù hợp sinh viên kinh tế.",
			Price:       28000000,
			Category:    "Laptop",
			Image:       "https://picsum.photos/id/119/600/600",
			Stock:       5,
			Rating:      4.9,
		},
		{
			ID:          3,
			Name:        "Tai nghe Sony WH-1000XM5",
			Description: "Chống ồn chủ động đỉnh cao, âm thanh chi tiết.",
			Price:       8500000,
			Category:    "Audio",
			Image:       "https://picsum.photos/id/145/600/600",
			Stock:       20,
			Rating:      4.7,
		},
		{
			ID:          4,
			Name:        "Bàn phím cơ Keychron K2",
			Description: "Gõ sướng tay, led RGB, kết nối 3 thiết bị.",
			Price:       1800000,
			Category:    "Accessories",
			Image:       "https://picsum.photos/id/366/600/600",
			Stock:       15,
			Rating:      4.6,
		},
		{
			ID:          5,
			Name:        "Chuột Logitech MX Master 3S",
			Description: "Chuột công thái học tốt nhất cho công việc.",
			Price:       2200000,
			Category:    "Accessories",
			Image:       "https://picsum.photos/id/250/600/600",
			Stock:       30,
			Rating:      4.9,
		},
		{
			ID:          6,
			Name:        "Màn hình Dell UltraSharp 27",
			Description: "Màu sắc chuẩn đồ họa, 4K, USB-C.",
			Price:       12000000,
			Category:    "Monitor",
			Image:       "https://picsum.photos/id/48/600/600",
			Stock:       8,
			Rating:      4.8,
		},
		{
			ID:          7,
			Name:        "Ba lô chống sốc",
			Description: "Chống nước, nhiều ngăn, bảo vệ laptop.",
			Price:       450000,
			Category:    "Accessories",
			Image:       "https://picsum.photos/id/103/600/600",
			Stock:       100,
			Rating:      4.5,
		},
		{
			ID:          8,
			Name:        "iPad Air 5 M1",
			Description: "Học tập, giải trí, vẽ vời cực đỉnh.",
			Price:       14500000,
			Category:    "Tablet",
			Image:       "https://picsum.photos/id/6/600/600",
			Stock:       12,
			Rating:      4.8,
		},
	}
}

// SeedCatalog writes the sample catalog when the product store is empty.
func SeedCatalog(ctx context.Context, products repository.ProductRepository, logger *slog.Logger) error {
	seeded, err := products.Seed(ctx, SampleProducts())
	if err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	if seeded {
		logger.Info("bootstrap: sample catalog seeded", "products", len(SampleProducts()))
	}
	return nil
}

// Demo accounts for the in-memory store. Passwords are for local use only.
const (
	DemoAdminEmail    = "admin@shop.com"
	DemoAdminPassword = "admin123"
	DemoUserEmail     = "user@shop.com"
	DemoUserPassword  = "user123"
	demoUserID        = "demo-user"
)

// SeedDemo fills an in-memory store with two accounts and a short order
// history so the storefront is usable without a database.
func SeedDemo(ctx context.Context, users repository.UserRepository, orders repository.OrderRepository, logger *slog.Logger) error {
	accounts := []struct {
		id, name, email, password string
		role                      domain.Role
	}{
		{"demo-admin", "Nguyễn Văn Admin", DemoAdminEmail, DemoAdminPassword, domain.RoleAdmin},
		{demoUserID, "Trần Sinh Viên", DemoUserEmail, DemoUserPassword, domain.RoleUser},
	}

	created := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	for _, a := range accounts {
		hash, err := auth.HashPassword(a.password)
		if err != nil {
			return fmt.Errorf("failed to hash demo password: %w", err)
		}
		err = users.Create(ctx, &domain.User{
			ID:           a.id,
			Name:         a.name,
			Email:        a.email,
			Role:         a.role,
			Avatar:       "https://i.pravatar.cc/150?u=" + a.id,
			PasswordHash: hash,
			CreatedAt:    created,
		})
		if err != nil && !errors.Is(err, domain.ErrEmailTaken) {
			return fmt.Errorf("failed to create demo user: %w", err)
		}
	}

	for _, o := range demoOrders() {
		if err := orders.Create(ctx, o); err != nil {
			return fmt.Errorf("failed to create demo order: %w", err)
		}
	}

	logger.Info("bootstrap: demo data loaded",
		"admin", DemoAdminEmail,
		"user", DemoUserEmail,
	)
	return nil
}

func demoOrders() []domain.Order {
	products := SampleProducts()
	line := func(i, qty int) domain.CartLine {
		return domain.CartLine{Product: products[i], Quantity: qty}
	}
	order := func(id string, status domain.OrderStatus, date time.Time, lines ...domain.CartLine) domain.Order {
		count, total := domain.SumLines(lines)
		return domain.Order{
			ID:              id,
			UserID:          demoUserID,
			CustomerName:    "Trần Sinh Viên",
			TotalAmount:     total,
			Status:          status,
			Date:            date,
			ItemsCount:      count,
			Items:           lines,
			PaymentMethod:   domain.PaymentCOD.DisplayName(),
			TrackingNumber:  "VN" + id[4:] + "DEMO000",
			ShippingAddress: "Ký túc xá khu A, TP. Thủ Đức",
		}
	}
	day := func(m time.Month, d int) time.Time { return time.Date(2023, m, d, 9, 0, 0, 0, time.UTC) }

	return []domain.Order{
		order("ORD-001", domain.OrderStatusCompleted, day(10, 1), line(0, 1), line(4, 1)),
		order("ORD-002", domain.OrderStatusShipping, day(10, 5), line(6, 1)),
		order("ORD-005", domain.OrderStatusPending, day(10, 7), line(4, 1)),
	}
}
