package firestore

import (
	"time"

	"github.com/dukerupert/campusshop/internal/domain"
)

type productDocument struct {
	ID          int64   `firestore:"id"`
	Name        string  `firestore:"name"`
	Description string  `firestore:"description"`
	Price       int64   `firestore:"price"`
	Category    string  `firestore:"category"`
	Image       string  `firestore:"image"`
	Stock       int64   `firestore:"stock"`
	Rating      float64 `firestore:"rating"`
}

func newProductDocument(p domain.Product) productDocument {
	return productDocument{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Image:       p.Image,
		Stock:       int64(p.Stock),
		Rating:      p.Rating,
	}
}

func (d productDocument) toDomain() domain.Product {
	return domain.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Image:       d.Image,
		Stock:       int(d.Stock),
		Rating:      d.Rating,
	}
}

// lineDocument keeps the product fields flat next to the quantity.
type lineDocument struct {
	ID          int64   `firestore:"id"`
	Name        string  `firestore:"name"`
	Description string  `firestore:"description"`
	Price       int64   `firestore:"price"`
	Category    string  `firestore:"category"`
	Image       string  `firestore:"image"`
	Stock       int64   `firestore:"stock"`
	Rating      float64 `firestore:"rating"`
	Quantity    int64   `firestore:"quantity"`
}

type orderDocument struct {
	ID              string         `firestore:"id"`
	UserID          string         `firestore:"userId"`
	CustomerName    string         `firestore:"customerName"`
	TotalAmount     int64          `firestore:"totalAmount"`
	Status          string         `firestore:"status"`
	Date            time.Time      `firestore:"date"`
	ItemsCount      int64          `firestore:"itemsCount"`
	Items           []lineDocument `firestore:"items"`
	PaymentMethod   string         `firestore:"paymentMethod"`
	TrackingNumber  string         `firestore:"trackingNumber"`
	ShippingAddress string         `firestore:"shippingAddress"`
}

func newOrderDocument(o domain.Order) orderDocument {
	items := make([]lineDocument, len(o.Items))
	for i, l := range o.Items {
		items[i] = lineDocument{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			Price:       l.Price,
			Category:    l.Category,
			Image:       l.Image,
			Stock:       int64(l.Stock),
			Rating:      l.Rating,
			Quantity:    int64(l.Quantity),
		}
	}
	return orderDocument{
		ID:              o.ID,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		Date:            o.Date.UTC(),
		ItemsCount:      int64(o.ItemsCount),
		Items:           items,
		PaymentMethod:   o.PaymentMethod,
		TrackingNumber:  o.TrackingNumber,
		ShippingAddress: o.ShippingAddress,
	}
}

func (d orderDocument) toDomain() domain.Order {
	items := make([]domain.CartLine, len(d.Items))
	for i, l := range d.Items {
		items[i] = domain.CartLine{
			Product: domain.Product{
				ID:          l.ID,
				Name:        l.Name,
				Description: l.Description,
				Price:       l.Price,
				Category:    l.Category,
				Image:       l.Image,
				Stock:       int(l.Stock),
				Rating:      l.Rating,
			},
			Quantity: int(l.Quantity),
		}
	}
	return domain.Order{
		ID:              d.ID,
		UserID:          d.UserID,
		CustomerName:    d.CustomerName,
		TotalAmount:     d.TotalAmount,
		Status:          domain.OrderStatus(d.Status),
		Date:            d.Date,
		ItemsCount:      int(d.ItemsCount),
		Items:           items,
		PaymentMethod:   d.PaymentMethod,
		TrackingNumber:  d.TrackingNumber,
		ShippingAddress: d.ShippingAddress,
	}
}

type addressDocument struct {
	ID        string `firestore:"id"`
	FullName  string `firestore:"fullName"`
	Phone     string `firestore:"phone"`
	Address   string `firestore:"address"`
	City      string `firestore:"city"`
	IsDefault bool   `firestore:"isDefault"`
}

type userDocument struct {
	ID             string            `firestore:"id"`
	Name           string            `firestore:"name"`
	Email          string            `firestore:"email"`
	EmailKey       string            `firestore:"emailKey"`
	Role           string            `firestore:"role"`
	Avatar         string            `firestore:"avatar,omitempty"`
	SavedAddresses []addressDocument `firestore:"savedAddresses"`
	PasswordHash   string            `firestore:"passwordHash,omitempty"`
	CreatedAt      time.Time         `firestore:"createdAt"`
}

func newUserDocument(u *domain.User) userDocument {
	addrs := make([]addressDocument, len(u.SavedAddresses))
	for i, a := range u.SavedAddresses {
		addrs[i] = addressDocument(a)
	}
	return userDocument{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		EmailKey:       emailKey(u.Email),
		Role:           string(u.Role),
		Avatar:         u.Avatar,
		SavedAddresses: addrs,
		PasswordHash:   u.PasswordHash,
		CreatedAt:      u.CreatedAt.UTC(),
	}
}

func (d userDocument) toDomain() *domain.User {
	addrs := make([]domain.Address, len(d.SavedAddresses))
	for i, a := range d.SavedAddresses {
		addrs[i] = domain.Address(a)
	}
	return &domain.User{
		ID:             d.ID,
		Name:           d.Name,
		Email:          d.Email,
		Role:           domain.Role(d.Role),
		Avatar:         d.Avatar,
		SavedAddresses: addrs,
		PasswordHash:   d.PasswordHash,
		CreatedAt:      d.CreatedAt,
	}
}

type cartSlotDocument struct {
	Data      string    `firestore:"data"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}
