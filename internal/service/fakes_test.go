package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/aftersales-service/internal/domain"
	"github.com/spec-kit/aftersales-service/internal/events"
	"github.com/spec-kit/aftersales-service/internal/repository"
)

// memStore is an in-memory stand-in for the database used by service
// tests. Repositories returned by repos() all share the same store, and
// the fake TxRunner simply executes the unit of work against it.
type memStore struct {
	mu            sync.Mutex
	nextNumber    int64
	requests      map[string]*domain.ServiceRequest
	users         map[string]*domain.User
	departments   map[string]*domain.Department
	customers     map[string]*domain.Customer
	products      map[string]*domain.Product
	spareParts    map[string]*domain.SparePart
	requestParts  map[string]*domain.RequestPart
	activities    []domain.RequestActivity
	costs         []domain.Cost
	notifications map[string]*domain.Notification
}

func newMemStore() *memStore {
	return &memStore{
		nextNumber:    1000,
		requests:      make(map[string]*domain.ServiceRequest),
		users:         make(map[string]*domain.User),
		departments:   make(map[string]*domain.Department),
		customers:     make(map[string]*domain.Customer),
		products:      make(map[string]*domain.Product),
		spareParts:    make(map[string]*domain.SparePart),
		requestParts:  make(map[string]*domain.RequestPart),
		notifications: make(map[string]*domain.Notification),
	}
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Requests:      &memRequestRepo{s},
		RequestParts:  &memRequestPartRepo{s},
		SpareParts:    &memSparePartRepo{s},
		Activities:    &memActivityRepo{s},
		Costs:         &memCostRepo{s},
		Notifications: &memNotificationRepo{s},
		Users:         &memUserRepo{s},
		Departments:   &memDepartmentRepo{s},
		Customers:     &memCustomerRepo{s},
		Products:      &memProductRepo{s},
	}
}

// memTx runs units of work directly against the shared store.
type memTx struct {
	store *memStore
}

func (t *memTx) InTx(_ context.Context, fn func(repository.Repositories) error) error {
	return fn(t.store.repos())
}

// captureDispatcher records published events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) published(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var matched []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

type memRequestRepo struct{ s *memStore }

func (r *memRequestRepo) Create(_ context.Context, request *domain.ServiceRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextNumber++
	request.ID = uuid.NewString()
	request.RequestNumber = r.s.nextNumber
	request.CreatedAt = time.Now().UTC()
	request.UpdatedAt = request.CreatedAt
	stored := *request
	r.s.requests[request.ID] = &stored
	return nil
}

func (r *memRequestRepo) Update(_ context.Context, request *domain.ServiceRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	request.UpdatedAt = time.Now().UTC()
	stored := *request
	r.s.requests[request.ID] = &stored
	return nil
}

func (r *memRequestRepo) GetByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memRequestRepo) GetByNumber(_ context.Context, number int64) (*domain.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, stored := range r.s.requests {
		if stored.RequestNumber == number {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.ServiceRequest
	for _, stored := range r.s.requests {
		if filter.DepartmentID != nil && stored.DepartmentID != *filter.DepartmentID {
			continue
		}
		if filter.CustomerID != nil && stored.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.TechnicianID != nil || filter.ReceivedByID != nil {
			assigned := filter.TechnicianID != nil && stored.AssignedTechnicianID != nil &&
				*stored.AssignedTechnicianID == *filter.TechnicianID
			received := filter.ReceivedByID != nil && stored.ReceivedByID == *filter.ReceivedByID
			if !assigned && !received {
				continue
			}
		}
		if len(filter.Statuses) > 0 {
			found := false
			for _, status := range filter.Statuses {
				if stored.Status == status {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.OverdueOnly && !stored.IsOverdue {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *memRequestRepo) MarkOverdue(_ context.Context, now time.Time) ([]domain.ServiceRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var flipped []domain.ServiceRequest
	for _, stored := range r.s.requests {
		if stored.IsOverdue || !stored.SLADueDate.Before(now) || !domain.IsOpen(stored.Status) {
			continue
		}
		stored.IsOverdue = true
		stored.UpdatedAt = now
		flipped = append(flipped, *stored)
	}
	return flipped, nil
}

type memSparePartRepo struct{ s *memStore }

func (r *memSparePartRepo) Create(_ context.Context, part *domain.SparePart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	part.ID = uuid.NewString()
	part.CreatedAt = time.Now().UTC()
	part.UpdatedAt = part.CreatedAt
	stored := *part
	r.s.spareParts[part.ID] = &stored
	return nil
}

func (r *memSparePartRepo) GetByID(_ context.Context, id string) (*domain.SparePart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.spareParts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memSparePartRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.SparePart, error) {
	return r.GetByID(ctx, id)
}

func (r *memSparePartRepo) AdjustQuantity(_ context.Context, id string, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.spareParts[id]
	if !ok || stored.Quantity+delta < 0 {
		return pgx.ErrNoRows
	}
	stored.Quantity += delta
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memSparePartRepo) List(_ context.Context, _, _ int) ([]domain.SparePart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.SparePart
	for _, stored := range r.s.spareParts {
		result = append(result, *stored)
	}
	return result, nil
}

type memRequestPartRepo struct{ s *memStore }

func (r *memRequestPartRepo) Create(_ context.Context, part *domain.RequestPart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	part.ID = uuid.NewString()
	part.CreatedAt = time.Now().UTC()
	stored := *part
	r.s.requestParts[part.ID] = &stored
	return nil
}

func (r *memRequestPartRepo) GetByID(_ context.Context, id string) (*domain.RequestPart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requestParts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memRequestPartRepo) UpdateQuantity(_ context.Context, id string, quantityUsed int, totalCost float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.requestParts[id]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.QuantityUsed = quantityUsed
	stored.TotalCost = totalCost
	return nil
}

func (r *memRequestPartRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requestParts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.requestParts, id)
	return nil
}

func (r *memRequestPartRepo) ListByRequest(_ context.Context, requestID string) ([]domain.RequestPart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.RequestPart
	for _, stored := range r.s.requestParts {
		if stored.RequestID == requestID {
			result = append(result, *stored)
		}
	}
	return result, nil
}

type memActivityRepo struct{ s *memStore }

func (r *memActivityRepo) Create(_ context.Context, activity *domain.RequestActivity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	activity.ID = uuid.NewString()
	activity.CreatedAt = time.Now().UTC()
	r.s.activities = append(r.s.activities, *activity)
	return nil
}

func (r *memActivityRepo) ListByRequest(_ context.Context, requestID string, _, _ int) ([]domain.RequestActivity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.RequestActivity
	for _, activity := range r.s.activities {
		if activity.RequestID == requestID {
			result = append(result, activity)
		}
	}
	return result, nil
}

type memCostRepo struct{ s *memStore }

func (r *memCostRepo) Create(_ context.Context, cost *domain.Cost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cost.ID = uuid.NewString()
	cost.CreatedAt = time.Now().UTC()
	r.s.costs = append(r.s.costs, *cost)
	return nil
}

func (r *memCostRepo) ListByRequest(_ context.Context, requestID string) ([]domain.Cost, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Cost
	for _, cost := range r.s.costs {
		if cost.RequestID == requestID {
			result = append(result, cost)
		}
	}
	return result, nil
}

func (r *memCostRepo) SumByRequest(_ context.Context, requestID string) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var total float64
	for _, cost := range r.s.costs {
		if cost.RequestID == requestID {
			total += cost.Amount
		}
	}
	return total, nil
}

type memNotificationRepo struct{ s *memStore }

func (r *memNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	notification.ID = uuid.NewString()
	notification.CreatedAt = time.Now().UTC()
	stored := *notification
	r.s.notifications[notification.ID] = &stored
	return nil
}

func (r *memNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _, _ int) ([]domain.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Notification
	for _, stored := range r.s.notifications {
		if stored.UserID != userID {
			continue
		}
		if unreadOnly && stored.IsRead {
			continue
		}
		result = append(result, *stored)
	}
	return result, nil
}

func (r *memNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.notifications[id]
	if !ok || stored.UserID != userID {
		return pgx.ErrNoRows
	}
	stored.IsRead = true
	return nil
}

func (r *memNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, stored := range r.s.notifications {
		if stored.UserID == userID && !stored.IsRead {
			stored.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, stored := range r.s.notifications {
		if stored.UserID == userID && !stored.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *memNotificationRepo) DeleteReadOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for id, stored := range r.s.notifications {
		if stored.IsRead && stored.CreatedAt.Before(cutoff) {
			delete(r.s.notifications, id)
			count++
		}
	}
	return count, nil
}

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, stored := range r.s.users {
		if stored.Email == email {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) ListActiveByRoles(_ context.Context, roles []domain.Role, departmentID *string) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	roleSet := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}
	var result []domain.User
	for _, stored := range r.s.users {
		if !stored.Active {
			continue
		}
		if _, ok := roleSet[stored.Role]; !ok {
			continue
		}
		if departmentID != nil {
			if stored.DepartmentID == nil || *stored.DepartmentID != *departmentID {
				continue
			}
		}
		result = append(result, *stored)
	}
	return result, nil
}

type memDepartmentRepo struct{ s *memStore }

func (r *memDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

func (r *memDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Department
	for _, stored := range r.s.departments {
		result = append(result, *stored)
	}
	return result, nil
}

type memCustomerRepo struct{ s *memStore }

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.customers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

type memProductRepo struct{ s *memStore }

func (r *memProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.products[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *stored
	return &copied, nil
}

// seed helpers

func (s *memStore) addDepartment(name string) *domain.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept := &domain.Department{ID: uuid.NewString(), Name: name, IsActive: true}
	s.departments[dept.ID] = dept
	return dept
}

func (s *memStore) addUser(role domain.Role, departmentID *string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         string(role),
		Email:        uuid.NewString() + "@example.com",
		Role:         role,
		DepartmentID: departmentID,
		Active:       true,
	}
	s.users[user.ID] = user
	return user
}

func (s *memStore) addCustomer(name string) *domain.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	customer := &domain.Customer{ID: uuid.NewString(), Name: name}
	s.customers[customer.ID] = customer
	return customer
}

func (s *memStore) addSparePart(name string, quantity, minQuantity int, unitPrice float64) *domain.SparePart {
	s.mu.Lock()
	defer s.mu.Unlock()
	part := &domain.SparePart{
		ID:          uuid.NewString(),
		Name:        name,
		PartNumber:  "PN-" + name,
		Quantity:    quantity,
		MinQuantity: minQuantity,
		UnitPrice:   unitPrice,
		Currency:    "USD",
	}
	s.spareParts[part.ID] = part
	return part
}
