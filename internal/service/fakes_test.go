package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/repository"
)

// In-memory repository fakes. Failure hooks let tests inject errors on
// specific operations.

type fakeRequestRepo struct {
	mu         sync.Mutex
	seq        int
	items      map[string]*domain.Request
	failCreate error
	failUpdate error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{items: make(map[string]*domain.Request)}
}

func (f *fakeRequestRepo) add(request *domain.Request) *domain.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if request.ID == "" {
		f.seq++
		request.ID = "req-" + strconv.Itoa(f.seq)
	}
	stored := *request
	f.items[request.ID] = &stored
	return request
}

func (f *fakeRequestRepo) Create(_ context.Context, request *domain.Request) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	f.add(request)
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, request *domain.Request) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *request
	f.items[request.ID] = &stored
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*domain.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (f *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Request
	for _, stored := range f.items {
		if filter.CustomerID != nil && stored.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.AssignedTo != nil && (stored.AssignedTo == nil || *stored.AssignedTo != *filter.AssignedTo) {
			continue
		}
		if len(filter.Statuses) > 0 && !statusIn(stored.Status, filter.Statuses) {
			continue
		}
		out = append(out, *stored)
	}
	return out, nil
}

type fakeAssignmentRepo struct {
	mu         sync.Mutex
	seq        int
	items      map[string]*domain.Assignment
	failCreate    error
	failUpdate    error
	failDelete    error
	failGetActive error
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{items: make(map[string]*domain.Assignment)}
}

func (f *fakeAssignmentRepo) add(entry *domain.Assignment) *domain.Assignment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == "" {
		f.seq++
		entry.ID = "asn-" + strconv.Itoa(f.seq)
	}
	if entry.AssignedAt.IsZero() {
		entry.AssignedAt = time.Now()
	}
	stored := *entry
	f.items[entry.ID] = &stored
	return entry
}

func (f *fakeAssignmentRepo) Create(_ context.Context, entry *domain.Assignment) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	f.add(entry)
	return nil
}

func (f *fakeAssignmentRepo) Update(_ context.Context, entry *domain.Assignment) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[entry.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *entry
	f.items[entry.ID] = &stored
	return nil
}

func (f *fakeAssignmentRepo) GetByID(_ context.Context, id string) (*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

func (f *fakeAssignmentRepo) GetActiveByRequest(_ context.Context, requestID string) (*domain.Assignment, error) {
	if f.failGetActive != nil {
		return nil, f.failGetActive
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.items {
		if stored.RequestID == requestID && stored.Status.Active() {
			out := *stored
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAssignmentRepo) GetActiveByRequestEmployee(_ context.Context, requestID, employeeID string) (*domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.items {
		if stored.RequestID == requestID && stored.EmployeeID == employeeID && stored.Status.Active() {
			out := *stored
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAssignmentRepo) DeleteActiveByRequest(_ context.Context, requestID string) (int64, error) {
	if f.failDelete != nil {
		return 0, f.failDelete
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, stored := range f.items {
		if stored.RequestID == requestID && stored.Status.Active() {
			delete(f.items, id)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeAssignmentRepo) DeleteByID(_ context.Context, id string) error {
	if f.failDelete != nil {
		return f.failDelete
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeAssignmentRepo) ListExpired(_ context.Context, asOf time.Time) ([]domain.Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Assignment
	for _, stored := range f.items {
		if stored.Status == domain.AssignmentStatusPendingConfirmation &&
			stored.ExpiresAt != nil && stored.ExpiresAt.Before(asOf) {
			out = append(out, *stored)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) CountActiveByEmployee(_ context.Context, employeeID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, stored := range f.items {
		if stored.EmployeeID == employeeID && stored.Status.Active() {
			count++
		}
	}
	return count, nil
}

type fakeEmployeeRepo struct {
	mu    sync.Mutex
	items []domain.Employee
}

func newFakeEmployeeRepo(employees ...domain.Employee) *fakeEmployeeRepo {
	return &fakeEmployeeRepo{items: employees}
}

func (f *fakeEmployeeRepo) Create(_ context.Context, employee *domain.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, *employee)
	return nil
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].Email == email {
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEmployeeRepo) List(_ context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Employee
	for _, employee := range f.items {
		if filter.Active != nil && employee.Active != *filter.Active {
			continue
		}
		if filter.Specialty != nil && employee.Specialty != *filter.Specialty {
			continue
		}
		out = append(out, employee)
	}
	return out, nil
}

type fakeAdminRepo struct {
	items []domain.Admin
}

func newFakeAdminRepo(admins ...domain.Admin) *fakeAdminRepo {
	return &fakeAdminRepo{items: admins}
}

func (f *fakeAdminRepo) GetByID(_ context.Context, id string) (*domain.Admin, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAdminRepo) GetByEmail(_ context.Context, email string) (*domain.Admin, error) {
	for i := range f.items {
		if f.items[i].Email == email {
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAdminRepo) List(_ context.Context) ([]domain.Admin, error) {
	out := make([]domain.Admin, len(f.items))
	copy(out, f.items)
	return out, nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	seq     int
	items   []domain.Notification
	failFor domain.RecipientType
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor != "" && notification.RecipientType == f.failFor {
		return pgx.ErrTxClosed
	}
	f.seq++
	notification.ID = "ntf-" + strconv.Itoa(f.seq)
	notification.CreatedAt = time.Now()
	f.items = append(f.items, *notification)
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(_ context.Context, recipientType domain.RecipientType, recipientID string, unreadOnly bool, _, _ int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, item := range f.items {
		if item.RecipientType != recipientType || item.RecipientID != recipientID {
			continue
		}
		if unreadOnly && item.Read {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id string, recipientType domain.RecipientType, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].RecipientType == recipientType && f.items[i].RecipientID == recipientID {
			f.items[i].Read = true
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationRepo) Delete(_ context.Context, id string, recipientType domain.RecipientType, recipientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id && f.items[i].RecipientType == recipientType && f.items[i].RecipientID == recipientID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotificationRepo) byRecipientType(recipientType domain.RecipientType) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, item := range f.items {
		if item.RecipientType == recipientType {
			out = append(out, item)
		}
	}
	return out
}

func (f *fakeNotificationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakePaymentRepo struct {
	mu         sync.Mutex
	seq        int
	byRequest  map[string]*domain.CompletionPayment
	failCreate error
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byRequest: make(map[string]*domain.CompletionPayment)}
}

func (f *fakePaymentRepo) Create(_ context.Context, payment *domain.CompletionPayment) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	payment.ID = "pay-" + strconv.Itoa(f.seq)
	payment.CompletedAt = time.Now()
	stored := *payment
	f.byRequest[payment.RequestID] = &stored
	return nil
}

func (f *fakePaymentRepo) GetByRequest(_ context.Context, requestID string) (*domain.CompletionPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byRequest[requestID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *stored
	return &out, nil
}

type fakeStatusFormRepo struct {
	mu         sync.Mutex
	items      []domain.StatusForm
	failCreate error
}

func newFakeStatusFormRepo() *fakeStatusFormRepo {
	return &fakeStatusFormRepo{}
}

func (f *fakeStatusFormRepo) Create(_ context.Context, form *domain.StatusForm) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	form.ID = "frm-" + strconv.Itoa(len(f.items)+1)
	f.items = append(f.items, *form)
	return nil
}

func (f *fakeStatusFormRepo) ListByRequest(_ context.Context, requestID string) ([]domain.StatusForm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.StatusForm
	for _, form := range f.items {
		if form.RequestID == requestID {
			out = append(out, form)
		}
	}
	return out, nil
}

type fakeLocker struct {
	acquired bool
	err      error
	released int
}

func (f *fakeLocker) AcquireLock(context.Context, string, time.Duration) (bool, error) {
	return f.acquired, f.err
}

func (f *fakeLocker) ReleaseLock(context.Context, string) error {
	f.released++
	return nil
}
