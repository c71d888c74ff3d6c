package services

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"sevaconnect-backend/models"
	"sevaconnect-backend/repository"
	"sevaconnect-backend/utils"

	"gorm.io/gorm/schema"
)

func init() {
	utils.BcryptCost = 4
}

// memStore is an in-memory stand-in for repository.Repository.
type memStore struct {
	mu        sync.Mutex
	seq       int
	clock     time.Time
	services  map[string]models.Service
	offerings map[string]models.SocietyService
	bookings  map[string]models.Booking
	messages  []models.ChatMessage
	reviews   []models.Review
	users     map[string]models.User
	societies map[string]models.Society
	reminders []models.ReminderLog
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
		services:  map[string]models.Service{},
		offerings: map[string]models.SocietyService{},
		bookings:  map[string]models.Booking{},
		users:     map[string]models.User{},
		societies: map[string]models.Society{},
	}
}

var fakeSchemas sync.Map

// copyColumns copies only the named columns from src into dst, the way a
// gorm Select(cols).Updates(src) would. Unknown columns are an error.
func copyColumns[T any](dst, src *T, cols []string) error {
	sch, err := schema.Parse(src, &fakeSchemas, schema.NamingStrategy{})
	if err != nil {
		return err
	}
	dv, sv := reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem()
	for _, col := range cols {
		field, ok := sch.FieldsByDBName[col]
		if !ok {
			return fmt.Errorf("unknown column %q on %s", col, sch.Table)
		}
		idx := field.StructField.Index
		dv.FieldByIndex(idx).Set(sv.FieldByIndex(idx))
	}
	return nil
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%04d", prefix, m.seq)
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

// catalogue

func (m *memStore) ListServices(ctx context.Context, includeInactive bool) ([]models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Service
	for _, s := range m.services {
		if includeInactive || s.IsActive {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name.Get("en") < out[j].Name.Get("en") })
	return out, nil
}

func (m *memStore) ListGenericServices(ctx context.Context) ([]models.Service, error) {
	all, _ := m.ListServices(ctx, false)
	var out []models.Service
	for _, s := range all {
		if s.IsGeneric {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetService(ctx context.Context, id string) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.services[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) CreateService(ctx context.Context, svc *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if svc.ID == "" {
		svc.ID = m.nextID("srv")
	}
	svc.CreatedAt = m.tick()
	m.services[svc.ID] = *svc
	return nil
}

func (m *memStore) UpdateServiceColumns(ctx context.Context, svc *models.Service, cols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.services[svc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := copyColumns(&stored, svc, cols); err != nil {
		return err
	}
	m.services[svc.ID] = stored
	return nil
}

func (m *memStore) DeleteService(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.offerings {
		if row.ServiceID != nil && *row.ServiceID == id {
			return repository.ErrInUse
		}
	}
	if _, ok := m.services[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.services, id)
	return nil
}

// offerings

func (m *memStore) withService(row models.SocietyService) models.SocietyService {
	row.Service = nil
	if row.ServiceID != nil {
		if svc, ok := m.services[*row.ServiceID]; ok {
			row.Service = &svc
		}
	}
	return row
}

func (m *memStore) ListOfferings(ctx context.Context, societyID string) ([]models.SocietyService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SocietyService
	for _, row := range m.offerings {
		if row.SocietyID == societyID {
			out = append(out, m.withService(row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetOffering(ctx context.Context, id string) (*models.SocietyService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.offerings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	row = m.withService(row)
	return &row, nil
}

func (m *memStore) LinkedServiceIDs(ctx context.Context, societyID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, row := range m.offerings {
		if row.SocietyID == societyID && row.ServiceID != nil {
			ids = append(ids, *row.ServiceID)
		}
	}
	return ids, nil
}

func (m *memStore) FindOfferingLink(ctx context.Context, societyID, serviceID string) (*models.SocietyService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.offerings {
		if row.SocietyID == societyID && row.ServiceID != nil && *row.ServiceID == serviceID {
			row = m.withService(row)
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) CreateOffering(ctx context.Context, row *models.SocietyService) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row.ServiceID != nil {
		for _, existing := range m.offerings {
			if existing.SocietyID == row.SocietyID && existing.ServiceID != nil && *existing.ServiceID == *row.ServiceID {
				return repository.ErrDuplicate
			}
		}
	}
	if row.ID == "" {
		row.ID = m.nextID("ss")
	}
	row.CreatedAt = m.tick()
	stored := *row
	stored.Service = nil
	m.offerings[row.ID] = stored
	return nil
}

func (m *memStore) UpdateOfferingColumns(ctx context.Context, row *models.SocietyService, cols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.offerings[row.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := copyColumns(&stored, row, cols); err != nil {
		return err
	}
	m.offerings[row.ID] = stored
	return nil
}

// bookings

func (m *memStore) decorate(b models.Booking) models.Booking {
	if row, ok := m.offerings[b.SocietyServiceID]; ok {
		row = m.withService(row)
		b.SocietyService = &row
	}
	if u, ok := m.users[b.HouseholdID]; ok {
		b.Household = &u
	}
	if u, ok := m.users[b.MaidID]; ok {
		b.Maid = &u
	}
	return b
}

func (m *memStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID == "" {
		b.ID = m.nextID("bk")
	}
	b.CreatedAt = m.tick()
	stored := *b
	stored.SocietyService, stored.Household, stored.Maid = nil, nil, nil
	m.bookings[b.ID] = stored
	return nil
}

func (m *memStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b = m.decorate(b)
	return &b, nil
}

func (m *memStore) ListBookings(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.bookings {
		if f.HouseholdID != "" && b.HouseholdID != f.HouseholdID {
			continue
		}
		if f.MaidID != "" && b.MaidID != f.MaidID {
			continue
		}
		if f.SocietyID != "" {
			h, ok := m.users[b.HouseholdID]
			if !ok || h.SocietyID == nil || *h.SocietyID != f.SocietyID {
				continue
			}
		}
		if len(f.Statuses) > 0 {
			match := false
			for _, s := range f.Statuses {
				match = match || b.Status == s
			}
			if !match {
				continue
			}
		}
		out = append(out, m.decorate(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].StartTime > out[j].StartTime
	})
	return out, nil
}

func (m *memStore) UpdateBookingColumns(ctx context.Context, b *models.Booking, cols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.bookings[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := copyColumns(&stored, b, cols); err != nil {
		return err
	}
	m.bookings[b.ID] = stored
	return nil
}

func (m *memStore) AdvanceBookingStatus(ctx context.Context, id string, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if b.Status == s {
			b.Status = to
			m.bookings[id] = b
			return true, nil
		}
	}
	return false, nil
}

// messages

func (m *memStore) AppendMessage(ctx context.Context, msg *models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.nextID("msg")
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memStore) ListMessages(ctx context.Context, bookingID string) ([]models.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ChatMessage
	for _, msg := range m.messages {
		if msg.BookingID == bookingID {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (m *memStore) CountMessages(ctx context.Context, bookingIDs []string) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range bookingIDs {
		want[id] = true
	}
	counts := map[string]int64{}
	for _, msg := range m.messages {
		if want[msg.BookingID] {
			counts[msg.BookingID]++
		}
	}
	return counts, nil
}

// reviews

func (m *memStore) AddReview(ctx context.Context, r *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[r.BookingID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, existing := range m.reviews {
		if existing.BookingID == r.BookingID {
			return repository.ErrDuplicate
		}
	}
	r.ID = m.nextID("rv")
	r.CreatedAt = m.tick()
	b.IsReviewed = true
	m.bookings[b.ID] = b
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *memStore) ListReviewsForMaid(ctx context.Context, maidID string) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Review
	for _, r := range m.reviews {
		if r.MaidID == maidID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// users

func (m *memStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) matchUser(identifiers []string) (models.User, bool) {
	for _, u := range m.users {
		for _, id := range identifiers {
			if id != "" && (u.Username == id || u.Phone == id) {
				return u, true
			}
		}
	}
	return models.User{}, false
}

func (m *memStore) FindUserByIdentifier(ctx context.Context, identifiers ...string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.matchUser(identifiers)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) IdentifierTaken(ctx context.Context, identifiers ...string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.matchUser(identifiers)
	return ok, nil
}

func (m *memStore) insertUser(u *models.User) error {
	if _, taken := m.matchUser([]string{u.Username, u.Phone}); taken {
		return repository.ErrDuplicate
	}
	if u.ID == "" {
		u.ID = m.nextID("u")
	}
	u.CreatedAt = m.tick()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.SocietyID != nil {
		if _, ok := m.societies[*u.SocietyID]; !ok {
			return repository.ErrForeignKey
		}
	}
	return m.insertUser(u)
}

func (m *memStore) UpdateUserColumns(ctx context.Context, u *models.User, cols []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := copyColumns(&stored, u, cols); err != nil {
		return err
	}
	m.users[u.ID] = stored
	return nil
}

func (m *memStore) ListUsersBySociety(ctx context.Context, societyID string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.SocietyID != nil && *u.SocietyID == societyID && u.Role != models.RoleSocietyAdmin {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) DeleteUserCascade(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	gone := map[string]bool{}
	for bid, b := range m.bookings {
		if b.HouseholdID == id || b.MaidID == id {
			gone[bid] = true
			delete(m.bookings, bid)
		}
	}
	msgs := m.messages[:0]
	for _, msg := range m.messages {
		if msg.SenderID != id && !gone[msg.BookingID] {
			msgs = append(msgs, msg)
		}
	}
	m.messages = msgs
	reviews := m.reviews[:0]
	for _, r := range m.reviews {
		if r.MaidID != id && r.HouseholdID != id && !gone[r.BookingID] {
			reviews = append(reviews, r)
		}
	}
	m.reviews = reviews
	delete(m.users, id)
	return nil
}

// societies

func (m *memStore) ListSocieties(ctx context.Context) ([]models.Society, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Society
	for _, s := range m.societies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetSociety(ctx context.Context, id string) (*models.Society, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.societies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (m *memStore) SocietyCodeTaken(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.societies {
		if strings.EqualFold(s.Code, code) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateSocietyWithAdmin(ctx context.Context, s *models.Society, admin *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.societies {
		if existing.Code == s.Code {
			return repository.ErrDuplicate
		}
	}
	if s.ID == "" {
		s.ID = m.nextID("soc")
	}
	s.CreatedAt = m.tick()
	admin.SocietyID = &s.ID
	if err := m.insertUser(admin); err != nil {
		return err
	}
	m.societies[s.ID] = *s
	return nil
}

func (m *memStore) SocietyStats(ctx context.Context, societyID, today string) (models.SocietyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats models.SocietyStats
	for _, u := range m.users {
		if u.SocietyID == nil || *u.SocietyID != societyID || u.Role == models.RoleSocietyAdmin {
			continue
		}
		stats.TotalUsers++
		if !u.IsVerified {
			stats.PendingVerifications++
		}
	}
	for _, b := range m.bookings {
		h, ok := m.users[b.HouseholdID]
		if !ok || h.SocietyID == nil || *h.SocietyID != societyID || b.Date != today {
			continue
		}
		if b.Status == models.StatusConfirmed || b.Status == models.StatusInProgress {
			stats.ActiveBookingsToday++
		}
	}
	return stats, nil
}

func (m *memStore) RecentActivity(ctx context.Context, societyID string, limit int) ([]models.SocietyActivity, error) {
	users, _ := m.ListUsersBySociety(ctx, societyID)
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	var out []models.SocietyActivity
	for i, u := range users {
		if i == limit {
			break
		}
		out = append(out, models.SocietyActivity{ID: u.ID, Name: u.Name, Role: u.Role, IsVerified: u.IsVerified, CreatedAt: u.CreatedAt})
	}
	return out, nil
}

func (m *memStore) ListSocietiesWithStats(ctx context.Context, start, end string) ([]models.SocietySummary, error) {
	societies, _ := m.ListSocieties(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SocietySummary, 0, len(societies))
	for _, s := range societies {
		sum := models.SocietySummary{Society: s}
		for _, u := range m.users {
			if u.SocietyID == nil || *u.SocietyID != s.ID {
				continue
			}
			switch u.Role {
			case models.RoleHousehold:
				sum.HouseholdCount++
			case models.RoleMaid:
				sum.MaidCount++
			}
		}
		for _, b := range m.bookings {
			h, ok := m.users[b.HouseholdID]
			if !ok || h.SocietyID == nil || *h.SocietyID != s.ID || b.Date < start || b.Date > end {
				continue
			}
			if b.Status == models.StatusRequested || b.Status == models.StatusConfirmed || b.Status == models.StatusInProgress {
				sum.ExpectedBookings++
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

// reminders

func (m *memStore) HasReminderLog(ctx context.Context, bookingID, occurrence string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.reminders {
		if l.BookingID == bookingID && l.Occurrence == occurrence && l.Status == models.ReminderSent {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateReminderLog(ctx context.Context, l *models.ReminderLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.reminders {
		if existing.BookingID == l.BookingID && existing.Occurrence == l.Occurrence {
			l.ID = existing.ID
			m.reminders[i] = *l
			return nil
		}
	}
	l.ID = m.nextID("rl")
	m.reminders = append(m.reminders, *l)
	return nil
}

// collaborators

type fakeVerifier struct {
	code  string
	sent  []string
	fails error
}

func (v *fakeVerifier) Send(ctx context.Context, phone string) error {
	if v.fails != nil {
		return v.fails
	}
	v.sent = append(v.sent, phone)
	return nil
}

func (v *fakeVerifier) Check(ctx context.Context, phone, code string) (bool, error) {
	return code == v.code, nil
}

type fakeTokens struct{}

func (fakeTokens) Generate(userID, role, societyID string) (string, error) {
	return "token-" + userID + "-" + role, nil
}

type sms struct{ to, body string }

type fakeSMS struct {
	mu   sync.Mutex
	sent []sms
	err  error
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sms{to, body})
	return nil
}

// seed helpers

func (m *memStore) addSociety(id, code string) {
	m.societies[id] = models.Society{ID: id, Name: "Society " + id, Code: code, CreatedAt: m.tick()}
}

func (m *memStore) addUser(id, name, role, societyID, phone string) {
	soc := societyID
	m.users[id] = models.User{ID: id, Name: name, Username: id, Phone: phone, Role: role, SocietyID: &soc, CreatedAt: m.tick()}
}
