package service

import (
	"context"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// The fakes below back the service tests with an in-memory store. The fake
// transaction manager holds one big lock for the duration of a transaction
// and restores a snapshot when the closure fails, which models what the
// postgres implementation provides: serializable units of work with
// all-or-nothing commit. Repository calls made outside a transaction take
// the lock per call.

type txMarker struct{}

type fakeStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]model.User
	transactions  []model.PointsTransaction
	reports       map[uuid.UUID]model.Report
	history       []model.ReportStatusHistory
	products      map[uuid.UUID]model.Product
	redemptions   map[uuid.UUID]model.Redemption
	refreshTokens map[string]model.RefreshToken
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[uuid.UUID]model.User),
		reports:       make(map[uuid.UUID]model.Report),
		products:      make(map[uuid.UUID]model.Product),
		redemptions:   make(map[uuid.UUID]model.Redemption),
		refreshTokens: make(map[string]model.RefreshToken),
	}
}

func (s *fakeStore) lock(ctx context.Context) func() {
	if ctx.Value(txMarker{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *fakeStore) snapshot() *fakeStore {
	snap := newFakeStore()
	for k, v := range s.users {
		snap.users[k] = v
	}
	snap.transactions = append([]model.PointsTransaction(nil), s.transactions...)
	for k, v := range s.reports {
		snap.reports[k] = v
	}
	snap.history = append([]model.ReportStatusHistory(nil), s.history...)
	for k, v := range s.products {
		p := v
		if v.Stock != nil {
			stock := *v.Stock
			p.Stock = &stock
		}
		snap.products[k] = p
	}
	for k, v := range s.redemptions {
		snap.redemptions[k] = v
	}
	for k, v := range s.refreshTokens {
		snap.refreshTokens[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.users = snap.users
	s.transactions = snap.transactions
	s.reports = snap.reports
	s.history = snap.history
	s.products = snap.products
	s.redemptions = snap.redemptions
	s.refreshTokens = snap.refreshTokens
}

func (s *fakeStore) addUser(points int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.users[id] = model.User{
		ID:       id,
		Username: "user-" + id.String()[:8],
		Email:    id.String()[:8] + "@example.com",
		Role:     model.RoleCitizen,
		Points:   points,
	}
	return id
}

func (s *fakeStore) addProduct(cost int, stock *int, active bool) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	if stock != nil {
		v := *stock
		stock = &v
	}
	s.products[id] = model.Product{
		ID:         id,
		Name:       "product-" + id.String()[:8],
		PointsCost: cost,
		IsActive:   active,
		Stock:      stock,
	}
	return id
}

type fakeTxManager struct {
	store *fakeStore
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txMarker{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

// --- user repository ---

type fakeUserRepo struct {
	store *fakeStore
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	defer r.store.lock(ctx)()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.store.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	defer r.store.lock(ctx)()
	user, ok := r.store.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.store.lock(ctx)()
	for _, user := range r.store.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	defer r.store.lock(ctx)()
	for _, user := range r.store.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) UpdatePoints(ctx context.Context, id uuid.UUID, points int) error {
	defer r.store.lock(ctx)()
	user, ok := r.store.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Points = points
	r.store.users[id] = user
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	defer r.store.lock(ctx)()
	var users []model.User
	for _, u := range r.store.users {
		users = append(users, u)
	}
	return users, int64(len(users)), nil
}

func (r *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	defer r.store.lock(ctx)()
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	r.store.refreshTokens[token.Token] = *token
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	defer r.store.lock(ctx)()
	rt, ok := r.store.refreshTokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rt, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	defer r.store.lock(ctx)()
	delete(r.store.refreshTokens, token)
	return nil
}

// --- points repository ---

type fakePointsRepo struct {
	store *fakeStore
}

func (r *fakePointsRepo) Create(ctx context.Context, tx *model.PointsTransaction) error {
	defer r.store.lock(ctx)()
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.CreatedAt = time.Now()
	r.store.transactions = append(r.store.transactions, *tx)
	return nil
}

func (r *fakePointsRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int, filter repository.PointsHistoryFilter) ([]model.PointsTransaction, int64, error) {
	defer r.store.lock(ctx)()
	var matched []model.PointsTransaction
	for _, tx := range r.store.transactions {
		if tx.UserID != userID {
			continue
		}
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.Source != "" && tx.Source != filter.Source {
			continue
		}
		matched = append(matched, tx)
	}
	// newest first, like the real repository
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// --- report repository ---

type fakeReportRepo struct {
	store *fakeStore
}

func (r *fakeReportRepo) Create(ctx context.Context, report *model.Report) error {
	defer r.store.lock(ctx)()
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	report.CreatedAt = time.Now()
	r.store.reports[report.ID] = *report
	return nil
}

func (r *fakeReportRepo) Update(ctx context.Context, report *model.Report) error {
	defer r.store.lock(ctx)()
	if _, ok := r.store.reports[report.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	report.UpdatedAt = time.Now()
	r.store.reports[report.ID] = *report
	return nil
}

func (r *fakeReportRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.store.lock(ctx)()
	delete(r.store.reports, id)
	return nil
}

func (r *fakeReportRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	defer r.store.lock(ctx)()
	report, ok := r.store.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &report, nil
}

func (r *fakeReportRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeReportRepo) List(ctx context.Context, page, limit int, filter repository.ReportFilter) ([]model.Report, int64, error) {
	defer r.store.lock(ctx)()
	var reports []model.Report
	for _, rep := range r.store.reports {
		if filter.Status != "" && rep.Status != filter.Status {
			continue
		}
		if filter.Category != "" && rep.Category != filter.Category {
			continue
		}
		reports = append(reports, rep)
	}
	return reports, int64(len(reports)), nil
}

func (r *fakeReportRepo) ListByReporter(ctx context.Context, reporterID uuid.UUID, page, limit int) ([]model.Report, int64, error) {
	defer r.store.lock(ctx)()
	var reports []model.Report
	for _, rep := range r.store.reports {
		if rep.ReporterID == reporterID {
			reports = append(reports, rep)
		}
	}
	return reports, int64(len(reports)), nil
}

func (r *fakeReportRepo) AppendHistory(ctx context.Context, entry *model.ReportStatusHistory) error {
	defer r.store.lock(ctx)()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	r.store.history = append(r.store.history, *entry)
	return nil
}

func (r *fakeReportRepo) History(ctx context.Context, reportID uuid.UUID) ([]model.ReportStatusHistory, error) {
	defer r.store.lock(ctx)()
	var entries []model.ReportStatusHistory
	for _, e := range r.store.history {
		if e.ReportID == reportID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// --- product repository ---

type fakeProductRepo struct {
	store *fakeStore
}

func (r *fakeProductRepo) Create(ctx context.Context, product *model.Product) error {
	defer r.store.lock(ctx)()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.store.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Update(ctx context.Context, product *model.Product) error {
	defer r.store.lock(ctx)()
	if _, ok := r.store.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.store.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.store.lock(ctx)()
	delete(r.store.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	defer r.store.lock(ctx)()
	product, ok := r.store.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if product.Stock != nil {
		stock := *product.Stock
		product.Stock = &stock
	}
	return &product, nil
}

func (r *fakeProductRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeProductRepo) List(ctx context.Context, page, limit int, activeOnly bool) ([]model.Product, int64, error) {
	defer r.store.lock(ctx)()
	var products []model.Product
	for _, p := range r.store.products {
		if activeOnly && !p.IsActive {
			continue
		}
		products = append(products, p)
	}
	return products, int64(len(products)), nil
}

func (r *fakeProductRepo) UpdateStock(ctx context.Context, id uuid.UUID, stock int, isActive bool) error {
	defer r.store.lock(ctx)()
	product, ok := r.store.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	product.Stock = &stock
	product.IsActive = isActive
	r.store.products[id] = product
	return nil
}

// --- redemption repository ---

type fakeRedemptionRepo struct {
	store *fakeStore
}

func (r *fakeRedemptionRepo) Create(ctx context.Context, redemption *model.Redemption) error {
	defer r.store.lock(ctx)()
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	redemption.CreatedAt = time.Now()
	r.store.redemptions[redemption.ID] = *redemption
	return nil
}

func (r *fakeRedemptionRepo) Update(ctx context.Context, redemption *model.Redemption) error {
	defer r.store.lock(ctx)()
	if _, ok := r.store.redemptions[redemption.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.store.redemptions[redemption.ID] = *redemption
	return nil
}

func (r *fakeRedemptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Redemption, error) {
	defer r.store.lock(ctx)()
	redemption, ok := r.store.redemptions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &redemption, nil
}

func (r *fakeRedemptionRepo) List(ctx context.Context, page, limit int, status string) ([]model.Redemption, int64, error) {
	defer r.store.lock(ctx)()
	var redemptions []model.Redemption
	for _, red := range r.store.redemptions {
		if status != "" && red.Status != status {
			continue
		}
		redemptions = append(redemptions, red)
	}
	return redemptions, int64(len(redemptions)), nil
}

func (r *fakeRedemptionRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Redemption, int64, error) {
	defer r.store.lock(ctx)()
	var redemptions []model.Redemption
	for _, red := range r.store.redemptions {
		if red.UserID == userID {
			redemptions = append(redemptions, red)
		}
	}
	return redemptions, int64(len(redemptions)), nil
}

// --- wiring helper ---

type fixture struct {
	store          *fakeStore
	txManager      *fakeTxManager
	userRepo       *fakeUserRepo
	pointsRepo     *fakePointsRepo
	reportRepo     *fakeReportRepo
	productRepo    *fakeProductRepo
	redemptionRepo *fakeRedemptionRepo
	points         PointsService
}

func newFixture() *fixture {
	store := newFakeStore()
	f := &fixture{
		store:          store,
		txManager:      &fakeTxManager{store: store},
		userRepo:       &fakeUserRepo{store: store},
		pointsRepo:     &fakePointsRepo{store: store},
		reportRepo:     &fakeReportRepo{store: store},
		productRepo:    &fakeProductRepo{store: store},
		redemptionRepo: &fakeRedemptionRepo{store: store},
	}
	f.points = NewPointsService(f.userRepo, f.pointsRepo, f.txManager)
	return f
}

func (f *fixture) reportService(enricher EnrichmentService) ReportService {
	return NewReportService(f.reportRepo, f.points, f.txManager, enricher, NopNotifier{})
}

func (f *fixture) redemptionService() RedemptionService {
	return NewRedemptionService(f.redemptionRepo, f.productRepo, f.points, f.txManager, NopNotifier{})
}

func (f *fixture) userPoints(id uuid.UUID) int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.users[id].Points
}

func (f *fixture) userTransactions(id uuid.UUID) []model.PointsTransaction {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	var txs []model.PointsTransaction
	for _, tx := range f.store.transactions {
		if tx.UserID == id {
			txs = append(txs, tx)
		}
	}
	return txs
}
