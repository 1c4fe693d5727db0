// Package memory provides an in-memory implementation of the core persistence
// store used for tests, ephemeral environments and as the working set of the
// durable snapshot backends.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"guardianpaws/pkg/domain"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Reporter aliases domain.Reporter for in-memory persistence operations.
	Reporter = domain.Reporter
	// NGO aliases domain.NGO.
	NGO = domain.NGO
	// RescueReport aliases domain.RescueReport.
	RescueReport = domain.RescueReport
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	reporters map[string]Reporter
	ngos      map[string]NGO
	reports   map[string]RescueReport
	// order holds report ids, newest created first.
	order []string
}

// Snapshot captures a point-in-time clone of the store state. Each field maps
// to one persisted collection.
type Snapshot struct {
	Reporters []Reporter     `json:"reporters"`
	NGOs      []NGO          `json:"ngos"`
	Reports   []RescueReport `json:"reports"`
}

func newMemoryState() memoryState {
	return memoryState{
		reporters: make(map[string]Reporter),
		ngos:      make(map[string]NGO),
		reports:   make(map[string]RescueReport),
	}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		reporters: make(map[string]Reporter, len(s.reporters)),
		ngos:      make(map[string]NGO, len(s.ngos)),
		reports:   make(map[string]RescueReport, len(s.reports)),
		order:     append([]string(nil), s.order...),
	}
	for k, v := range s.reporters {
		out.reporters[k] = v
	}
	for k, v := range s.ngos {
		out.ngos[k] = v
	}
	for k, v := range s.reports {
		out.reports[k] = v.Clone()
	}
	return out
}

func (s *memoryState) listReporters() []Reporter {
	out := make([]Reporter, 0, len(s.reporters))
	for _, r := range s.reporters {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *memoryState) listNGOs() []NGO {
	out := make([]NGO, 0, len(s.ngos))
	for _, n := range s.ngos {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *memoryState) listReports() []RescueReport {
	out := make([]RescueReport, 0, len(s.order))
	for _, id := range s.order {
		if r, ok := s.reports[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (s *memoryState) reporterByEmail(email string) (Reporter, bool) {
	want := domain.NormalizeEmail(email)
	for _, r := range s.reporters {
		if domain.NormalizeEmail(r.Email) == want {
			return r, true
		}
	}
	return Reporter{}, false
}

func (s *memoryState) ngoByEmail(email string) (NGO, bool) {
	want := domain.NormalizeEmail(email)
	for _, n := range s.ngos {
		if domain.NormalizeEmail(n.Email) == want {
			return n, true
		}
	}
	return NGO{}, false
}

func snapshotFromMemoryState(state *memoryState) Snapshot {
	return Snapshot{
		Reporters: state.listReporters(),
		NGOs:      state.listNGOs(),
		Reports:   state.listReports(),
	}
}

// memoryStateFromSnapshot rebuilds the indexed state. Reports are re-ordered
// newest created first regardless of their order in the snapshot; ties keep
// the snapshot order.
func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, r := range s.Reporters {
		if r.ID == "" {
			continue
		}
		state.reporters[r.ID] = r
	}
	for _, n := range s.NGOs {
		if n.ID == "" {
			continue
		}
		if n.Location == "" {
			n.Location = domain.DefaultNGOLocation
		}
		state.ngos[n.ID] = n
	}
	reports := make([]RescueReport, 0, len(s.Reports))
	for _, r := range s.Reports {
		if r.ID == "" {
			continue
		}
		if _, dup := state.reports[r.ID]; dup {
			continue
		}
		if r.Conversation == nil {
			r.Conversation = []domain.ChatMessage{}
		}
		state.reports[r.ID] = r.Clone()
		reports = append(reports, r)
	}
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	state.order = make([]string, 0, len(reports))
	for _, r := range reports {
		state.order = append(state.order, r.ID)
	}
	return state
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source stamped onto records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithIDGenerator overrides the generator used for records created without an ID.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.idFn = gen
		}
	}
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
	idFn   func() string
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
		idFn:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(&s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	state := memoryStateFromSnapshot(snapshot)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// Close is a no-op; the memory store holds no external resources.
func (s *Store) Close() error { return nil }

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

func (v transactionView) ListReporters() []Reporter { return v.state.listReporters() }

func (v transactionView) ListNGOs() []NGO { return v.state.listNGOs() }

func (v transactionView) ListReports() []RescueReport { return v.state.listReports() }

func (v transactionView) FindReporter(id string) (Reporter, bool) {
	r, ok := v.state.reporters[id]
	return r, ok
}

func (v transactionView) FindNGO(id string) (NGO, bool) {
	n, ok := v.state.ngos[id]
	return n, ok
}

func (v transactionView) FindReport(id string) (RescueReport, bool) {
	r, ok := v.state.reports[id]
	if !ok {
		return RescueReport{}, false
	}
	return r.Clone(), true
}

func (v transactionView) FindReporterByEmail(email string) (Reporter, bool) {
	return v.state.reporterByEmail(email)
}

func (v transactionView) FindNGOByEmail(email string) (NGO, bool) {
	return v.state.ngoByEmail(email)
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the committed state only when fn and every blocking rule succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil && len(tx.changes) > 0 {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) Now() time.Time { return tx.now }

func (tx *transaction) FindReporter(id string) (Reporter, bool) {
	return tx.Snapshot().FindReporter(id)
}

func (tx *transaction) FindNGO(id string) (NGO, bool) {
	return tx.Snapshot().FindNGO(id)
}

func (tx *transaction) FindReport(id string) (RescueReport, bool) {
	return tx.Snapshot().FindReport(id)
}

func (tx *transaction) FindReporterByEmail(email string) (Reporter, bool) {
	return tx.state.reporterByEmail(email)
}

func (tx *transaction) FindNGOByEmail(email string) (NGO, bool) {
	return tx.state.ngoByEmail(email)
}

// CreateReporter stores a new reporter. Emails are unique among reporters,
// compared case-insensitively.
func (tx *transaction) CreateReporter(r Reporter) (Reporter, error) {
	if r.ID == "" {
		r.ID = tx.store.idFn()
	}
	if _, exists := tx.state.reporters[r.ID]; exists {
		return Reporter{}, fmt.Errorf("reporter %q already exists", r.ID)
	}
	if _, taken := tx.state.reporterByEmail(r.Email); taken {
		return Reporter{}, fmt.Errorf("%w: reporter email %s", domain.ErrDuplicateAccount, r.Email)
	}
	r.CreatedAt = tx.now
	tx.state.reporters[r.ID] = r
	tx.recordChange(Change{Entity: domain.EntityReporter, Action: domain.ActionCreate, After: r})
	return r, nil
}

// UpdateReporter mutates a reporter using the provided mutator function.
func (tx *transaction) UpdateReporter(id string, mutator func(*Reporter) error) (Reporter, error) {
	current, ok := tx.state.reporters[id]
	if !ok {
		return Reporter{}, domain.NotFoundError{Entity: domain.EntityReporter, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Reporter{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	tx.state.reporters[id] = current
	tx.recordChange(Change{Entity: domain.EntityReporter, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// CreateNGO stores a new NGO. Emails are unique among NGOs, compared case-insensitively.
func (tx *transaction) CreateNGO(n NGO) (NGO, error) {
	if n.ID == "" {
		n.ID = tx.store.idFn()
	}
	if _, exists := tx.state.ngos[n.ID]; exists {
		return NGO{}, fmt.Errorf("ngo %q already exists", n.ID)
	}
	if _, taken := tx.state.ngoByEmail(n.Email); taken {
		return NGO{}, fmt.Errorf("%w: ngo email %s", domain.ErrDuplicateAccount, n.Email)
	}
	if n.Location == "" {
		n.Location = domain.DefaultNGOLocation
	}
	n.CreatedAt = tx.now
	tx.state.ngos[n.ID] = n
	tx.recordChange(Change{Entity: domain.EntityNGO, Action: domain.ActionCreate, After: n})
	return n, nil
}

// CreateReport stores a new report at the head of the canonical order.
func (tx *transaction) CreateReport(r RescueReport) (RescueReport, error) {
	if r.ID == "" {
		r.ID = tx.store.idFn()
	}
	if _, exists := tx.state.reports[r.ID]; exists {
		return RescueReport{}, fmt.Errorf("report %q already exists", r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	if r.Conversation == nil {
		r.Conversation = []domain.ChatMessage{}
	}
	tx.state.reports[r.ID] = r.Clone()
	tx.state.order = append([]string{r.ID}, tx.state.order...)
	tx.recordChange(Change{Entity: domain.EntityReport, Action: domain.ActionCreate, After: r.Clone()})
	return r.Clone(), nil
}

// UpdateReport mutates a report. The identity, reporter and creation time are
// immutable; updatedAt never moves backwards.
func (tx *transaction) UpdateReport(id string, mutator func(*RescueReport) error) (RescueReport, error) {
	stored, ok := tx.state.reports[id]
	if !ok {
		return RescueReport{}, domain.NotFoundError{Entity: domain.EntityReport, ID: id}
	}
	before := stored.Clone()
	current := stored.Clone()
	if err := mutator(&current); err != nil {
		return RescueReport{}, err
	}
	current.ID = id
	current.ReporterID = before.ReporterID
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = before.UpdatedAt
	if tx.now.After(current.UpdatedAt) {
		current.UpdatedAt = tx.now
	}
	tx.state.reports[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityReport, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current, nil
}

// Read helpers ---------------------------------------------------------------

// GetReporter retrieves a reporter by ID from committed state.
func (s *Store) GetReporter(id string) (Reporter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.reporters[id]
	return r, ok
}

// GetNGO retrieves an NGO by ID from committed state.
func (s *Store) GetNGO(id string) (NGO, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.state.ngos[id]
	return n, ok
}

// GetReport retrieves a deep copy of a report by ID.
func (s *Store) GetReport(id string) (RescueReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.reports[id]
	if !ok {
		return RescueReport{}, false
	}
	return r.Clone(), true
}

// ListReporters returns all reporters ordered by registration time.
func (s *Store) ListReporters() []Reporter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listReporters()
}

// ListNGOs returns all NGOs ordered by registration time.
func (s *Store) ListNGOs() []NGO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listNGOs()
}

// ListReports returns deep copies of all reports, newest created first.
func (s *Store) ListReports() []RescueReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listReports()
}
