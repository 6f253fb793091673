package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"dirlaunch/internal/core/domain"
	"dirlaunch/internal/core/port"
)

// memStore is an in-memory port.CampaignStore for tests. It reproduces
// the store behaviour the orchestrator depends on: the blocking per-user
// lock taken by LockAccount, the non-blocking peek, lazy allocation
// creation and the (campaign, directory) submission upsert. Writes apply
// eagerly; tests exercising failure paths fail before the first write.
type memStore struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	profiles  map[string]domain.BusinessProfile
	dirs      []domain.Directory
	allocSeq  int64
	allocs    map[int64]*domain.MonthlyAllocation
	allocIdx  map[string]int64 // user|period -> alloc id
	packSeq   int64
	packs     []*domain.OrderPack
	campaigns map[string]*domain.CampaignRun
	subs      map[string][]*domain.Submission
	userLocks map[string]*sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		accounts:  make(map[string]domain.Account),
		profiles:  make(map[string]domain.BusinessProfile),
		allocs:    make(map[int64]*domain.MonthlyAllocation),
		allocIdx:  make(map[string]int64),
		campaigns: make(map[string]*domain.CampaignRun),
		subs:      make(map[string][]*domain.Submission),
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (s *memStore) addPack(userID string, allocated, submitted int, status string) *domain.OrderPack {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packSeq++
	p := &domain.OrderPack{
		ID:                   s.packSeq,
		UserID:               userID,
		DirectoriesAllocated: allocated,
		DirectoriesSubmitted: submitted,
		Status:               status,
	}
	// creation order doubles as age order
	p.CreatedAt = p.CreatedAt.Add(time.Duration(s.packSeq))
	s.packs = append(s.packs, p)
	return p
}

func (s *memStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

func (s *memStore) Begin(ctx context.Context) (port.CampaignTx, error) {
	return &memTx{s: s}, nil
}

func (s *memStore) PeekActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error) {
	lock := s.userLock(userID)
	if !lock.TryLock() {
		return nil, nil
	}
	defer lock.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCampaignLocked(userID), nil
}

func (s *memStore) GetCampaign(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.campaigns[campaignID]; ok && run.UserID == userID {
		cp := *run
		return &cp, nil
	}
	return nil, nil
}

func (s *memStore) activeCampaignLocked(userID string) *domain.CampaignRun {
	var newest *domain.CampaignRun
	for _, run := range s.campaigns {
		if run.UserID != userID || domain.CampaignTerminal(run.Status) {
			continue
		}
		if newest == nil || run.CreatedAt.After(newest.CreatedAt) {
			newest = run
		}
	}
	if newest == nil {
		return nil
	}
	cp := *newest
	return &cp
}

type memTx struct {
	s      *memStore
	locked []*sync.Mutex
}

func (t *memTx) release() {
	for _, l := range t.locked {
		l.Unlock()
	}
	t.locked = nil
}

func (t *memTx) Commit(ctx context.Context) error   { t.release(); return nil }
func (t *memTx) Rollback(ctx context.Context) error { t.release(); return nil }

func (t *memTx) LockAccount(ctx context.Context, userID string) (*domain.Account, error) {
	lock := t.s.userLock(userID)
	lock.Lock()
	t.locked = append(t.locked, lock)

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	acct, ok := t.s.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := acct
	return &cp, nil
}

func (t *memTx) LatestProfile(ctx context.Context, userID string) (*domain.BusinessProfile, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	p, ok := t.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (t *memTx) CatalogCounts(ctx context.Context) (int, int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var active, priced int
	for _, d := range t.s.dirs {
		if !d.Active {
			continue
		}
		active++
		if d.PricingEligible() {
			priced++
		}
	}
	return active, priced, nil
}

func (t *memTx) ListActiveDirectories(ctx context.Context) ([]domain.Directory, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make([]domain.Directory, 0, len(t.s.dirs))
	for _, d := range t.s.dirs {
		if d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *memTx) SubmittedDirectoryIDs(ctx context.Context, userID string) (map[int64]struct{}, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make(map[int64]struct{})
	for _, run := range t.s.campaigns {
		if run.UserID != userID {
			continue
		}
		for _, sub := range t.s.subs[run.ID] {
			if sub.Status != domain.SubmissionFailed {
				out[sub.DirectoryID] = struct{}{}
			}
		}
	}
	return out, nil
}

func (t *memTx) CampaignByIdempotencyKey(ctx context.Context, userID, key string) (*domain.CampaignRun, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, run := range t.s.campaigns {
		if run.UserID == userID && run.IdempotencyKey == key {
			cp := *run
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *memTx) ActiveCampaign(ctx context.Context, userID string) (*domain.CampaignRun, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.activeCampaignLocked(userID), nil
}

func (t *memTx) GetCampaign(ctx context.Context, userID, campaignID string) (*domain.CampaignRun, error) {
	return t.s.GetCampaign(ctx, userID, campaignID)
}

func (t *memTx) GetOrCreateAllocation(ctx context.Context, userID, period string, base int) (*domain.MonthlyAllocation, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	key := userID + "|" + period
	if id, ok := t.s.allocIdx[key]; ok {
		cp := *t.s.allocs[id]
		return &cp, nil
	}
	t.s.allocSeq++
	alloc := &domain.MonthlyAllocation{
		ID:             t.s.allocSeq,
		UserID:         userID,
		Period:         period,
		BaseAllocation: base,
	}
	t.s.allocs[alloc.ID] = alloc
	t.s.allocIdx[key] = alloc.ID
	cp := *alloc
	return &cp, nil
}

func (t *memTx) UsableOrderPacks(ctx context.Context, userID string) ([]domain.OrderPack, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []domain.OrderPack
	for _, p := range t.s.packs {
		if p.UserID == userID && p.Usable() {
			out = append(out, *p)
		}
	}
	slices.SortFunc(out, func(a, b domain.OrderPack) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return int(a.ID - b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return out, nil
}

func (t *memTx) AddAllocationUsage(ctx context.Context, allocationID int64, n int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.allocs[allocationID].SubmissionsUsed += n
	return nil
}

func (t *memTx) AddPackUsage(ctx context.Context, packID int64, n int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, p := range t.s.packs {
		if p.ID == packID {
			p.DirectoriesSubmitted += n
			return nil
		}
	}
	return nil
}

func (t *memTx) CreateCampaign(ctx context.Context, run *domain.CampaignRun) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cp := *run
	t.s.campaigns[run.ID] = &cp
	return nil
}

func (t *memTx) UpdateCampaign(ctx context.Context, run *domain.CampaignRun) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	stored, ok := t.s.campaigns[run.ID]
	if !ok {
		return nil
	}
	// snapshots are write-once; only mutable fields are copied
	stored.Status = run.Status
	stored.FailureDetail = run.FailureDetail
	stored.Counters = run.Counters
	stored.UpdatedAt = run.UpdatedAt
	return nil
}

func (t *memTx) UpsertSubmission(ctx context.Context, sub *domain.Submission) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cp := *sub
	for i, existing := range t.s.subs[sub.CampaignID] {
		if existing.DirectoryID == sub.DirectoryID {
			cp.ID = existing.ID
			cp.CreatedAt = existing.CreatedAt
			t.s.subs[sub.CampaignID][i] = &cp
			return nil
		}
	}
	t.s.subs[sub.CampaignID] = append(t.s.subs[sub.CampaignID], &cp)
	return nil
}

func (t *memTx) ListSubmissions(ctx context.Context, campaignID string) ([]domain.Submission, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	out := make([]domain.Submission, 0, len(t.s.subs[campaignID]))
	for _, sub := range t.s.subs[campaignID] {
		out = append(out, *sub)
	}
	return out, nil
}

func (t *memTx) MaxQueuePosition(ctx context.Context, campaignID string) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	maxPos := 0
	for _, sub := range t.s.subs[campaignID] {
		if sub.QueuePosition != nil && *sub.QueuePosition > maxPos {
			maxPos = *sub.QueuePosition
		}
	}
	return maxPos, nil
}

// stubDetector returns canned outcomes per directory id; anything not
// listed is a clean no_match.
type stubDetector struct {
	mu       sync.Mutex
	outcomes map[int64]domain.CheckOutcome
	calls    int
}

func (d *stubDetector) BatchCheck(ctx context.Context, biz domain.BusinessIdentity, dirs []domain.Directory) (map[int64]domain.CheckOutcome, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	out := make(map[int64]domain.CheckOutcome, len(dirs))
	for _, dir := range dirs {
		if o, ok := d.outcomes[dir.ID]; ok {
			out[dir.ID] = o
		} else {
			out[dir.ID] = domain.CheckOutcome{Status: domain.CheckNoMatch}
		}
	}
	return out, nil
}

// outcomeWithConfidence builds a detector outcome the way the real
// detector would report the given confidence.
func outcomeWithConfidence(confidence float64, domainEvidence bool) domain.CheckOutcome {
	return domain.CheckOutcome{
		Status:         domain.StatusFromConfidence(confidence, domainEvidence),
		Confidence:     confidence,
		DomainEvidence: domainEvidence,
	}
}
