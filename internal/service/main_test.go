package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"muster/internal/access"
	"muster/internal/database"
	"muster/internal/featureflags"
	"muster/internal/models"
	"muster/internal/notifications"
	"muster/internal/repository"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var epoch = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

var dbSeq atomic.Int64

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) record(kind string, notice notifications.CharterNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind+":"+notice.Charter.Name)
}

func (n *recordingNotifier) CharterSubmitted(_ context.Context, notice notifications.CharterNotice) {
	n.record("submitted", notice)
}

func (n *recordingNotifier) CharterApproved(_ context.Context, notice notifications.CharterNotice) {
	n.record("approved", notice)
}

func (n *recordingNotifier) CharterRejected(_ context.Context, notice notifications.CharterNotice) {
	n.record("rejected", notice)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixture struct {
	db       *gorm.DB
	clock    *clockwork.FakeClock
	charters *CharterService
	leagues  *LeagueService
	notifier *recordingNotifier
	events   repository.EventRepository

	owner, root, operator, staff, stranger access.Actor
	anonymous                              access.Actor

	league        *models.League
	travel, bteam *models.CharterType

	// serviceWith rebuilds the charter service over another repository.
	serviceWith func(repository.CharterRepository) *CharterService
}

func newFixture(t *testing.T, flags string) *fixture {
	t.Helper()
	db := setupSQLite(t)
	ctx := context.Background()

	f := &fixture{
		db:       db,
		clock:    clockwork.NewFakeClockAt(epoch),
		notifier: &recordingNotifier{},
		events:   repository.NewEventRepository(db),
	}

	users := repository.NewUserRepository(db)
	mkUser := func(name string, roles ...string) access.Actor {
		u := &models.User{Name: name, Email: name + "@example.com", Password: "x"}
		require.NoError(t, users.Create(ctx, u))
		for _, r := range roles {
			require.NoError(t, users.AssignRole(ctx, u.ID, r))
		}
		loaded, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		return access.ActorFromUser(loaded)
	}
	f.owner = mkUser("owner")
	f.root = mkUser("root", models.RoleRoot)
	f.operator = mkUser("operator", models.RoleOperator)
	f.staff = mkUser("staff", models.RoleStaff)
	f.stranger = mkUser("stranger")

	ownerID := f.owner.ID
	f.league = &models.League{Slug: "rose-city", Name: "Rose City Rollers", UserID: &ownerID}
	require.NoError(t, db.Create(f.league).Error)

	types := repository.NewCharterTypeRepository(db)
	var err error
	f.travel, err = types.FirstOrCreate(ctx, "Travel Team")
	require.NoError(t, err)
	f.bteam, err = types.FirstOrCreate(ctx, "B Team")
	require.NoError(t, err)

	leagueRepo := repository.NewLeagueRepository(db)
	charterRepo := repository.NewCharterRepository(db)
	gate := access.NewGate(access.DefaultRegistry(), f.clock)
	f.serviceWith = func(repo repository.CharterRepository) *CharterService {
		return NewCharterService(leagueRepo, repo, types, gate,
			featureflags.NewManager(flags), f.notifier, NewAuditor(f.events), f.clock)
	}
	f.charters = f.serviceWith(charterRepo)
	f.leagues = NewLeagueService(leagueRepo, charterRepo, users, gate, f.clock)
	return f
}

func rosterCSV(skaters ...string) *Upload {
	var b strings.Builder
	b.WriteString("uniform_nbr,derby_name\n")
	for i, s := range skaters {
		fmt.Fprintf(&b, "%d,%s\n", i+1, s)
	}
	return &Upload{Filename: "roster.csv", Reader: strings.NewReader(b.String())}
}

func typeInput(ct *models.CharterType) CharterInput {
	id := ct.ID
	return CharterInput{CharterTypeID: &id}
}

// create stores a draft charter of type ct owned by the fixture league.
func (f *fixture) create(t *testing.T, ct *models.CharterType, name string, skaters ...string) *models.Charter {
	t.Helper()
	in := typeInput(ct)
	in.Name = name
	res, err := f.charters.Create(context.Background(), f.owner, f.league.Slug, in, rosterCSV(skaters...))
	require.NoError(t, err)
	require.True(t, res.Changed)
	return res.Charter
}

// approve requests approval for c and approves it active from activeFrom.
func (f *fixture) approve(t *testing.T, c *models.Charter, activeFrom time.Time) {
	t.Helper()
	ctx := context.Background()
	_, err := f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	res, err := f.charters.Approve(ctx, f.operator, f.league.Slug, c.Slug, CharterInput{ActiveFrom: &activeFrom})
	require.NoError(t, err)
	require.True(t, res.Changed)
}

func (f *fixture) reload(t *testing.T, slug string) *models.Charter {
	t.Helper()
	c, err := repository.NewCharterRepository(f.db).GetBySlug(context.Background(), f.league.ID, slug, true)
	require.NoError(t, err)
	return c
}

// lockingRepo counts league locks taken inside transactions. onLock, when
// set, runs inside the transaction right after the lock, standing in for a
// writer that committed just before it.
type lockingRepo struct {
	repository.CharterRepository
	locks  *int
	onLock func(ctx context.Context, tx repository.CharterRepository) error
}

func newLockingRepo(db *gorm.DB) *lockingRepo {
	return &lockingRepo{CharterRepository: repository.NewCharterRepository(db), locks: new(int)}
}

func (r *lockingRepo) Transaction(ctx context.Context, fn func(repo repository.CharterRepository) error) error {
	return r.CharterRepository.Transaction(ctx, func(tx repository.CharterRepository) error {
		return fn(&lockingRepo{CharterRepository: tx, locks: r.locks, onLock: r.onLock})
	})
}

func (r *lockingRepo) LockLeague(ctx context.Context, leagueID uint) error {
	if err := r.CharterRepository.LockLeague(ctx, leagueID); err != nil {
		return err
	}
	*r.locks++
	if r.onLock != nil {
		return r.onLock(ctx, r.CharterRepository)
	}
	return nil
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}
