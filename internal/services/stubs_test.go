package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joejoe2/spring-chat-sub000/internal/chaterr"
	"github.com/joejoe2/spring-chat-sub000/internal/models"
	"github.com/joejoe2/spring-chat-sub000/internal/repositories"
	"github.com/joejoe2/spring-chat-sub000/internal/subscriber"
	"github.com/joejoe2/spring-chat-sub000/internal/utils"
	logger "github.com/joejoe2/spring-chat-sub000/middleware/log"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newStubUserRepo(users ...*models.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return chaterr.ErrConflict
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, chaterr.ErrNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, chaterr.ErrNotFound
}

func (r *stubUserRepo) GetOrCreate(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[user.ID]; ok {
		return u, nil
	}
	r.users[user.ID] = user
	return user, nil
}

type stubGroupRepo struct {
	mu            sync.Mutex
	channels      map[string]*models.GroupChannel
	saved         []*models.Message
	failSaves     int
	saveCalls     int
	conflictOnAll bool
}

func newStubGroupRepo(channels ...*models.GroupChannel) *stubGroupRepo {
	r := &stubGroupRepo{channels: make(map[string]*models.GroupChannel)}
	for _, c := range channels {
		r.channels[c.ID] = c
	}
	return r
}

func (r *stubGroupRepo) Create(_ context.Context, c *models.GroupChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[c.ID] = c
	return nil
}

func (r *stubGroupRepo) FindByID(_ context.Context, id string) (*models.GroupChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[id]
	if !ok {
		return nil, chaterr.ErrNotFound
	}
	return cloneGroup(c), nil
}

func cloneGroup(c *models.GroupChannel) *models.GroupChannel {
	clone := *c
	clone.Members = append(models.MemberSet(nil), c.Members...)
	clone.Administrators = append(models.MemberSet(nil), c.Administrators...)
	clone.Banned = append(models.MemberSet(nil), c.Banned...)
	clone.Invitations = append(models.InvitationSet(nil), c.Invitations...)
	return &clone
}

func (r *stubGroupRepo) FindByMember(_ context.Context, userID string, _ time.Time, page repositories.Page) (repositories.Slice[*models.GroupChannel], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GroupChannel
	for _, c := range r.channels {
		if c.Members.Contains(userID) {
			out = append(out, c)
		}
	}
	return repositories.Slice[*models.GroupChannel]{Items: out}, nil
}

func (r *stubGroupRepo) FindByInvited(_ context.Context, userID string, page repositories.Page) (repositories.Slice[*models.GroupChannel], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GroupChannel
	for _, c := range r.channels {
		if c.Invitations.Contains(userID) {
			out = append(out, c)
		}
	}
	return repositories.Slice[*models.GroupChannel]{Items: out}, nil
}

func (r *stubGroupRepo) Save(_ context.Context, c *models.GroupChannel, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveCalls++
	if r.conflictOnAll || r.failSaves > 0 {
		if r.failSaves > 0 {
			r.failSaves--
		}
		return chaterr.ErrVersionConflict
	}
	c.Version++
	r.channels[c.ID] = cloneGroup(c)
	if msg != nil {
		r.saved = append(r.saved, msg)
	}
	return nil
}

type stubPrivateRepo struct {
	mu        sync.Mutex
	channels  map[string]*models.PrivateChannel
	byPairing map[string]*models.PrivateChannel
	saved     []*models.Message
	failSaves int
}

func newStubPrivateRepo(channels ...*models.PrivateChannel) *stubPrivateRepo {
	r := &stubPrivateRepo{
		channels:  make(map[string]*models.PrivateChannel),
		byPairing: make(map[string]*models.PrivateChannel),
	}
	for _, c := range channels {
		r.channels[c.ID] = c
		r.byPairing[c.PairingKey] = c
	}
	return r
}

func (r *stubPrivateRepo) Create(_ context.Context, c *models.PrivateChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPairing[c.PairingKey]; ok {
		return chaterr.ErrConflict
	}
	r.channels[c.ID] = c
	r.byPairing[c.PairingKey] = c
	return nil
}

func (r *stubPrivateRepo) FindByID(_ context.Context, id string) (*models.PrivateChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[id]
	if !ok {
		return nil, chaterr.ErrNotFound
	}
	return clonePrivate(c), nil
}

func clonePrivate(c *models.PrivateChannel) *models.PrivateChannel {
	clone := *c
	clone.Members = append(models.MemberSet(nil), c.Members...)
	clone.Blocked = append([]string(nil), c.Blocked...)
	return &clone
}

func (r *stubPrivateRepo) FindByPairingKey(_ context.Context, key string) (*models.PrivateChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byPairing[key]
	if !ok {
		return nil, chaterr.ErrNotFound
	}
	return c, nil
}

func (r *stubPrivateRepo) FindByMember(_ context.Context, userID string, _ time.Time, _ repositories.Page) (repositories.Slice[*models.PrivateChannel], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PrivateChannel
	for _, c := range r.channels {
		if c.Members.Contains(userID) {
			out = append(out, c)
		}
	}
	return repositories.Slice[*models.PrivateChannel]{Items: out}, nil
}

func (r *stubPrivateRepo) Save(_ context.Context, c *models.PrivateChannel, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSaves > 0 {
		r.failSaves--
		return chaterr.ErrVersionConflict
	}
	c.Version++
	clone := clonePrivate(c)
	r.channels[c.ID] = clone
	r.byPairing[c.PairingKey] = clone
	if msg != nil {
		r.saved = append(r.saved, msg)
	}
	return nil
}

type stubPublicRepo struct {
	mu       sync.Mutex
	channels map[string]*models.PublicChannel
	byName   map[string]*models.PublicChannel
}

func newStubPublicRepo(channels ...*models.PublicChannel) *stubPublicRepo {
	r := &stubPublicRepo{
		channels: make(map[string]*models.PublicChannel),
		byName:   make(map[string]*models.PublicChannel),
	}
	for _, c := range channels {
		r.channels[c.ID] = c
		r.byName[c.Name] = c
	}
	return r
}

func (r *stubPublicRepo) Create(_ context.Context, c *models.PublicChannel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[c.Name]; ok {
		return chaterr.ErrConflict
	}
	r.channels[c.ID] = c
	r.byName[c.Name] = c
	return nil
}

func (r *stubPublicRepo) FindByID(_ context.Context, id string) (*models.PublicChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.channels[id]
	if !ok {
		return nil, chaterr.ErrNotFound
	}
	return c, nil
}

func (r *stubPublicRepo) FindByName(_ context.Context, name string) (*models.PublicChannel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byName[name]
	if !ok {
		return nil, chaterr.ErrNotFound
	}
	return c, nil
}

func (r *stubPublicRepo) List(_ context.Context, _ time.Time, _ repositories.Page) (repositories.Slice[*models.PublicChannel], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.PublicChannel
	for _, c := range r.channels {
		out = append(out, c)
	}
	return repositories.Slice[*models.PublicChannel]{Items: out}, nil
}

type stubMessageRepo struct {
	mu       sync.Mutex
	messages []*models.Message
}

func (r *stubMessageRepo) Create(_ context.Context, msg *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *stubMessageRepo) FindByID(_ context.Context, id int64) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, chaterr.ErrNotFound
}

func (r *stubMessageRepo) FindByChannel(_ context.Context, kind models.ChannelKind, channelID string, _ time.Time, _ repositories.Page) (repositories.Slice[*models.Message], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, m := range r.messages {
		if m.ChannelKind == kind && m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	return repositories.Slice[*models.Message]{Items: out}, nil
}

func (r *stubMessageRepo) FindBySender(_ context.Context, senderID string, _ time.Time, _ repositories.Page) (repositories.Slice[*models.Message], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Message
	for _, m := range r.messages {
		if m.SenderID == senderID {
			out = append(out, m)
		}
	}
	return repositories.Slice[*models.Message]{Items: out}, nil
}

// stubPublisher records publishes per subject.
type stubPublisher struct {
	mu       sync.Mutex
	payloads map[string][]any
}

func newStubPublisher() *stubPublisher {
	return &stubPublisher{payloads: make(map[string][]any)}
}

func (p *stubPublisher) Publish(_ context.Context, subject string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[subject] = append(p.payloads[subject], v)
}

func (p *stubPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.payloads))
	for s := range p.payloads {
		out = append(out, s)
	}
	return out
}

func (p *stubPublisher) waitForSubjects(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := p.subjects(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d subjects, have %v", n, p.subjects())
	return nil
}

// stubBroker satisfies the registry's broker side.
type stubBroker struct {
	mu     sync.Mutex
	active map[string]bool
}

func newStubBroker() *stubBroker {
	return &stubBroker{active: make(map[string]bool)}
}

func (b *stubBroker) Subscribe(_ context.Context, subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active[subject] = true
	return nil
}

func (b *stubBroker) Unsubscribe(_ context.Context, subject string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.active, subject)
	return nil
}

func (b *stubBroker) isActive(subject string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active[subject]
}

func timeZero() time.Time { return time.Time{} }

func pageOne() repositories.Page { return repositories.Page{Number: 0, Size: 10} }

// recordSink collects frames and honors the finish-hook contract.
type recordSink struct {
	mu     sync.Mutex
	frames [][]byte
	done   bool
	hooks  []func()
}

func (s *recordSink) Send(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordSink) Close() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

func (s *recordSink) OnFinished(fn func()) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		fn()
		return
	}
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

func (s *recordSink) received() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.frames...)
}

func newTestDeliverer(t *testing.T) (*Deliverer, *stubPublisher) {
	t.Helper()
	pool := utils.NewWorkerPool(2, 32, logger.NewNopLogger())
	pool.Start()
	t.Cleanup(pool.Stop)
	pub := newStubPublisher()
	return NewDeliverer(pub, pool, nil, logger.NewNopLogger()), pub
}

func newTestRegistry(t *testing.T, subject func(string) string) (*subscriber.Registry, *stubBroker) {
	t.Helper()
	pool := subscriber.NewFanoutPool(2, 32, logger.NewNopLogger())
	pool.Start()
	t.Cleanup(pool.Stop)
	broker := newStubBroker()
	return subscriber.NewRegistry(broker, subject, pool, logger.NewNopLogger()), broker
}
