package moderation

import (
	"context"
	"sync"
	"time"

	"modrelay-bot/internal/auth"
	"modrelay-bot/internal/database"
	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/mediagroups"
	"modrelay-bot/internal/metrics"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/mock"
)

// MockBot is a mock implementing the telegoapi.BotAPI interface.
type MockBot struct {
	mock.Mock
}

func (m *MockBot) GetMe(ctx context.Context) (*telego.User, error) {
	args := m.Called(ctx)
	if user, ok := args.Get(0).(*telego.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) GetChat(ctx context.Context, params *telego.GetChatParams) (*telego.ChatFullInfo, error) {
	args := m.Called(ctx, params)
	if info, ok := args.Get(0).(*telego.ChatFullInfo); ok {
		return info, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendVideo(ctx context.Context, params *telego.SendVideoParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendVoice(ctx context.Context, params *telego.SendVoiceParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendDocument(ctx context.Context, params *telego.SendDocumentParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendSticker(ctx context.Context, params *telego.SendStickerParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendMediaGroup(ctx context.Context, params *telego.SendMediaGroupParams) ([]telego.Message, error) {
	args := m.Called(ctx, params)
	if msgs, ok := args.Get(0).([]telego.Message); ok {
		return msgs, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// fakeSubmissionRepo is an in-memory SubmissionRepository with the same claim
// semantics as the Mongo implementation. Safe for concurrent use.
type fakeSubmissionRepo struct {
	mu   sync.Mutex
	seq  int64
	subs map[int64]*models.Submission

	createErr error
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{subs: make(map[int64]*models.Submission)}
}

func (r *fakeSubmissionRepo) CreateSubmission(_ context.Context, submission *models.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	submission.SeqID = r.seq
	submission.Status = models.StatusPending
	submission.PublishMode = models.ModeUnset
	submission.SubmittedAt = time.Now()
	copied := *submission
	r.subs[submission.SeqID] = &copied
	return nil
}

func (r *fakeSubmissionRepo) GetBySeqID(_ context.Context, seqID int64) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[seqID]
	if !ok {
		return nil, database.ErrSubmissionNotFound
	}
	copied := *sub
	return &copied, nil
}

func (r *fakeSubmissionRepo) ClaimDecision(_ context.Context, seqID int64, status models.SubmissionStatus, mode models.PublishMode, adminID int64, adminName string) (*models.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[seqID]
	if !ok {
		return nil, database.ErrSubmissionNotFound
	}
	if sub.Status != models.StatusPending {
		return nil, &database.AlreadyDecidedError{Status: sub.Status}
	}
	sub.Status = status
	sub.PublishMode = mode
	sub.DecidedBy = adminID
	sub.DecidedByName = adminName
	sub.DecidedAt = time.Now()
	copied := *sub
	return &copied, nil
}

func (r *fakeSubmissionRepo) SetStatus(_ context.Context, seqID int64, status models.SubmissionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[seqID]
	if !ok {
		return database.ErrSubmissionNotFound
	}
	sub.Status = status
	return nil
}

func (r *fakeSubmissionRepo) SetAdminReply(_ context.Context, seqID int64, reply string, delivered bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[seqID]
	if !ok {
		return database.ErrSubmissionNotFound
	}
	sub.AdminReply = reply
	sub.AdminReplyDelivered = delivered
	return nil
}

func (r *fakeSubmissionRepo) AddAdminMessage(_ context.Context, seqID int64, ref models.AdminMessageRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[seqID]
	if !ok {
		return database.ErrSubmissionNotFound
	}
	sub.AdminMessages = append(sub.AdminMessages, ref)
	return nil
}

func (r *fakeSubmissionRepo) ListPending(_ context.Context, limit int, newestFirst bool) ([]models.Submission, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []models.Submission
	for seq := int64(1); seq <= r.seq; seq++ {
		if sub, ok := r.subs[seq]; ok && sub.Status == models.StatusPending {
			pending = append(pending, *sub)
		}
	}
	if newestFirst {
		for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
			pending[i], pending[j] = pending[j], pending[i]
		}
	}
	total := int64(len(pending))
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, total, nil
}

func (r *fakeSubmissionRepo) count() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

func (r *fakeSubmissionRepo) CountByStatus(_ context.Context) (map[models.SubmissionStatus]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[models.SubmissionStatus]int64)
	for _, sub := range r.subs {
		counts[sub.Status]++
	}
	return counts, nil
}

func (r *fakeSubmissionRepo) CountDistinctSubmitters(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]bool)
	for _, sub := range r.subs {
		seen[sub.SubmitterID] = true
	}
	return int64(len(seen)), nil
}

const (
	testChannelID = int64(-100500)
	testAdminID   = int64(1001)
	testAdminID2  = int64(1002)
	testUserID    = int64(777)
	testUserChat  = int64(777)
)

// newTestManager wires a Manager over the mock bot and fake repository.
func newTestManager(mockBot *MockBot, repo *fakeSubmissionRepo) *Manager {
	checker, _ := auth.NewAdminChecker([]int64{testAdminID, testAdminID2})
	return NewManager(
		mockBot,
		repo,
		testChannelID,
		checker,
		[]int64{testAdminID, testAdminID2},
		metrics.New(),
		mediagroups.NewManager(20*time.Millisecond, mediagroups.DefaultMaxGroupSize),
	)
}

// pendingSubmission seeds one pending submission and returns its id.
func pendingSubmission(repo *fakeSubmissionRepo, kind models.ContentKind, caption string, fileIDs ...string) int64 {
	sub := &models.Submission{
		SubmitterID:   testUserID,
		SubmitterName: "Sender",
		Username:      "sender",
		ChatID:        testUserChat,
		Kind:          kind,
		Caption:       caption,
		FileIDs:       fileIDs,
	}
	_ = repo.CreateSubmission(context.Background(), sub)
	return sub.SeqID
}

func adminCallback(adminID int64, data string) telego.CallbackQuery {
	return telego.CallbackQuery{
		ID:   "query-1",
		From: telego.User{ID: adminID, Username: "mod", FirstName: "Mod"},
		Data: data,
	}
}
