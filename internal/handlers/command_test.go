package handlers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/locales"
	"modrelay-bot/internal/metrics"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

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

// MockAdminChecker is a mock implementing auth.AdminCheckerInterface.
type MockAdminChecker struct {
	mock.Mock
}

func (m *MockAdminChecker) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockSubmissionRepository is a mock implementing database.SubmissionRepository.
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) GetBySeqID(ctx context.Context, seqID int64) (*models.Submission, error) {
	args := m.Called(ctx, seqID)
	if sub, ok := args.Get(0).(*models.Submission); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) ClaimDecision(ctx context.Context, seqID int64, status models.SubmissionStatus, mode models.PublishMode, adminID int64, adminName string) (*models.Submission, error) {
	args := m.Called(ctx, seqID, status, mode, adminID, adminName)
	if sub, ok := args.Get(0).(*models.Submission); ok {
		return sub, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) SetStatus(ctx context.Context, seqID int64, status models.SubmissionStatus) error {
	args := m.Called(ctx, seqID, status)
	return args.Error(0)
}

func (m *MockSubmissionRepository) SetAdminReply(ctx context.Context, seqID int64, reply string, delivered bool) error {
	args := m.Called(ctx, seqID, reply, delivered)
	return args.Error(0)
}

func (m *MockSubmissionRepository) AddAdminMessage(ctx context.Context, seqID int64, ref models.AdminMessageRef) error {
	args := m.Called(ctx, seqID, ref)
	return args.Error(0)
}

func (m *MockSubmissionRepository) ListPending(ctx context.Context, limit int, newestFirst bool) ([]models.Submission, int64, error) {
	args := m.Called(ctx, limit, newestFirst)
	if subs, ok := args.Get(0).([]models.Submission); ok {
		return subs, args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *MockSubmissionRepository) CountByStatus(ctx context.Context) (map[models.SubmissionStatus]int64, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).(map[models.SubmissionStatus]int64); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSubmissionRepository) CountDistinctSubmitters(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// --- Test Suite Setup ---

const (
	testChannelID = int64(12345)
	testVersion   = "v1.2.3-test"
)

type testHandlerSuite struct {
	mockBot          *MockBot
	mockAdminChecker *MockAdminChecker
	mockSubRepo      *MockSubmissionRepository
	handler          *MessageHandler
}

func setupTestHandlerSuite(t *testing.T) *testHandlerSuite {
	t.Helper()

	mockBot := new(MockBot)
	mockAdminChecker := new(MockAdminChecker)
	mockSubRepo := new(MockSubmissionRepository)

	handler := &MessageHandler{
		channelID:    testChannelID,
		version:      testVersion,
		subRepo:      mockSubRepo,
		adminChecker: mockAdminChecker,
		metrics:      metrics.New(),
	}
	handler.commands = []Command{
		{Command: "start", Description: "CmdStartDesc", Handler: handler.HandleStart},
		{Command: "help", Description: "CmdHelpDesc", Handler: handler.HandleHelp},
		{Command: "stats", Description: "CmdStatsDesc", AdminOnly: true, Handler: handler.HandleStats},
		{Command: "pending", Description: "CmdPendingDesc", AdminOnly: true, Handler: handler.HandlePending},
		{Command: "moderate", Description: "CmdModerateDesc", AdminOnly: true, Handler: handler.HandleModerate},
		{Command: "version", Description: "CmdVersionDesc", Handler: handler.HandleVersion},
	}

	return &testHandlerSuite{
		mockBot:          mockBot,
		mockAdminChecker: mockAdminChecker,
		mockSubRepo:      mockSubRepo,
		handler:          handler,
	}
}

func commandMessage(userID, chatID int64, text string) telego.Message {
	return telego.Message{
		MessageID: 100,
		From: &telego.User{
			ID:           userID,
			Username:     "testuser",
			FirstName:    "Test",
			LanguageCode: "en",
		},
		Chat: telego.Chat{ID: chatID},
		Text: text,
	}
}

// captureSendMessage registers a SendMessage expectation that stores the params.
func captureSendMessage(mockBot *MockBot, dst **telego.SendMessageParams) {
	mockBot.On("SendMessage", mock.Anything, mock.AnythingOfType("*telego.SendMessageParams")).
		Run(func(args mock.Arguments) {
			if params, ok := args.Get(1).(*telego.SendMessageParams); ok {
				*dst = params
			}
		}).
		Return(&telego.Message{}, nil).Once()
}

// --- Tests ---

func TestHandleStart(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	t.Run("RegularUser", func(t *testing.T) {
		s := setupTestHandlerSuite(t)
		msg := commandMessage(111, 222, "/start")

		expected := locales.GetMessage(locales.NewLocalizer("en"), "MsgStartUser", map[string]interface{}{
			"FirstName": "Test",
		}, nil)

		s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(false, nil).Once()
		var captured *telego.SendMessageParams
		captureSendMessage(s.mockBot, &captured)

		err := s.handler.HandleStart(ctx, s.mockBot, msg)

		assert.NoError(t, err)
		s.mockAdminChecker.AssertExpectations(t)
		s.mockBot.AssertExpectations(t)
		assert.NotNil(t, captured)
		assert.Equal(t, telegoutil.ID(int64(222)), captured.ChatID)
		assert.Equal(t, expected, captured.Text)
	})

	t.Run("Admin", func(t *testing.T) {
		s := setupTestHandlerSuite(t)
		msg := commandMessage(111, 222, "/start")

		expected := locales.GetMessage(locales.NewLocalizer("en"), "MsgStartAdmin", nil, nil)

		s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(true, nil).Once()
		var captured *telego.SendMessageParams
		captureSendMessage(s.mockBot, &captured)

		err := s.handler.HandleStart(ctx, s.mockBot, msg)

		assert.NoError(t, err)
		assert.NotNil(t, captured)
		assert.Equal(t, expected, captured.Text)
	})
}

func TestHandleHelp(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	t.Run("AdminSeesAllCommands", func(t *testing.T) {
		s := setupTestHandlerSuite(t)
		msg := commandMessage(111, 222, "/help")

		localizer := locales.NewLocalizer("en")
		var want strings.Builder
		want.WriteString(locales.GetMessage(localizer, "MsgHelpHeader", nil, nil) + "\n")
		for _, cmd := range s.handler.commands {
			desc := locales.GetMessage(localizer, cmd.Description, nil, nil)
			want.WriteString(fmt.Sprintf("/%s - %s\n", cmd.Command, desc))
		}

		s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(true, nil).Once()
		var captured *telego.SendMessageParams
		captureSendMessage(s.mockBot, &captured)

		err := s.handler.HandleHelp(ctx, s.mockBot, msg)

		assert.NoError(t, err)
		assert.NotNil(t, captured)
		assert.Equal(t, want.String(), captured.Text)
	})

	t.Run("RegularUserSeesNoAdminCommands", func(t *testing.T) {
		s := setupTestHandlerSuite(t)
		msg := commandMessage(111, 222, "/help")

		s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(false, nil).Once()
		var captured *telego.SendMessageParams
		captureSendMessage(s.mockBot, &captured)

		err := s.handler.HandleHelp(ctx, s.mockBot, msg)

		assert.NoError(t, err)
		assert.NotNil(t, captured)
		assert.NotContains(t, captured.Text, "/stats")
		assert.NotContains(t, captured.Text, "/pending")
		assert.NotContains(t, captured.Text, "/moderate")
		assert.Contains(t, captured.Text, "/start")
		assert.Contains(t, captured.Text, "/version")
	})
}

func TestHandleStats(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	t.Run("AdminGetsCounts", func(t *testing.T) {
		s := setupTestHandlerSuite(t)
		msg := commandMessage(111, 222, "/stats")

		s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(true, nil).Once()
		s.mockSubRepo.On("CountByStatus", ctx).Return(map[models.SubmissionStatus]int64{
			models.StatusPending:  2,
			models.StatusApproved: 5,
			models.StatusRejected: 3,
			models.StatusError:    1,
		}, nil).Once()
		s.mockSubRepo.On("CountDistinctSubmitters", ctx).Return(int64(4), nil).Once()

		var captured *telego.SendMessageParams
		captureSendMessage(s.mockBot, &captured)

		err := s.handler.HandleStats(ctx, s.mockBot, msg)

		assert.NoError(t, err)
		s.mockSubRepo.AssertExpectations(t)
		assert.NotNil(t, captured)
		assert.Contains(t, captured.Text, "11") // total
		assert.Contains(t, captured.Text, "4")  // unique submitters
	})

	t.Run("NonAdminDenied", func(t *testing.T) {
		s := setupTestHandlerSuite(t)
		msg := commandMessage(111, 222, "/stats")

		s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(false, nil).Once()
		var captured *telego.SendMessageParams
		captureSendMessage(s.mockBot, &captured)

		err := s.handler.HandleStats(ctx, s.mockBot, msg)

		assert.Error(t, err)
		s.mockSubRepo.AssertNotCalled(t, "CountByStatus", mock.Anything)
		assert.NotNil(t, captured)
		expected := locales.GetMessage(locales.NewLocalizer("en"), "MsgErrorGeneral", nil, nil)
		assert.Equal(t, expected, captured.Text)
	})
}

func TestHandlePendingRequiresAdmin(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	s := setupTestHandlerSuite(t)
	msg := commandMessage(111, 222, "/pending")

	s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(false, nil).Once()
	var captured *telego.SendMessageParams
	captureSendMessage(s.mockBot, &captured)

	err := s.handler.HandlePending(ctx, s.mockBot, msg)

	assert.Error(t, err)
	s.mockAdminChecker.AssertExpectations(t)
}

func TestHandleModerateRequiresAdmin(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	s := setupTestHandlerSuite(t)
	msg := commandMessage(111, 222, "/moderate")

	s.mockAdminChecker.On("IsAdmin", ctx, int64(111)).Return(false, nil).Once()
	var captured *telego.SendMessageParams
	captureSendMessage(s.mockBot, &captured)

	err := s.handler.HandleModerate(ctx, s.mockBot, msg)

	assert.Error(t, err)
}

func TestHandleVersion(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	s := setupTestHandlerSuite(t)
	msg := commandMessage(111, 222, "/version")

	expected := locales.GetMessage(locales.NewLocalizer("en"), "MsgVersion", map[string]interface{}{
		"Version": testVersion,
	}, nil)

	var captured *telego.SendMessageParams
	captureSendMessage(s.mockBot, &captured)

	err := s.handler.HandleVersion(ctx, s.mockBot, msg)

	assert.NoError(t, err)
	assert.NotNil(t, captured)
	assert.Equal(t, expected, captured.Text)
}

func TestGetCommandHandler(t *testing.T) {
	s := setupTestHandlerSuite(t)

	assert.NotNil(t, s.handler.GetCommandHandler("start"))
	assert.NotNil(t, s.handler.GetCommandHandler("moderate"))
	assert.Nil(t, s.handler.GetCommandHandler("caption"))
}

func TestSetupCommands(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	s := setupTestHandlerSuite(t)

	var captured *telego.SetMyCommandsParams
	s.mockBot.On("SetMyCommands", ctx, mock.AnythingOfType("*telego.SetMyCommandsParams")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*telego.SetMyCommandsParams)
		}).
		Return(nil).Once()

	err := s.handler.SetupCommands(ctx, s.mockBot)

	assert.NoError(t, err)
	s.mockBot.AssertExpectations(t)
	assert.NotNil(t, captured)
	assert.Len(t, captured.Commands, len(s.handler.commands))
	assert.Equal(t, "start", captured.Commands[0].Command)
	assert.NotEmpty(t, captured.Commands[0].Description)
}
