package moderation

import (
	"log"
	"sync"

	"modrelay-bot/internal/auth"
	"modrelay-bot/internal/database"
	"modrelay-bot/internal/mediagroups"
	"modrelay-bot/internal/metrics"
	telegoapi "modrelay-bot/pkg/telegoapi"
)

// Manager owns the moderation queue: submission intake, admin notification
// fan-out, the decision state machine, channel publishing and the reply bridge.
type Manager struct {
	bot             telegoapi.BotAPI
	repo            database.SubmissionRepository
	targetChannelID int64
	adminChecker    auth.AdminCheckerInterface
	adminIDs        []int64
	metrics         *metrics.Metrics
	mediaGroupMgr   *mediagroups.Manager

	// replyMarkers maps an admin id to the submission id they are composing a
	// reply for. At most one marker per admin, last-set-wins, consumed on the
	// admin's next free-text message.
	replyMarkers   map[int64]int64
	muReplyMarkers sync.Mutex
}

// NewManager creates a new moderation manager.
func NewManager(
	bot telegoapi.BotAPI,
	repo database.SubmissionRepository,
	targetChannelID int64,
	adminChecker auth.AdminCheckerInterface,
	adminIDs []int64,
	m *metrics.Metrics,
	mediaGroupMgr *mediagroups.Manager,
) *Manager {
	if bot == nil {
		log.Fatal("Moderation Manager: BotAPI instance is nil")
	}
	if repo == nil {
		log.Fatal("Moderation Manager: Submission repository is nil")
	}
	if targetChannelID == 0 {
		log.Fatal("Moderation Manager: Target channel ID is not set")
	}
	if adminChecker == nil {
		log.Fatal("Moderation Manager: Admin checker is nil")
	}
	if len(adminIDs) == 0 {
		log.Fatal("Moderation Manager: Admin id list is empty")
	}
	if m == nil {
		log.Fatal("Moderation Manager: Metrics is nil")
	}
	if mediaGroupMgr == nil {
		log.Fatal("Moderation Manager: Media group manager is nil")
	}

	return &Manager{
		bot:             bot,
		repo:            repo,
		targetChannelID: targetChannelID,
		adminChecker:    adminChecker,
		adminIDs:        adminIDs,
		metrics:         m,
		mediaGroupMgr:   mediaGroupMgr,
		replyMarkers:    make(map[int64]int64),
	}
}

// SetReplyMarker records that admin's next free-text message is a reply to the
// given submission. A previous marker for the same admin is overwritten.
func (m *Manager) SetReplyMarker(adminID, seqID int64) {
	m.muReplyMarkers.Lock()
	defer m.muReplyMarkers.Unlock()
	m.replyMarkers[adminID] = seqID
}

// takeReplyMarker consumes the admin's marker, if any.
func (m *Manager) takeReplyMarker(adminID int64) (int64, bool) {
	m.muReplyMarkers.Lock()
	defer m.muReplyMarkers.Unlock()
	seqID, ok := m.replyMarkers[adminID]
	if ok {
		delete(m.replyMarkers, adminID)
	}
	return seqID, ok
}

// HasReplyMarker reports whether the admin currently has an outstanding marker.
func (m *Manager) HasReplyMarker(adminID int64) bool {
	m.muReplyMarkers.Lock()
	defer m.muReplyMarkers.Unlock()
	_, ok := m.replyMarkers[adminID]
	return ok
}
