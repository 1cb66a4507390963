package message

import (
	"errors"
	"strings"

	"github.com/puls-academy/backend/internal/models"
	"gorm.io/gorm"
)

var (
	errStudentsMessageAdminOnly = errors.New("message students may only message the admin")
	errRecipientNotFound        = errors.New("message recipient not found")
	errEmptyContent             = errors.New("message empty content")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Send delivers a direct message. Students may only write to the admin;
// messages between students are not a thing this platform has.
func (s *Service) Send(sender *models.UserModel, receiverID, content string) (*models.MessageModel, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errEmptyContent
	}

	var receiver models.UserModel
	if err := s.db.Select("id, role").Where("id = ?", receiverID).First(&receiver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRecipientNotFound
		}
		return nil, err
	}
	if !sender.IsAdmin() && !receiver.IsAdmin() {
		return nil, errStudentsMessageAdminOnly
	}

	m := &models.MessageModel{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Content:    content,
	}
	return m, s.db.Create(m).Error
}

// Conversation returns the full exchange between the caller and a peer,
// oldest first, and marks the peer's messages as read.
func (s *Service) Conversation(userID, peerID string) ([]models.MessageModel, error) {
	var msgs []models.MessageModel
	err := s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}

	_ = s.db.Model(&models.MessageModel{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", peerID, userID, false).
		Update("is_read", true).Error
	return msgs, nil
}

// ConversationSummary is one row of the admin inbox.
type ConversationSummary struct {
	PeerID      string `json:"peer_id"`
	PeerName    string `json:"peer_name"`
	PeerEmail   string `json:"peer_email"`
	LastMessage string `json:"last_message"`
	LastAt      string `json:"last_at"`
	Unread      int64  `json:"unread"`
}

// Inbox lists every peer the user has exchanged messages with, most recent
// conversation first.
func (s *Service) Inbox(userID string) ([]ConversationSummary, error) {
	var rows []ConversationSummary
	err := s.db.Raw(`
		SELECT peers.peer_id,
		       users.name AS peer_name,
		       users.email AS peer_email,
		       (SELECT content FROM messages m2
		         WHERE (m2.sender_id = peers.peer_id AND m2.receiver_id = ?)
		            OR (m2.sender_id = ? AND m2.receiver_id = peers.peer_id)
		         ORDER BY m2.created_at DESC LIMIT 1) AS last_message,
		       MAX(peers.created_at) AS last_at,
		       SUM(CASE WHEN peers.sender_id = peers.peer_id AND peers.is_read = 0 THEN 1 ELSE 0 END) AS unread
		FROM (
			SELECT *,
			       CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS peer_id
			FROM messages
			WHERE sender_id = ? OR receiver_id = ?
		) AS peers
		JOIN users ON users.id = peers.peer_id
		GROUP BY peers.peer_id, users.name, users.email
		ORDER BY last_at DESC`,
		userID, userID, userID, userID, userID).
		Scan(&rows).Error
	return rows, err
}

// DeleteConversation removes every message between the caller and a peer,
// in both directions.
func (s *Service) DeleteConversation(userID, peerID string) error {
	return s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Delete(&models.MessageModel{}).Error
}

func (s *Service) UnreadCount(userID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.MessageModel{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// AdminID resolves the platform admin's user id so students can address
// their messages without knowing it.
func (s *Service) AdminID() (string, error) {
	var admin models.UserModel
	err := s.db.Select("id").
		Where("role = ?", models.RoleAdmin).
		Order("created_at ASC").
		First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errRecipientNotFound
		}
		return "", err
	}
	return admin.ID, nil
}
